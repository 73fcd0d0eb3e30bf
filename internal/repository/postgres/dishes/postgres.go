package dishes

import (
	"context"
	"errors"
	"time"

	"foodshare-go/internal/db"
	bookingsdomain "foodshare-go/internal/domain/bookings"
	dishesdomain "foodshare-go/internal/domain/dishes"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const viewColumns = `d.*,
	d.portions - COALESCE((
		SELECT SUM(b.portions) FROM bookings b WHERE b.dish_id = d.id AND b.status IN ?
	), 0) AS available_portions,
	o.name AS owner_name, o.building_id AS building_id, bl.name AS building_name,
	EXISTS (SELECT 1 FROM likes l WHERE l.dish_id = d.id AND l.user_id::text = ?) AS liked_by_me`

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type viewRow struct {
	ID                string
	OwnerID           string
	Title             string
	Description       string
	Price             float64
	Portions          int
	Ingredients       datatypes.JSONSlice[string]
	Images            datatypes.JSONSlice[string]
	Available         bool
	AvailableFrom     *time.Time
	AvailableTo       *time.Time
	LikesCount        int
	CreatedAt         time.Time
	UpdatedAt         time.Time
	AvailablePortions int
	OwnerName         string
	BuildingID        *string
	BuildingName      *string
	LikedByMe         bool
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(dishesdomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) CreateDish(ctx context.Context, dish *dishesdomain.Dish) error {
	return r.db.WithContext(ctx).Create(dish).Error
}

func (r *PostgresRepository) GetDishView(ctx context.Context, dishID, viewerID string, statuses []bookingsdomain.Status) (*dishesdomain.DishView, error) {
	var rows []viewRow
	err := r.viewQuery(ctx, viewerID, statuses).
		Where("d.id = ?", dishID).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, dishesdomain.ErrDishNotFound
	}

	view := toView(rows[0])
	return &view, nil
}

func (r *PostgresRepository) LockDish(ctx context.Context, dishID string) (*dishesdomain.Dish, error) {
	var dish dishesdomain.Dish
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", dishID).
		First(&dish).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, dishesdomain.ErrDishNotFound
		}
		return nil, err
	}
	return &dish, nil
}

func (r *PostgresRepository) UpdateDish(ctx context.Context, dish *dishesdomain.Dish) error {
	result := r.db.WithContext(ctx).
		Model(&dishesdomain.Dish{}).
		Where("id = ?", dish.ID).
		Updates(map[string]interface{}{
			"title":          dish.Title,
			"description":    dish.Description,
			"price":          dish.Price,
			"portions":       dish.Portions,
			"ingredients":    dish.Ingredients,
			"images":         dish.Images,
			"available":      dish.Available,
			"available_from": dish.AvailableFrom,
			"available_to":   dish.AvailableTo,
			"updated_at":     time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return dishesdomain.ErrDishNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteDish(ctx context.Context, dishID string) error {
	result := r.db.WithContext(ctx).Where("id = ?", dishID).Delete(&dishesdomain.Dish{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return dishesdomain.ErrDishNotFound
	}
	return nil
}

func (r *PostgresRepository) SumCommittedPortions(ctx context.Context, dishID string, statuses []bookingsdomain.Status) (int, error) {
	var total int
	err := r.db.WithContext(ctx).
		Table("bookings").
		Select("COALESCE(SUM(portions), 0)").
		Where("dish_id = ? AND status IN ?", dishID, statusStrings(statuses)).
		Scan(&total).Error
	return total, err
}

func (r *PostgresRepository) ListBookerIDs(ctx context.Context, dishID string, statuses []bookingsdomain.Status) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Table("bookings").
		Distinct("user_id").
		Where("dish_id = ? AND status IN ?", dishID, statusStrings(statuses)).
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *PostgresRepository) CountDishes(ctx context.Context, filter dishesdomain.ListFilter, statuses []bookingsdomain.Status) (int64, error) {
	query := r.db.WithContext(ctx).
		Table("dishes AS d").
		Joins("JOIN users o ON o.id = d.owner_id")
	query = applyFilter(query, filter, statuses)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *PostgresRepository) ListDishes(ctx context.Context, filter dishesdomain.ListFilter, statuses []bookingsdomain.Status, limit, offset int) ([]dishesdomain.DishView, error) {
	query := applyFilter(r.viewQuery(ctx, filter.ViewerID, statuses), filter, statuses)

	switch filter.Sort {
	case dishesdomain.SortPriceAsc:
		query = query.Order("d.price asc").Order("d.created_at desc")
	case dishesdomain.SortPriceDesc:
		query = query.Order("d.price desc").Order("d.created_at desc")
	default:
		query = query.Order("d.created_at desc")
	}

	var rows []viewRow
	if err := query.Order("d.id").Limit(limit).Offset(offset).Scan(&rows).Error; err != nil {
		return nil, err
	}

	views := make([]dishesdomain.DishView, 0, len(rows))
	for _, row := range rows {
		views = append(views, toView(row))
	}
	return views, nil
}

func (r *PostgresRepository) DeleteLike(ctx context.Context, dishID, userID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("dish_id = ? AND user_id = ?", dishID, userID).
		Delete(&dishesdomain.Like{})
	return result.RowsAffected > 0, result.Error
}

func (r *PostgresRepository) InsertLike(ctx context.Context, like *dishesdomain.Like) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "dish_id"}},
			DoNothing: true,
		}).
		Create(like)
	return result.RowsAffected == 1, result.Error
}

func (r *PostgresRepository) AdjustLikes(ctx context.Context, dishID string, delta int) (int, error) {
	var count int
	err := r.db.WithContext(ctx).
		Raw("UPDATE dishes SET likes_count = GREATEST(likes_count + ?, 0) WHERE id = ? RETURNING likes_count", delta, dishID).
		Scan(&count).Error
	return count, err
}

func (r *PostgresRepository) viewQuery(ctx context.Context, viewerID string, statuses []bookingsdomain.Status) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("dishes AS d").
		Select(viewColumns, statusStrings(statuses), viewerID).
		Joins("JOIN users o ON o.id = d.owner_id").
		Joins("LEFT JOIN buildings bl ON bl.id = o.building_id")
}

func applyFilter(query *gorm.DB, filter dishesdomain.ListFilter, statuses []bookingsdomain.Status) *gorm.DB {
	if filter.Query != "" {
		like := db.ContainsPattern(filter.Query)
		query = query.Where(`(d.title ILIKE ? ESCAPE '\' OR d.description ILIKE ? ESCAPE '\')`, like, like)
	}
	if filter.BuildingID != nil {
		query = query.Where("o.building_id = ?", *filter.BuildingID)
	}
	if filter.Available != nil {
		query = query.Where("d.available = ?", *filter.Available)
	}
	if filter.MinPrice != nil {
		query = query.Where("d.price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("d.price <= ?", *filter.MaxPrice)
	}
	if filter.PickupDate != nil {
		day := filter.PickupDate.UTC().Truncate(24 * time.Hour)
		query = query.Where(
			"EXISTS (SELECT 1 FROM bookings pb WHERE pb.dish_id = d.id AND pb.status IN ? AND pb.pickup_time >= ? AND pb.pickup_time < ?)",
			statusStrings(statuses), day, day.Add(24*time.Hour),
		)
	}
	return query
}

func toView(row viewRow) dishesdomain.DishView {
	return dishesdomain.DishView{
		Dish: dishesdomain.Dish{
			ID:            row.ID,
			OwnerID:       row.OwnerID,
			Title:         row.Title,
			Description:   row.Description,
			Price:         row.Price,
			Portions:      row.Portions,
			Ingredients:   row.Ingredients,
			Images:        row.Images,
			Available:     row.Available,
			AvailableFrom: row.AvailableFrom,
			AvailableTo:   row.AvailableTo,
			LikesCount:    row.LikesCount,
			CreatedAt:     row.CreatedAt,
			UpdatedAt:     row.UpdatedAt,
		},
		AvailablePortions: row.AvailablePortions,
		OwnerName:         row.OwnerName,
		BuildingID:        row.BuildingID,
		BuildingName:      row.BuildingName,
		LikedByMe:         row.LikedByMe,
	}
}

func statusStrings(statuses []bookingsdomain.Status) []string {
	values := make([]string, 0, len(statuses))
	for _, status := range statuses {
		values = append(values, string(status))
	}
	return values
}
