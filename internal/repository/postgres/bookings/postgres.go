package bookings

import (
	"context"
	"errors"
	"time"

	bookingsdomain "foodshare-go/internal/domain/bookings"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const viewColumns = `b.id, b.dish_id, b.user_id, b.pickup_time, b.portions, b.status, b.total,
	b.created_at, b.updated_at,
	d.title AS dish_title, d.price AS dish_price, d.owner_id AS owner_id,
	o.name AS owner_name, u.name AS booker_name,
	o.building_id AS building_id, bl.name AS building_name,
	d.portions AS dish_portions,
	(SELECT COALESCE(SUM(c.portions), 0) FROM bookings c
		WHERE c.dish_id = d.id AND c.status IN ?) AS dish_committed`

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type dishRow struct {
	ID            string
	OwnerID       string
	Title         string
	Price         float64
	Portions      int
	Available     bool
	AvailableFrom *time.Time
	AvailableTo   *time.Time
}

type viewRow struct {
	ID            string
	DishID        string
	UserID        string
	PickupTime    time.Time
	Portions      int
	Status        string
	Total         float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DishTitle     string
	DishPrice     float64
	OwnerID       string
	OwnerName     string
	BookerName    string
	BuildingID    *string
	BuildingName  *string
	DishPortions  int
	DishCommitted int
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(bookingsdomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) LockDish(ctx context.Context, dishID string) (*bookingsdomain.DishSnapshot, error) {
	return r.getDish(ctx, dishID, true)
}

func (r *PostgresRepository) GetDish(ctx context.Context, dishID string) (*bookingsdomain.DishSnapshot, error) {
	return r.getDish(ctx, dishID, false)
}

func (r *PostgresRepository) getDish(ctx context.Context, dishID string, lock bool) (*bookingsdomain.DishSnapshot, error) {
	query := r.db.WithContext(ctx).
		Table("dishes").
		Select("id, owner_id, title, price, portions, available, available_from, available_to").
		Where("id = ?", dishID)
	if lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var row dishRow
	if err := query.Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bookingsdomain.ErrDishNotFound
		}
		return nil, err
	}

	return &bookingsdomain.DishSnapshot{
		ID:            row.ID,
		OwnerID:       row.OwnerID,
		Title:         row.Title,
		Price:         row.Price,
		Portions:      row.Portions,
		Available:     row.Available,
		AvailableFrom: row.AvailableFrom,
		AvailableTo:   row.AvailableTo,
	}, nil
}

func (r *PostgresRepository) SumCommittedPortions(ctx context.Context, dishID string, statuses []bookingsdomain.Status) (int, error) {
	var total int
	err := r.db.WithContext(ctx).
		Model(&bookingsdomain.Booking{}).
		Select("COALESCE(SUM(portions), 0)").
		Where("dish_id = ? AND status IN ?", dishID, statusStrings(statuses)).
		Scan(&total).Error
	return total, err
}

func (r *PostgresRepository) CreateBooking(ctx context.Context, booking *bookingsdomain.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *PostgresRepository) GetBooking(ctx context.Context, bookingID string) (*bookingsdomain.BookingView, error) {
	var rows []viewRow
	if err := r.viewQuery(ctx).Where("b.id = ?", bookingID).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, bookingsdomain.ErrBookingNotFound
	}

	view := toView(rows[0])
	return &view, nil
}

func (r *PostgresRepository) LockBooking(ctx context.Context, bookingID string) (*bookingsdomain.Booking, error) {
	var booking bookingsdomain.Booking
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", bookingID).
		First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bookingsdomain.ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, bookingID string, from, to bookingsdomain.Status) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&bookingsdomain.Booking{}).
		Where("id = ? AND status = ?", bookingID, string(from)).
		Updates(map[string]interface{}{
			"status":     string(to),
			"updated_at": time.Now().UTC(),
		})
	return result.RowsAffected > 0, result.Error
}

func (r *PostgresRepository) ListByDish(ctx context.Context, dishID string, statuses []bookingsdomain.Status) ([]bookingsdomain.BookingView, error) {
	return r.listViews(ctx, "b.dish_id = ?", dishID, statuses)
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string, statuses []bookingsdomain.Status) ([]bookingsdomain.BookingView, error) {
	return r.listViews(ctx, "d.owner_id = ?", ownerID, statuses)
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, statuses []bookingsdomain.Status) ([]bookingsdomain.BookingView, error) {
	return r.listViews(ctx, "b.user_id = ?", userID, statuses)
}

func (r *PostgresRepository) listViews(ctx context.Context, condition string, id string, statuses []bookingsdomain.Status) ([]bookingsdomain.BookingView, error) {
	query := r.viewQuery(ctx).Where(condition, id)
	if len(statuses) > 0 {
		query = query.Where("b.status IN ?", statusStrings(statuses))
	}

	var rows []viewRow
	if err := query.Order("b.created_at desc").Scan(&rows).Error; err != nil {
		return nil, err
	}

	views := make([]bookingsdomain.BookingView, 0, len(rows))
	for _, row := range rows {
		views = append(views, toView(row))
	}
	return views, nil
}

func (r *PostgresRepository) viewQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("bookings AS b").
		Select(viewColumns, statusStrings(bookingsdomain.CapacityStatuses)).
		Joins("JOIN dishes d ON d.id = b.dish_id").
		Joins("JOIN users o ON o.id = d.owner_id").
		Joins("JOIN users u ON u.id = b.user_id").
		Joins("LEFT JOIN buildings bl ON bl.id = o.building_id")
}

func toView(row viewRow) bookingsdomain.BookingView {
	return bookingsdomain.BookingView{
		Booking: bookingsdomain.Booking{
			ID:         row.ID,
			DishID:     row.DishID,
			UserID:     row.UserID,
			PickupTime: row.PickupTime,
			Portions:   row.Portions,
			Status:     bookingsdomain.Status(row.Status),
			Total:      row.Total,
			CreatedAt:  row.CreatedAt,
			UpdatedAt:  row.UpdatedAt,
		},
		DishTitle:     row.DishTitle,
		DishPrice:     row.DishPrice,
		OwnerID:       row.OwnerID,
		OwnerName:     row.OwnerName,
		BookerName:    row.BookerName,
		BuildingID:    row.BuildingID,
		BuildingName:  row.BuildingName,
		DishPortions:  row.DishPortions,
		DishCommitted: row.DishCommitted,
	}
}

func statusStrings(statuses []bookingsdomain.Status) []string {
	values := make([]string, 0, len(statuses))
	for _, status := range statuses {
		values = append(values, string(status))
	}
	return values
}
