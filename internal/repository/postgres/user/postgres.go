package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"foodshare-go/internal/db"
	userdomain "foodshare-go/internal/domain/user"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	emailUniqueIndex     = "users_email_key"
	apartmentUniqueIndex = "users_building_apartment_key"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateUser(ctx context.Context, user *userdomain.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505" && pgErr.ConstraintName == emailUniqueIndex:
			return userdomain.ErrEmailTaken
		case pgErr.Code == "23505" && pgErr.ConstraintName == apartmentUniqueIndex:
			return userdomain.ErrApartmentTaken
		case pgErr.Code == "23503":
			return userdomain.ErrBuildingNotFound
		}
	}
	return err
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*userdomain.User, error) {
	var user userdomain.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, userdomain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	var user userdomain.User
	if err := r.db.WithContext(ctx).Where("lower(email) = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, userdomain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *PostgresRepository) GetSession(ctx context.Context, id string) (*userdomain.User, *userdomain.Building, error) {
	user, err := r.GetUserByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if user.BuildingID == nil {
		return user, nil, nil
	}

	building, err := r.GetBuilding(ctx, *user.BuildingID)
	if err != nil {
		if errors.Is(err, userdomain.ErrBuildingNotFound) {
			return user, nil, nil
		}
		return nil, nil, err
	}
	return user, building, nil
}

func (r *PostgresRepository) ListUsers(ctx context.Context, filter userdomain.ListUsersFilter) ([]userdomain.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&userdomain.User{})
	if filter.Query != "" {
		like := db.ContainsPattern(filter.Query)
		query = query.Where(`(email ILIKE ? ESCAPE '\' OR name ILIKE ? ESCAPE '\')`, like, like)
	}
	if filter.BuildingID != "" {
		query = query.Where("building_id = ?", filter.BuildingID)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at desc").Limit(filter.Limit)
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var users []userdomain.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *PostgresRepository) SetVerificationCode(ctx context.Context, id, code string, expiresAt time.Time) error {
	return r.updateUser(ctx, id, map[string]interface{}{
		"verification_code":       code,
		"verification_expires_at": expiresAt,
	})
}

func (r *PostgresRepository) MarkEmailVerified(ctx context.Context, id string) error {
	return r.updateUser(ctx, id, map[string]interface{}{
		"email_verified":          true,
		"verification_code":       nil,
		"verification_expires_at": nil,
	})
}

func (r *PostgresRepository) SetBlocked(ctx context.Context, id string, blocked bool) error {
	return r.updateUser(ctx, id, map[string]interface{}{"blocked": blocked})
}

func (r *PostgresRepository) updateUser(ctx context.Context, id string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(&userdomain.User{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return userdomain.ErrUserNotFound
	}
	return nil
}

func (r *PostgresRepository) CreateBuilding(ctx context.Context, building *userdomain.Building) error {
	return r.db.WithContext(ctx).Create(building).Error
}

func (r *PostgresRepository) GetBuilding(ctx context.Context, id string) (*userdomain.Building, error) {
	var building userdomain.Building
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&building).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, userdomain.ErrBuildingNotFound
		}
		return nil, err
	}
	return &building, nil
}

func (r *PostgresRepository) ListBuildings(ctx context.Context) ([]userdomain.Building, error) {
	var buildings []userdomain.Building
	if err := r.db.WithContext(ctx).Order("name asc").Find(&buildings).Error; err != nil {
		return nil, err
	}
	return buildings, nil
}
