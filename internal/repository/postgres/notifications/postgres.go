package notifications

import (
	"context"

	notificationsdomain "foodshare-go/internal/domain/notifications"
	"gorm.io/gorm"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, notification *notificationsdomain.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *PostgresRepository) List(ctx context.Context, userID string, filter notificationsdomain.ListFilter) ([]notificationsdomain.Notification, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if filter.UnreadOnly {
		query = query.Where("read = ?", false)
	}

	var items []notificationsdomain.Notification
	if err := query.Order("created_at desc").Limit(filter.Limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PostgresRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&notificationsdomain.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (r *PostgresRepository) MarkRead(ctx context.Context, userID string, ids []string) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&notificationsdomain.Notification{}).
		Where("user_id = ? AND read = ?", userID, false)
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	}

	result := query.Update("read", true)
	return result.RowsAffected, result.Error
}

func (r *PostgresRepository) DeleteAll(ctx context.Context, userID string) (int64, error) {
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&notificationsdomain.Notification{})
	return result.RowsAffected, result.Error
}
