package notifications

import (
	"context"

	notificationsdomain "foodshare-go/internal/domain/notifications"
	"foodshare-go/pkg/logger"
)

type NotificationService interface {
	List(ctx context.Context, userID string, filter notificationsdomain.ListFilter) ([]notificationsdomain.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, userID string, ids []string) (int64, error)
	Clear(ctx context.Context, userID string) (int64, error)
}

type Handlers struct {
	Notifications NotificationService
	log           logger.Logger
}

func New(notifications NotificationService, log logger.Logger) *Handlers {
	return &Handlers{
		Notifications: notifications,
		log:           log,
	}
}
