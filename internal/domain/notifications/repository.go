package notifications

import "context"

type Repository interface {
	Create(ctx context.Context, notification *Notification) error
	List(ctx context.Context, userID string, filter ListFilter) ([]Notification, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, userID string, ids []string) (int64, error)
	DeleteAll(ctx context.Context, userID string) (int64, error)
}

// Publisher pushes a stored notification to live subscribers.
type Publisher interface {
	Publish(ctx context.Context, notification Notification) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, Notification) error {
	return nil
}
