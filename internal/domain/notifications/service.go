package notifications

import (
	"context"
	"fmt"
	"strings"

	"foodshare-go/pkg/logger"
	"github.com/google/uuid"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type Service struct {
	repo      Repository
	publisher Publisher
	log       logger.Logger
	newID     func() string
}

func NewService(repo Repository, publisher Publisher, log logger.Logger) *Service {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		log:       log,
		newID:     uuid.NewString,
	}
}

// Notify stores and publishes a notification. Failures are logged and never returned:
// the mutation that triggered the notification has already been committed.
func (s *Service) Notify(ctx context.Context, input CreateInput) {
	notification, err := s.Create(ctx, input)
	if err != nil {
		s.log.InternalError("notifications.notify: create failed", err, "user_id", input.UserID, "type", input.Type)
		return
	}

	if err := s.publisher.Publish(ctx, *notification); err != nil {
		s.log.InternalError("notifications.notify: publish failed", err, "user_id", input.UserID, "notification_id", notification.ID)
	}
}

func (s *Service) Create(ctx context.Context, input CreateInput) (*Notification, error) {
	message := strings.TrimSpace(input.Message)
	if input.UserID == "" || input.Type == "" || message == "" {
		return nil, fmt.Errorf("%w: user, type and message are required", ErrInvalidInput)
	}

	notification := Notification{
		ID:      s.newID(),
		UserID:  input.UserID,
		Type:    input.Type,
		Message: message,
	}
	if err := s.repo.Create(ctx, &notification); err != nil {
		return nil, err
	}
	return &notification, nil
}

func (s *Service) List(ctx context.Context, userID string, filter ListFilter) ([]Notification, error) {
	switch {
	case filter.Limit <= 0:
		filter.Limit = defaultListLimit
	case filter.Limit > maxListLimit:
		filter.Limit = maxListLimit
	}
	return s.repo.List(ctx, userID, filter)
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

// MarkRead flags the given notifications of userID as read; no ids marks all of them.
func (s *Service) MarkRead(ctx context.Context, userID string, ids []string) (int64, error) {
	cleaned := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, err := uuid.Parse(id); err != nil {
			return 0, fmt.Errorf("%w: invalid id %q", ErrInvalidInput, id)
		}
		cleaned = append(cleaned, id)
	}
	return s.repo.MarkRead(ctx, userID, cleaned)
}

func (s *Service) Clear(ctx context.Context, userID string) (int64, error) {
	return s.repo.DeleteAll(ctx, userID)
}
