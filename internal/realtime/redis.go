package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	notificationsdomain "foodshare-go/internal/domain/notifications"
	"github.com/redis/go-redis/v9"
)

const channelPrefix = "notifications:"

type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func Channel(userID string) string {
	return channelPrefix + userID
}

// RedisPublisher fans stored notifications out on a per-user Redis channel.
type RedisPublisher struct {
	client redis.UniversalClient
}

func NewRedisPublisher(client redis.UniversalClient) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, n notificationsdomain.Notification) error {
	payload, err := json.Marshal(Event{
		ID:        n.ID,
		Type:      string(n.Type),
		Message:   n.Message,
		CreatedAt: n.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.client.Publish(ctx, Channel(n.UserID), payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}
