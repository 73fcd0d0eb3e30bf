package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	userdomain "foodshare-go/internal/domain/user"
	"foodshare-go/internal/email"
	"foodshare-go/pkg/logger"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const (
	TypeVerificationEmail = "email:verification"

	QueueCritical = "critical"
	QueueDefault  = "default"

	verificationMaxRetry = 5
)

type VerificationEmailPayload struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

func redisOpt(rdb *redis.Client) asynq.RedisClientOpt {
	opts := rdb.Options()
	return asynq.RedisClientOpt{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}
}

// Client enqueues background work. It implements the user service's verification mailer.
type Client struct {
	client *asynq.Client
	log    logger.Logger
}

func NewClient(rdb *redis.Client, log logger.Logger) *Client {
	return &Client{client: asynq.NewClient(redisOpt(rdb)), log: log}
}

func (c *Client) SendVerification(ctx context.Context, msg userdomain.VerificationMessage) error {
	task, err := NewVerificationEmailTask(msg)
	if err != nil {
		return err
	}

	info, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueCritical),
		asynq.MaxRetry(verificationMaxRetry),
		asynq.Deadline(msg.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", TypeVerificationEmail, err)
	}

	c.log.Debug("tasks: enqueued", "type", info.Type, "id", info.ID, "queue", info.Queue)
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func NewVerificationEmailTask(msg userdomain.VerificationMessage) (*asynq.Task, error) {
	payload, err := json.Marshal(VerificationEmailPayload{
		Email:     msg.Email,
		Name:      msg.Name,
		Code:      msg.Code,
		ExpiresAt: msg.ExpiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal verification payload: %w", err)
	}
	return asynq.NewTask(TypeVerificationEmail, payload), nil
}

// Processor holds the dependencies of task handlers.
type Processor struct {
	sender email.Sender
	from   string
	log    logger.Logger
	now    func() time.Time
}

func NewProcessor(sender email.Sender, from string, log logger.Logger) *Processor {
	return &Processor{sender: sender, from: from, log: log, now: time.Now}
}

func (p *Processor) HandleVerificationEmail(ctx context.Context, t *asynq.Task) error {
	var payload VerificationEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal verification payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.Email == "" || payload.Code == "" {
		return fmt.Errorf("verification payload missing email or code: %w", asynq.SkipRetry)
	}
	if !payload.ExpiresAt.IsZero() && p.now().After(payload.ExpiresAt) {
		p.log.Info("tasks: verification code expired before delivery", "email", payload.Email)
		return nil
	}

	msg := email.VerificationMessage(p.from, payload.Email, payload.Name, payload.Code, payload.ExpiresAt)
	if err := p.sender.Send(ctx, []string{payload.Email}, msg.Subject, msg.Raw(p.now())); err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}
	return nil
}

func NewServeMux(p *Processor) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeVerificationEmail, p.HandleVerificationEmail)
	return mux
}

func NewServer(rdb *redis.Client, concurrency int, log logger.Logger) *asynq.Server {
	if concurrency <= 0 {
		concurrency = 5
	}

	return asynq.NewServer(redisOpt(rdb), asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueCritical: 6,
			QueueDefault:  3,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.InternalError("tasks: handler failed", err, "type", task.Type())
		}),
	})
}
