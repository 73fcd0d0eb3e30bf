package email

import (
	"context"
	"fmt"
	"net/smtp"

	"foodshare-go/internal/config"
	"foodshare-go/pkg/logger"
)

// Sender delivers a fully formatted message (headers and body).
type Sender interface {
	Send(ctx context.Context, to []string, subject string, rawMessage []byte) error
}

type SMTPSender struct {
	from string
	auth smtp.Auth
	addr string
	log  logger.Logger
}

// NewSender returns an SMTP sender, or a logging sender when no SMTP host is configured.
func NewSender(cfg config.MailConfig, log logger.Logger) Sender {
	if cfg.SMTPHost == "" {
		log.Warn("email: SMTP host not configured, using logging sender")
		return &LoggingSender{log: log}
	}

	var auth smtp.Auth
	if cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
	}

	return &SMTPSender{
		from: cfg.FromAddress,
		auth: auth,
		addr: fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		log:  log,
	}
}

func (s *SMTPSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := smtp.SendMail(s.addr, s.auth, s.from, to, rawMessage); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	s.log.Info("email: sent", "to", to, "subject", subject)
	return nil
}

type LoggingSender struct {
	log logger.Logger
}

func NewLoggingSender(log logger.Logger) *LoggingSender {
	return &LoggingSender{log: log}
}

func (s *LoggingSender) Send(_ context.Context, to []string, subject string, rawMessage []byte) error {
	s.log.Info("email: logged instead of sent", "to", to, "subject", subject, "raw", string(rawMessage))
	return nil
}
