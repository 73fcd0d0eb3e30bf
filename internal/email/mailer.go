package email

import (
	"context"
	"time"

	userdomain "foodshare-go/internal/domain/user"
)

// DirectMailer sends verification mail synchronously. Used when no task queue is available.
type DirectMailer struct {
	sender Sender
	from   string
	now    func() time.Time
}

func NewDirectMailer(sender Sender, from string) *DirectMailer {
	return &DirectMailer{sender: sender, from: from, now: time.Now}
}

func (m *DirectMailer) SendVerification(ctx context.Context, msg userdomain.VerificationMessage) error {
	mail := VerificationMessage(m.from, msg.Email, msg.Name, msg.Code, msg.ExpiresAt)
	return m.sender.Send(ctx, []string{msg.Email}, mail.Subject, mail.Raw(m.now()))
}
