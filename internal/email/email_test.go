package email

import (
	"context"
	"strings"
	"testing"
	"time"

	userdomain "foodshare-go/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	args := m.Called(ctx, to, subject, rawMessage)
	return args.Error(0)
}

func TestVerificationMessageRaw(t *testing.T) {
	expires := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	msg := VerificationMessage("no-reply@foodshare.local", "ann@example.com", "Ann", "123456", expires)

	raw := string(msg.Raw(expires.Add(-15 * time.Minute)))
	assert.True(t, strings.HasPrefix(raw, "To: ann@example.com\r\n"))
	assert.Contains(t, raw, "From: no-reply@foodshare.local\r\n")
	assert.Contains(t, raw, "Subject: Your FoodShare verification code\r\n")
	assert.Contains(t, raw, "Hi Ann,")
	assert.Contains(t, raw, "123456")
	assert.Contains(t, raw, "2026-03-01 10:30 UTC")
	assert.NotContains(t, strings.ReplaceAll(raw, "\r\n", ""), "\n")
}

func TestDirectMailerSendsVerification(t *testing.T) {
	sender := new(mockSender)
	sender.On("Send", mock.Anything, []string{"ann@example.com"}, "Your FoodShare verification code",
		mock.MatchedBy(func(raw []byte) bool { return strings.Contains(string(raw), "654321") })).
		Return(nil).Once()

	mailer := NewDirectMailer(sender, "no-reply@foodshare.local")
	err := mailer.SendVerification(context.Background(), userdomain.VerificationMessage{
		Email:     "ann@example.com",
		Name:      "Ann",
		Code:      "654321",
		ExpiresAt: time.Now().Add(15 * time.Minute),
	})
	require.NoError(t, err)
	sender.AssertExpectations(t)
}
