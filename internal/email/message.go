package email

import (
	"fmt"
	"strings"
	"time"
)

type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Raw renders the message as a plain text RFC 5322 message.
func (m Message) Raw(now time.Time) []byte {
	var sb strings.Builder
	sb.WriteString("To: " + m.To + "\r\n")
	sb.WriteString("From: " + m.From + "\r\n")
	sb.WriteString("Subject: " + m.Subject + "\r\n")
	sb.WriteString("Date: " + now.Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(strings.ReplaceAll(m.Body, "\n", "\r\n"))
	sb.WriteString("\r\n")
	return []byte(sb.String())
}

func VerificationMessage(from, to, name, code string, expiresAt time.Time) Message {
	greeting := "Hi"
	if name != "" {
		greeting = "Hi " + name
	}
	body := fmt.Sprintf("%s,\n\nYour FoodShare verification code is %s.\nIt expires at %s.\n\nIf you did not sign up, ignore this email.",
		greeting, code, expiresAt.UTC().Format("2006-01-02 15:04 MST"))

	return Message{
		From:    from,
		To:      to,
		Subject: "Your FoodShare verification code",
		Body:    body,
	}
}
