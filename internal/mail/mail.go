// Package mail delivers the transactional messages the directory sends:
// account activation links, password reset links, and review notices for
// staff. Delivery is behind a small interface so tests record instead of
// send.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"sync"
)

// Message is a plain-text mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer sends a single message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTP delivers through a relay with no authentication. Addr is host:port.
type SMTP struct {
	Addr string
	From string
}

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("\r\n")
	b.WriteString(msg.Body)

	if err := smtp.SendMail(s.Addr, nil, s.From, []string{msg.To}, []byte(b.String())); err != nil {
		return fmt.Errorf("mail: send to %s: %w", msg.To, err)
	}
	return nil
}

// Log writes messages to the structured log instead of sending them. Used
// when no relay is configured, which is the default in development.
type Log struct {
	Logger *slog.Logger
}

func (l *Log) Send(ctx context.Context, msg Message) error {
	l.Logger.InfoContext(ctx, "mail suppressed, no relay configured",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Body,
	)
	return nil
}

// Outbox records sent messages for tests.
type Outbox struct {
	mu       sync.Mutex
	Messages []Message
}

func (o *Outbox) Send(_ context.Context, msg Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Messages = append(o.Messages, msg)
	return nil
}

// Sent returns a copy of everything recorded so far.
func (o *Outbox) Sent() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Message, len(o.Messages))
	copy(out, o.Messages)
	return out
}
