package notify

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"greekledger/internal/core"
)

type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Email sends plain-text mail through the chapter's SMTP account.
type Email struct {
	from   string
	dialer mailDialer
}

// EmailFromSettings builds the SMTP sender from the chapter settings. Port
// 465 switches gomail to implicit TLS.
func EmailFromSettings(s core.ChapterSettings) MessageSender {
	if !s.EmailConfigured() {
		return NewDisabled(core.ChannelEmail, "email notifications not configured")
	}
	port := s.EmailPort
	if port == 0 {
		port = core.DefaultEmailPort
	}
	d := gomail.NewDialer(s.EmailHost, port, s.EmailUser, s.EmailPassword)
	d.SSL = port == 465
	return &Email{from: s.EmailUser, dialer: d}
}

func (e *Email) Channel() core.Channel { return core.ChannelEmail }

func (e *Email) Enabled() bool { return true }

func (e *Email) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("email recipient required: %w", core.ErrValidation)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", e.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	if err := e.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email to %s: %w", msg.To, err)
	}
	return nil
}
