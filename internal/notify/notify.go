// Package notify delivers outbound messages over email, Discord and SMS.
// Every channel implements MessageSender; an unconfigured channel is a
// Disabled sender, so callers never branch on configuration.
package notify

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"greekledger/internal/core"
)

// Message is one outbound notification. Discord ignores To and Subject.
type Message struct {
	To      string
	Subject string
	Body    string
}

type MessageSender interface {
	Channel() core.Channel
	Enabled() bool
	Send(ctx context.Context, msg Message) error
}

// Disabled is the sender used when a channel lacks credentials.
type Disabled struct {
	channel core.Channel
	reason  string
}

func NewDisabled(channel core.Channel, reason string) Disabled {
	return Disabled{channel: channel, reason: reason}
}

func (d Disabled) Channel() core.Channel { return d.channel }

func (d Disabled) Enabled() bool { return false }

func (d Disabled) Send(context.Context, Message) error {
	return fmt.Errorf("%s: %w", d.reason, core.ErrNotConfigured)
}

// NormalizePhone formats a number for SMS delivery. Numbers without a
// leading "+" are assumed to be US numbers.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
	return "+1" + digits
}
