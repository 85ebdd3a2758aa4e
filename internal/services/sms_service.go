package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"greekledger/internal/core"
	"greekledger/internal/notify"
)

// DefaultSMSDelay spaces bulk sends to stay under provider rate limits.
const DefaultSMSDelay = time.Second

type SMSStore interface {
	MemberReader
	SettingsReader
	BalanceReader
	NotificationStore
}

// SMSService sends Twilio text messages to members and the treasurer.
type SMSService struct {
	store  SMSStore
	sender notify.MessageSender
	delay  time.Duration
	now    func() time.Time
}

func NewSMSService(store SMSStore, sender notify.MessageSender, delay time.Duration) *SMSService {
	if sender == nil {
		sender = notify.NewDisabled(core.ChannelSMS, "twilio not configured")
	}
	return &SMSService{store: store, sender: sender, delay: delay, now: time.Now}
}

func (s *SMSService) Enabled() bool { return s.sender.Enabled() }

type SMSBulkResult struct {
	Message string `json:"message"`
	Sent    int    `json:"sent"`
	Failed  int    `json:"failed"`
}

// MemberLink pairs a member with a hosted payment page.
type MemberLink struct {
	MemberID    string     `json:"memberId"`
	MemberName  string     `json:"memberName,omitempty"`
	Amount      core.Money `json:"amount"`
	PaymentLink string     `json:"paymentLink"`
}

func (s *SMSService) SendReminder(ctx context.Context, memberID, paymentLink string) error {
	member, err := s.textableMember(ctx, memberID)
	if err != nil {
		return err
	}
	return s.send(ctx, member, core.NotifyPaymentReminder, smsReminderMessage(member, paymentLink))
}

// SendBulkReminders texts every active member with a balance and a phone
// number, pausing between sends. Failures are counted, not returned.
func (s *SMSService) SendBulkReminders(ctx context.Context, links []MemberLink) (SMSBulkResult, error) {
	if !s.sender.Enabled() {
		return SMSBulkResult{}, s.sender.Send(ctx, notify.Message{})
	}
	members, err := owingMembers(ctx, s.store)
	if err != nil {
		return SMSBulkResult{}, err
	}

	byMember := make(map[string]string, len(links))
	for _, l := range links {
		byMember[l.MemberID] = l.PaymentLink
	}

	var res SMSBulkResult
	first := true
	for _, m := range members {
		if m.PhoneNumber == "" {
			continue
		}
		if !first {
			if err := sleep(ctx, s.delay); err != nil {
				break
			}
		}
		first = false

		if err := s.send(ctx, m, core.NotifyPaymentReminder, smsReminderMessage(m, byMember[m.ID])); err != nil {
			res.Failed++
			continue
		}
		res.Sent++
	}
	res.Message = "SMS reminders sent"
	slog.InfoContext(ctx, "Bulk SMS finished", "sent", res.Sent, "failed", res.Failed)
	return res, nil
}

func (s *SMSService) SendConfirmation(ctx context.Context, memberID string, amount core.Money) error {
	if err := amount.Validate(); err != nil {
		return err
	}
	member, err := s.textableMember(ctx, memberID)
	if err != nil {
		return err
	}
	return s.send(ctx, member, core.NotifyPaymentConfirmation, smsConfirmationMessage(member, amount))
}

func (s *SMSService) SendCustom(ctx context.Context, memberID, message string) error {
	if strings.TrimSpace(message) == "" {
		return core.Invalid("Message is required")
	}
	member, err := s.textableMember(ctx, memberID)
	if err != nil {
		return err
	}
	return s.send(ctx, member, core.NotifyCustom, message)
}

// SendLowReserveAlert texts phone when the chapter balance is under the
// reserve threshold. It reports whether an alert went out.
func (s *SMSService) SendLowReserveAlert(ctx context.Context, phone string) (bool, error) {
	if strings.TrimSpace(phone) == "" {
		return false, core.Invalid("phone number is required")
	}
	if !s.sender.Enabled() {
		return false, s.sender.Send(ctx, notify.Message{})
	}
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return false, err
	}
	balance, err := s.store.CurrentBalance(ctx)
	if err != nil {
		return false, err
	}
	if balance.Cents >= settings.MinReserveThreshold.Cents {
		return false, nil
	}
	body := smsLowReserveMessage(balance, settings.MinReserveThreshold)
	if err := s.sender.Send(ctx, notify.Message{To: phone, Body: body}); err != nil {
		return false, err
	}
	s.audit(ctx, core.Notification{Type: core.NotifyLowReserves, Channel: core.ChannelSMS, Recipient: phone, Message: body}, nil)
	return true, nil
}

func (s *SMSService) textableMember(ctx context.Context, memberID string) (core.Member, error) {
	if !s.sender.Enabled() {
		return core.Member{}, s.sender.Send(ctx, notify.Message{})
	}
	member, err := s.store.GetMember(ctx, memberID)
	if err != nil {
		return member, err
	}
	if member.PhoneNumber == "" {
		return member, core.Invalid("member has no phone number")
	}
	return member, nil
}

func (s *SMSService) send(ctx context.Context, m core.Member, kind core.NotificationType, body string) error {
	err := s.sender.Send(ctx, notify.Message{To: m.PhoneNumber, Body: body})
	s.audit(ctx, core.Notification{
		Type:      kind,
		Channel:   core.ChannelSMS,
		Recipient: notify.NormalizePhone(m.PhoneNumber),
		Message:   body,
		MemberID:  m.ID,
	}, err)
	if err != nil {
		return fmt.Errorf("send sms to member %s: %w", m.ID, err)
	}
	return nil
}

func (s *SMSService) audit(ctx context.Context, n core.Notification, sendErr error) {
	if sendErr != nil {
		n.Status = core.NotificationFailed
	} else {
		at := s.now().UTC().Truncate(time.Second)
		n.Status = core.NotificationSent
		n.SentAt = &at
	}
	if err := s.store.CreateNotification(ctx, &n); err != nil {
		slog.ErrorContext(ctx, "Failed to record SMS notification", "member_id", n.MemberID, "error", err)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
