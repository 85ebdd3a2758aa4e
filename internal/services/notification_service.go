package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"greekledger/internal/core"
	"greekledger/internal/notify"
	"greekledger/internal/storage"
)

// SenderFactory builds the settings-driven channels for one operation.
type SenderFactory func(core.ChapterSettings) (email, discord notify.MessageSender)

// DefaultSenders builds SMTP and Discord senders from the chapter settings.
func DefaultSenders(s core.ChapterSettings) (notify.MessageSender, notify.MessageSender) {
	return notify.EmailFromSettings(s), notify.DiscordFromSettings(s)
}

var errNoChannel = fmt.Errorf("no notification channel enabled: %w", core.ErrNotConfigured)

type NotificationStoreWithMembers interface {
	NotificationStore
	MemberReader
	SettingsReader
}

// NotificationService sends email and Discord reminders and keeps one
// Notification record per attempt.
type NotificationService struct {
	store   NotificationStoreWithMembers
	senders SenderFactory
	now     func() time.Time
}

func NewNotificationService(store NotificationStoreWithMembers, senders SenderFactory) *NotificationService {
	if senders == nil {
		senders = DefaultSenders
	}
	return &NotificationService{store: store, senders: senders, now: time.Now}
}

type RecipientResult struct {
	MemberID string `json:"memberId"`
	Status   string `json:"status"`
}

type BulkReminderResult struct {
	Message string            `json:"message"`
	Results []RecipientResult `json:"results"`
}

func (s *NotificationService) List(ctx context.Context) ([]core.Notification, error) {
	return s.store.ListNotifications(ctx)
}

// SendReminder emails the member and posts to Discord, whichever is enabled.
func (s *NotificationService) SendReminder(ctx context.Context, memberID string) (core.Notification, error) {
	member, err := s.store.GetMember(ctx, memberID)
	if err != nil {
		return core.Notification{}, err
	}
	if !member.OutstandingBalance.IsPositive() {
		return core.Notification{}, core.ErrNoOutstandingBalance
	}

	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return core.Notification{}, err
	}
	email, discord := s.senders(settings)
	if !email.Enabled() && !discord.Enabled() {
		return core.Notification{}, errNoChannel
	}

	n := core.Notification{
		Type:      core.NotifyPaymentReminder,
		Channel:   primaryChannel(email, discord),
		Recipient: member.Email,
		Subject:   reminderSubject,
		Message:   reminderMessage(member),
		MemberID:  member.ID,
	}
	if err := s.store.CreateNotification(ctx, &n); err != nil {
		return n, err
	}

	var sendErr error
	if email.Enabled() {
		sendErr = errors.Join(sendErr, email.Send(ctx, notify.Message{To: member.Email, Subject: n.Subject, Body: n.Message}))
	}
	if discord.Enabled() {
		sendErr = errors.Join(sendErr, discord.Send(ctx, notify.Message{Body: n.Message}))
	}

	s.finish(ctx, &n, sendErr)
	if sendErr != nil {
		return n, fmt.Errorf("send reminder: %w", sendErr)
	}
	return n, nil
}

// SendBulkReminders emails every active member with a balance. Failures are
// recorded per recipient and never abort the batch.
func (s *NotificationService) SendBulkReminders(ctx context.Context) (BulkReminderResult, error) {
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return BulkReminderResult{}, err
	}
	email, discord := s.senders(settings)
	if !email.Enabled() && !discord.Enabled() {
		return BulkReminderResult{}, errNoChannel
	}

	members, err := owingMembers(ctx, s.store)
	if err != nil {
		return BulkReminderResult{}, err
	}

	results := make([]RecipientResult, 0, len(members))
	sent := 0
	for _, m := range members {
		if ctx.Err() != nil {
			break
		}
		n, err := s.remind(ctx, email, m, reminderSubject, reminderMessage(m))
		status := "sent"
		if err != nil || n.Status != core.NotificationSent {
			status = "failed"
		} else {
			sent++
		}
		results = append(results, RecipientResult{MemberID: m.ID, Status: status})
	}

	slog.InfoContext(ctx, "Bulk reminders finished", "sent", sent, "total", len(results))
	return BulkReminderResult{
		Message: fmt.Sprintf("Sent %d of %d reminders", sent, len(results)),
		Results: results,
	}, nil
}

// remind records a reminder and delivers it by email when email is on.
// Only storage failures are returned; delivery failures land in the
// record's status.
func (s *NotificationService) remind(ctx context.Context, email notify.MessageSender, m core.Member, subject, body string) (core.Notification, error) {
	n := core.Notification{
		Type:      core.NotifyPaymentReminder,
		Channel:   core.ChannelEmail,
		Recipient: m.Email,
		Subject:   subject,
		Message:   body,
		MemberID:  m.ID,
	}
	if err := s.store.CreateNotification(ctx, &n); err != nil {
		return n, err
	}

	var sendErr error
	if email.Enabled() && m.Email != "" {
		sendErr = email.Send(ctx, notify.Message{To: m.Email, Subject: subject, Body: body})
	}
	s.finish(ctx, &n, sendErr)
	return n, nil
}

func (s *NotificationService) finish(ctx context.Context, n *core.Notification, sendErr error) {
	status := core.NotificationSent
	var sentAt *time.Time
	if sendErr != nil {
		status = core.NotificationFailed
		slog.WarnContext(ctx, "Notification delivery failed",
			"notification_id", n.ID, "recipient", n.Recipient, "error", sendErr)
	} else {
		at := s.now().UTC().Truncate(time.Second)
		sentAt = &at
	}
	if err := s.store.MarkNotification(ctx, n.ID, status, sentAt); err != nil {
		slog.ErrorContext(ctx, "Failed to update notification status", "notification_id", n.ID, "error", err)
		return
	}
	n.Status = status
	n.SentAt = sentAt
}

// record stores an already-delivered notification.
func (s *NotificationService) record(ctx context.Context, n core.Notification) {
	at := s.now().UTC().Truncate(time.Second)
	n.Status = core.NotificationSent
	n.SentAt = &at
	if err := s.store.CreateNotification(ctx, &n); err != nil {
		slog.ErrorContext(ctx, "Failed to record notification", "type", n.Type, "error", err)
	}
}

func primaryChannel(email, discord notify.MessageSender) core.Channel {
	if email.Enabled() {
		return core.ChannelEmail
	}
	return discord.Channel()
}

// owingMembers lists active members with a positive balance.
func owingMembers(ctx context.Context, store MemberReader) ([]core.Member, error) {
	members, err := store.ListMembers(ctx, storage.MemberFilter{Status: core.MemberActive})
	if err != nil {
		return nil, err
	}
	out := members[:0]
	for _, m := range members {
		if m.OutstandingBalance.IsPositive() {
			out = append(out, m)
		}
	}
	return out, nil
}
