package services

import (
	"context"
	"log/slog"

	"greekledger/internal/core"
	"greekledger/internal/notify"
)

type ReminderStore interface {
	NotificationStoreWithMembers
	BalanceReader
}

// ReminderJobs holds the scheduled sweeps run by the reminder worker.
type ReminderJobs struct {
	store         ReminderStore
	notifications *NotificationService
	sms           *SMSService
	senders       SenderFactory
}

func NewReminderJobs(store ReminderStore, notifications *NotificationService, sms *SMSService, senders SenderFactory) *ReminderJobs {
	if senders == nil {
		senders = DefaultSenders
	}
	return &ReminderJobs{store: store, notifications: notifications, sms: sms, senders: senders}
}

// WeeklyReminders emails each owing member, texts them when Twilio is
// configured, then posts a summary to Discord.
func (j *ReminderJobs) WeeklyReminders(ctx context.Context) error {
	settings, err := j.store.GetSettings(ctx)
	if err != nil {
		return err
	}
	email, discord := j.senders(settings)
	if !email.Enabled() && !discord.Enabled() {
		slog.InfoContext(ctx, "Weekly reminders skipped, no channel enabled")
		return nil
	}

	members, err := owingMembers(ctx, j.store)
	if err != nil {
		return err
	}

	var total core.Money
	sent := 0
	for _, m := range members {
		total = total.Add(m.OutstandingBalance)
		if !email.Enabled() {
			continue
		}
		n, err := j.notifications.remind(ctx, email, m, weeklyReminderSubject, weeklyReminderMessage(m))
		if err != nil {
			return err
		}
		if n.Status == core.NotificationSent {
			sent++
		}
	}

	if j.sms != nil && j.sms.Enabled() {
		res, err := j.sms.SendBulkReminders(ctx, nil)
		if err != nil {
			slog.ErrorContext(ctx, "Weekly SMS reminders failed", "error", err)
		} else {
			slog.InfoContext(ctx, "Weekly SMS reminders sent", "sent", res.Sent, "failed", res.Failed)
		}
	}

	if discord.Enabled() && len(members) > 0 {
		if err := discord.Send(ctx, notify.Message{Body: weeklyDiscordSummary(len(members), total)}); err != nil {
			slog.ErrorContext(ctx, "Weekly Discord summary failed", "error", err)
		}
	}

	slog.InfoContext(ctx, "Weekly reminders finished", "owing", len(members), "emailed", sent)
	return nil
}

// ReserveCheck records a LOW_RESERVES notification and alerts Discord when
// the balance is under the configured threshold.
func (j *ReminderJobs) ReserveCheck(ctx context.Context) error {
	settings, err := j.store.GetSettings(ctx)
	if err != nil {
		return err
	}
	balance, err := j.store.CurrentBalance(ctx)
	if err != nil {
		return err
	}
	if balance.Cents >= settings.MinReserveThreshold.Cents {
		slog.DebugContext(ctx, "Reserve level ok", "balance_cents", balance.Cents)
		return nil
	}

	body := lowReserveMessage(balance, settings.MinReserveThreshold)
	_, discord := j.senders(settings)
	j.notifications.record(ctx, core.Notification{
		Type:      core.NotifyLowReserves,
		Channel:   core.ChannelDiscord,
		Recipient: "treasurer",
		Subject:   lowReserveSubject,
		Message:   body,
	})
	if discord.Enabled() {
		if err := discord.Send(ctx, notify.Message{Subject: lowReserveSubject, Body: body}); err != nil {
			slog.ErrorContext(ctx, "Low reserve alert failed", "error", err)
		}
	}
	slog.WarnContext(ctx, "Reserve below threshold",
		"balance_cents", balance.Cents,
		"threshold_cents", settings.MinReserveThreshold.Cents)
	return nil
}
