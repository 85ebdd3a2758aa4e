package services

import (
	"context"
	"time"

	"greekledger/internal/amqp"
	"greekledger/internal/core"
	"greekledger/internal/storage"
)

// Ports the services need from storage. *storage.SQLiteRepository
// satisfies all of them.
type (
	MemberReader interface {
		GetMember(ctx context.Context, id string) (core.Member, error)
		ListMembers(ctx context.Context, f storage.MemberFilter) ([]core.Member, error)
		CountActiveMembers(ctx context.Context) (int, error)
	}

	SettingsReader interface {
		GetSettings(ctx context.Context) (core.ChapterSettings, error)
	}

	PaymentStore interface {
		RecordPayment(ctx context.Context, p *core.Payment) (core.Member, error)
		DeletePayment(ctx context.Context, id string) (core.Payment, core.Member, error)
		ListPayments(ctx context.Context, f storage.PaymentFilter) ([]core.Payment, error)
	}

	NotificationStore interface {
		CreateNotification(ctx context.Context, n *core.Notification) error
		MarkNotification(ctx context.Context, id string, status core.NotificationStatus, sentAt *time.Time) error
		ListNotifications(ctx context.Context) ([]core.Notification, error)
	}

	BalanceReader interface {
		CurrentBalance(ctx context.Context) (core.Money, error)
	}

	AnalyticsStore interface {
		MemberReader
		ListPayments(ctx context.Context, f storage.PaymentFilter) ([]core.Payment, error)
		ListReimbursements(ctx context.Context, f storage.ReimbursementFilter) ([]core.Reimbursement, error)
		ListEvents(ctx context.Context) ([]core.Event, error)
		CountUpcomingEvents(ctx context.Context, now time.Time) (int, error)
	}

	CashflowStore interface {
		BalanceReader
		SettingsReader
		ListActiveRecurring(ctx context.Context) ([]core.RecurringTransaction, error)
	}

	ScenarioStore interface {
		SettingsReader
		CountActiveMembers(ctx context.Context) (int, error)
		CreateScenario(ctx context.Context, sc *core.Scenario) error
		ListScenarios(ctx context.Context) ([]core.Scenario, error)
		DeleteScenario(ctx context.Context, id string) error
	}

	// Publisher emits ledger events. *amqp.Client satisfies it.
	Publisher interface {
		PublishLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error
	}
)
