package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"greekledger/internal/amqp"
	"greekledger/internal/core"
)

// LedgerService records and removes payments and announces each movement
// to the ledger mirror.
type LedgerService struct {
	store     PaymentStore
	publisher Publisher
	now       func() time.Time
}

// NewLedgerService builds the service. publisher may be nil when no broker
// is configured.
func NewLedgerService(store PaymentStore, publisher Publisher) *LedgerService {
	return &LedgerService{store: store, publisher: publisher, now: time.Now}
}

// RecordPayment saves p, credits the member and publishes payment.recorded.
// The semester is inferred from the payment date when omitted.
func (s *LedgerService) RecordPayment(ctx context.Context, p *core.Payment) (core.Member, error) {
	if p.PaymentDate.IsZero() {
		p.PaymentDate = s.now().UTC().Truncate(time.Second)
	}
	if p.Semester == "" {
		p.Semester = core.SemesterFor(p.PaymentDate)
	}
	if err := p.Validate(); err != nil {
		return core.Member{}, err
	}

	member, err := s.store.RecordPayment(ctx, p)
	if err != nil {
		return member, err
	}

	// Publish async sync message; the payment is already durable.
	if err := s.publish(ctx, amqp.NewLedgerEventMessage(amqp.PaymentRecorded, *p, member)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"payment_id", p.ID, "error", err)
	}
	return member, nil
}

// DeletePayment removes a payment, reverses it on the member and publishes
// payment.deleted.
func (s *LedgerService) DeletePayment(ctx context.Context, id string) (core.Payment, error) {
	payment, member, err := s.store.DeletePayment(ctx, id)
	if err != nil {
		return payment, err
	}

	if err := s.publish(ctx, amqp.NewLedgerEventMessage(amqp.PaymentDeleted, payment, member)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"payment_id", id, "error", err)
	}
	return payment, nil
}

func (s *LedgerService) publish(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping ledger event", "type", msg.Type)
		return nil
	}
	if err := s.publisher.PublishLedgerEvent(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", msg.Type, err)
	}
	return nil
}
