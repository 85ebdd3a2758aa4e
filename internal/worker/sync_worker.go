package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"greekledger/internal/amqp"
	"greekledger/internal/core"
	"greekledger/internal/sheets"
	"greekledger/internal/storage"
)

// PaymentStore is the slice of the repository the sync worker needs.
type PaymentStore interface {
	GetPayment(ctx context.Context, id string) (core.Payment, error)
	GetMember(ctx context.Context, id string) (core.Member, error)
	ListPayments(ctx context.Context, f storage.PaymentFilter) ([]core.Payment, error)
	MarkPaymentSynced(ctx context.Context, id string, at time.Time) error
}

// SyncWorker mirrors ledger movements from SQLite to the spreadsheet.
type SyncWorker struct {
	storage   PaymentStore
	sheets    sheets.LedgerWriter
	batchSize int
	now       func() time.Time
}

func NewSyncWorker(storage PaymentStore, sheets sheets.LedgerWriter, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &SyncWorker{
		storage:   storage,
		sheets:    sheets,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// HandleLedgerEvent processes a single ledger event from AMQP.
func (w *SyncWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"type", msg.Type,
		"payment_id", msg.PaymentID)

	switch msg.Type {
	case amqp.PaymentRecorded:
		return w.handleRecorded(ctx, msg)
	case amqp.PaymentDeleted:
		return w.handleDeleted(ctx, msg)
	default:
		return fmt.Errorf("unknown ledger event type %q", msg.Type)
	}
}

func (w *SyncWorker) handleRecorded(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	payment, err := w.storage.GetPayment(ctx, msg.PaymentID)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted before the worker caught up; the delete event writes nothing
		// to reverse either, so the pair cancels out.
		slog.WarnContext(ctx, "Payment no longer exists, skipping", "payment_id", msg.PaymentID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get payment from storage: %w", err)
	}
	if payment.SyncedAt != nil {
		slog.InfoContext(ctx, "Payment already synced", "payment_id", payment.ID)
		return nil
	}

	row := sheets.LedgerRow{
		Date:        payment.PaymentDate,
		Kind:        amqp.PaymentRecorded,
		PaymentID:   payment.ID,
		MemberName:  msg.MemberName,
		Semester:    payment.Semester,
		Amount:      payment.Amount,
		LateFee:     payment.LateFee,
		Outstanding: core.Money{Cents: msg.OutstandingCents},
		Notes:       payment.Notes,
	}
	return w.syncPayment(ctx, row)
}

func (w *SyncWorker) handleDeleted(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	row := sheets.LedgerRow{
		Date:        msg.Timestamp,
		Kind:        amqp.PaymentDeleted,
		PaymentID:   msg.PaymentID,
		MemberName:  msg.MemberName,
		Semester:    msg.Semester,
		Amount:      core.Money{Cents: -msg.AmountCents},
		LateFee:     core.Money{Cents: -msg.LateFeeCents},
		Outstanding: core.Money{Cents: msg.OutstandingCents},
		Notes:       "reversal of payment dated " + msg.PaymentDate.Format("2006-01-02"),
	}
	ref, err := w.sheets.AppendLedgerRow(ctx, row)
	if err != nil {
		return fmt.Errorf("append reversal to sheets: %w", err)
	}
	slog.InfoContext(ctx, "Successfully wrote payment reversal",
		"payment_id", msg.PaymentID,
		"sheets_ref", ref,
		"amount_cents", msg.AmountCents)
	return nil
}

// StartupSyncCheck syncs payments that never reached the sheet, covering
// lost messages and worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.ListPayments(ctx, storage.PaymentFilter{Unsynced: true, Limit: w.batchSize * 5})
	if err != nil {
		return fmt.Errorf("get pending payments for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending payments found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending payments on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	// Oldest first so the sheet stays in ledger order.
	for i := len(pending) - 1; i >= 0; i-- {
		payment := pending[i]
		member, err := w.storage.GetMember(ctx, payment.MemberID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get member for startup sync",
				"payment_id", payment.ID, "error", err)
			errorCount++
			continue
		}

		row := sheets.LedgerRow{
			Date:        payment.PaymentDate,
			Kind:        amqp.PaymentRecorded,
			PaymentID:   payment.ID,
			MemberName:  member.FullName(),
			Semester:    payment.Semester,
			Amount:      payment.Amount,
			LateFee:     payment.LateFee,
			Outstanding: member.OutstandingBalance,
			Notes:       payment.Notes,
		}
		if err := w.syncPayment(ctx, row); err != nil {
			slog.ErrorContext(ctx, "Failed to sync payment during startup",
				"payment_id", payment.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)

	return nil
}

func (w *SyncWorker) syncPayment(ctx context.Context, row sheets.LedgerRow) error {
	ref, err := w.sheets.AppendLedgerRow(ctx, row)
	if err != nil {
		return fmt.Errorf("append to sheets: %w", err)
	}

	if err := w.storage.MarkPaymentSynced(ctx, row.PaymentID, w.now()); err != nil {
		// The row is written; a retry would duplicate it, so only log.
		slog.ErrorContext(ctx, "Failed to mark as synced", "payment_id", row.PaymentID, "error", err)
	}

	slog.InfoContext(ctx, "Successfully synced payment",
		"payment_id", row.PaymentID,
		"sheets_ref", ref,
		"amount_cents", row.Amount.Cents)
	return nil
}
