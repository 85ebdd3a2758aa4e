package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"greekledger/internal/core"
)

const paymentColumns = `p.id, p.member_id, p.amount_cents, p.late_fee_cents, p.payment_date, p.semester,
	p.notes, p.created_at, p.synced_at, p.external_ref, m.first_name, m.last_name, m.email`

const paymentFrom = ` FROM payments p JOIN members m ON m.id = p.member_id`

// PaymentFilter narrows ListPayments. ExternalRef matches exactly. Limit <= 0
// means no limit.
type PaymentFilter struct {
	MemberID      string
	NotesContains string
	ExternalRef   string
	Unsynced      bool
	Limit         int
}

func scanPayment(s scanner) (core.Payment, error) {
	var (
		p                 core.Payment
		ref               core.MemberRef
		paidOn, createdAt string
		syncedAt, extRef  sql.NullString
	)
	err := s.Scan(&p.ID, &p.MemberID, &p.Amount.Cents, &p.LateFee.Cents, &paidOn, &p.Semester,
		&p.Notes, &createdAt, &syncedAt, &extRef, &ref.FirstName, &ref.LastName, &ref.Email)
	if err != nil {
		return p, err
	}
	p.ExternalRef = extRef.String
	if p.PaymentDate, err = parseTime(paidOn); err != nil {
		return p, err
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return p, err
	}
	if p.SyncedAt, err = parseNullTime(syncedAt); err != nil {
		return p, err
	}
	ref.ID = p.MemberID
	p.Member = &ref
	return p, nil
}

func getPayment(ctx context.Context, q querier, id string) (core.Payment, error) {
	p, err := scanPayment(q.QueryRowContext(ctx, `SELECT `+paymentColumns+paymentFrom+` WHERE p.id = ?`, id))
	if err != nil {
		return p, notFound(err, "payment "+id)
	}
	return p, nil
}

func (r *SQLiteRepository) GetPayment(ctx context.Context, id string) (core.Payment, error) {
	p, err := getPayment(ctx, r.db, id)
	if err != nil {
		return p, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

// RecordPayment stores p and credits the member ledger in one transaction.
// It returns the member as updated.
func (r *SQLiteRepository) RecordPayment(ctx context.Context, p *core.Payment) (core.Member, error) {
	var member core.Member
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		m, err := getMember(ctx, tx, p.MemberID)
		if err != nil {
			return err
		}
		now := r.timestamp()
		p.ID = newID()
		p.CreatedAt = now
		if p.PaymentDate.IsZero() {
			p.PaymentDate = now
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO payments
			(id, member_id, amount_cents, late_fee_cents, payment_date, semester, notes, created_at, external_ref)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.MemberID, p.Amount.Cents, p.LateFee.Cents, formatTime(p.PaymentDate), p.Semester,
			p.Notes, formatTime(now), sql.NullString{String: p.ExternalRef, Valid: p.ExternalRef != ""})
		if err != nil {
			return fmt.Errorf("insert payment: %w", constraintErr(err, "payment "+p.ExternalRef))
		}

		core.ApplyPayment(&m, p.Amount)
		m.UpdatedAt = now
		if err := saveMember(ctx, tx, m); err != nil {
			return err
		}
		p.Member = m.Ref()
		member = m
		return nil
	})
	if err != nil {
		return member, fmt.Errorf("record payment: %w", err)
	}

	slog.InfoContext(ctx, "Payment recorded",
		"payment_id", p.ID,
		"member_id", p.MemberID,
		"amount_cents", p.Amount.Cents,
		"outstanding_cents", member.OutstandingBalance.Cents)
	return member, nil
}

// DeletePayment removes a payment and reverses it on the member ledger in
// one transaction. It returns the deleted payment and the updated member.
func (r *SQLiteRepository) DeletePayment(ctx context.Context, id string) (core.Payment, core.Member, error) {
	var (
		payment core.Payment
		member  core.Member
	)
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		p, err := getPayment(ctx, tx, id)
		if err != nil {
			return err
		}
		m, err := getMember(ctx, tx, p.MemberID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM payments WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete payment row: %w", err)
		}
		core.ReversePayment(&m, p.Amount)
		m.UpdatedAt = r.timestamp()
		if err := saveMember(ctx, tx, m); err != nil {
			return err
		}
		payment, member = p, m
		return nil
	})
	if err != nil {
		return payment, member, fmt.Errorf("delete payment: %w", err)
	}

	slog.InfoContext(ctx, "Payment deleted",
		"payment_id", id,
		"member_id", member.ID,
		"amount_cents", payment.Amount.Cents,
		"outstanding_cents", member.OutstandingBalance.Cents)
	return payment, member, nil
}

// UpdatePayment edits the descriptive fields of a payment.
func (r *SQLiteRepository) UpdatePayment(ctx context.Context, id string, u core.PaymentUpdate) (core.Payment, error) {
	var out core.Payment
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		p, err := getPayment(ctx, tx, id)
		if err != nil {
			return err
		}
		if p, err = u.Apply(p); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE payments SET late_fee_cents = ?, payment_date = ?, semester = ?,
			notes = ? WHERE id = ?`,
			p.LateFee.Cents, formatTime(p.PaymentDate), p.Semester, p.Notes, p.ID)
		if err != nil {
			return fmt.Errorf("save payment: %w", err)
		}
		out = p
		return nil
	})
	if err != nil {
		return out, fmt.Errorf("update payment: %w", err)
	}
	return out, nil
}

// ListPayments returns payments newest first.
func (r *SQLiteRepository) ListPayments(ctx context.Context, f PaymentFilter) ([]core.Payment, error) {
	query := `SELECT ` + paymentColumns + paymentFrom + ` WHERE 1 = 1`
	var args []any
	if f.MemberID != "" {
		query += ` AND p.member_id = ?`
		args = append(args, f.MemberID)
	}
	if f.NotesContains != "" {
		query += ` AND instr(p.notes, ?) > 0`
		args = append(args, f.NotesContains)
	}
	if f.ExternalRef != "" {
		query += ` AND p.external_ref = ?`
		args = append(args, f.ExternalRef)
	}
	if f.Unsynced {
		query += ` AND p.synced_at IS NULL`
	}
	query += ` ORDER BY p.payment_date DESC, p.created_at DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	payments := []core.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// MarkPaymentSynced records that the ledger mirror has the payment.
func (r *SQLiteRepository) MarkPaymentSynced(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE payments SET synced_at = ? WHERE id = ?`, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("mark payment synced: %w", err)
	}
	return requireAffected(res, "payment "+id)
}
