package storage

import (
	"context"
	"database/sql"
	"fmt"

	"greekledger/internal/core"
)

const recurringColumns = `id, name, type, amount_cents, category, frequency, start_date, end_date, is_active`

func scanRecurring(s scanner) (core.RecurringTransaction, error) {
	var (
		rt     core.RecurringTransaction
		start  string
		end    sql.NullString
		active int
	)
	err := s.Scan(&rt.ID, &rt.Name, &rt.Type, &rt.Amount.Cents, &rt.Category, &rt.Frequency, &start, &end, &active)
	if err != nil {
		return rt, err
	}
	if rt.StartDate, err = parseTime(start); err != nil {
		return rt, err
	}
	if rt.EndDate, err = parseNullTime(end); err != nil {
		return rt, err
	}
	rt.IsActive = active != 0
	return rt, nil
}

func (r *SQLiteRepository) CreateRecurring(ctx context.Context, rt *core.RecurringTransaction) error {
	rt.ID = newID()
	_, err := r.db.ExecContext(ctx, `INSERT INTO recurring_transactions (`+recurringColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rt.ID, rt.Name, rt.Type, rt.Amount.Cents, rt.Category, rt.Frequency,
		formatTime(rt.StartDate), formatNullTime(rt.EndDate), boolInt(rt.IsActive))
	if err != nil {
		return fmt.Errorf("create recurring transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetRecurring(ctx context.Context, id string) (core.RecurringTransaction, error) {
	rt, err := scanRecurring(r.db.QueryRowContext(ctx, `SELECT `+recurringColumns+` FROM recurring_transactions WHERE id = ?`, id))
	if err != nil {
		return rt, fmt.Errorf("get recurring transaction: %w", notFound(err, "recurring transaction "+id))
	}
	return rt, nil
}

// ListActiveRecurring returns active transactions, latest start first.
func (r *SQLiteRepository) ListActiveRecurring(ctx context.Context) ([]core.RecurringTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+recurringColumns+` FROM recurring_transactions
		WHERE is_active = 1 ORDER BY start_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("list recurring transactions: %w", err)
	}
	defer rows.Close()

	out := []core.RecurringTransaction{}
	for rows.Next() {
		rt, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring transaction: %w", err)
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

// UpdateRecurring replaces every field of the stored transaction.
func (r *SQLiteRepository) UpdateRecurring(ctx context.Context, rt core.RecurringTransaction) error {
	res, err := r.db.ExecContext(ctx, `UPDATE recurring_transactions SET name = ?, type = ?, amount_cents = ?,
		category = ?, frequency = ?, start_date = ?, end_date = ?, is_active = ? WHERE id = ?`,
		rt.Name, rt.Type, rt.Amount.Cents, rt.Category, rt.Frequency,
		formatTime(rt.StartDate), formatNullTime(rt.EndDate), boolInt(rt.IsActive), rt.ID)
	if err != nil {
		return fmt.Errorf("update recurring transaction: %w", err)
	}
	if err := requireAffected(res, "recurring transaction "+rt.ID); err != nil {
		return fmt.Errorf("update recurring transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteRecurring(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recurring_transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recurring transaction: %w", err)
	}
	if err := requireAffected(res, "recurring transaction "+id); err != nil {
		return fmt.Errorf("delete recurring transaction: %w", err)
	}
	return nil
}

// CurrentBalance is everything collected minus paid reimbursements and
// event expenses.
func (r *SQLiteRepository) CurrentBalance(ctx context.Context) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx, `SELECT
		(SELECT COALESCE(SUM(amount_cents), 0) FROM payments)
		- (SELECT COALESCE(SUM(amount_cents), 0) FROM reimbursements WHERE status = ?)
		- (SELECT COALESCE(SUM(amount_cents), 0) FROM event_expenses)`,
		core.ReimbursementPaid).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("current balance: %w", err)
	}
	return core.Money{Cents: cents}, nil
}
