package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"greekledger/internal/core"
)

const eventColumns = `id, name, description, date, category, status, planned_budget_cents,
	actual_spent_cents, budget_breakdown, actual_breakdown, created_at`

func encodeBreakdown(b map[string]core.Money) (string, error) {
	if b == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("encode breakdown: %w", err)
	}
	return string(raw), nil
}

func decodeBreakdown(s string) (map[string]core.Money, error) {
	out := map[string]core.Money{}
	if s == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("decode breakdown: %w", err)
	}
	return out, nil
}

func scanEvent(s scanner) (core.Event, error) {
	var (
		e                    core.Event
		date, createdAt      string
		budgetRaw, actualRaw string
	)
	err := s.Scan(&e.ID, &e.Name, &e.Description, &date, &e.Category, &e.Status, &e.PlannedBudget.Cents,
		&e.ActualSpent.Cents, &budgetRaw, &actualRaw, &createdAt)
	if err != nil {
		return e, err
	}
	if e.Date, err = parseTime(date); err != nil {
		return e, err
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return e, err
	}
	if e.BudgetBreakdown, err = decodeBreakdown(budgetRaw); err != nil {
		return e, err
	}
	if e.ActualBreakdown, err = decodeBreakdown(actualRaw); err != nil {
		return e, err
	}
	return e, nil
}

func getEvent(ctx context.Context, q querier, id string) (core.Event, error) {
	e, err := scanEvent(q.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
	if err != nil {
		return e, notFound(err, "event "+id)
	}
	return e, nil
}

func listEventExpenses(ctx context.Context, q querier, eventID string) ([]core.EventExpense, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, event_id, description, amount_cents, category, date
		FROM event_expenses WHERE event_id = ? ORDER BY date DESC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list event expenses: %w", err)
	}
	defer rows.Close()

	out := []core.EventExpense{}
	for rows.Next() {
		var (
			x    core.EventExpense
			date string
		)
		if err := rows.Scan(&x.ID, &x.EventID, &x.Description, &x.Amount.Cents, &x.Category, &date); err != nil {
			return nil, fmt.Errorf("scan event expense: %w", err)
		}
		if x.Date, err = parseTime(date); err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateEvent(ctx context.Context, e *core.Event) error {
	budget, err := encodeBreakdown(e.BudgetBreakdown)
	if err != nil {
		return err
	}
	actual, err := encodeBreakdown(e.ActualBreakdown)
	if err != nil {
		return err
	}
	e.ID = newID()
	e.CreatedAt = r.timestamp()
	e.ActualSpent = core.Money{}
	_, err = r.db.ExecContext(ctx, `INSERT INTO events (`+eventColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.Description, formatTime(e.Date), e.Category, e.Status, e.PlannedBudget.Cents,
		e.ActualSpent.Cents, budget, actual, formatTime(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	slog.InfoContext(ctx, "Event created", "event_id", e.ID, "planned_cents", e.PlannedBudget.Cents)
	return nil
}

// GetEvent returns the event with its expenses.
func (r *SQLiteRepository) GetEvent(ctx context.Context, id string) (core.Event, error) {
	e, err := getEvent(ctx, r.db, id)
	if err != nil {
		return e, fmt.Errorf("get event: %w", err)
	}
	if e.Expenses, err = listEventExpenses(ctx, r.db, id); err != nil {
		return e, err
	}
	return e, nil
}

// ListEvents returns events newest first, without expenses.
func (r *SQLiteRepository) ListEvents(ctx context.Context) ([]core.Event, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events ORDER BY date DESC`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	out := []core.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountUpcomingEvents counts events on or after now that are not cancelled.
func (r *SQLiteRepository) CountUpcomingEvents(ctx context.Context, now time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE date >= ? AND status != ?`,
		formatTime(now), core.EventCancelled).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count upcoming events: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) UpdateEvent(ctx context.Context, id string, u core.EventUpdate) (core.Event, error) {
	var out core.Event
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		e, err := getEvent(ctx, tx, id)
		if err != nil {
			return err
		}
		if e, err = u.Apply(e); err != nil {
			return err
		}
		budget, err := encodeBreakdown(e.BudgetBreakdown)
		if err != nil {
			return err
		}
		actual, err := encodeBreakdown(e.ActualBreakdown)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE events SET name = ?, description = ?, date = ?, category = ?,
			status = ?, planned_budget_cents = ?, budget_breakdown = ?, actual_breakdown = ? WHERE id = ?`,
			e.Name, e.Description, formatTime(e.Date), e.Category, e.Status, e.PlannedBudget.Cents,
			budget, actual, e.ID)
		if err != nil {
			return fmt.Errorf("save event: %w", err)
		}
		out = e
		return nil
	})
	if err != nil {
		return out, fmt.Errorf("update event: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) DeleteEvent(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if err := requireAffected(res, "event "+id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// AddEventExpense inserts x and recomputes the event's actual spend from
// all of its expenses in the same transaction.
func (r *SQLiteRepository) AddEventExpense(ctx context.Context, eventID string, x *core.EventExpense) (core.Event, error) {
	var out core.Event
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		e, err := getEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		x.ID = newID()
		x.EventID = eventID
		if x.Date.IsZero() {
			x.Date = r.timestamp()
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO event_expenses (id, event_id, description, amount_cents, category, date)
			VALUES (?, ?, ?, ?, ?, ?)`,
			x.ID, x.EventID, x.Description, x.Amount.Cents, x.Category, formatTime(x.Date))
		if err != nil {
			return fmt.Errorf("insert event expense: %w", err)
		}

		var total int64
		err = tx.QueryRowContext(ctx, `SELECT COALESCE(SUM(amount_cents), 0) FROM event_expenses WHERE event_id = ?`,
			eventID).Scan(&total)
		if err != nil {
			return fmt.Errorf("sum event expenses: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE events SET actual_spent_cents = ? WHERE id = ?`, total, eventID); err != nil {
			return fmt.Errorf("update actual spent: %w", err)
		}
		e.ActualSpent = core.Money{Cents: total}
		if e.Expenses, err = listEventExpenses(ctx, tx, eventID); err != nil {
			return err
		}
		out = e
		return nil
	})
	if err != nil {
		return out, fmt.Errorf("add event expense: %w", err)
	}
	slog.InfoContext(ctx, "Event expense added", "event_id", eventID, "actual_spent_cents", out.ActualSpent.Cents)
	return out, nil
}
