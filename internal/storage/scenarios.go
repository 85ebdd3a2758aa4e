package storage

import (
	"context"
	"fmt"

	"greekledger/internal/core"
)

func (r *SQLiteRepository) CreateScenario(ctx context.Context, sc *core.Scenario) error {
	sc.ID = newID()
	if sc.CreatedAt.IsZero() {
		sc.CreatedAt = r.timestamp()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO scenarios (id, name, member_count, dues_amount_cents,
		expected_expenses_cents, total_dues_income_cents, projected_surplus_cents, max_event_budget_cents,
		per_member_budget_cents, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sc.ID, sc.Name, sc.MemberCount, sc.DuesAmount.Cents, sc.ExpectedExpenses.Cents, sc.TotalDuesIncome.Cents,
		sc.ProjectedSurplus.Cents, sc.MaxEventBudget.Cents, sc.PerMemberBudget.Cents, formatTime(sc.CreatedAt))
	if err != nil {
		return fmt.Errorf("create scenario: %w", err)
	}
	return nil
}

// ListScenarios returns saved scenarios, newest first.
func (r *SQLiteRepository) ListScenarios(ctx context.Context) ([]core.Scenario, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, member_count, dues_amount_cents, expected_expenses_cents,
		total_dues_income_cents, projected_surplus_cents, max_event_budget_cents, per_member_budget_cents, created_at
		FROM scenarios ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	defer rows.Close()

	out := []core.Scenario{}
	for rows.Next() {
		var (
			sc        core.Scenario
			createdAt string
		)
		if err := rows.Scan(&sc.ID, &sc.Name, &sc.MemberCount, &sc.DuesAmount.Cents, &sc.ExpectedExpenses.Cents,
			&sc.TotalDuesIncome.Cents, &sc.ProjectedSurplus.Cents, &sc.MaxEventBudget.Cents,
			&sc.PerMemberBudget.Cents, &createdAt); err != nil {
			return nil, fmt.Errorf("scan scenario: %w", err)
		}
		if sc.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteScenario(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scenarios WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete scenario: %w", err)
	}
	if err := requireAffected(res, "scenario "+id); err != nil {
		return fmt.Errorf("delete scenario: %w", err)
	}
	return nil
}
