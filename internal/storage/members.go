package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"greekledger/internal/core"
)

const memberColumns = `id, first_name, last_name, email, phone_number, pledge_class, status,
	dues_owed_cents, dues_paid_cents, outstanding_cents, created_at, updated_at`

// MemberFilter narrows ListMembers. Zero value lists everyone.
type MemberFilter struct {
	Status core.MemberStatus
}

func scanMember(s scanner) (core.Member, error) {
	var (
		m                  core.Member
		createdAt, updated string
	)
	err := s.Scan(&m.ID, &m.FirstName, &m.LastName, &m.Email, &m.PhoneNumber, &m.PledgeClass, &m.Status,
		&m.DuesOwed.Cents, &m.DuesPaid.Cents, &m.OutstandingBalance.Cents, &createdAt, &updated)
	if err != nil {
		return m, err
	}
	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return m, err
	}
	if m.UpdatedAt, err = parseTime(updated); err != nil {
		return m, err
	}
	return m, nil
}

// CreateMember inserts m, assigning its id and timestamps. The outstanding
// balance is derived from dues owed and paid.
func (r *SQLiteRepository) CreateMember(ctx context.Context, m *core.Member) error {
	now := r.timestamp()
	m.ID = newID()
	m.CreatedAt, m.UpdatedAt = now, now
	m.SetDuesOwed(m.DuesOwed)
	_, err := r.db.ExecContext(ctx, `INSERT INTO members (`+memberColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.FirstName, m.LastName, m.Email, m.PhoneNumber, m.PledgeClass, m.Status,
		m.DuesOwed.Cents, m.DuesPaid.Cents, m.OutstandingBalance.Cents, formatTime(now), formatTime(now))
	if err != nil {
		return fmt.Errorf("create member: %w", constraintErr(err, "email "+m.Email))
	}
	slog.InfoContext(ctx, "Member created", "member_id", m.ID, "dues_owed_cents", m.DuesOwed.Cents)
	return nil
}

func getMember(ctx context.Context, q querier, id string) (core.Member, error) {
	m, err := scanMember(q.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM members WHERE id = ?`, id))
	if err != nil {
		return m, notFound(err, "member "+id)
	}
	return m, nil
}

func (r *SQLiteRepository) GetMember(ctx context.Context, id string) (core.Member, error) {
	m, err := getMember(ctx, r.db, id)
	if err != nil {
		return m, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

// GetMemberDetail returns the member with payments and reimbursements attached.
func (r *SQLiteRepository) GetMemberDetail(ctx context.Context, id string) (core.Member, error) {
	m, err := r.GetMember(ctx, id)
	if err != nil {
		return m, err
	}
	if m.Payments, err = r.ListPayments(ctx, PaymentFilter{MemberID: id}); err != nil {
		return m, err
	}
	if m.Reimbursements, err = r.ListReimbursements(ctx, ReimbursementFilter{MemberID: id}); err != nil {
		return m, err
	}
	return m, nil
}

func (r *SQLiteRepository) ListMembers(ctx context.Context, f MemberFilter) ([]core.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members`
	var args []any
	if f.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, f.Status)
	}
	query += ` ORDER BY last_name, first_name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := []core.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// CountActiveMembers is used by scenarios and per-member analytics.
func (r *SQLiteRepository) CountActiveMembers(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM members WHERE status = ?`, core.MemberActive).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active members: %w", err)
	}
	return n, nil
}

// UpdateMember applies u to the stored member inside a transaction.
func (r *SQLiteRepository) UpdateMember(ctx context.Context, id string, u core.MemberUpdate) (core.Member, error) {
	var out core.Member
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		m, err := getMember(ctx, tx, id)
		if err != nil {
			return err
		}
		if m, err = u.Apply(m); err != nil {
			return err
		}
		m.UpdatedAt = r.timestamp()
		if err := saveMember(ctx, tx, m); err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return out, fmt.Errorf("update member: %w", err)
	}
	return out, nil
}

func saveMember(ctx context.Context, q querier, m core.Member) error {
	res, err := q.ExecContext(ctx, `UPDATE members SET first_name = ?, last_name = ?, email = ?,
		phone_number = ?, pledge_class = ?, status = ?, dues_owed_cents = ?, dues_paid_cents = ?,
		outstanding_cents = ?, updated_at = ? WHERE id = ?`,
		m.FirstName, m.LastName, m.Email, m.PhoneNumber, m.PledgeClass, m.Status,
		m.DuesOwed.Cents, m.DuesPaid.Cents, m.OutstandingBalance.Cents, formatTime(m.UpdatedAt), m.ID)
	if err != nil {
		return fmt.Errorf("save member: %w", constraintErr(err, "email "+m.Email))
	}
	return requireAffected(res, "member "+m.ID)
}

func (r *SQLiteRepository) DeleteMember(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	if err := requireAffected(res, "member "+id); err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	slog.InfoContext(ctx, "Member deleted", "member_id", id)
	return nil
}
