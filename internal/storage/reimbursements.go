package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"greekledger/internal/core"
)

const reimbursementColumns = `r.id, r.member_id, r.amount_cents, r.description, r.category, r.event, r.status,
	r.receipt_url, r.review_notes, r.submitted_at, r.reviewed_at, r.paid_at,
	m.first_name, m.last_name, m.email`

const reimbursementFrom = ` FROM reimbursements r JOIN members m ON m.id = r.member_id`

// ReimbursementFilter narrows ListReimbursements. Limit <= 0 means no limit.
type ReimbursementFilter struct {
	Status   core.ReimbursementStatus
	MemberID string
	Limit    int
}

func scanReimbursement(s scanner) (core.Reimbursement, error) {
	var (
		rb               core.Reimbursement
		ref              core.MemberRef
		submitted        string
		reviewed, paidAt sql.NullString
	)
	err := s.Scan(&rb.ID, &rb.MemberID, &rb.Amount.Cents, &rb.Description, &rb.Category, &rb.Event, &rb.Status,
		&rb.ReceiptURL, &rb.ReviewNotes, &submitted, &reviewed, &paidAt,
		&ref.FirstName, &ref.LastName, &ref.Email)
	if err != nil {
		return rb, err
	}
	if rb.SubmittedAt, err = parseTime(submitted); err != nil {
		return rb, err
	}
	if rb.ReviewedAt, err = parseNullTime(reviewed); err != nil {
		return rb, err
	}
	if rb.PaidAt, err = parseNullTime(paidAt); err != nil {
		return rb, err
	}
	ref.ID = rb.MemberID
	rb.Member = &ref
	return rb, nil
}

func getReimbursement(ctx context.Context, q querier, id string) (core.Reimbursement, error) {
	rb, err := scanReimbursement(q.QueryRowContext(ctx, `SELECT `+reimbursementColumns+reimbursementFrom+` WHERE r.id = ?`, id))
	if err != nil {
		return rb, notFound(err, "reimbursement "+id)
	}
	return rb, nil
}

// CreateReimbursement files a new PENDING claim for an existing member.
func (r *SQLiteRepository) CreateReimbursement(ctx context.Context, rb *core.Reimbursement) error {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		m, err := getMember(ctx, tx, rb.MemberID)
		if err != nil {
			return err
		}
		rb.ID = newID()
		rb.Status = core.ReimbursementPending
		rb.SubmittedAt = r.timestamp()
		rb.Member = m.Ref()
		_, err = tx.ExecContext(ctx, `INSERT INTO reimbursements
			(id, member_id, amount_cents, description, category, event, status, receipt_url, review_notes, submitted_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rb.ID, rb.MemberID, rb.Amount.Cents, rb.Description, rb.Category, rb.Event, rb.Status,
			rb.ReceiptURL, rb.ReviewNotes, formatTime(rb.SubmittedAt))
		if err != nil {
			return fmt.Errorf("insert reimbursement: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("create reimbursement: %w", err)
	}
	slog.InfoContext(ctx, "Reimbursement submitted", "reimbursement_id", rb.ID, "member_id", rb.MemberID, "amount_cents", rb.Amount.Cents)
	return nil
}

func (r *SQLiteRepository) GetReimbursement(ctx context.Context, id string) (core.Reimbursement, error) {
	rb, err := getReimbursement(ctx, r.db, id)
	if err != nil {
		return rb, fmt.Errorf("get reimbursement: %w", err)
	}
	return rb, nil
}

// ListReimbursements returns claims newest first.
func (r *SQLiteRepository) ListReimbursements(ctx context.Context, f ReimbursementFilter) ([]core.Reimbursement, error) {
	query := `SELECT ` + reimbursementColumns + reimbursementFrom + ` WHERE 1 = 1`
	var args []any
	if f.Status != "" {
		query += ` AND r.status = ?`
		args = append(args, f.Status)
	}
	if f.MemberID != "" {
		query += ` AND r.member_id = ?`
		args = append(args, f.MemberID)
	}
	query += ` ORDER BY r.submitted_at DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reimbursements: %w", err)
	}
	defer rows.Close()

	out := []core.Reimbursement{}
	for rows.Next() {
		rb, err := scanReimbursement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reimbursement: %w", err)
		}
		out = append(out, rb)
	}
	return out, rows.Err()
}

func saveReimbursement(ctx context.Context, q querier, rb core.Reimbursement) error {
	_, err := q.ExecContext(ctx, `UPDATE reimbursements SET amount_cents = ?, description = ?, category = ?,
		event = ?, status = ?, receipt_url = ?, review_notes = ?, reviewed_at = ?, paid_at = ? WHERE id = ?`,
		rb.Amount.Cents, rb.Description, rb.Category, rb.Event, rb.Status, rb.ReceiptURL, rb.ReviewNotes,
		formatNullTime(rb.ReviewedAt), formatNullTime(rb.PaidAt), rb.ID)
	if err != nil {
		return fmt.Errorf("save reimbursement: %w", err)
	}
	return nil
}

// UpdateReimbursement edits the details of a pending claim.
func (r *SQLiteRepository) UpdateReimbursement(ctx context.Context, id string, u core.ReimbursementUpdate) (core.Reimbursement, error) {
	var out core.Reimbursement
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		rb, err := getReimbursement(ctx, tx, id)
		if err != nil {
			return err
		}
		if rb, err = u.Apply(rb); err != nil {
			return err
		}
		if err := saveReimbursement(ctx, tx, rb); err != nil {
			return err
		}
		out = rb
		return nil
	})
	if err != nil {
		return out, fmt.Errorf("update reimbursement: %w", err)
	}
	return out, nil
}

// TransitionReimbursement moves a claim through its review states.
func (r *SQLiteRepository) TransitionReimbursement(ctx context.Context, id string, next core.ReimbursementStatus, notes string) (core.Reimbursement, error) {
	var out core.Reimbursement
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		rb, err := getReimbursement(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := rb.Transition(next, notes, r.timestamp()); err != nil {
			return err
		}
		if err := saveReimbursement(ctx, tx, rb); err != nil {
			return err
		}
		out = rb
		return nil
	})
	if err != nil {
		return out, fmt.Errorf("transition reimbursement: %w", err)
	}
	slog.InfoContext(ctx, "Reimbursement status changed", "reimbursement_id", id, "status", next)
	return out, nil
}

// DeleteReimbursement removes a claim and returns it so the caller can clean
// up the stored receipt.
func (r *SQLiteRepository) DeleteReimbursement(ctx context.Context, id string) (core.Reimbursement, error) {
	var out core.Reimbursement
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		rb, err := getReimbursement(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM reimbursements WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete reimbursement row: %w", err)
		}
		out = rb
		return nil
	})
	if err != nil {
		return out, fmt.Errorf("delete reimbursement: %w", err)
	}
	return out, nil
}
