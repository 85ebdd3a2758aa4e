package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"greekledger/internal/core"
)

// notificationHistoryLimit caps the audit list returned to the API.
const notificationHistoryLimit = 100

func (r *SQLiteRepository) CreateNotification(ctx context.Context, n *core.Notification) error {
	n.ID = newID()
	n.CreatedAt = r.timestamp()
	if n.Status == "" {
		n.Status = core.NotificationPending
	}
	memberID := sql.NullString{String: n.MemberID, Valid: n.MemberID != ""}
	_, err := r.db.ExecContext(ctx, `INSERT INTO notifications
		(id, type, channel, recipient, subject, message, status, member_id, sent_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Type, n.Channel, n.Recipient, n.Subject, n.Message, n.Status, memberID,
		formatNullTime(n.SentAt), formatTime(n.CreatedAt))
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// MarkNotification records the delivery outcome.
func (r *SQLiteRepository) MarkNotification(ctx context.Context, id string, status core.NotificationStatus, sentAt *time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET status = ?, sent_at = ? WHERE id = ?`,
		status, formatNullTime(sentAt), id)
	if err != nil {
		return fmt.Errorf("mark notification: %w", err)
	}
	return requireAffected(res, "notification "+id)
}

// ListNotifications returns the most recent notifications, newest first.
func (r *SQLiteRepository) ListNotifications(ctx context.Context) ([]core.Notification, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, type, channel, recipient, subject, message, status,
		member_id, sent_at, created_at FROM notifications ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		notificationHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := []core.Notification{}
	for rows.Next() {
		var (
			n         core.Notification
			memberID  sql.NullString
			sentAt    sql.NullString
			createdAt string
		)
		if err := rows.Scan(&n.ID, &n.Type, &n.Channel, &n.Recipient, &n.Subject, &n.Message, &n.Status,
			&memberID, &sentAt, &createdAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.MemberID = memberID.String
		if n.SentAt, err = parseNullTime(sentAt); err != nil {
			return nil, err
		}
		if n.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
