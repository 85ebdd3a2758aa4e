package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"greekledger/internal/core"
)

const settingsColumns = `chapter_name, semester_dues_cents, min_reserve_cents, late_fee_percentage,
	late_fee_grace_period, email_enabled, email_host, email_port, email_user, email_password,
	discord_enabled, discord_bot_token, discord_channel_id, reminder_frequency, updated_at`

func getSettings(ctx context.Context, q querier) (core.ChapterSettings, error) {
	var (
		s                  core.ChapterSettings
		lateFee, updatedAt string
		emailOn, discordOn int
	)
	err := q.QueryRowContext(ctx, `SELECT `+settingsColumns+` FROM chapter_settings WHERE id = 1`).Scan(
		&s.ChapterName, &s.SemesterDuesAmount.Cents, &s.MinReserveThreshold.Cents, &lateFee,
		&s.LateFeeGracePeriod, &emailOn, &s.EmailHost, &s.EmailPort, &s.EmailUser, &s.EmailPassword,
		&discordOn, &s.DiscordBotToken, &s.DiscordChannelID, &s.ReminderFrequency, &updatedAt)
	if err != nil {
		return s, err
	}
	if s.LateFeePercentage, err = decimal.NewFromString(lateFee); err != nil {
		return s, fmt.Errorf("parse late fee percentage: %w", err)
	}
	if s.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return s, err
	}
	s.EmailEnabled = emailOn != 0
	s.DiscordEnabled = discordOn != 0
	return s, nil
}

func putSettings(ctx context.Context, q querier, s core.ChapterSettings) error {
	_, err := q.ExecContext(ctx, `INSERT INTO chapter_settings (id, `+settingsColumns+`)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			chapter_name = excluded.chapter_name,
			semester_dues_cents = excluded.semester_dues_cents,
			min_reserve_cents = excluded.min_reserve_cents,
			late_fee_percentage = excluded.late_fee_percentage,
			late_fee_grace_period = excluded.late_fee_grace_period,
			email_enabled = excluded.email_enabled,
			email_host = excluded.email_host,
			email_port = excluded.email_port,
			email_user = excluded.email_user,
			email_password = excluded.email_password,
			discord_enabled = excluded.discord_enabled,
			discord_bot_token = excluded.discord_bot_token,
			discord_channel_id = excluded.discord_channel_id,
			reminder_frequency = excluded.reminder_frequency,
			updated_at = excluded.updated_at`,
		s.ChapterName, s.SemesterDuesAmount.Cents, s.MinReserveThreshold.Cents, s.LateFeePercentage.String(),
		s.LateFeeGracePeriod, boolInt(s.EmailEnabled), s.EmailHost, s.EmailPort, s.EmailUser, s.EmailPassword,
		boolInt(s.DiscordEnabled), s.DiscordBotToken, s.DiscordChannelID, s.ReminderFrequency,
		formatTime(s.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// GetSettings reads the chapter settings row, creating the defaults on first
// use. Every call hits the database so edits made by another process are
// seen immediately. The result includes secrets; callers facing the API must
// use Public().
func (r *SQLiteRepository) GetSettings(ctx context.Context) (core.ChapterSettings, error) {
	var out core.ChapterSettings
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		s, err := getSettings(ctx, tx)
		if errors.Is(err, sql.ErrNoRows) {
			s = core.DefaultSettings()
			s.UpdatedAt = r.timestamp()
			err = putSettings(ctx, tx, s)
		}
		out = s
		return err
	})
	if err != nil {
		return out, fmt.Errorf("get settings: %w", err)
	}
	return out, nil
}

// UpdateSettings merges u into the stored settings.
func (r *SQLiteRepository) UpdateSettings(ctx context.Context, u core.SettingsUpdate) (core.ChapterSettings, error) {
	var out core.ChapterSettings
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		s, err := getSettings(ctx, tx)
		if errors.Is(err, sql.ErrNoRows) {
			s, err = core.DefaultSettings(), nil
		}
		if err != nil {
			return err
		}
		if s, err = s.Apply(u); err != nil {
			return err
		}
		s.UpdatedAt = r.timestamp()
		if err := putSettings(ctx, tx, s); err != nil {
			return err
		}
		out = s
		return nil
	})
	if err != nil {
		return out, fmt.Errorf("update settings: %w", err)
	}
	return out, nil
}
