package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"log/slog"

	"github.com/laefree/ibdiary/core/logger"
	"github.com/laefree/ibdiary/internal/model"
)

const userColumns = `id, telegram_id, language_code, timezone_offset, created_at, updated_at`

// Users manages bot user rows.
type Users struct {
	db *sqlx.DB
}

// NewUsers binds the service to a connection pool.
func NewUsers(db *sqlx.DB) *Users {
	return &Users{db: db}
}

// GetUserByTelegramID returns the user or nil when unknown.
func (s *Users) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u,
		`SELECT `+userColumns+` FROM users WHERE telegram_id = $1`, telegramID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// GetOrCreate returns the existing user or registers a new one. Creation
// is an upsert, so two concurrent first contacts cannot race into a
// duplicate row.
func (s *Users) GetOrCreate(ctx context.Context, telegramID int64, languageCode string) (*model.User, error) {
	if languageCode == "" {
		languageCode = "ru"
	}
	start := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (telegram_id, language_code)
		 VALUES ($1, $2)
		 ON CONFLICT (telegram_id) DO NOTHING`, telegramID, languageCode)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	u, err := s.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("create user: row vanished after upsert")
	}
	logger.SVCUsers.Debug("user resolved",
		slog.String("event", "get_or_create"),
		slog.Int64("user_id", telegramID),
		slog.Duration("duration", logger.Took(start)),
	)
	return u, nil
}

// SetHourOffset stores the hour part of the timezone. Minutes are reset;
// the wizard always asks them right after.
func (s *Users) SetHourOffset(ctx context.Context, telegramID int64, hours int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET timezone_offset = $2, updated_at = now() WHERE telegram_id = $1`,
		telegramID, hours*60)
	if err != nil {
		return fmt.Errorf("set hour offset: %w", err)
	}
	return nil
}

// SetMinuteOffset replaces the minute part of the stored offset,
// keeping the sign of the hour component, and returns the updated user.
// The stored offset may already carry minutes (the hour step can be
// skipped), so the old minute component is stripped before the new one
// is applied.
func (s *Users) SetMinuteOffset(ctx context.Context, telegramID int64, minutes int) (*model.User, error) {
	u, err := s.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("set minute offset: unknown user %d", telegramID)
	}
	offset := u.OffsetMinutes()
	offset -= offset % 60
	if offset >= 0 {
		offset += minutes
	} else {
		offset -= minutes
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE users SET timezone_offset = $2, updated_at = now() WHERE telegram_id = $1`,
		telegramID, offset)
	if err != nil {
		return nil, fmt.Errorf("set minute offset: %w", err)
	}
	u.TimezoneOffset = sql.NullInt64{Int64: int64(offset), Valid: true}
	return u, nil
}

// FormatOffset renders a minute offset as "UTC+03:00"; unset offsets
// render as "не задана".
func FormatOffset(u *model.User) string {
	if u == nil || !u.HasTimezone() {
		return "не задана"
	}
	offset := u.OffsetMinutes()
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	return fmt.Sprintf("UTC%s%02d:%02d", sign, offset/60, offset%60)
}
