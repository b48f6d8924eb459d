package model

import (
	"database/sql"
	"time"
)

// User is a bot user. No personal data beyond the Telegram id is stored;
// TimezoneOffset is the user's UTC offset in minutes and stays NULL
// until the timezone wizard has run.
type User struct {
	ID             int64          `db:"id"`
	TelegramID     int64          `db:"telegram_id"`
	LanguageCode   string         `db:"language_code"`
	TimezoneOffset sql.NullInt64  `db:"timezone_offset"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      sql.NullTime   `db:"updated_at"`
}

// OffsetMinutes returns the timezone offset, zero when unset.
func (u *User) OffsetMinutes() int {
	if u == nil || !u.TimezoneOffset.Valid {
		return 0
	}
	return int(u.TimezoneOffset.Int64)
}

// HasTimezone reports whether the timezone wizard already ran.
func (u *User) HasTimezone() bool {
	return u != nil && u.TimezoneOffset.Valid
}
