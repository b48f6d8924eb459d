package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laefree/ibdiary/internal/model"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return sqlx.NewDb(db, "sqlmock"), mock
}

func userRow(telegramID int64, offset any) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "telegram_id", "language_code", "timezone_offset", "created_at", "updated_at",
	}).AddRow(int64(1), telegramID, "ru", offset, time.Now(), nil)
}

func TestUsersGetByTelegramIDUnknown(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewUsers(db)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE telegram_id = \$1`).
		WithArgs(int64(200)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	u, err := svc.GetUserByTelegramID(context.Background(), 200)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestUsersGetOrCreateUpserts(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewUsers(db)

	mock.ExpectExec(`INSERT INTO users \(telegram_id, language_code\)`).
		WithArgs(int64(200), "en").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT .+ FROM users WHERE telegram_id = \$1`).
		WithArgs(int64(200)).
		WillReturnRows(userRow(200, nil))

	u, err := svc.GetOrCreate(context.Background(), 200, "en")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, int64(200), u.TelegramID)
	assert.False(t, u.HasTimezone())
}

func TestUsersGetOrCreateDefaultsLanguage(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewUsers(db)

	mock.ExpectExec(`INSERT INTO users \(telegram_id, language_code\)`).
		WithArgs(int64(200), "ru").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT .+ FROM users WHERE telegram_id = \$1`).
		WithArgs(int64(200)).
		WillReturnRows(userRow(200, int64(180)))

	u, err := svc.GetOrCreate(context.Background(), 200, "")
	require.NoError(t, err)
	assert.Equal(t, 180, u.OffsetMinutes())
}

func TestUsersSetHourOffsetStoresMinutes(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewUsers(db)

	mock.ExpectExec(`UPDATE users SET timezone_offset = \$2`).
		WithArgs(int64(200), -180).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.SetHourOffset(context.Background(), 200, -3))
}

func TestUsersSetMinuteOffsetKeepsHourSign(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewUsers(db)

	// Stored hour part is UTC-03:00; adding 30 minutes must produce
	// -210, not -150.
	mock.ExpectQuery(`SELECT .+ FROM users WHERE telegram_id = \$1`).
		WithArgs(int64(200)).
		WillReturnRows(userRow(200, int64(-180)))
	mock.ExpectExec(`UPDATE users SET timezone_offset = \$2`).
		WithArgs(int64(200), -210).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u, err := svc.SetMinuteOffset(context.Background(), 200, 30)
	require.NoError(t, err)
	assert.Equal(t, -210, u.OffsetMinutes())
}

func TestUsersSetMinuteOffsetReplacesStoredMinutes(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewUsers(db)

	// The hour step was skipped, so the stored offset already carries
	// minutes: UTC+03:15. Picking :30 must yield UTC+03:30, not +03:45.
	mock.ExpectQuery(`SELECT .+ FROM users WHERE telegram_id = \$1`).
		WithArgs(int64(200)).
		WillReturnRows(userRow(200, int64(195)))
	mock.ExpectExec(`UPDATE users SET timezone_offset = \$2`).
		WithArgs(int64(200), 210).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u, err := svc.SetMinuteOffset(context.Background(), 200, 30)
	require.NoError(t, err)
	assert.Equal(t, 210, u.OffsetMinutes())

	mock.ExpectQuery(`SELECT .+ FROM users WHERE telegram_id = \$1`).
		WithArgs(int64(201)).
		WillReturnRows(userRow(201, int64(-195)))
	mock.ExpectExec(`UPDATE users SET timezone_offset = \$2`).
		WithArgs(int64(201), -210).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u, err = svc.SetMinuteOffset(context.Background(), 201, 30)
	require.NoError(t, err)
	assert.Equal(t, -210, u.OffsetMinutes())
}

func TestFormatOffset(t *testing.T) {
	assert.Equal(t, "не задана", FormatOffset(nil))
	assert.Equal(t, "не задана", FormatOffset(&model.User{}))

	u := &model.User{TimezoneOffset: sql.NullInt64{Int64: 210, Valid: true}}
	assert.Equal(t, "UTC+03:30", FormatOffset(u))

	u.TimezoneOffset.Int64 = -210
	assert.Equal(t, "UTC-03:30", FormatOffset(u))

	u.TimezoneOffset.Int64 = 0
	assert.Equal(t, "UTC+00:00", FormatOffset(u))
}
