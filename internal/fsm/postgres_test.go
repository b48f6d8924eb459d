package fsm

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStorage(t *testing.T) (*PostgresStorage, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewPostgresStorage(sqlx.NewDb(db, "sqlmock"), nil), mock
}

func TestPostgresGetStateMissingKey(t *testing.T) {
	st, mock := newMockStorage(t)
	mock.ExpectQuery(`SELECT state FROM fsm_storage WHERE key = \$1`).
		WithArgs("fsm:1:100:200:bowel_movement").
		WillReturnRows(sqlmock.NewRows([]string{"state"}))

	got, err := st.GetState(context.Background(), testKey("bowel_movement"))
	require.NoError(t, err)
	assert.Equal(t, StateNone, got)
}

func TestPostgresGetStateNullColumn(t *testing.T) {
	st, mock := newMockStorage(t)
	mock.ExpectQuery(`SELECT state FROM fsm_storage WHERE key = \$1`).
		WithArgs("fsm:1:100:200:bowel_movement").
		WillReturnRows(sqlmock.NewRows([]string{"state"}).AddRow(nil))

	got, err := st.GetState(context.Background(), testKey("bowel_movement"))
	require.NoError(t, err)
	assert.Equal(t, StateNone, got)
}

func TestPostgresSetStateUpsert(t *testing.T) {
	st, mock := newMockStorage(t)
	mock.ExpectExec(`INSERT INTO fsm_storage \(key, state, data\)`).
		WithArgs("fsm:1:100:200:bowel_movement", "mucus").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, st.SetState(context.Background(), testKey("bowel_movement"), "mucus"))
}

func TestPostgresSetStateNoneDeletesEmptyRow(t *testing.T) {
	st, mock := newMockStorage(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT data FROM fsm_storage WHERE key = \$1 FOR UPDATE`).
		WithArgs("fsm:1:100:200:bowel_movement").
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow([]byte(`{}`)))
	mock.ExpectExec(`DELETE FROM fsm_storage WHERE key = \$1`).
		WithArgs("fsm:1:100:200:bowel_movement").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, st.SetState(context.Background(), testKey("bowel_movement"), StateNone))
}

func TestPostgresSetStateNoneKeepsPopulatedRow(t *testing.T) {
	st, mock := newMockStorage(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT data FROM fsm_storage WHERE key = \$1 FOR UPDATE`).
		WithArgs("fsm:1:100:200:bowel_movement").
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow([]byte(`{"movement_id":7}`)))
	mock.ExpectExec(`UPDATE fsm_storage SET state = NULL, updated_at = now\(\) WHERE key = \$1`).
		WithArgs("fsm:1:100:200:bowel_movement").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, st.SetState(context.Background(), testKey("bowel_movement"), StateNone))
}

func TestPostgresSetStateNoneMissingRowIsNoop(t *testing.T) {
	st, mock := newMockStorage(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT data FROM fsm_storage WHERE key = \$1 FOR UPDATE`).
		WithArgs("fsm:1:100:200:bowel_movement").
		WillReturnRows(sqlmock.NewRows([]string{"data"}))
	mock.ExpectCommit()

	require.NoError(t, st.SetState(context.Background(), testKey("bowel_movement"), StateNone))
}

func TestPostgresGetDataMissingKey(t *testing.T) {
	st, mock := newMockStorage(t)
	mock.ExpectQuery(`SELECT data FROM fsm_storage WHERE key = \$1`).
		WithArgs("fsm:1:100:200:bowel_movement").
		WillReturnRows(sqlmock.NewRows([]string{"data"}))

	data, err := st.GetData(context.Background(), testKey("bowel_movement"))
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Empty(t, data)
}

func TestPostgresGetDataDecodesJSON(t *testing.T) {
	st, mock := newMockStorage(t)
	mock.ExpectQuery(`SELECT data FROM fsm_storage WHERE key = \$1`).
		WithArgs("fsm:1:100:200:bowel_movement").
		WillReturnRows(sqlmock.NewRows([]string{"data"}).
			AddRow([]byte(`{"movement_id":42,"chat_id":100}`)))

	data, err := st.GetData(context.Background(), testKey("bowel_movement"))
	require.NoError(t, err)
	id, ok := DataInt64(data, "movement_id")
	require.True(t, ok)
	assert.Equal(t, int64(42), id)
}

func TestPostgresSetDataUpsert(t *testing.T) {
	st, mock := newMockStorage(t)
	mock.ExpectExec(`INSERT INTO fsm_storage \(key, data\)`).
		WithArgs("fsm:1:100:200:bowel_movement", []byte(`{"movement_id":7}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := st.SetData(context.Background(), testKey("bowel_movement"),
		map[string]any{"movement_id": int64(7)})
	require.NoError(t, err)
}

func TestPostgresSetDataEmptyDeletesClearedRow(t *testing.T) {
	st, mock := newMockStorage(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT state FROM fsm_storage WHERE key = \$1 FOR UPDATE`).
		WithArgs("fsm:1:100:200:bowel_movement").
		WillReturnRows(sqlmock.NewRows([]string{"state"}).AddRow(nil))
	mock.ExpectExec(`DELETE FROM fsm_storage WHERE key = \$1`).
		WithArgs("fsm:1:100:200:bowel_movement").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, st.SetData(context.Background(), testKey("bowel_movement"), nil))
}

func TestPostgresStorageUnavailable(t *testing.T) {
	st, mock := newMockStorage(t)
	mock.ExpectQuery(`SELECT state FROM fsm_storage WHERE key = \$1`).
		WillReturnError(errors.New("dial tcp 127.0.0.1:5432: connection refused"))

	_, err := st.GetState(context.Background(), testKey("bowel_movement"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorageUnavailable,
		"unreachable storage must surface as ErrStorageUnavailable, not as missing state")
}

func TestPostgresCloseIdempotent(t *testing.T) {
	st, _ := newMockStorage(t)
	require.NoError(t, st.Close())
	require.NoError(t, st.Close())
}

func TestStorageErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := storageErr("get state", cause)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.ErrorIs(t, err, cause)
}
