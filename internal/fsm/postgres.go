package fsm

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// PostgresStorage is Storage backed by the fsm_storage table.
//
// The table is owned by the migrations in migrations/:
//
//	key        varchar(256) primary key
//	state      varchar(128) null
//	data       jsonb not null default '{}'
//	updated_at timestamptz
//
// Every write is a single transaction; writers never race on row
// creation because upserts go through INSERT .. ON CONFLICT.
type PostgresStorage struct {
	db   *sqlx.DB
	keys KeyBuilder
}

// NewPostgresStorage wraps an existing connection pool. The pool is
// shared with the rest of the application and is not closed by Close.
func NewPostgresStorage(db *sqlx.DB, keys KeyBuilder) *PostgresStorage {
	if keys == nil {
		keys = NewKeyBuilder()
	}
	return &PostgresStorage{db: db, keys: keys}
}

// GetState implements Storage.
func (s *PostgresStorage) GetState(ctx context.Context, key Key) (State, error) {
	var st sql.NullString
	err := s.db.GetContext(ctx, &st,
		`SELECT state FROM fsm_storage WHERE key = $1`, s.keys.Build(key))
	if errors.Is(err, sql.ErrNoRows) {
		return StateNone, nil
	}
	if err != nil {
		return StateNone, storageErr("get state", err)
	}
	if !st.Valid {
		return StateNone, nil
	}
	return State(st.String), nil
}

// SetState implements Storage.
func (s *PostgresStorage) SetState(ctx context.Context, key Key, st State) error {
	storageKey := s.keys.Build(key)

	if st == StateNone {
		return s.inTx(ctx, "set state", func(tx *sqlx.Tx) error {
			var data []byte
			err := tx.GetContext(ctx, &data,
				`SELECT data FROM fsm_storage WHERE key = $1 FOR UPDATE`, storageKey)
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			if err != nil {
				return err
			}
			if emptyJSONObject(data) {
				_, err = tx.ExecContext(ctx,
					`DELETE FROM fsm_storage WHERE key = $1`, storageKey)
				return err
			}
			_, err = tx.ExecContext(ctx,
				`UPDATE fsm_storage SET state = NULL, updated_at = now() WHERE key = $1`, storageKey)
			return err
		})
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fsm_storage (key, state, data)
		 VALUES ($1, $2, '{}'::jsonb)
		 ON CONFLICT (key) DO UPDATE SET state = EXCLUDED.state, updated_at = now()`,
		storageKey, string(st))
	if err != nil {
		return storageErr("set state", err)
	}
	return nil
}

// GetData implements Storage.
func (s *PostgresStorage) GetData(ctx context.Context, key Key) (map[string]any, error) {
	var raw []byte
	err := s.db.GetContext(ctx, &raw,
		`SELECT data FROM fsm_storage WHERE key = $1`, s.keys.Build(key))
	if errors.Is(err, sql.ErrNoRows) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, storageErr("get data", err)
	}
	data := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, storageErr("decode data", err)
		}
	}
	return data, nil
}

// SetData implements Storage.
func (s *PostgresStorage) SetData(ctx context.Context, key Key, data map[string]any) error {
	storageKey := s.keys.Build(key)

	if len(data) == 0 {
		return s.inTx(ctx, "set data", func(tx *sqlx.Tx) error {
			var st sql.NullString
			err := tx.GetContext(ctx, &st,
				`SELECT state FROM fsm_storage WHERE key = $1 FOR UPDATE`, storageKey)
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			if err != nil {
				return err
			}
			if !st.Valid {
				_, err = tx.ExecContext(ctx,
					`DELETE FROM fsm_storage WHERE key = $1`, storageKey)
				return err
			}
			_, err = tx.ExecContext(ctx,
				`UPDATE fsm_storage SET data = '{}'::jsonb, updated_at = now() WHERE key = $1`, storageKey)
			return err
		})
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return storageErr("encode data", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO fsm_storage (key, data)
		 VALUES ($1, $2::jsonb)
		 ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		storageKey, raw)
	if err != nil {
		return storageErr("set data", err)
	}
	return nil
}

// Close implements Storage. The connection pool belongs to the caller,
// so there is nothing to release here.
func (s *PostgresStorage) Close() error {
	return nil
}

func (s *PostgresStorage) inTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return storageErr(op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return storageErr(op, err)
	}
	if err := tx.Commit(); err != nil {
		return storageErr(op, fmt.Errorf("commit: %w", err))
	}
	return nil
}

func emptyJSONObject(raw []byte) bool {
	if len(raw) == 0 {
		return true
	}
	m := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return false
	}
	return len(m) == 0
}
