package fsm

import (
	"context"
	"sync"
	"time"
)

type memoryRow struct {
	state     State
	data      map[string]any
	updatedAt time.Time
}

// MemoryStorage is an in-memory Storage for tests and development. It
// mirrors the Postgres row lifecycle, including delete-on-empty.
type MemoryStorage struct {
	mu   sync.RWMutex
	keys KeyBuilder
	rows map[string]*memoryRow
}

// NewMemoryStorage constructs an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		keys: NewKeyBuilder(),
		rows: make(map[string]*memoryRow),
	}
}

// GetState implements Storage.
func (m *MemoryStorage) GetState(_ context.Context, key Key) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if row, ok := m.rows[m.keys.Build(key)]; ok {
		return row.state, nil
	}
	return StateNone, nil
}

// SetState implements Storage.
func (m *MemoryStorage) SetState(_ context.Context, key Key, st State) error {
	storageKey := m.keys.Build(key)
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.rows[storageKey]
	if st == StateNone {
		if !ok {
			return nil
		}
		if len(row.data) == 0 {
			delete(m.rows, storageKey)
			return nil
		}
		row.state = StateNone
		row.updatedAt = time.Now()
		return nil
	}

	if !ok {
		row = &memoryRow{data: map[string]any{}}
		m.rows[storageKey] = row
	}
	row.state = st
	row.updatedAt = time.Now()
	return nil
}

// GetData implements Storage.
func (m *MemoryStorage) GetData(_ context.Context, key Key) (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.rows[m.keys.Build(key)]
	if !ok {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(row.data))
	for k, v := range row.data {
		out[k] = v
	}
	return out, nil
}

// SetData implements Storage.
func (m *MemoryStorage) SetData(_ context.Context, key Key, data map[string]any) error {
	storageKey := m.keys.Build(key)
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.rows[storageKey]
	if len(data) == 0 {
		if !ok {
			return nil
		}
		if row.state == StateNone {
			delete(m.rows, storageKey)
			return nil
		}
		row.data = map[string]any{}
		row.updatedAt = time.Now()
		return nil
	}

	if !ok {
		row = &memoryRow{}
		m.rows[storageKey] = row
	}
	copied := make(map[string]any, len(data))
	for k, v := range data {
		copied[k] = v
	}
	row.data = copied
	row.updatedAt = time.Now()
	return nil
}

// Close implements Storage.
func (m *MemoryStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = make(map[string]*memoryRow)
	return nil
}

// Len reports the number of live rows, used by tests to assert the
// garbage-free-at-rest property.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}
