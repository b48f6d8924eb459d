package fsm

import (
	"context"
	"errors"
	"fmt"
)

// State identifies a single step of a conversation. The zero value means
// "no active conversation" for the key.
type State string

// StateNone clears the state for a key.
const StateNone State = ""

// ErrStorageUnavailable marks failures of the underlying store. Callers
// must treat it as fatal for the current update and never interpret it
// as "no state".
var ErrStorageUnavailable = errors.New("fsm storage unavailable")

// StorageError wraps a storage-layer failure with the operation that
// produced it. It matches ErrStorageUnavailable via errors.Is.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("fsm: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorageUnavailable, e.Err}
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// Storage persists conversation state and working data per key.
//
// Each method is independently atomic at the storage layer. Atomicity
// across a sequence of calls for one update is the caller's duty and is
// provided by the per-key lock (see KeyedMutex).
//
// Row lifecycle: a row appears on the first SetState/SetData for its key
// and disappears as soon as the state is cleared and the data is empty,
// so no key accumulates empty rows at rest.
type Storage interface {
	// GetState returns the current state, StateNone for an absent key.
	GetState(ctx context.Context, key Key) (State, error)
	// SetState stores the state. StateNone deletes the row when the data
	// is already empty and keeps a NULL-state row otherwise.
	SetState(ctx context.Context, key Key, st State) error
	// GetData returns the working data, an empty non-nil map for an
	// absent key.
	GetData(ctx context.Context, key Key) (map[string]any, error)
	// SetData replaces the whole data mapping. An empty map deletes the
	// row when the state is already cleared.
	SetData(ctx context.Context, key Key, data map[string]any) error
	// Close releases store-level resources. Idempotent.
	Close() error
}
