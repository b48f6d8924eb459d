package fsm

import "sync"

// KeyedMutex hands out one exclusive lock per storage key. Locks for
// different keys are fully independent; lock entries are reference
// counted and dropped as soon as the last holder releases, so the table
// does not grow with the number of users ever seen.
//
// Waiters on the same key are served in roughly arrival order (Go
// mutexes are not strictly FIFO; starvation is prevented by the runtime
// but exact ordering is not guaranteed). There is no lease or timeout: a
// holder that never releases blocks its key forever.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex constructs an empty lock table.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*lockEntry)}
}

// Lock blocks until the exclusive lock for key is held and returns the
// release function. The release is safe to call exactly once from a
// defer; extra calls are no-ops.
func (k *KeyedMutex) Lock(key string) (release func()) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &lockEntry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			k.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(k.entries, key)
			}
			k.mu.Unlock()
		})
	}
}

// Pending reports the number of keys currently held or waited on,
// exposed for tests.
func (k *KeyedMutex) Pending() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
