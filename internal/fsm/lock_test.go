package fsm

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	locks := NewKeyedMutex()
	ctx := context.Background()
	storage := NewMemoryStorage()
	key := testKey("bowel_movement")
	storageKey := NewKeyBuilder().Build(key)

	// Each worker performs a full read-modify-write under the lock; with
	// serialization the final counter equals the number of workers.
	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := locks.Lock(storageKey)
			defer release()

			data, err := storage.GetData(ctx, key)
			assert.NoError(t, err)
			n, _ := DataInt64(data, "count")
			data["count"] = n + 1
			assert.NoError(t, storage.SetData(ctx, key, data))
		}()
	}
	wg.Wait()

	data, err := storage.GetData(ctx, key)
	require.NoError(t, err)
	n, ok := DataInt64(data, "count")
	require.True(t, ok)
	assert.Equal(t, int64(workers), n)
	assert.Zero(t, locks.Pending(), "lock table must be empty once all holders release")
}

func TestKeyedMutexDistinctKeysDoNotBlock(t *testing.T) {
	locks := NewKeyedMutex()

	releaseA := locks.Lock("fsm:1:2:3:bowel_movement")
	defer releaseA()

	acquired := make(chan struct{})
	go func() {
		releaseB := locks.Lock("fsm:1:2:3:timezone")
		defer releaseB()
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("lock for a different destiny blocked behind an unrelated key")
	}
}

func TestKeyedMutexReleaseIsIdempotent(t *testing.T) {
	locks := NewKeyedMutex()
	release := locks.Lock("k")
	release()
	release() // must not panic or unlock someone else's hold

	done := make(chan struct{})
	go func() {
		r := locks.Lock("k")
		r()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lock not reacquirable after release")
	}
}

func TestKeyedMutexBlocksSecondHolder(t *testing.T) {
	locks := NewKeyedMutex()
	release := locks.Lock("k")

	got := make(chan struct{})
	go func() {
		r := locks.Lock("k")
		r()
		close(got)
	}()

	select {
	case <-got:
		t.Fatal("second holder acquired the lock while the first still held it")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("second holder never acquired the lock after release")
	}
}
