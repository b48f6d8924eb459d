package fsm

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(destiny string) Key {
	return Key{BotID: 1, ChatID: 100, UserID: 200, Destiny: destiny}
}

func TestMemoryStorageStateRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStorage()
	k := testKey("bowel_movement")

	got, err := st.GetState(ctx, k)
	require.NoError(t, err)
	assert.Equal(t, StateNone, got)

	require.NoError(t, st.SetState(ctx, k, "stool_consistency"))
	got, err = st.GetState(ctx, k)
	require.NoError(t, err)
	assert.Equal(t, State("stool_consistency"), got)

	// last write wins, no duplicate rows
	require.NoError(t, st.SetState(ctx, k, "mucus"))
	got, err = st.GetState(ctx, k)
	require.NoError(t, err)
	assert.Equal(t, State("mucus"), got)
	assert.Equal(t, 1, st.Len())
}

func TestMemoryStorageDeleteOnEmpty(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStorage()
	k := testKey("bowel_movement")

	require.NoError(t, st.SetState(ctx, k, "blood"))
	require.NoError(t, st.SetState(ctx, k, StateNone))

	data, err := st.GetData(ctx, k)
	require.NoError(t, err)
	assert.Empty(t, data)
	assert.NotNil(t, data)
	assert.Zero(t, st.Len(), "row must not survive with null state and empty data")
}

func TestMemoryStorageStateClearedKeepsData(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStorage()
	k := testKey("bowel_movement")

	require.NoError(t, st.SetState(ctx, k, "blood"))
	require.NoError(t, st.SetData(ctx, k, map[string]any{"movement_id": int64(7)}))
	require.NoError(t, st.SetState(ctx, k, StateNone))

	assert.Equal(t, 1, st.Len())
	data, err := st.GetData(ctx, k)
	require.NoError(t, err)
	id, ok := DataInt64(data, "movement_id")
	require.True(t, ok)
	assert.Equal(t, int64(7), id)

	// dropping the data now removes the row entirely
	require.NoError(t, st.SetData(ctx, k, nil))
	assert.Zero(t, st.Len())
}

func TestMemoryStorageDataIsolatedPerDestiny(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStorage()
	entry := testKey("bowel_movement")
	tz := testKey("timezone")

	require.NoError(t, st.SetState(ctx, entry, "waiting_for_notes"))
	require.NoError(t, st.SetState(ctx, tz, "timezone_hour"))

	got, err := st.GetState(ctx, entry)
	require.NoError(t, err)
	assert.Equal(t, State("waiting_for_notes"), got)
	got, err = st.GetState(ctx, tz)
	require.NoError(t, err)
	assert.Equal(t, State("timezone_hour"), got)

	require.NoError(t, st.SetState(ctx, tz, StateNone))
	got, err = st.GetState(ctx, entry)
	require.NoError(t, err)
	assert.Equal(t, State("waiting_for_notes"), got, "clearing one destiny must not touch the other")
}

func TestMemoryStorageGetDataReturnsCopy(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStorage()
	k := testKey("bowel_movement")

	require.NoError(t, st.SetData(ctx, k, map[string]any{"chat_id": int64(100)}))
	data, err := st.GetData(ctx, k)
	require.NoError(t, err)
	data["chat_id"] = int64(999)

	fresh, err := st.GetData(ctx, k)
	require.NoError(t, err)
	id, _ := DataInt64(fresh, "chat_id")
	assert.Equal(t, int64(100), id)
}

func TestMemoryStorageConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStorage()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			k := Key{BotID: 1, ChatID: int64(n % 4), UserID: int64(n % 8), Destiny: "bowel_movement"}
			_ = st.SetState(ctx, k, "entry_init")
			_, _ = st.GetData(ctx, k)
			_ = st.SetData(ctx, k, map[string]any{"n": n})
		}(i)
	}
	wg.Wait()
}
