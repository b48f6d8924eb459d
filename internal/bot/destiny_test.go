package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laefree/ibdiary/internal/flow"
	"github.com/laefree/ibdiary/internal/fsm"
)

func TestResolveCallbackUniques(t *testing.T) {
	cases := []struct {
		unique string
		want   string
	}{
		{"stool_consistency", flow.Destiny},
		{"stool_mucus", flow.Destiny},
		{"stool_blood", flow.Destiny},
		{"skip_notes", flow.Destiny},
		{"false_urge", flow.Destiny},
		{"back_from_notes", flow.Destiny},
		{"back_from_mucus", flow.Destiny},
		{"back_from_blood", flow.Destiny},
		{"delete_bowel_movement", flow.Destiny},
		{"delete_bowel_movement_confirm", flow.Destiny},
		{"delete_bowel_movement_cancel", flow.Destiny},
		{"set_hour_timezone", TimezoneDestiny},
		{"set_minute_timezone", TimezoneDestiny},
		{"settings_timezone", TimezoneDestiny},
		{"some_future_button", fsm.DefaultDestiny},
		{"", fsm.DefaultDestiny},
	}
	for _, tc := range cases {
		t.Run(tc.unique, func(t *testing.T) {
			assert.Equal(t, tc.want, resolveCallback(tc.unique))
		})
	}
}

func TestResolveTriggerPhrase(t *testing.T) {
	r := NewResolver(fsm.NewMemoryStorage())

	got, err := r.resolve(context.Background(), updateInfo{text: LabelMakeEntry, chatID: 1, userID: 2})
	require.NoError(t, err)
	assert.Equal(t, flow.Destiny, got)
}

func TestResolveFreeTextByPersistedState(t *testing.T) {
	store := fsm.NewMemoryStorage()
	r := NewResolver(store)
	ctx := context.Background()

	info := updateInfo{text: "болит слева", botID: 1, chatID: 100, userID: 200}

	got, err := r.resolve(ctx, info)
	require.NoError(t, err)
	assert.Equal(t, fsm.DefaultDestiny, got, "no conversation: free text stays in default destiny")

	key := fsm.Key{BotID: 1, ChatID: 100, UserID: 200, Destiny: flow.Destiny}
	require.NoError(t, store.SetState(ctx, key, flow.StateWaitingNotes))

	got, err = r.resolve(ctx, info)
	require.NoError(t, err)
	assert.Equal(t, flow.Destiny, got, "waiting conversation claims free text")

	require.NoError(t, store.SetState(ctx, key, flow.StateBlood))
	got, err = r.resolve(ctx, info)
	require.NoError(t, err)
	assert.Equal(t, fsm.DefaultDestiny, got, "only the notes state claims free text")
}

func TestResolveCommandsSkipStateLookup(t *testing.T) {
	r := NewResolver(brokenStorage{})

	got, err := r.resolve(context.Background(), updateInfo{text: "/start", chatID: 1, userID: 2})
	require.NoError(t, err)
	assert.Equal(t, fsm.DefaultDestiny, got)
}

func TestResolveStorageFailurePropagates(t *testing.T) {
	r := NewResolver(brokenStorage{})

	_, err := r.resolve(context.Background(), updateInfo{text: "заметка", chatID: 1, userID: 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, fsm.ErrStorageUnavailable)
}

// brokenStorage fails every call the way a dead database would.
type brokenStorage struct{}

func (brokenStorage) GetState(context.Context, fsm.Key) (fsm.State, error) {
	return fsm.StateNone, fsm.ErrStorageUnavailable
}

func (brokenStorage) SetState(context.Context, fsm.Key, fsm.State) error {
	return fsm.ErrStorageUnavailable
}

func (brokenStorage) GetData(context.Context, fsm.Key) (map[string]any, error) {
	return nil, fsm.ErrStorageUnavailable
}

func (brokenStorage) SetData(context.Context, fsm.Key, map[string]any) error {
	return fsm.ErrStorageUnavailable
}

func (brokenStorage) Close() error { return nil }
