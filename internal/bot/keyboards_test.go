package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laefree/ibdiary/internal/flow"
)

func TestDeletePayloadRoundTrip(t *testing.T) {
	payload := deletePayload(flow.OriginResult, 42)
	origin, id, ok := parseDeletePayload(payload)
	require.True(t, ok)
	assert.Equal(t, flow.OriginResult, origin)
	assert.Equal(t, int64(42), id)

	_, _, ok = parseDeletePayload("garbage")
	assert.False(t, ok)
	_, _, ok = parseDeletePayload("entry|notanumber")
	assert.False(t, ok)
}

func TestScreenViewButtonsMatchResolver(t *testing.T) {
	screens := []flow.Screen{
		{Kind: flow.ScreenEntryMenu, MovementID: 7, Origin: flow.OriginEntry},
		{Kind: flow.ScreenConsistency},
		{Kind: flow.ScreenMucus},
		{Kind: flow.ScreenBlood},
		{Kind: flow.ScreenNotes},
		{Kind: flow.ScreenDeleteConfirm, MovementID: 7, Origin: flow.OriginEntry},
	}

	for _, s := range screens {
		text, markup := screenView(s)
		require.NotEmpty(t, text)
		require.NotNil(t, markup)
		require.NotEmpty(t, markup.InlineKeyboard)

		// Every button must route back into the diary destiny, or a
		// press would run without the conversation's lock and state.
		for _, row := range markup.InlineKeyboard {
			for _, btn := range row {
				assert.Equal(t, flow.Destiny, resolveCallback(btn.Unique),
					"screen %v button %q", s.Kind, btn.Unique)
			}
		}
	}
}

func TestTimezoneKeyboards(t *testing.T) {
	hours := timezoneHourKeyboard()
	// 25 offsets in rows of three plus the skip row.
	require.Len(t, hours.InlineKeyboard, 10)
	for _, row := range hours.InlineKeyboard {
		for _, btn := range row {
			assert.Equal(t, TimezoneDestiny, resolveCallback(btn.Unique))
		}
	}

	minutes := timezoneMinuteKeyboard()
	require.Len(t, minutes.InlineKeyboard, 2)
	assert.Len(t, minutes.InlineKeyboard[0], 4)
}
