package bot

import (
	"context"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/laefree/ibdiary/core/telegram/callbacks"
	"github.com/laefree/ibdiary/internal/flow"
	"github.com/laefree/ibdiary/internal/fsm"
)

// Callback uniques. Telebot puts the unique before '|' in callback data;
// the payload after it is parsed by the step handlers.
const (
	cbConsistency = "stool_consistency"
	cbMucus       = "stool_mucus"
	cbBlood       = "stool_blood"
	cbSkipNotes   = "skip_notes"
	cbFalseUrge   = "false_urge"
	cbBackNotes   = "back_from_notes"
	cbBackMucus   = "back_from_mucus"
	cbBackBlood   = "back_from_blood"

	cbDelete        = "delete_bowel_movement"
	cbDeleteConfirm = "delete_bowel_movement_confirm"
	cbDeleteCancel  = "delete_bowel_movement_cancel"

	cbSettingsTimezone = "settings_timezone"
	cbSetHourTimezone  = "set_hour_timezone"
	cbSetMinTimezone   = "set_minute_timezone"
)

// TimezoneDestiny partitions the timezone wizard's state away from the
// diary conversation.
const TimezoneDestiny = "timezone"

// Resolver decides which destiny an incoming update belongs to, before
// any handler runs. The per-key lock and the state accessor are both
// built from its answer, so the rules here define the concurrency
// domain of every handler.
type Resolver struct {
	storage fsm.Storage
}

func NewResolver(storage fsm.Storage) *Resolver {
	return &Resolver{storage: storage}
}

// updateInfo is the slice of an update the resolver looks at.
type updateInfo struct {
	isCallback     bool
	callbackUnique string
	text           string
	botID          int64
	chatID         int64
	userID         int64
}

// Resolve maps the update to a destiny.
//
// Callbacks are routed by their unique: diary step and control buttons
// go to the diary destiny, timezone buttons to the timezone destiny.
// The diary trigger phrase routes by exact text. Any other free text
// belongs to the diary only while its conversation waits for a note,
// which requires a state lookup; a storage failure propagates instead
// of silently falling back, since misrouting a note is worse than
// retrying the update.
func (r *Resolver) Resolve(ctx context.Context, c tele.Context) (string, error) {
	info := updateInfo{
		text:  c.Text(),
		botID: botID(c),
	}
	if cb := c.Callback(); cb != nil {
		info.isCallback = true
		info.callbackUnique = callbacks.CallbackKey(c)
	}
	if chat := c.Chat(); chat != nil {
		info.chatID = chat.ID
	}
	if sender := c.Sender(); sender != nil {
		info.userID = sender.ID
	}
	return r.resolve(ctx, info)
}

func (r *Resolver) resolve(ctx context.Context, info updateInfo) (string, error) {
	if info.isCallback {
		return resolveCallback(info.callbackUnique), nil
	}
	if info.text == LabelMakeEntry {
		return flow.Destiny, nil
	}
	if info.text == "" || strings.HasPrefix(info.text, "/") {
		return fsm.DefaultDestiny, nil
	}
	if info.chatID == 0 || info.userID == 0 {
		return fsm.DefaultDestiny, nil
	}

	st, err := r.storage.GetState(ctx, fsm.Key{
		BotID:   info.botID,
		ChatID:  info.chatID,
		UserID:  info.userID,
		Destiny: flow.Destiny,
	})
	if err != nil {
		return "", err
	}
	if st == flow.StateWaitingNotes {
		return flow.Destiny, nil
	}
	return fsm.DefaultDestiny, nil
}

func resolveCallback(unique string) string {
	switch unique {
	case cbSkipNotes, cbFalseUrge, cbBackNotes, cbBackMucus, cbBackBlood:
		return flow.Destiny
	case cbSettingsTimezone:
		return TimezoneDestiny
	}
	switch {
	case strings.HasPrefix(unique, cbConsistency),
		strings.HasPrefix(unique, cbBlood),
		strings.HasPrefix(unique, cbMucus),
		strings.HasPrefix(unique, cbDelete):
		return flow.Destiny
	case strings.HasPrefix(unique, cbSetHourTimezone),
		strings.HasPrefix(unique, cbSetMinTimezone):
		return TimezoneDestiny
	}
	return fsm.DefaultDestiny
}

func botID(c tele.Context) int64 {
	if b, ok := c.Bot().(*tele.Bot); ok && b != nil && b.Me != nil {
		return b.Me.ID
	}
	return 0
}
