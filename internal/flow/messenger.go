package flow

import "context"

// ScreenKind enumerates the conversation's screens. The bot layer maps
// each kind to its text and inline keyboard; the flow only decides which
// screen is shown next.
type ScreenKind int

const (
	ScreenEntryMenu ScreenKind = iota
	ScreenConsistency
	ScreenMucus
	ScreenBlood
	ScreenNotes
	ScreenDeleteConfirm
)

// Screen is a render request passed to the Messenger. MovementID and
// Origin are carried so keyboards can embed them in callback payloads
// (the delete branch works on finalized records too, where no FSM data
// is left to look them up in).
type Screen struct {
	Kind       ScreenKind
	MovementID int64
	Origin     string
}

// Delete-branch origins. They tell the cancel handler which screen to
// restore: the entry menu of a live conversation or the rendered result
// of a finalized record.
const (
	OriginEntry  = "entry"
	OriginResult = "result"
)

// Messenger is the transport the flow talks through. The Telegram
// implementation lives in the bot layer; tests use a recording fake.
type Messenger interface {
	// SendScreen sends a new message with the given screen and returns
	// its message id.
	SendScreen(ctx context.Context, chatID int64, s Screen) (int, error)
	// EditScreen replaces an existing message with the given screen.
	EditScreen(ctx context.Context, chatID int64, msgID int, s Screen) error
	// EditResult replaces a message with the rendered record summary.
	// A non-zero movementID attaches the delete keyboard.
	EditResult(ctx context.Context, chatID int64, msgID int, text string, movementID int64) error
	// EditText replaces a message with plain text, no keyboard.
	EditText(ctx context.Context, chatID int64, msgID int, text string) error
	// SendText sends a plain text message.
	SendText(ctx context.Context, chatID int64, text string) error
	// DeleteMessage removes a message from the chat.
	DeleteMessage(ctx context.Context, chatID int64, msgID int) error
}
