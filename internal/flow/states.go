// Package flow implements the diary-entry conversation: a linear
// questionnaire with skip answers, backward navigation, an early
// "false urge" exit and a delete branch. It is transport-agnostic:
// Telegram specifics stay behind the Messenger interface so the whole
// machine is exercisable in tests against the in-memory state store.
package flow

import "github.com/laefree/ibdiary/internal/fsm"

// Destiny is the state-partition label of the diary-entry conversation.
// The timezone wizard runs under its own destiny, so both can be active
// for one user at the same time without touching each other's rows.
const Destiny = "bowel_movement"

// Conversation states, in forward order. Each names the screen the user
// currently sees.
const (
	// StateEntryInit: record created, entry menu shown (proceed to the
	// questions, report a false urge, or delete the fresh record).
	StateEntryInit fsm.State = "entry_init"
	// StateConsistency: stool consistency question shown.
	StateConsistency fsm.State = "stool_consistency"
	// StateMucus: mucus question shown.
	StateMucus fsm.State = "mucus"
	// StateBlood: blood level question shown.
	StateBlood fsm.State = "blood"
	// StateWaitingNotes: free-text notes prompt shown. This is the only
	// state in which a plain message belongs to this conversation.
	StateWaitingNotes fsm.State = "waiting_for_notes"
)

// IsActive reports whether st belongs to an unfinished diary entry.
func IsActive(st fsm.State) bool {
	switch st {
	case StateEntryInit, StateConsistency, StateMucus, StateBlood, StateWaitingNotes:
		return true
	}
	return false
}

// Data keys of the conversation's working data. The record itself is
// referenced only by id; the FSM never embeds it.
const (
	dataMovementID = "movement_id"
	dataPromptMsg  = "movement_msg_id"
	dataChatID     = "chat_id"
)
