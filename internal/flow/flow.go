package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/laefree/ibdiary/core/logger"
	"github.com/laefree/ibdiary/internal/fsm"
	"github.com/laefree/ibdiary/internal/model"
	"github.com/laefree/ibdiary/internal/service"
)

// Movements is the record store the flow writes through.
type Movements interface {
	Create(ctx context.Context, userID int64) (*model.Movement, error)
	GetByID(ctx context.Context, id int64) (*model.Movement, error)
	Update(ctx context.Context, id int64, patch model.MovementPatch) (*model.Movement, error)
	Delete(ctx context.Context, id int64) error
}

// Users resolves the diary owner; the timezone offset feeds result
// rendering.
type Users interface {
	GetOrCreate(ctx context.Context, telegramID int64, languageCode string) (*model.User, error)
}

// Actor identifies who is driving the conversation and where replies go.
type Actor struct {
	ChatID   int64
	UserID   int64 // telegram user id, also the diary owner key
	Language string
}

const (
	textFinishCurrent = "Пожалуйста, завершите предыдущую запись"
	textDeleted       = "🗑 Запись удалена"
	textVanished      = "Запись не найдена"
)

// Flow drives one diary-entry conversation. Every method assumes the
// caller already holds the per-key lock and passes the state accessor
// built after acquiring it, so state reads here cannot race concurrent
// updates for the same user.
type Flow struct {
	movements Movements
	users     Users
	msgr      Messenger
}

func New(movements Movements, users Users, msgr Messenger) *Flow {
	return &Flow{movements: movements, users: users, msgr: msgr}
}

// Start begins a new entry. If a conversation is already in progress the
// user is asked to finish it first and nothing else happens.
func (f *Flow) Start(ctx context.Context, sc *fsm.Context, a Actor) error {
	st, err := sc.State(ctx)
	if err != nil {
		return err
	}
	if IsActive(st) {
		logger.Flow.Debug("start rejected, entry in progress",
			slog.Int64("user_id", a.UserID),
			slog.String("state", string(st)),
		)
		return f.msgr.SendText(ctx, a.ChatID, textFinishCurrent)
	}

	u, err := f.users.GetOrCreate(ctx, a.UserID, a.Language)
	if err != nil {
		return err
	}
	m, err := f.movements.Create(ctx, u.ID)
	if err != nil {
		return err
	}

	msgID, err := f.msgr.SendScreen(ctx, a.ChatID, Screen{
		Kind:       ScreenEntryMenu,
		MovementID: m.ID,
		Origin:     OriginEntry,
	})
	if err != nil {
		return err
	}
	if _, err := sc.UpdateData(ctx, map[string]any{
		dataMovementID: m.ID,
		dataPromptMsg:  msgID,
		dataChatID:     a.ChatID,
	}); err != nil {
		return err
	}
	return sc.SetState(ctx, StateEntryInit)
}

// Answer applies a decoded questionnaire callback. A callback that does
// not match the current state is a stale button press and is ignored.
func (f *Flow) Answer(ctx context.Context, sc *fsm.Context, a Actor, ans Answer) error {
	st, err := sc.State(ctx)
	if err != nil {
		return err
	}

	switch ans.Kind {
	case StepConsistency:
		if ans.Open {
			if st != StateEntryInit {
				return f.ignoreStale(a, st, "open")
			}
			return f.showStep(ctx, sc, a, ScreenConsistency, StateConsistency)
		}
		if st != StateConsistency {
			return f.ignoreStale(a, st, "consistency")
		}
		ok, err := f.record(ctx, sc, a, ans, func(v int) model.MovementPatch {
			return model.MovementPatch{Consistency: &v}
		})
		if err != nil || !ok {
			return err
		}
		return f.showStep(ctx, sc, a, ScreenMucus, StateMucus)

	case StepMucus:
		if st != StateMucus {
			return f.ignoreStale(a, st, "mucus")
		}
		ok, err := f.record(ctx, sc, a, ans, func(v int) model.MovementPatch {
			return model.MovementPatch{Mucus: &v}
		})
		if err != nil || !ok {
			return err
		}
		return f.showStep(ctx, sc, a, ScreenBlood, StateBlood)

	case StepBlood:
		if st != StateBlood {
			return f.ignoreStale(a, st, "blood")
		}
		ok, err := f.record(ctx, sc, a, ans, func(v int) model.MovementPatch {
			return model.MovementPatch{BloodLevel: &v}
		})
		if err != nil || !ok {
			return err
		}
		return f.showStep(ctx, sc, a, ScreenNotes, StateWaitingNotes)
	}
	return fmt.Errorf("flow: unknown step kind %d", ans.Kind)
}

// Back re-renders the previous question. Answers already recorded stay
// in place; re-answering overwrites them.
func (f *Flow) Back(ctx context.Context, sc *fsm.Context, a Actor, from fsm.State) error {
	st, err := sc.State(ctx)
	if err != nil {
		return err
	}
	if st != from {
		return f.ignoreStale(a, st, "back")
	}
	switch from {
	case StateMucus:
		return f.showStep(ctx, sc, a, ScreenConsistency, StateConsistency)
	case StateBlood:
		return f.showStep(ctx, sc, a, ScreenMucus, StateMucus)
	case StateWaitingNotes:
		return f.showStep(ctx, sc, a, ScreenBlood, StateBlood)
	}
	return f.ignoreStale(a, st, "back")
}

// SaveNotes attaches the free-text note and finalizes the record. The
// prompt message is edited into the result first, then the user's note
// message is removed to keep the chat to one message per record.
func (f *Flow) SaveNotes(ctx context.Context, sc *fsm.Context, a Actor, note string, noteMsgID int) error {
	st, err := sc.State(ctx)
	if err != nil {
		return err
	}
	if st != StateWaitingNotes {
		return f.ignoreStale(a, st, "notes")
	}

	id, _, err := f.session(ctx, sc)
	if err != nil {
		return err
	}
	m, err := f.movements.Update(ctx, id, model.MovementPatch{Notes: &note})
	if errors.Is(err, service.ErrMovementNotFound) {
		return f.finalizeVanished(ctx, sc, a)
	}
	if err != nil {
		return err
	}
	if err := f.finalize(ctx, sc, a, m); err != nil {
		return err
	}
	if err := f.msgr.DeleteMessage(ctx, a.ChatID, noteMsgID); err != nil {
		logger.Flow.Warn("note message cleanup failed",
			slog.Int64("chat_id", a.ChatID),
			slog.Any("error", err),
		)
	}
	return nil
}

// SkipNotes finalizes the record without a note.
func (f *Flow) SkipNotes(ctx context.Context, sc *fsm.Context, a Actor) error {
	st, err := sc.State(ctx)
	if err != nil {
		return err
	}
	if st != StateWaitingNotes {
		return f.ignoreStale(a, st, "skip_notes")
	}

	id, _, err := f.session(ctx, sc)
	if err != nil {
		return err
	}
	m, err := f.movements.GetByID(ctx, id)
	if errors.Is(err, service.ErrMovementNotFound) {
		return f.finalizeVanished(ctx, sc, a)
	}
	if err != nil {
		return err
	}
	return f.finalize(ctx, sc, a, m)
}

// FalseUrge marks the record as a false urge and finalizes immediately,
// skipping the whole questionnaire.
func (f *Flow) FalseUrge(ctx context.Context, sc *fsm.Context, a Actor) error {
	st, err := sc.State(ctx)
	if err != nil {
		return err
	}
	if st != StateEntryInit {
		return f.ignoreStale(a, st, "false_urge")
	}

	id, _, err := f.session(ctx, sc)
	if err != nil {
		return err
	}
	urge := true
	m, err := f.movements.Update(ctx, id, model.MovementPatch{FalseUrge: &urge})
	if errors.Is(err, service.ErrMovementNotFound) {
		return f.finalizeVanished(ctx, sc, a)
	}
	if err != nil {
		return err
	}
	return f.finalize(ctx, sc, a, m)
}

// RequestDelete swaps the current screen for a confirmation prompt.
// Origin tells CancelDelete which screen to restore.
func (f *Flow) RequestDelete(ctx context.Context, a Actor, origin string, movementID int64, msgID int) error {
	return f.msgr.EditScreen(ctx, a.ChatID, msgID, Screen{
		Kind:       ScreenDeleteConfirm,
		MovementID: movementID,
		Origin:     origin,
	})
}

// ConfirmDelete removes the record. For a live conversation the FSM row
// is cleared too; deleting an already-deleted record is a no-op.
func (f *Flow) ConfirmDelete(ctx context.Context, sc *fsm.Context, a Actor, origin string, movementID int64, msgID int) error {
	if err := f.movements.Delete(ctx, movementID); err != nil {
		return err
	}
	if origin == OriginEntry {
		if err := sc.Clear(ctx); err != nil {
			return err
		}
	}
	return f.msgr.EditText(ctx, a.ChatID, msgID, textDeleted)
}

// CancelDelete restores the screen the confirmation replaced.
func (f *Flow) CancelDelete(ctx context.Context, sc *fsm.Context, a Actor, origin string, movementID int64, msgID int) error {
	if origin == OriginResult {
		m, err := f.movements.GetByID(ctx, movementID)
		if errors.Is(err, service.ErrMovementNotFound) {
			return f.msgr.EditText(ctx, a.ChatID, msgID, textVanished)
		}
		if err != nil {
			return err
		}
		u, err := f.users.GetOrCreate(ctx, a.UserID, a.Language)
		if err != nil {
			return err
		}
		return f.msgr.EditResult(ctx, a.ChatID, msgID, RenderResult(m, u.OffsetMinutes()), m.ID)
	}
	return f.msgr.EditScreen(ctx, a.ChatID, msgID, Screen{
		Kind:       ScreenEntryMenu,
		MovementID: movementID,
		Origin:     OriginEntry,
	})
}

// record writes one answered step. A skip records nothing; a zero value
// is a real answer and is stored. The bool reports whether the
// conversation is still alive: false means the record vanished and the
// state was already dropped.
func (f *Flow) record(ctx context.Context, sc *fsm.Context, a Actor, ans Answer, patch func(int) model.MovementPatch) (bool, error) {
	if ans.Skip {
		return true, nil
	}
	id, _, err := f.session(ctx, sc)
	if err != nil {
		return false, err
	}
	if _, err := f.movements.Update(ctx, id, patch(ans.Value)); err != nil {
		if errors.Is(err, service.ErrMovementNotFound) {
			return false, f.finalizeVanished(ctx, sc, a)
		}
		return false, err
	}
	return true, nil
}

func (f *Flow) showStep(ctx context.Context, sc *fsm.Context, a Actor, kind ScreenKind, next fsm.State) error {
	id, msgID, err := f.session(ctx, sc)
	if err != nil {
		return err
	}
	if err := f.msgr.EditScreen(ctx, a.ChatID, msgID, Screen{
		Kind:       kind,
		MovementID: id,
		Origin:     OriginEntry,
	}); err != nil {
		return err
	}
	return sc.SetState(ctx, next)
}

// finalize renders the result over the prompt message and releases the
// FSM row. Clearing last keeps a crashed render resumable.
func (f *Flow) finalize(ctx context.Context, sc *fsm.Context, a Actor, m *model.Movement) error {
	u, err := f.users.GetOrCreate(ctx, a.UserID, a.Language)
	if err != nil {
		return err
	}
	_, msgID, err := f.session(ctx, sc)
	if err != nil {
		return err
	}
	if err := f.msgr.EditResult(ctx, a.ChatID, msgID, RenderResult(m, u.OffsetMinutes()), m.ID); err != nil {
		return err
	}
	return sc.Clear(ctx)
}

// finalizeVanished closes a conversation whose record was deleted from
// under it. The state is dropped without announcing anything.
func (f *Flow) finalizeVanished(ctx context.Context, sc *fsm.Context, a Actor) error {
	logger.Flow.Warn("record vanished mid-conversation",
		slog.Int64("user_id", a.UserID),
	)
	return sc.Clear(ctx)
}

// session reads the conversation's working data. Both values are set at
// Start, so their absence means the row was cleared or tampered with.
func (f *Flow) session(ctx context.Context, sc *fsm.Context) (movementID int64, promptMsgID int, err error) {
	data, err := sc.Data(ctx)
	if err != nil {
		return 0, 0, err
	}
	id, ok := fsm.DataInt64(data, dataMovementID)
	if !ok {
		return 0, 0, fmt.Errorf("flow: conversation data missing %q", dataMovementID)
	}
	msg, ok := fsm.DataInt64(data, dataPromptMsg)
	if !ok {
		return 0, 0, fmt.Errorf("flow: conversation data missing %q", dataPromptMsg)
	}
	return id, int(msg), nil
}

func (f *Flow) ignoreStale(a Actor, st fsm.State, step string) error {
	logger.Flow.Debug("stale callback ignored",
		slog.Int64("user_id", a.UserID),
		slog.String("state", string(st)),
		slog.String("step", step),
	)
	return nil
}
