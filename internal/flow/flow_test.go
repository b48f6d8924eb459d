package flow

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laefree/ibdiary/internal/fsm"
	"github.com/laefree/ibdiary/internal/model"
	"github.com/laefree/ibdiary/internal/service"
)

type fakeMovements struct {
	nextID int64
	rows   map[int64]*model.Movement
}

func newFakeMovements() *fakeMovements {
	return &fakeMovements{rows: map[int64]*model.Movement{}}
}

func (f *fakeMovements) Create(_ context.Context, userID int64) (*model.Movement, error) {
	f.nextID++
	m := &model.Movement{
		ID:        f.nextID,
		UserID:    userID,
		CreatedAt: time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC),
	}
	f.rows[m.ID] = m
	cp := *m
	return &cp, nil
}

func (f *fakeMovements) GetByID(_ context.Context, id int64) (*model.Movement, error) {
	m, ok := f.rows[id]
	if !ok {
		return nil, fmt.Errorf("get movement %d: %w", id, service.ErrMovementNotFound)
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMovements) Update(_ context.Context, id int64, patch model.MovementPatch) (*model.Movement, error) {
	m, ok := f.rows[id]
	if !ok {
		return nil, fmt.Errorf("update movement %d: %w", id, service.ErrMovementNotFound)
	}
	if patch.Notes != nil {
		m.Notes = sql.NullString{String: *patch.Notes, Valid: true}
	}
	if patch.Consistency != nil {
		m.Consistency = sql.NullInt64{Int64: int64(*patch.Consistency), Valid: true}
	}
	if patch.Mucus != nil {
		m.Mucus = sql.NullInt64{Int64: int64(*patch.Mucus), Valid: true}
	}
	if patch.BloodLevel != nil {
		m.BloodLevel = sql.NullInt64{Int64: int64(*patch.BloodLevel), Valid: true}
	}
	if patch.FalseUrge != nil {
		m.FalseUrge = *patch.FalseUrge
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMovements) Delete(_ context.Context, id int64) error {
	delete(f.rows, id)
	return nil
}

type fakeUsers struct{ offset sql.NullInt64 }

func (f *fakeUsers) GetOrCreate(_ context.Context, telegramID int64, _ string) (*model.User, error) {
	return &model.User{ID: 1, TelegramID: telegramID, TimezoneOffset: f.offset}, nil
}

type msgrCall struct {
	op     string
	chatID int64
	msgID  int
	screen Screen
	text   string
	withKb int64
}

type fakeMessenger struct {
	nextMsgID int
	calls     []msgrCall
}

func (f *fakeMessenger) SendScreen(_ context.Context, chatID int64, s Screen) (int, error) {
	f.nextMsgID++
	f.calls = append(f.calls, msgrCall{op: "send_screen", chatID: chatID, msgID: f.nextMsgID, screen: s})
	return f.nextMsgID, nil
}

func (f *fakeMessenger) EditScreen(_ context.Context, chatID int64, msgID int, s Screen) error {
	f.calls = append(f.calls, msgrCall{op: "edit_screen", chatID: chatID, msgID: msgID, screen: s})
	return nil
}

func (f *fakeMessenger) EditResult(_ context.Context, chatID int64, msgID int, text string, movementID int64) error {
	f.calls = append(f.calls, msgrCall{op: "edit_result", chatID: chatID, msgID: msgID, text: text, withKb: movementID})
	return nil
}

func (f *fakeMessenger) EditText(_ context.Context, chatID int64, msgID int, text string) error {
	f.calls = append(f.calls, msgrCall{op: "edit_text", chatID: chatID, msgID: msgID, text: text})
	return nil
}

func (f *fakeMessenger) SendText(_ context.Context, chatID int64, text string) error {
	f.calls = append(f.calls, msgrCall{op: "send_text", chatID: chatID, text: text})
	return nil
}

func (f *fakeMessenger) DeleteMessage(_ context.Context, chatID int64, msgID int) error {
	f.calls = append(f.calls, msgrCall{op: "delete_message", chatID: chatID, msgID: msgID})
	return nil
}

func (f *fakeMessenger) last(t *testing.T) msgrCall {
	t.Helper()
	require.NotEmpty(t, f.calls)
	return f.calls[len(f.calls)-1]
}

type flowFixture struct {
	flow      *Flow
	store     *fsm.MemoryStorage
	sc        *fsm.Context
	movements *fakeMovements
	msgr      *fakeMessenger
	actor     Actor
}

func newFixture(t *testing.T) *flowFixture {
	t.Helper()
	store := fsm.NewMemoryStorage()
	t.Cleanup(func() { _ = store.Close() })

	movements := newFakeMovements()
	msgr := &fakeMessenger{}
	users := &fakeUsers{offset: sql.NullInt64{Int64: 180, Valid: true}}

	key := fsm.Key{BotID: 1, ChatID: 100, UserID: 200, Destiny: Destiny}
	return &flowFixture{
		flow:      New(movements, users, msgr),
		store:     store,
		sc:        fsm.NewContext(store, key),
		movements: movements,
		msgr:      msgr,
		actor:     Actor{ChatID: 100, UserID: 200, Language: "ru"},
	}
}

func (fx *flowFixture) mustState(t *testing.T, want fsm.State) {
	t.Helper()
	st, err := fx.sc.State(context.Background())
	require.NoError(t, err)
	require.Equal(t, want, st)
}

func TestFlowFullConversation(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.flow.Start(ctx, fx.sc, fx.actor))
	fx.mustState(t, StateEntryInit)
	assert.Equal(t, "send_screen", fx.msgr.last(t).op)
	assert.Equal(t, ScreenEntryMenu, fx.msgr.last(t).screen.Kind)

	require.NoError(t, fx.flow.Answer(ctx, fx.sc, fx.actor, ParseAnswer(StepConsistency, "open")))
	fx.mustState(t, StateConsistency)

	require.NoError(t, fx.flow.Answer(ctx, fx.sc, fx.actor, ParseAnswer(StepConsistency, "2")))
	fx.mustState(t, StateMucus)

	require.NoError(t, fx.flow.Answer(ctx, fx.sc, fx.actor, ParseAnswer(StepMucus, "1")))
	fx.mustState(t, StateBlood)

	require.NoError(t, fx.flow.Answer(ctx, fx.sc, fx.actor, ParseAnswer(StepBlood, "0")))
	fx.mustState(t, StateWaitingNotes)

	require.NoError(t, fx.flow.SaveNotes(ctx, fx.sc, fx.actor, "ok", 42))

	m := fx.movements.rows[1]
	require.NotNil(t, m)
	assert.Equal(t, int64(2), m.Consistency.Int64)
	assert.Equal(t, int64(1), m.Mucus.Int64)
	require.True(t, m.BloodLevel.Valid, "recorded zero must not look like a skip")
	assert.Equal(t, int64(0), m.BloodLevel.Int64)
	assert.Equal(t, "ok", m.Notes.String)

	fx.mustState(t, fsm.StateNone)
	assert.Equal(t, 0, fx.store.Len(), "finished conversation must leave no row behind")

	var deleted bool
	for _, c := range fx.msgr.calls {
		if c.op == "delete_message" && c.msgID == 42 {
			deleted = true
		}
	}
	assert.True(t, deleted, "note message should be removed after the result is shown")
}

func TestFlowSecondStartRejected(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.flow.Start(ctx, fx.sc, fx.actor))
	require.NoError(t, fx.flow.Answer(ctx, fx.sc, fx.actor, ParseAnswer(StepConsistency, "open")))
	fx.mustState(t, StateConsistency)

	require.NoError(t, fx.flow.Start(ctx, fx.sc, fx.actor))

	last := fx.msgr.last(t)
	assert.Equal(t, "send_text", last.op)
	assert.Equal(t, textFinishCurrent, last.text)
	assert.Len(t, fx.movements.rows, 1, "rejected start must not create a record")
	fx.mustState(t, StateConsistency)
}

func TestFlowSkipLeavesAnswerEmpty(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.flow.Start(ctx, fx.sc, fx.actor))
	require.NoError(t, fx.flow.Answer(ctx, fx.sc, fx.actor, ParseAnswer(StepConsistency, "open")))
	require.NoError(t, fx.flow.Answer(ctx, fx.sc, fx.actor, ParseAnswer(StepConsistency, "skip")))
	fx.mustState(t, StateMucus)

	m := fx.movements.rows[1]
	assert.False(t, m.Consistency.Valid, "skip must keep the column NULL")
}

func TestFlowMalformedPayloadTreatedAsSkip(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.flow.Start(ctx, fx.sc, fx.actor))
	require.NoError(t, fx.flow.Answer(ctx, fx.sc, fx.actor, ParseAnswer(StepConsistency, "open")))
	require.NoError(t, fx.flow.Answer(ctx, fx.sc, fx.actor, ParseAnswer(StepConsistency, "99")))
	fx.mustState(t, StateMucus)
	assert.False(t, fx.movements.rows[1].Consistency.Valid)

	require.NoError(t, fx.flow.Answer(ctx, fx.sc, fx.actor, ParseAnswer(StepMucus, "garbage")))
	fx.mustState(t, StateBlood)
	assert.False(t, fx.movements.rows[1].Mucus.Valid)
}

func TestFlowBackKeepsRecordedAnswers(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.flow.Start(ctx, fx.sc, fx.actor))
	require.NoError(t, fx.flow.Answer(ctx, fx.sc, fx.actor, ParseAnswer(StepConsistency, "open")))
	require.NoError(t, fx.flow.Answer(ctx, fx.sc, fx.actor, ParseAnswer(StepConsistency, "3")))
	require.NoError(t, fx.flow.Answer(ctx, fx.sc, fx.actor, ParseAnswer(StepMucus, "2")))
	fx.mustState(t, StateBlood)

	require.NoError(t, fx.flow.Back(ctx, fx.sc, fx.actor, StateBlood))
	fx.mustState(t, StateMucus)
	assert.Equal(t, int64(2), fx.movements.rows[1].Mucus.Int64, "back must not erase answers")

	require.NoError(t, fx.flow.Answer(ctx, fx.sc, fx.actor, ParseAnswer(StepMucus, "0")))
	fx.mustState(t, StateBlood)
	assert.Equal(t, int64(0), fx.movements.rows[1].Mucus.Int64, "re-answer overwrites")
}

func TestFlowFalseUrgeFinalizesImmediately(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.flow.Start(ctx, fx.sc, fx.actor))
	require.NoError(t, fx.flow.FalseUrge(ctx, fx.sc, fx.actor))

	assert.True(t, fx.movements.rows[1].FalseUrge)
	fx.mustState(t, fsm.StateNone)
	assert.Equal(t, 0, fx.store.Len())

	last := fx.msgr.last(t)
	assert.Equal(t, "edit_result", last.op)
	assert.Contains(t, last.text, "Ложный позыв")
}

func TestFlowDeleteFromEntryClearsConversation(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.flow.Start(ctx, fx.sc, fx.actor))
	promptID := fx.msgr.last(t).msgID

	require.NoError(t, fx.flow.RequestDelete(ctx, fx.actor, OriginEntry, 1, promptID))
	assert.Equal(t, ScreenDeleteConfirm, fx.msgr.last(t).screen.Kind)

	require.NoError(t, fx.flow.ConfirmDelete(ctx, fx.sc, fx.actor, OriginEntry, 1, promptID))
	assert.Empty(t, fx.movements.rows)
	fx.mustState(t, fsm.StateNone)
	assert.Equal(t, 0, fx.store.Len())
	assert.Equal(t, textDeleted, fx.msgr.last(t).text)
}

func TestFlowCancelDeleteRestoresEntryMenu(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.flow.Start(ctx, fx.sc, fx.actor))
	promptID := fx.msgr.last(t).msgID

	require.NoError(t, fx.flow.RequestDelete(ctx, fx.actor, OriginEntry, 1, promptID))
	require.NoError(t, fx.flow.CancelDelete(ctx, fx.sc, fx.actor, OriginEntry, 1, promptID))

	last := fx.msgr.last(t)
	assert.Equal(t, ScreenEntryMenu, last.screen.Kind)
	fx.mustState(t, StateEntryInit)
	assert.Len(t, fx.movements.rows, 1)
}

func TestFlowDeleteFromResultNeedsNoState(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.flow.Start(ctx, fx.sc, fx.actor))
	require.NoError(t, fx.flow.FalseUrge(ctx, fx.sc, fx.actor))
	resultMsgID := fx.msgr.last(t).msgID
	require.Equal(t, 0, fx.store.Len())

	require.NoError(t, fx.flow.RequestDelete(ctx, fx.actor, OriginResult, 1, resultMsgID))
	require.NoError(t, fx.flow.ConfirmDelete(ctx, fx.sc, fx.actor, OriginResult, 1, resultMsgID))

	assert.Empty(t, fx.movements.rows)
	assert.Equal(t, textDeleted, fx.msgr.last(t).text)
	assert.Equal(t, 0, fx.store.Len())
}

func TestFlowStaleCallbackIgnored(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.flow.Start(ctx, fx.sc, fx.actor))

	// Mucus answer while still on the entry menu: stale button.
	require.NoError(t, fx.flow.Answer(ctx, fx.sc, fx.actor, ParseAnswer(StepMucus, "1")))
	fx.mustState(t, StateEntryInit)
	assert.False(t, fx.movements.rows[1].Mucus.Valid)
}

func TestFlowVanishedRecordDropsState(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.flow.Start(ctx, fx.sc, fx.actor))
	require.NoError(t, fx.flow.Answer(ctx, fx.sc, fx.actor, ParseAnswer(StepConsistency, "open")))
	delete(fx.movements.rows, 1)

	require.NoError(t, fx.flow.Answer(ctx, fx.sc, fx.actor, ParseAnswer(StepConsistency, "2")))
	fx.mustState(t, fsm.StateNone)
	assert.Equal(t, 0, fx.store.Len())
}
