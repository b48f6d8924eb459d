package bot

import (
	tele "gopkg.in/telebot.v4"

	"github.com/laefree/ibdiary/core/telegram/callbacks"
	tghelpers "github.com/laefree/ibdiary/core/telegram/helpers"
	"github.com/laefree/ibdiary/internal/flow"
	"github.com/laefree/ibdiary/internal/fsm"
	"github.com/laefree/ibdiary/internal/service"
)

// Handlers binds Telegram updates to the diary flow and the timezone
// wizard. A fresh Flow is built per update because its transport wraps
// the update's own context.
type Handlers struct {
	gate      *SessionGate
	users     *service.Users
	movements *service.Movements
}

func NewHandlers(gate *SessionGate, users *service.Users, movements *service.Movements) *Handlers {
	return &Handlers{gate: gate, users: users, movements: movements}
}

func (h *Handlers) flow(c tele.Context) *flow.Flow {
	return flow.New(h.movements, h.users, newMessenger(c))
}

// StartEntry handles the diary trigger phrase.
func (h *Handlers) StartEntry(c tele.Context) error {
	sc, ok := Session(c)
	if !ok {
		return nil
	}
	return h.flow(c).Start(tghelpers.BuildContext(c), sc, actorFrom(c))
}

func (h *Handlers) onConsistency(c tele.Context) error {
	return h.answer(c, flow.StepConsistency)
}

func (h *Handlers) onMucus(c tele.Context) error {
	return h.answer(c, flow.StepMucus)
}

func (h *Handlers) onBlood(c tele.Context) error {
	return h.answer(c, flow.StepBlood)
}

func (h *Handlers) answer(c tele.Context, kind flow.StepKind) error {
	sc, ok := Session(c)
	if !ok {
		return nil
	}
	ans := flow.ParseAnswer(kind, callbacks.CallbackPayload(c))
	return h.flow(c).Answer(tghelpers.BuildContext(c), sc, actorFrom(c), ans)
}

func (h *Handlers) onBackFromMucus(c tele.Context) error {
	return h.back(c, flow.StateMucus)
}

func (h *Handlers) onBackFromBlood(c tele.Context) error {
	return h.back(c, flow.StateBlood)
}

func (h *Handlers) onBackFromNotes(c tele.Context) error {
	return h.back(c, flow.StateWaitingNotes)
}

func (h *Handlers) back(c tele.Context, from fsm.State) error {
	sc, ok := Session(c)
	if !ok {
		return nil
	}
	return h.flow(c).Back(tghelpers.BuildContext(c), sc, actorFrom(c), from)
}

func (h *Handlers) onSkipNotes(c tele.Context) error {
	sc, ok := Session(c)
	if !ok {
		return nil
	}
	return h.flow(c).SkipNotes(tghelpers.BuildContext(c), sc, actorFrom(c))
}

func (h *Handlers) onFalseUrge(c tele.Context) error {
	sc, ok := Session(c)
	if !ok {
		return nil
	}
	return h.flow(c).FalseUrge(tghelpers.BuildContext(c), sc, actorFrom(c))
}

func (h *Handlers) onDelete(c tele.Context) error {
	origin, id, msgID, ok := deleteArgs(c)
	if !ok {
		return nil
	}
	return h.flow(c).RequestDelete(tghelpers.BuildContext(c), actorFrom(c), origin, id, msgID)
}

func (h *Handlers) onDeleteConfirm(c tele.Context) error {
	sc, scOK := Session(c)
	origin, id, msgID, ok := deleteArgs(c)
	if !ok || !scOK {
		return nil
	}
	return h.flow(c).ConfirmDelete(tghelpers.BuildContext(c), sc, actorFrom(c), origin, id, msgID)
}

func (h *Handlers) onDeleteCancel(c tele.Context) error {
	sc, scOK := Session(c)
	origin, id, msgID, ok := deleteArgs(c)
	if !ok || !scOK {
		return nil
	}
	return h.flow(c).CancelDelete(tghelpers.BuildContext(c), sc, actorFrom(c), origin, id, msgID)
}

func deleteArgs(c tele.Context) (origin string, movementID int64, msgID int, ok bool) {
	cb := c.Callback()
	if cb == nil || cb.Message == nil {
		return "", 0, 0, false
	}
	origin, movementID, ok = parseDeletePayload(callbacks.CallbackPayload(c))
	return origin, movementID, cb.Message.ID, ok
}

// saveNote stores the free-text note of a waiting conversation.
func (h *Handlers) saveNote(c tele.Context, sc *fsm.Context) error {
	msg := c.Message()
	if msg == nil {
		return nil
	}
	return h.flow(c).SaveNotes(tghelpers.BuildContext(c), sc, actorFrom(c), msg.Text, msg.ID)
}

// Consume routes menu labels and waiting-for-notes text. It reports
// whether the update was handled so the text router can fall through to
// slash-command lookup otherwise.
func (h *Handlers) Consume(c tele.Context) (bool, error) {
	switch c.Text() {
	case LabelMakeEntry:
		return true, h.StartEntry(c)
	case LabelSettings:
		return true, h.ShowSettings(c)
	case LabelHelp:
		return true, h.Help(c)
	case LabelAbout:
		return true, h.About(c)
	}

	sc, ok := Session(c)
	if !ok || sc.Key().Destiny != flow.Destiny {
		return false, nil
	}
	st, err := sc.State(tghelpers.BuildContext(c))
	if err != nil {
		return true, err
	}
	if st != flow.StateWaitingNotes {
		return false, nil
	}
	return true, h.saveNote(c, sc)
}

// Help renders the command reference.
func (h *Handlers) Help(c tele.Context) error {
	return tghelpers.SendHTML(c, textHelp)
}

// About renders the project description.
func (h *Handlers) About(c tele.Context) error {
	return tghelpers.SendHTML(c, textAbout)
}
