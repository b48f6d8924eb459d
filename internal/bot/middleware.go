package bot

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/laefree/ibdiary/core/logger"
	tghelpers "github.com/laefree/ibdiary/core/telegram/helpers"
	"github.com/laefree/ibdiary/internal/flow"
	"github.com/laefree/ibdiary/internal/fsm"
)

const sessionKey = "fsm_session"

// SessionGate binds every update to its conversation: resolve the
// destiny, take the per-key lock, and expose a state accessor to the
// handler. The lock is held for the whole handler so two updates of the
// same conversation can never interleave their read-modify-write
// cycles; the accessor is built only after the lock is taken, which
// makes every state read inside the handler a post-lock snapshot.
type SessionGate struct {
	storage  fsm.Storage
	locks    *fsm.KeyedMutex
	keys     fsm.KeyBuilder
	resolver *Resolver
}

func NewSessionGate(storage fsm.Storage, keys fsm.KeyBuilder) *SessionGate {
	return &SessionGate{
		storage:  storage,
		locks:    fsm.NewKeyedMutex(),
		keys:     keys,
		resolver: NewResolver(storage),
	}
}

// Use is the telebot middleware entry point.
func (g *SessionGate) Use(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		sender := c.Sender()
		chat := c.Chat()
		if sender == nil || chat == nil {
			return next(c)
		}

		ctx := tghelpers.BuildContext(c)
		destiny, err := g.resolver.Resolve(ctx, c)
		if err != nil {
			return err
		}

		key := fsm.Key{
			BotID:   botID(c),
			ChatID:  chat.ID,
			UserID:  sender.ID,
			Destiny: destiny,
		}
		release := g.locks.Lock(g.keys.Build(key))
		defer release()

		c.Set(sessionKey, fsm.NewContext(g.storage, key))
		return next(c)
	}
}

// Session returns the conversation accessor installed by the gate.
// Handlers registered behind the gate can rely on it being present.
func Session(c tele.Context) (*fsm.Context, bool) {
	sc, ok := c.Get(sessionKey).(*fsm.Context)
	return sc, ok
}

// SessionFor builds an accessor for another destiny of the same user
// and locks it. The caller must invoke the returned release func.
// Used by /start, which drives the timezone wizard while its own update
// was routed to the default destiny.
func (g *SessionGate) SessionFor(c tele.Context, destiny string) (*fsm.Context, func()) {
	key := fsm.Key{
		BotID:   botID(c),
		ChatID:  c.Chat().ID,
		UserID:  c.Sender().ID,
		Destiny: destiny,
	}
	release := g.locks.Lock(g.keys.Build(key))
	return fsm.NewContext(g.storage, key), release
}

// ErrorBoundary turns handler failures into a generic apology so a
// storage outage or Telegram hiccup never surfaces raw errors to the
// chat. The error is logged with the update's correlation metadata.
func ErrorBoundary() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			ctx := tghelpers.BuildContext(c)
			logger.Error(ctx, "tg.handler", "update failed",
				slog.String("err", err.Error()),
			)
			if c.Callback() != nil {
				_ = c.Respond(&tele.CallbackResponse{Text: textSomethingWrong})
			} else {
				_ = tghelpers.SendText(c, textSomethingWrong)
			}
			return nil
		}
	}
}

// actorFrom packs the update's addressing into the flow's Actor.
func actorFrom(c tele.Context) flow.Actor {
	a := flow.Actor{}
	if chat := c.Chat(); chat != nil {
		a.ChatID = chat.ID
	}
	if sender := c.Sender(); sender != nil {
		a.UserID = sender.ID
		a.Language = sender.LanguageCode
	}
	return a
}
