// Package bot wires the Telegram transport to the diary conversation:
// destiny resolution, per-conversation locking, handlers, and keyboards.
package bot

import (
	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/laefree/ibdiary/core/config"
	tg "github.com/laefree/ibdiary/core/telegram"
	"github.com/laefree/ibdiary/core/telegram/commands"
	"github.com/laefree/ibdiary/core/telegram/router"
	"github.com/laefree/ibdiary/internal/fsm"
	"github.com/laefree/ibdiary/internal/service"
)

// App owns the bot's long-lived components. It satisfies the cmd
// runner's TelegramApp contract.
type App struct {
	cfg     *coreconfig.Config
	db      *sqlx.DB
	storage *fsm.PostgresStorage
	gate    *SessionGate
	h       *Handlers
}

func NewApp(cfg *coreconfig.Config, db *sqlx.DB) *App {
	keys := fsm.NewKeyBuilder()
	storage := fsm.NewPostgresStorage(db, keys)
	users := service.NewUsers(db)
	movements := service.NewMovements(db)
	gate := NewSessionGate(storage, keys)

	return &App{
		cfg:     cfg,
		db:      db,
		storage: storage,
		gate:    gate,
		h:       NewHandlers(gate, users, movements),
	}
}

// TelegramRunOptions assembles the registry, routes, and middleware
// chain for the core Telegram runner.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	reg := tg.NewRegistry()

	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.h.Start,
		Description: "Начать работу с ботом",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     a.h.Help,
		Description: "Показать справку",
	})
	reg.RegisterCommand("/about", commands.Command{
		Handler:     a.h.About,
		Description: "Информация о боте",
	})

	for key, handler := range a.callbackHandlers() {
		if err := reg.RegisterCallback(key, handler); err != nil {
			return tg.RunOptions{}, err
		}
	}

	var fb fallbacks
	routes := router.CommandRoutes(reg, router.CommandRouteOptions{AdminID: a.cfg.Telegram.AdminID})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{NotFound: fb.UnknownCallback()}))
	routes = append(routes, router.TextRoutes(a.h, reg, router.TextOptions{
		UnknownText:     fb.UnknownText(),
		UnknownDocument: fb.UnknownDocument(),
	})...)

	mws := tg.DefaultMiddlewares(a.cfg, nil)
	mws = append(mws,
		tg.Middleware{Name: "error_boundary", Use: ErrorBoundary()},
		tg.Middleware{Name: "session_gate", Use: a.gate.Use},
	)

	return tg.RunOptions{
		Config:      a.cfg,
		Registry:    reg,
		Middlewares: mws,
		Routes:      routes,
	}, nil
}

func (a *App) callbackHandlers() map[string]tele.HandlerFunc {
	return map[string]tele.HandlerFunc{
		cbConsistency:      a.h.onConsistency,
		cbMucus:            a.h.onMucus,
		cbBlood:            a.h.onBlood,
		cbSkipNotes:        a.h.onSkipNotes,
		cbFalseUrge:        a.h.onFalseUrge,
		cbBackNotes:        a.h.onBackFromNotes,
		cbBackMucus:        a.h.onBackFromMucus,
		cbBackBlood:        a.h.onBackFromBlood,
		cbDelete:           a.h.onDelete,
		cbDeleteConfirm:    a.h.onDeleteConfirm,
		cbDeleteCancel:     a.h.onDeleteCancel,
		cbSettingsTimezone: a.h.onSettingsTimezone,
		cbSetHourTimezone:  a.h.onSetHourTimezone,
		cbSetMinTimezone:   a.h.onSetMinuteTimezone,
	}
}

// Storage exposes the FSM storage, mainly for graceful shutdown hooks.
func (a *App) Storage() *fsm.PostgresStorage { return a.storage }
