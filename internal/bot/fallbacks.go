package bot

import (
	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/laefree/ibdiary/core/telegram/helpers"
	"github.com/laefree/ibdiary/core/telegram/ui"
)

// fallbacks implements ui.FallbackProvider for updates no handler
// claimed: unknown text gets a nudge toward the entry button, stale
// callbacks get a toast instead of silence.
type fallbacks struct{}

var _ ui.FallbackProvider = fallbacks{}

func (fallbacks) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, textUseEntryButton)
	}
}

func (fallbacks) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, "Я пока не умею обрабатывать файлы")
	}
}

func (fallbacks) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: "Кнопка устарела"})
	}
}
