package bot

import (
	"context"
	"strconv"

	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/laefree/ibdiary/core/telegram/helpers"
	"github.com/laefree/ibdiary/internal/flow"
)

// teleMessenger adapts one update's telebot context to the flow's
// transport interface. Edits address messages by stored id, so the flow
// can keep editing its prompt message regardless of which update is
// being handled. Fire-and-forget calls go through the async dispatcher;
// edits run inline because the next state transition depends on them.
type teleMessenger struct {
	c tele.Context
}

func newMessenger(c tele.Context) *teleMessenger {
	return &teleMessenger{c: c}
}

// SendScreen runs inline: the returned message id is stored in the
// conversation data and must exist before the state advances.
func (m *teleMessenger) SendScreen(_ context.Context, chatID int64, s flow.Screen) (int, error) {
	text, markup := screenView(s)
	msg, err := m.c.Bot().Send(tele.ChatID(chatID), text, &tele.SendOptions{
		ParseMode:   tele.ModeHTML,
		ReplyMarkup: markup,
	})
	if err != nil {
		return 0, err
	}
	return msg.ID, nil
}

func (m *teleMessenger) EditScreen(_ context.Context, chatID int64, msgID int, s flow.Screen) error {
	text, markup := screenView(s)
	_, err := m.c.Bot().Edit(storedMessage(chatID, msgID), text, &tele.SendOptions{
		ParseMode:   tele.ModeHTML,
		ReplyMarkup: markup,
	})
	return err
}

func (m *teleMessenger) EditResult(_ context.Context, chatID int64, msgID int, text string, movementID int64) error {
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML}
	if movementID != 0 {
		opts.ReplyMarkup = resultKeyboard(movementID)
	}
	_, err := m.c.Bot().Edit(storedMessage(chatID, msgID), text, opts)
	return err
}

func (m *teleMessenger) EditText(_ context.Context, chatID int64, msgID int, text string) error {
	_, err := m.c.Bot().Edit(storedMessage(chatID, msgID), text)
	return err
}

func (m *teleMessenger) SendText(_ context.Context, chatID int64, text string) error {
	return tghelpers.Async(m.c, "send.text", "sendMessage", func() error {
		_, err := m.c.Bot().Send(tele.ChatID(chatID), text)
		return err
	})
}

func (m *teleMessenger) DeleteMessage(_ context.Context, chatID int64, msgID int) error {
	return tghelpers.Async(m.c, "delete.message", "deleteMessage", func() error {
		return m.c.Bot().Delete(storedMessage(chatID, msgID))
	})
}

func storedMessage(chatID int64, msgID int) tele.StoredMessage {
	return tele.StoredMessage{MessageID: strconv.Itoa(msgID), ChatID: chatID}
}
