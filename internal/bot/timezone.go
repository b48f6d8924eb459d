package bot

import (
	tele "gopkg.in/telebot.v4"

	"github.com/laefree/ibdiary/core/telegram/callbacks"
	tghelpers "github.com/laefree/ibdiary/core/telegram/helpers"
	"github.com/laefree/ibdiary/internal/fsm"
	"github.com/laefree/ibdiary/internal/model"
	"github.com/laefree/ibdiary/internal/service"
)

// Timezone wizard states, persisted under the timezone destiny.
const (
	stateTimezoneHour   fsm.State = "timezone_hour"
	stateTimezoneMinute fsm.State = "timezone_minute"
)

// Start handles /start: greet, show the main keyboard, and open the
// timezone wizard for users who never set an offset.
func (h *Handlers) Start(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	u, err := h.users.GetOrCreate(ctx, sender.ID, sender.LanguageCode)
	if err != nil {
		return err
	}
	if err := tghelpers.SendText(c, textWelcome, &tele.SendOptions{ReplyMarkup: MainKeyboard()}); err != nil {
		return err
	}
	if u.HasTimezone() {
		return nil
	}

	// The update itself was routed to the default destiny, so the
	// wizard's session is locked explicitly.
	sc, release := h.gate.SessionFor(c, TimezoneDestiny)
	defer release()
	if err := sc.SetState(ctx, stateTimezoneHour); err != nil {
		return err
	}
	return tghelpers.SendText(c, textSetupTimezone, &tele.SendOptions{ReplyMarkup: timezoneHourKeyboard()})
}

// ShowSettings prints the current timezone with a button to change it.
func (h *Handlers) ShowSettings(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	u, err := h.users.GetOrCreate(ctx, sender.ID, sender.LanguageCode)
	if err != nil {
		return err
	}
	return tghelpers.SendText(c, "Ваша текущая таймзона: "+service.FormatOffset(u),
		&tele.SendOptions{ReplyMarkup: settingsKeyboard()})
}

func (h *Handlers) onSettingsTimezone(c tele.Context) error {
	sc, ok := Session(c)
	if !ok {
		return nil
	}
	if err := sc.SetState(tghelpers.BuildContext(c), stateTimezoneHour); err != nil {
		return err
	}
	return c.Edit(textTimezoneHours, timezoneHourKeyboard())
}

// onSetHourTimezone stores the hour part and asks for minutes. A skip
// keeps whatever offset the user already has.
func (h *Handlers) onSetHourTimezone(c tele.Context) error {
	sc, ok := Session(c)
	if !ok {
		return nil
	}
	ctx := tghelpers.BuildContext(c)

	if callbacks.CallbackPayload(c) != "skip" {
		hours, err := callbacks.PayloadInt(c)
		if err != nil || hours < -12 || hours > 12 {
			return nil
		}
		if err := h.users.SetHourOffset(ctx, c.Sender().ID, hours); err != nil {
			return err
		}
	}
	if err := sc.SetState(ctx, stateTimezoneMinute); err != nil {
		return err
	}
	return c.Edit(textTimezoneMinutes, timezoneMinuteKeyboard())
}

// onSetMinuteTimezone stores the minute part and closes the wizard.
func (h *Handlers) onSetMinuteTimezone(c tele.Context) error {
	sc, ok := Session(c)
	if !ok {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	sender := c.Sender()

	var u *model.User
	if callbacks.CallbackPayload(c) == "skip" {
		current, err := h.users.GetOrCreate(ctx, sender.ID, sender.LanguageCode)
		if err != nil {
			return err
		}
		u = current
	} else {
		minutes, err := callbacks.PayloadInt(c)
		if err != nil || minutes < 0 || minutes > 59 {
			return nil
		}
		updated, err := h.users.SetMinuteOffset(ctx, sender.ID, minutes)
		if err != nil {
			return err
		}
		u = updated
	}

	if err := sc.Clear(ctx); err != nil {
		return err
	}
	if err := c.Edit("Таймзона успешно установлена\n\nВаша текущая таймзона: " + service.FormatOffset(u)); err != nil {
		return err
	}
	return tghelpers.SendText(c, textUseEntryButton)
}
