package bot

import (
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v4"

	"github.com/laefree/ibdiary/core/telegram/keyboard"
	"github.com/laefree/ibdiary/internal/flow"
	"github.com/laefree/ibdiary/internal/model"
)

// MainKeyboard is the persistent reply keyboard shown after /start.
func MainKeyboard() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{LabelMakeEntry},
		[]string{LabelSettings},
		[]string{LabelHelp},
	)
}

func settingsKeyboard() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "🕒 Часовой пояс", Unique: cbSettingsTimezone},
	})
}

func timezoneHourKeyboard() *tele.ReplyMarkup {
	btns := make([]keyboard.InlineBtn, 0, 25)
	for offset := -12; offset <= 12; offset++ {
		sign := "+"
		if offset < 0 {
			sign = "-"
		}
		btns = append(btns, keyboard.InlineBtn{
			Text:   fmt.Sprintf("UTC%s%02d:00", sign, abs(offset)),
			Unique: cbSetHourTimezone,
			Data:   strconv.Itoa(offset),
		})
	}
	markup := keyboard.InlineButtonsNPerRow(btns, 3)
	skip := keyboard.InlineBtn{Text: "Пропустить (оставить текущую)", Unique: cbSetHourTimezone, Data: "skip"}
	markup.InlineKeyboard = append(markup.InlineKeyboard, inlineRow(skip))
	return markup
}

func timezoneMinuteKeyboard() *tele.ReplyMarkup {
	markup := keyboard.InlineButtonsNPerRow([]keyboard.InlineBtn{
		{Text: ":00", Unique: cbSetMinTimezone, Data: "0"},
		{Text: ":15", Unique: cbSetMinTimezone, Data: "15"},
		{Text: ":30", Unique: cbSetMinTimezone, Data: "30"},
		{Text: ":45", Unique: cbSetMinTimezone, Data: "45"},
	}, 4)
	skip := keyboard.InlineBtn{Text: "Пропустить (оставить текущую)", Unique: cbSetMinTimezone, Data: "skip"}
	markup.InlineKeyboard = append(markup.InlineKeyboard, inlineRow(skip))
	return markup
}

// resultKeyboard is attached to a rendered record so it can be deleted
// after the conversation is gone. The payload carries the record id
// because no FSM data survives finalization.
func resultKeyboard(movementID int64) *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "🗑 Удалить запись", Unique: cbDelete, Data: deletePayload(flow.OriginResult, movementID)},
	})
}

// screenView maps a flow screen to its text and keyboard.
func screenView(s flow.Screen) (string, *tele.ReplyMarkup) {
	switch s.Kind {
	case flow.ScreenEntryMenu:
		return textEntryMenu, keyboard.InlineButtons([]keyboard.InlineBtn{
			{Text: "Указать состояние стула", Unique: cbConsistency, Data: "open"},
			{Text: "🚽 Ложный позыв", Unique: cbFalseUrge},
			{Text: "🗑 Удалить запись", Unique: cbDelete, Data: deletePayload(flow.OriginEntry, s.MovementID)},
		})

	case flow.ScreenConsistency:
		markup := keyboard.InlineButtonsNPerRow([]keyboard.InlineBtn{
			consistencyBtn(model.ConsistencyLiquid),
			consistencyBtn(model.ConsistencyMushy),
			consistencyBtn(model.ConsistencyNormal),
			consistencyBtn(model.ConsistencyHard),
		}, 2)
		markup.InlineKeyboard = append(markup.InlineKeyboard,
			inlineRow(keyboard.InlineBtn{Text: "Пропустить", Unique: cbConsistency, Data: "skip"}))
		return textAskConsistency, markup

	case flow.ScreenMucus:
		markup := keyboard.InlineButtonsNPerRow([]keyboard.InlineBtn{
			mucusBtn(model.MucusNotPresent),
			mucusBtn(model.MucusTrace),
			mucusBtn(model.MucusModerate),
			mucusBtn(model.MucusSevere),
		}, 2)
		markup.InlineKeyboard = append(markup.InlineKeyboard, inlineRow(
			keyboard.InlineBtn{Text: "Вернуться назад ⬅️", Unique: cbBackMucus},
			keyboard.InlineBtn{Text: "Пропустить", Unique: cbMucus, Data: "skip"},
		))
		return textAskMucus, markup

	case flow.ScreenBlood:
		markup := keyboard.InlineButtons([]keyboard.InlineBtn{
			bloodBtn(model.BloodNotPresent),
			bloodBtn(model.BloodTrace),
			bloodBtn(model.BloodMild),
			bloodBtn(model.BloodModerate),
			bloodBtn(model.BloodSevere),
		})
		markup.InlineKeyboard = append(markup.InlineKeyboard, inlineRow(
			keyboard.InlineBtn{Text: "Вернуться назад ⬅️", Unique: cbBackBlood},
			keyboard.InlineBtn{Text: "Пропустить", Unique: cbBlood, Data: "skip"},
		))
		return textAskBlood, markup

	case flow.ScreenNotes:
		return textAskNotes, keyboard.InlineButtonsRows([]keyboard.InlineBtn{
			{Text: "Вернуться назад ⬅️", Unique: cbBackNotes},
			{Text: "Пропустить", Unique: cbSkipNotes},
		})

	case flow.ScreenDeleteConfirm:
		return textConfirmDelete, keyboard.InlineButtonsRows([]keyboard.InlineBtn{
			{Text: "🗑 Удалить", Unique: cbDeleteConfirm, Data: deletePayload(s.Origin, s.MovementID)},
			{Text: "Отмена", Unique: cbDeleteCancel, Data: deletePayload(s.Origin, s.MovementID)},
		})
	}
	return "", nil
}

func consistencyBtn(v model.StoolConsistency) keyboard.InlineBtn {
	return keyboard.InlineBtn{Text: v.Label(), Unique: cbConsistency, Data: strconv.Itoa(int(v))}
}

func mucusBtn(v model.StoolMucus) keyboard.InlineBtn {
	return keyboard.InlineBtn{Text: v.Label(), Unique: cbMucus, Data: strconv.Itoa(int(v))}
}

func bloodBtn(v model.StoolBlood) keyboard.InlineBtn {
	return keyboard.InlineBtn{Text: v.Label(), Unique: cbBlood, Data: strconv.Itoa(int(v))}
}

func deletePayload(origin string, movementID int64) string {
	return origin + "|" + strconv.FormatInt(movementID, 10)
}

func parseDeletePayload(payload string) (origin string, movementID int64, ok bool) {
	for i := 0; i < len(payload); i++ {
		if payload[i] == '|' {
			id, err := strconv.ParseInt(payload[i+1:], 10, 64)
			if err != nil {
				return "", 0, false
			}
			return payload[:i], id, true
		}
	}
	return "", 0, false
}

func inlineRow(btns ...keyboard.InlineBtn) []tele.InlineButton {
	markup := &tele.ReplyMarkup{}
	row := make([]tele.InlineButton, len(btns))
	for i, b := range btns {
		row[i] = *markup.Data(b.Text, b.Unique, b.Data).Inline()
	}
	return row
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
