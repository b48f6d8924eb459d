package flow

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/laefree/ibdiary/core/telegram/format"
	"github.com/laefree/ibdiary/internal/model"
)

// RenderResult builds the final HTML summary of a record. The timestamp
// is shifted by the user's timezone offset in minutes; skipped answers
// render as a dash.
func RenderResult(m *model.Movement, offsetMinutes int) string {
	local := m.CreatedAt.Add(time.Duration(offsetMinutes) * time.Minute)

	var b strings.Builder
	if m.FalseUrge {
		b.WriteString("🚽 <b>Ложный позыв записан</b>\n\n")
	} else {
		b.WriteString("📝 <b>Запись произведена успешно</b>\n\n")
	}
	fmt.Fprintf(&b, "Дата: %s\n", local.Format("02.01.2006"))
	fmt.Fprintf(&b, "Время: %s\n", local.Format("15:04"))
	if m.FalseUrge {
		return b.String()
	}

	fmt.Fprintf(&b, "Состояние стула: %s\n", answerLabel(m.Consistency, func(v int64) string {
		return model.StoolConsistency(v).Label()
	}))
	fmt.Fprintf(&b, "Слизь: %s\n", answerLabel(m.Mucus, func(v int64) string {
		return model.StoolMucus(v).Label()
	}))
	fmt.Fprintf(&b, "Кровь: %s\n", answerLabel(m.BloodLevel, func(v int64) string {
		return model.StoolBlood(v).Label()
	}))
	if m.Notes.Valid && m.Notes.String != "" {
		fmt.Fprintf(&b, "Примечания: %s", format.EscapeHTML(m.Notes.String))
	}
	return b.String()
}

func answerLabel(v sql.NullInt64, label func(int64) string) string {
	if !v.Valid {
		return "—"
	}
	return label(v.Int64)
}
