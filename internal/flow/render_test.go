package flow

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/laefree/ibdiary/internal/model"
)

func TestRenderResultAppliesOffset(t *testing.T) {
	m := &model.Movement{
		CreatedAt:   time.Date(2025, 3, 10, 22, 40, 0, 0, time.UTC),
		Consistency: sql.NullInt64{Int64: 3, Valid: true},
		Mucus:       sql.NullInt64{Int64: 0, Valid: true},
		BloodLevel:  sql.NullInt64{Int64: 1, Valid: true},
	}

	out := RenderResult(m, 180) // UTC+03:00 rolls the date over
	assert.Contains(t, out, "Дата: 11.03.2025")
	assert.Contains(t, out, "Время: 01:40")
	assert.Contains(t, out, "Состояние стула: Нормальный")
	assert.Contains(t, out, "Слизь: Отсутствует")
	assert.Contains(t, out, "Кровь: Следы 🩸")
	assert.NotContains(t, out, "Примечания")
}

func TestRenderResultSkippedAnswersDash(t *testing.T) {
	m := &model.Movement{CreatedAt: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	out := RenderResult(m, 0)
	assert.Contains(t, out, "Состояние стула: —")
	assert.Contains(t, out, "Слизь: —")
	assert.Contains(t, out, "Кровь: —")
}

func TestRenderResultFalseUrge(t *testing.T) {
	m := &model.Movement{
		CreatedAt: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		FalseUrge: true,
	}
	out := RenderResult(m, 0)
	assert.Contains(t, out, "Ложный позыв")
	assert.NotContains(t, out, "Состояние стула")
}

func TestRenderResultEscapesNotes(t *testing.T) {
	m := &model.Movement{
		CreatedAt: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		Notes:     sql.NullString{String: "<b>жжение</b>", Valid: true},
	}
	out := RenderResult(m, 0)
	assert.Contains(t, out, "&lt;b&gt;жжение&lt;/b&gt;")
}
