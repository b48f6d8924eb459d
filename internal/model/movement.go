package model

import (
	"database/sql"
	"time"
)

// Movement is one diary record built up across the questionnaire.
// All answer columns are nullable: a skipped step leaves NULL, which is
// not the same as a stored zero (blood level 0 means "none observed").
type Movement struct {
	ID          int64         `db:"id"`
	UserID      int64         `db:"user_id"`
	Date        time.Time     `db:"date"`
	Time        time.Time     `db:"time"`
	Notes       sql.NullString `db:"notes"`
	Consistency sql.NullInt64  `db:"stool_consistency"`
	BloodLevel  sql.NullInt64  `db:"blood_lvl"`
	Mucus       sql.NullInt64  `db:"mucus"`
	FalseUrge   bool           `db:"false_urge"`
	CreatedAt   time.Time      `db:"created_at"`
}

// MovementPatch carries the fields to update; nil pointers are left
// untouched so partial answers accumulate across steps.
type MovementPatch struct {
	Notes       *string
	Consistency *int
	BloodLevel  *int
	Mucus       *int
	FalseUrge   *bool
}

// StoolConsistency enumerates the consistency answers.
type StoolConsistency int

const (
	ConsistencyLiquid StoolConsistency = 1
	ConsistencyMushy  StoolConsistency = 2
	ConsistencyNormal StoolConsistency = 3
	ConsistencyHard   StoolConsistency = 4
)

// Label returns the user-facing name of the consistency value.
func (c StoolConsistency) Label() string {
	switch c {
	case ConsistencyLiquid:
		return "Жидкий"
	case ConsistencyMushy:
		return "Кашицеобразный"
	case ConsistencyNormal:
		return "Нормальный"
	case ConsistencyHard:
		return "Твёрдый"
	default:
		return "—"
	}
}

// Valid reports whether the value is a known consistency answer.
func (c StoolConsistency) Valid() bool {
	return c >= ConsistencyLiquid && c <= ConsistencyHard
}

// StoolBlood enumerates blood-level answers. Zero is a real answer
// ("not present"), distinct from a skipped step.
type StoolBlood int

const (
	BloodNotPresent StoolBlood = 0
	BloodTrace      StoolBlood = 1
	BloodMild       StoolBlood = 2
	BloodModerate   StoolBlood = 3
	BloodSevere     StoolBlood = 4
)

// Label returns the user-facing name of the blood-level value.
func (b StoolBlood) Label() string {
	switch b {
	case BloodNotPresent:
		return "Отсутствует"
	case BloodTrace:
		return "Следы 🩸"
	case BloodMild:
		return "Умеренно 🩸🩸"
	case BloodModerate:
		return "Выражено 🩸🩸🩸"
	case BloodSevere:
		return "Резко выражено 🩸🩸🩸🩸"
	default:
		return "—"
	}
}

// Valid reports whether the value is a known blood-level answer.
func (b StoolBlood) Valid() bool {
	return b >= BloodNotPresent && b <= BloodSevere
}

// StoolMucus enumerates mucus answers; zero ("not present") is a real
// answer, distinct from skip.
type StoolMucus int

const (
	MucusNotPresent StoolMucus = 0
	MucusTrace      StoolMucus = 1
	MucusModerate   StoolMucus = 2
	MucusSevere     StoolMucus = 3
)

// Label returns the user-facing name of the mucus value.
func (m StoolMucus) Label() string {
	switch m {
	case MucusNotPresent:
		return "Отсутствует"
	case MucusTrace:
		return "Следы"
	case MucusModerate:
		return "Умеренно"
	case MucusSevere:
		return "Много"
	default:
		return "—"
	}
}

// Valid reports whether the value is a known mucus answer.
func (m StoolMucus) Valid() bool {
	return m >= MucusNotPresent && m <= MucusSevere
}
