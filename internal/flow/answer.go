package flow

import (
	"strconv"

	"github.com/laefree/ibdiary/internal/model"
)

// StepKind identifies which questionnaire step a callback answers.
type StepKind int

const (
	StepConsistency StepKind = iota
	StepMucus
	StepBlood
)

// Answer is a decoded questionnaire callback payload.
//
// Skip means the user chose «Пропустить» for the step: nothing is
// recorded and the conversation advances. Skip is distinct from a
// zero-valued answer (e.g. "no blood"), which is recorded as 0.
// Open is set only for the consistency step and marks the entry-menu
// button that reveals the first question.
type Answer struct {
	Kind  StepKind
	Skip  bool
	Open  bool
	Value int
}

// ParseAnswer decodes a raw callback payload for the given step.
// A malformed or out-of-range payload is treated as a skip so a stale
// or tampered button can never record a bogus value.
func ParseAnswer(kind StepKind, payload string) Answer {
	a := Answer{Kind: kind}
	switch payload {
	case "skip":
		a.Skip = true
		return a
	case "open":
		if kind == StepConsistency {
			a.Open = true
			return a
		}
		a.Skip = true
		return a
	}

	v, err := strconv.Atoi(payload)
	if err != nil || !valueValid(kind, v) {
		a.Skip = true
		return a
	}
	a.Value = v
	return a
}

func valueValid(kind StepKind, v int) bool {
	switch kind {
	case StepConsistency:
		return model.StoolConsistency(v).Valid()
	case StepMucus:
		return model.StoolMucus(v).Valid()
	case StepBlood:
		return model.StoolBlood(v).Valid()
	}
	return false
}
