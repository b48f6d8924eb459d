package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAnswer(t *testing.T) {
	cases := []struct {
		name    string
		kind    StepKind
		payload string
		want    Answer
	}{
		{"consistency value", StepConsistency, "2", Answer{Kind: StepConsistency, Value: 2}},
		{"blood zero is a real answer", StepBlood, "0", Answer{Kind: StepBlood, Value: 0}},
		{"explicit skip", StepMucus, "skip", Answer{Kind: StepMucus, Skip: true}},
		{"open reveals first question", StepConsistency, "open", Answer{Kind: StepConsistency, Open: true}},
		{"open invalid for later steps", StepBlood, "open", Answer{Kind: StepBlood, Skip: true}},
		{"out of range becomes skip", StepConsistency, "9", Answer{Kind: StepConsistency, Skip: true}},
		{"negative becomes skip", StepBlood, "-1", Answer{Kind: StepBlood, Skip: true}},
		{"garbage becomes skip", StepMucus, "1; DROP TABLE", Answer{Kind: StepMucus, Skip: true}},
		{"empty becomes skip", StepMucus, "", Answer{Kind: StepMucus, Skip: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseAnswer(tc.kind, tc.payload))
		})
	}
}
