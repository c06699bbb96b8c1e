package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tioga/internal/check"
)

func intPtr(n int) *int { return &n }

func TestCheckStep(t *testing.T) {
	reached := Step{
		Query:   "reachability: A -> A.L1",
		Outcome: "success",
		Witness: []check.Step{
			{Locations: []string{"A.L0"}, Zone: "true"},
			{Locations: []string{"A.L1"}, Zone: "A.x>=1", Action: "go"},
		},
		Diagnostics: []string{"A.L1 reached after go"},
	}
	rejected := Step{Query: "consistency: Nope", Error: "E110", Message: `[E110] no automaton "Nope"`}

	tests := []struct {
		name   string
		step   Step
		expect *Expect
		fields []string
	}{
		{"no expectation", reached, nil, nil},
		{"no expectation but rejected", rejected, nil, []string{"error"}},
		{"outcome holds", reached, &Expect{Outcome: "success"}, nil},
		{"outcome differs", reached, &Expect{Outcome: "failure"}, []string{"outcome"}},
		{"expected error", rejected, &Expect{Error: "E110"}, nil},
		{"other error", rejected, &Expect{Error: "E121"}, []string{"error"}},
		{"error expected but accepted", reached, &Expect{Error: "E110"}, []string{"error"}},
		{"outcome expected but rejected", rejected, &Expect{Outcome: "success"}, []string{"outcome"}},
		{"witness holds", reached, &Expect{
			Outcome:       "success",
			WitnessLength: intPtr(2),
			WitnessEnd:    []string{"A.L1"},
			Diagnostics:   []string{"after go"},
		}, nil},
		{"witness differs", reached, &Expect{
			Outcome:       "success",
			WitnessLength: intPtr(3),
			WitnessEnd:    []string{"A.L0"},
			Diagnostics:   []string{"timeout"},
		}, []string{"witness_length", "witness_end", "diagnostics"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := CheckStep(3, tt.step, tt.expect)
			require.Len(t, errs, len(tt.fields))
			for i, err := range errs {
				var ae *AssertionError
				require.ErrorAs(t, err, &ae)
				assert.Equal(t, tt.fields[i], ae.Field)
				assert.Equal(t, 3, ae.Index)
			}
		})
	}
}

func TestAssertionError_Message(t *testing.T) {
	err := &AssertionError{
		Index:    2,
		Field:    "outcome",
		Expected: "success",
		Actual:   "failure",
		Step:     Step{Query: "refinement: A <= B", Diagnostics: []string{"b! not allowed"}},
	}
	msg := err.Error()
	assert.Contains(t, msg, `query 2 "refinement: A <= B": outcome`)
	assert.Contains(t, msg, "Expected: success")
	assert.Contains(t, msg, "Actual: failure")
	assert.Contains(t, msg, "Diagnostic: b! not allowed")
}
