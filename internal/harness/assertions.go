package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an expectation fails.
// It includes the step so that the failure can be read without rerunning.
type AssertionError struct {
	Index    int    // 1-based query number
	Field    string // outcome, error, witness_length, witness_end or diagnostics
	Expected string
	Actual   string
	Step     Step
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "query %d %q: %s\n", e.Index, e.Step.Query, e.Field)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Step.Message != "" {
		fmt.Fprintf(&buf, "  Error: %s\n", e.Step.Message)
	}
	for _, d := range e.Step.Diagnostics {
		fmt.Fprintf(&buf, "  Diagnostic: %s\n", d)
	}
	return buf.String()
}

// CheckStep compares a step against its expectation. index is 1-based.
// A nil expectation only requires the query to be accepted.
func CheckStep(index int, step Step, exp *Expect) []error {
	fail := func(field, expected, actual string) error {
		return &AssertionError{Index: index, Field: field, Expected: expected, Actual: actual, Step: step}
	}

	if exp == nil {
		if step.Rejected() {
			return []error{fail("error", "query accepted", step.Error)}
		}
		return nil
	}

	if exp.Error != "" {
		if step.Error != exp.Error {
			return []error{fail("error", exp.Error, describe(step))}
		}
		return nil
	}

	if step.Rejected() {
		return []error{fail("outcome", exp.Outcome, describe(step))}
	}

	var errs []error
	if step.Outcome != exp.Outcome {
		errs = append(errs, fail("outcome", exp.Outcome, step.Outcome))
	}
	if exp.WitnessLength != nil && len(step.Witness) != *exp.WitnessLength {
		errs = append(errs, fail("witness_length",
			fmt.Sprintf("%d", *exp.WitnessLength), fmt.Sprintf("%d", len(step.Witness))))
	}
	if len(exp.WitnessEnd) > 0 {
		var last []string
		if n := len(step.Witness); n > 0 {
			last = step.Witness[n-1].Locations
		}
		if !slices.Equal(last, exp.WitnessEnd) {
			errs = append(errs, fail("witness_end",
				strings.Join(exp.WitnessEnd, ", "), strings.Join(last, ", ")))
		}
	}
	for _, want := range exp.Diagnostics {
		if !slices.ContainsFunc(step.Diagnostics, func(d string) bool { return strings.Contains(d, want) }) {
			errs = append(errs, fail("diagnostics", fmt.Sprintf("a diagnostic containing %q", want),
				fmt.Sprintf("%d diagnostics without it", len(step.Diagnostics))))
		}
	}
	return errs
}

func describe(s Step) string {
	if s.Rejected() {
		return "rejected with " + s.Error
	}
	return s.Outcome
}
