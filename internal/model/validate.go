package model

import (
	"errors"
	"fmt"
	"strings"
)

// Structural error codes (E001-E099).
const (
	ErrEmptyName           = "E001" // automaton, location or clock name missing
	ErrDuplicateAutomaton  = "E002" // two automata share a name
	ErrNoLocations         = "E003" // automaton has no locations
	ErrInitialLocation     = "E004" // zero or several initial locations
	ErrDuplicateLocation   = "E005" // location id declared twice
	ErrDanglingLocation    = "E006" // edge references an unknown location
	ErrUnknownClock        = "E007" // constraint or reset names an undeclared clock
	ErrDuplicateClock      = "E008" // clock declared twice
	ErrActionDirection     = "E009" // action is both input and output
	ErrNegativeReset       = "E010" // reset to a negative value
	ErrMalformedConstraint = "E011" // constraint compares the reference clock with itself
)

// StructuralError reports a defect in an automaton definition. Structural
// errors are fatal: a model containing one is never constructed.
type StructuralError struct {
	Code      string `json:"code"`
	Automaton string `json:"automaton,omitempty"`
	Field     string `json:"field"`
	Message   string `json:"message"`
}

// Error implements the error interface.
func (e *StructuralError) Error() string {
	if e.Automaton != "" {
		return fmt.Sprintf("[%s] %s: %s: %s", e.Code, e.Automaton, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// StructuralErrors collects every defect found in one validation pass.
type StructuralErrors []*StructuralError

// Error implements the error interface.
func (es StructuralErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes the individual errors to errors.As.
func (es StructuralErrors) Unwrap() []error {
	out := make([]error, len(es))
	for i, e := range es {
		out[i] = e
	}
	return out
}

// IsStructuralError reports whether err carries a StructuralError.
func IsStructuralError(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}

// Validate checks one automaton. Returns all errors found (does not
// fail-fast).
func Validate(a *Automaton) []*StructuralError {
	var errs []*StructuralError
	add := func(code, field, format string, args ...any) {
		errs = append(errs, &StructuralError{
			Code:      code,
			Automaton: a.Name,
			Field:     field,
			Message:   fmt.Sprintf(format, args...),
		})
	}

	if strings.TrimSpace(a.Name) == "" {
		add(ErrEmptyName, "name", "automaton name is required")
	}

	clocks := make(map[string]bool, len(a.Clocks))
	for i, c := range a.Clocks {
		field := fmt.Sprintf("clocks[%d]", i)
		switch {
		case strings.TrimSpace(c) == "":
			add(ErrEmptyName, field, "clock name is required")
		case clocks[c]:
			add(ErrDuplicateClock, field, "clock %q declared twice", c)
		}
		clocks[c] = true
	}

	checkConstraints := func(field string, cs []Constraint) {
		for i, c := range cs {
			f := fmt.Sprintf("%s[%d]", field, i)
			if c.Left == "" && c.Right == "" {
				add(ErrMalformedConstraint, f, "constraint must name at least one clock")
			}
			for _, name := range []string{c.Left, c.Right} {
				if name != "" && !clocks[name] {
					add(ErrUnknownClock, f, "unknown clock %q", name)
				}
			}
		}
	}

	if len(a.Locations) == 0 {
		add(ErrNoLocations, "locations", "automaton has no locations")
	}
	locs := make(map[string]bool, len(a.Locations))
	initial := 0
	for i, l := range a.Locations {
		field := fmt.Sprintf("locations[%d]", i)
		switch {
		case strings.TrimSpace(l.ID) == "":
			add(ErrEmptyName, field, "location id is required")
		case locs[l.ID]:
			add(ErrDuplicateLocation, field, "location %q declared twice", l.ID)
		}
		locs[l.ID] = true
		if l.Initial {
			initial++
		}
		checkConstraints(field+".invariant", l.Invariant)
	}
	if len(a.Locations) > 0 && initial != 1 {
		add(ErrInitialLocation, "locations", "want exactly one initial location, found %d", initial)
	}

	for i, e := range a.Edges {
		field := fmt.Sprintf("edges[%d]", i)
		if !locs[e.Source] {
			add(ErrDanglingLocation, field+".source", "unknown location %q", e.Source)
		}
		if !locs[e.Target] {
			add(ErrDanglingLocation, field+".target", "unknown location %q", e.Target)
		}
		checkConstraints(field+".guard", e.Guard)
		for j, r := range e.Resets {
			f := fmt.Sprintf("%s.resets[%d]", field, j)
			if !clocks[r.Clock] {
				add(ErrUnknownClock, f, "unknown clock %q", r.Clock)
			}
			if r.Value < 0 {
				add(ErrNegativeReset, f, "clock %q reset to %d", r.Clock, r.Value)
			}
		}
	}

	inputs := make(map[string]bool)
	for _, in := range a.InputActions() {
		inputs[in] = true
	}
	for _, out := range a.OutputActions() {
		if inputs[out] {
			add(ErrActionDirection, "actions", "action %q is both an input and an output", out)
		}
	}

	return errs
}
