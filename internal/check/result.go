package check

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/tioga/internal/dbm"
	"github.com/roach88/tioga/internal/explore"
	"github.com/roach88/tioga/internal/system"
)

// Outcome is the verdict of a check.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailure
	OutcomeInconclusive
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeInconclusive:
		return "inconclusive"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// UnmarshalText decodes an outcome name.
func (o *Outcome) UnmarshalText(b []byte) error {
	switch string(b) {
	case "success":
		*o = OutcomeSuccess
	case "failure":
		*o = OutcomeFailure
	case "inconclusive":
		*o = OutcomeInconclusive
	default:
		return fmt.Errorf("unknown outcome %q", b)
	}
	return nil
}

// Step is one state of a witness path. Action is the move that led to it
// and is empty for the first step.
type Step struct {
	Locations []string `json:"locations" yaml:"locations"`
	Zone      string   `json:"zone" yaml:"zone"`
	Action    string   `json:"action,omitempty" yaml:"action,omitempty"`
}

// Result is the outcome of one check.
type Result struct {
	Outcome     Outcome
	Witness     []Step
	Diagnostics []string
	States      int
}

// Success reports whether the outcome is a success.
func (r Result) Success() bool { return r.Outcome == OutcomeSuccess }

// Options bounds a check.
type Options struct {
	// MaxStates caps the number of stored states; zero means unlimited.
	MaxStates int
	// MaxFindings caps the determinism findings reported. Values below one
	// report the first finding only.
	MaxFindings int
}

func (o Options) explore(record bool) explore.Options {
	return explore.Options{MaxStates: o.MaxStates, Record: record}
}

// interrupted converts resource exhaustion into an inconclusive result.
// Any other error is passed through.
func interrupted(err error, states int) (Result, error) {
	if explore.IsLimitError(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Result{
			Outcome:     OutcomeInconclusive,
			Diagnostics: []string{err.Error()},
			States:      states,
		}, nil
	}
	return Result{}, err
}

func step(sys system.System, l *system.Loc, z dbm.Zone, action string) Step {
	return Step{Locations: l.Vector(), Zone: z.Format(sys.ClockNames()), Action: action}
}

// path renders the arena path from a start state to id.
func path(e *explore.Explorer, id int) []Step {
	var out []Step
	for _, n := range e.Path(id) {
		node := e.Node(n)
		out = append(out, step(e.System(), node.State.Loc, node.State.Zone, node.Action))
	}
	return out
}

func label(sys system.System, action string) string {
	switch {
	case action == system.Silent:
		return "tau"
	case system.IsInput(sys, action):
		return action + "?"
	default:
		return action + "!"
	}
}
