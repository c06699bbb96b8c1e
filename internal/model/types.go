package model

import (
	"fmt"
	"sort"
	"strings"
)

// Constraint bounds the difference Left - Right. An empty clock name is the
// reference clock, so {Left: "x", Bound: 5} reads x <= 5 and
// {Right: "x", Bound: -2, Strict: true} reads x > 2.
type Constraint struct {
	Left   string `json:"left,omitempty"`
	Right  string `json:"right,omitempty"`
	Bound  int64  `json:"bound"`
	Strict bool   `json:"strict,omitempty"`
}

func (c Constraint) String() string {
	op := "<="
	if c.Strict {
		op = "<"
	}
	switch {
	case c.Right == "":
		return fmt.Sprintf("%s%s%d", c.Left, op, c.Bound)
	case c.Left == "":
		// -Right ≺ Bound, printed as a lower bound.
		op = ">="
		if c.Strict {
			op = ">"
		}
		return fmt.Sprintf("%s%s%d", c.Right, op, -c.Bound)
	default:
		return fmt.Sprintf("%s-%s%s%d", c.Left, c.Right, op, c.Bound)
	}
}

// Conjunction renders a constraint list the way guards are written.
func Conjunction(cs []Constraint) string {
	if len(cs) == 0 {
		return "true"
	}
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, " && ")
}

// Reset assigns Value to Clock when an edge fires.
type Reset struct {
	Clock string `json:"clock"`
	Value int64  `json:"value"`
}

// Location is a node of an automaton.
type Location struct {
	ID        string       `json:"id"`
	Invariant []Constraint `json:"invariant,omitempty"`
	Initial   bool         `json:"initial,omitempty"`
	// Urgent locations forbid delay. Committed locations are loaded as urgent.
	Urgent bool `json:"urgent,omitempty"`
}

// Edge is a guarded, labeled transition between two locations.
type Edge struct {
	Source string       `json:"source"`
	Target string       `json:"target"`
	Guard  []Constraint `json:"guard,omitempty"`
	Sync   string       `json:"sync,omitempty"`
	Resets []Reset      `json:"resets,omitempty"`
}

// Direction classifies a synchronization label.
type Direction int

const (
	Silent Direction = iota
	Input
	Output
)

func (d Direction) String() string {
	switch d {
	case Input:
		return "input"
	case Output:
		return "output"
	default:
		return "silent"
	}
}

// ParseSync splits a label into its action name and direction.
func ParseSync(label string) (string, Direction) {
	switch {
	case label == "":
		return "", Silent
	case strings.HasSuffix(label, "?"):
		return strings.TrimSuffix(label, "?"), Input
	case strings.HasSuffix(label, "!"):
		return strings.TrimSuffix(label, "!"), Output
	default:
		return label, Output
	}
}

// Automaton is a timed I/O automaton. Treat it as read-only once it is part
// of a Model.
type Automaton struct {
	Name      string     `json:"name"`
	Clocks    []string   `json:"clocks,omitempty"`
	Inputs    []string   `json:"inputs,omitempty"`
	Outputs   []string   `json:"outputs,omitempty"`
	Locations []Location `json:"locations"`
	Edges     []Edge     `json:"edges,omitempty"`
}

// LocationIndex returns the position of the location with the given id.
func (a *Automaton) LocationIndex(id string) (int, bool) {
	for i, l := range a.Locations {
		if l.ID == id {
			return i, true
		}
	}
	return -1, false
}

// InitialIndex returns the position of the initial location.
func (a *Automaton) InitialIndex() (int, bool) {
	for i, l := range a.Locations {
		if l.Initial {
			return i, true
		}
	}
	return -1, false
}

// ClockIndex returns the 1-based local index of a clock, 0 for the reference
// clock, or -1 when the clock is not declared.
func (a *Automaton) ClockIndex(name string) int {
	if name == "" {
		return 0
	}
	for i, c := range a.Clocks {
		if c == name {
			return i + 1
		}
	}
	return -1
}

// InputActions returns the sorted input alphabet: declared inputs plus every
// input label used on an edge.
func (a *Automaton) InputActions() []string {
	return a.actions(Input, a.Inputs)
}

// OutputActions returns the sorted output alphabet.
func (a *Automaton) OutputActions() []string {
	return a.actions(Output, a.Outputs)
}

func (a *Automaton) actions(dir Direction, declared []string) []string {
	set := make(map[string]struct{}, len(declared))
	for _, d := range declared {
		set[d] = struct{}{}
	}
	for _, e := range a.Edges {
		if name, d := ParseSync(e.Sync); d == dir {
			set[name] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Clone returns a deep copy of a.
func (a *Automaton) Clone() *Automaton {
	c := &Automaton{
		Name:      a.Name,
		Clocks:    append([]string(nil), a.Clocks...),
		Inputs:    append([]string(nil), a.Inputs...),
		Outputs:   append([]string(nil), a.Outputs...),
		Locations: make([]Location, len(a.Locations)),
		Edges:     make([]Edge, len(a.Edges)),
	}
	for i, l := range a.Locations {
		l.Invariant = append([]Constraint(nil), l.Invariant...)
		c.Locations[i] = l
	}
	for i, e := range a.Edges {
		e.Guard = append([]Constraint(nil), e.Guard...)
		e.Resets = append([]Reset(nil), e.Resets...)
		c.Edges[i] = e
	}
	return c
}
