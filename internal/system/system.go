package system

import (
	"sort"

	"github.com/roach88/tioga/internal/dbm"
)

// Silent is the action name of unlabeled transitions.
const Silent = ""

// System is the contract shared by every operator variant.
type System interface {
	// Dim is the zone dimension: global clock count plus the reference clock.
	Dim() int
	// ClockNames returns display names indexed by global clock; [0] is "0".
	ClockNames() []string
	Inputs() []string
	Outputs() []string
	// Initial returns the initial location, or false if there is none.
	Initial() (*Loc, bool)
	// Invariant returns the invariant of l; the universe when unconstrained.
	Invariant(l *Loc) dbm.Zone
	// Urgent reports whether time is frozen in l.
	Urgent(l *Loc) bool
	// Transitions returns the transitions from l on action (Silent for
	// unlabeled moves).
	Transitions(l *Loc, action string) []Transition
	// MaxBounds returns the extrapolation constants per global clock.
	MaxBounds() dbm.Bounds
	String() string

	isSystem()
}

// Reset assigns Value to global clock Clock.
type Reset struct {
	Clock int
	Value int64
}

// Transition is one enabled move. Guard may be non-convex.
type Transition struct {
	Guard  dbm.Federation
	Resets []Reset
	Target *Loc
}

// ApplyResets applies the resets of t to a federation.
func (t Transition) ApplyResets(f dbm.Federation) dbm.Federation {
	for _, r := range t.Resets {
		f = f.Reset(r.Clock, r.Value)
	}
	return f
}

// Allowed returns the valuations from which t can fire and land inside the
// target invariant.
func Allowed(sys System, t Transition) dbm.Federation {
	return t.Guard.Intersect(Preimage(dbm.NewFederation(sys.Dim(), sys.Invariant(t.Target)), t.Resets))
}

// Preimage returns the valuations that land in f after resets.
func Preimage(f dbm.Federation, resets []Reset) dbm.Federation {
	for i := len(resets) - 1; i >= 0; i-- {
		f = f.ResetPreimage(resets[i].Clock, resets[i].Value)
	}
	return f
}

// AllowedUnion unions Allowed over a set of transitions.
func AllowedUnion(sys System, ts []Transition) dbm.Federation {
	f := dbm.EmptyFederation(sys.Dim())
	for _, t := range ts {
		f = f.Union(Allowed(sys, t))
	}
	return f
}

// Actions returns the outputs of sys followed by its inputs, each sorted.
// This is the order in which explorers enumerate moves.
func Actions(sys System) []string {
	out := append([]string(nil), sys.Outputs()...)
	return append(out, sys.Inputs()...)
}

// IsInput reports whether action is an input of sys.
func IsInput(sys System, action string) bool {
	return contains(sys.Inputs(), action)
}

func contains(sorted []string, s string) bool {
	i := sort.SearchStrings(sorted, s)
	return i < len(sorted) && sorted[i] == s
}

func union(a, b []string) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		set[s] = struct{}{}
	}
	return sortedKeys(set)
}

func minus(a, b []string) []string {
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		if !contains(b, s) {
			set[s] = struct{}{}
		}
	}
	return sortedKeys(set)
}

func intersect(a, b []string) []string {
	set := make(map[string]struct{})
	for _, s := range a {
		if contains(b, s) {
			set[s] = struct{}{}
		}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func equalSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// product combines two transition lists pairwise: guards intersected,
// resets concatenated, targets paired.
func product(ls, rs []Transition) []Transition {
	var out []Transition
	for _, l := range ls {
		for _, r := range rs {
			g := l.Guard.Intersect(r.Guard)
			if g.IsEmpty() {
				continue
			}
			out = append(out, Transition{
				Guard:  g,
				Resets: concatResets(l.Resets, r.Resets),
				Target: Pair(l.Target, r.Target),
			})
		}
	}
	return out
}

// lift moves one side while the other stays at loc.
func lift(ts []Transition, other *Loc, left bool) []Transition {
	out := make([]Transition, 0, len(ts))
	for _, t := range ts {
		target := Pair(t.Target, other)
		if !left {
			target = Pair(other, t.Target)
		}
		out = append(out, Transition{Guard: t.Guard, Resets: t.Resets, Target: target})
	}
	return out
}

func concatResets(a, b []Reset) []Reset {
	out := make([]Reset, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
