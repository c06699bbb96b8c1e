package explore

import (
	"github.com/roach88/tioga/internal/dbm"
	"github.com/roach88/tioga/internal/system"
)

// State is a symbolic state: a location and a canonical zone.
type State struct {
	Loc  *system.Loc
	Zone dbm.Zone
}

// Key identifies the location part of the state.
func (s State) Key() string { return s.Loc.Key() }

// Delay lets time pass in l unless it is urgent, staying inside the
// invariant.
func Delay(sys system.System, l *system.Loc, z dbm.Zone) dbm.Zone {
	inv := sys.Invariant(l)
	z = z.Intersect(inv)
	if z.IsEmpty() || sys.Urgent(l) {
		return z
	}
	return z.Up().Intersect(inv)
}

// Initial returns the initial state of sys: all clocks zero, delayed and
// extrapolated. It returns false if there is no initial location or the
// initial zone is empty.
func Initial(sys system.System) (State, bool) {
	l, ok := sys.Initial()
	if !ok {
		return State{}, false
	}
	z := Delay(sys, l, dbm.Zero(sys.Dim()))
	if z.IsEmpty() {
		return State{Loc: l, Zone: z}, false
	}
	return State{Loc: l, Zone: z.Extrapolate(sys.MaxBounds())}, true
}

// Fire takes t from (l, z) using one convex piece of its guard.
func Fire(sys system.System, z, guard dbm.Zone, t system.Transition) dbm.Zone {
	z = z.Intersect(guard)
	for _, r := range t.Resets {
		if z.IsEmpty() {
			return z
		}
		z = z.Reset(r.Clock, r.Value)
	}
	if z.IsEmpty() {
		return z
	}
	z = Delay(sys, t.Target, z)
	if z.IsEmpty() {
		return z
	}
	return z.Extrapolate(sys.MaxBounds())
}

// Move is one successor of a state.
type Move struct {
	Action string
	Kind   EdgeKind
	Target State
}

// Successors lists the successors of s in the fixed exploration order:
// outputs sorted, then inputs sorted, then silent moves. Within an action
// transitions keep their order and each guard disjunct is fired on its own.
func Successors(sys system.System, s State) []Move {
	var out []Move
	for _, action := range append(system.Actions(sys), system.Silent) {
		kind := KindOf(sys, action)
		for _, t := range sys.Transitions(s.Loc, action) {
			for _, g := range t.Guard.Zones() {
				z := Fire(sys, s.Zone, g, t)
				if z.IsEmpty() {
					continue
				}
				out = append(out, Move{Action: action, Kind: kind, Target: State{Loc: t.Target, Zone: z}})
			}
		}
	}
	return out
}
