package check

import (
	"context"
	"fmt"

	"github.com/roach88/tioga/internal/dbm"
	"github.com/roach88/tioga/internal/explore"
	"github.com/roach88/tioga/internal/system"
)

// Predicate is a state predicate resolved against one system: leaf
// locations by component instance and a zone over the global clocks.
// Instances that are not mentioned match any location. Diagonal lists the
// clocks the predicate compares with each other.
type Predicate struct {
	Locations map[string]string
	Zone      dbm.Zone
	Diagonal  []int
}

// MatchesLoc reports whether every mentioned instance is in the named
// location.
func (p Predicate) MatchesLoc(l *system.Loc) bool {
	if len(p.Locations) == 0 {
		return true
	}
	leaves := l.Leaves()
	for inst, id := range p.Locations {
		leaf, ok := leaves[inst]
		if !ok || leaf.ID != id {
			return false
		}
	}
	return true
}

// Matches reports whether the predicate holds somewhere in s.
func (p Predicate) Matches(s explore.State) bool {
	return p.MatchesLoc(s.Loc) && !s.Zone.Intersect(p.Zone).IsEmpty()
}

// StartStates returns the states a reachability search begins from. Without
// a predicate that is the initial state. A predicate without locations
// restricts the initial zone. A predicate with locations starts in every
// location of the location graph it matches, with its clock constraints
// delayed inside the invariant.
func StartStates(sys system.System, start *Predicate) []explore.State {
	init, ok := explore.Initial(sys)
	if start == nil {
		if !ok {
			return nil
		}
		return []explore.State{init}
	}
	if len(start.Locations) == 0 {
		if !ok {
			return nil
		}
		z := init.Zone.Intersect(start.Zone)
		if z.IsEmpty() {
			return nil
		}
		return []explore.State{{Loc: init.Loc, Zone: z}}
	}
	var out []explore.State
	for _, l := range system.Locations(sys) {
		if !start.MatchesLoc(l) {
			continue
		}
		z := explore.Delay(sys, l, start.Zone)
		if z.IsEmpty() {
			continue
		}
		out = append(out, explore.State{Loc: l, Zone: z.Extrapolate(sys.MaxBounds())})
	}
	return out
}

// Reachability searches for the first state, in exploration order, that
// satisfies target. The witness is the path to it.
func Reachability(ctx context.Context, sys system.System, start *Predicate, target Predicate, opts Options) (Result, error) {
	pinned := target.Diagonal
	if start != nil {
		pinned = append(append([]int(nil), pinned...), start.Diagonal...)
	}
	sys = system.Pin(sys, pinned...)
	starts := StartStates(sys, start)
	if len(starts) == 0 {
		return Result{Outcome: OutcomeFailure, Diagnostics: []string{"no start state"}}, nil
	}
	e := explore.New(sys, opts.explore(false))
	found := -1
	err := e.Run(ctx, starts, func(id int) bool {
		if target.Matches(e.Node(id).State) {
			found = id
			return true
		}
		return false
	})
	if err != nil {
		return interrupted(err, e.Len())
	}
	if found < 0 {
		return Result{
			Outcome:     OutcomeFailure,
			Diagnostics: []string{fmt.Sprintf("target not reachable (%d states explored)", e.Len())},
			States:      e.Len(),
		}, nil
	}
	witness := path(e, found)
	last := e.Node(found).State
	witness[len(witness)-1].Zone = last.Zone.Intersect(target.Zone).Format(sys.ClockNames())
	return Result{Outcome: OutcomeSuccess, Witness: witness, States: e.Len()}, nil
}
