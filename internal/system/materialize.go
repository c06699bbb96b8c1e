package system

import (
	"fmt"

	"github.com/roach88/tioga/internal/dbm"
	"github.com/roach88/tioga/internal/model"
)

// Materialize flattens the reachable location graph of sys into a plain
// automaton named name. Clock names are the global display names, each
// disjunct of a guard becomes its own edge, and location ids are the
// composite location keys.
func Materialize(sys System, name string) (*model.Automaton, error) {
	init, ok := sys.Initial()
	if !ok {
		return nil, &CompositionError{Code: ErrNoInitial, Operator: "materialize", Message: fmt.Sprintf("%s has no initial location", sys)}
	}
	names := sys.ClockNames()
	a := &model.Automaton{
		Name:    name,
		Clocks:  append([]string(nil), names[1:]...),
		Inputs:  append([]string(nil), sys.Inputs()...),
		Outputs: append([]string(nil), sys.Outputs()...),
	}

	index := map[string]int{}
	var queue []*Loc
	visit := func(l *Loc) {
		if _, seen := index[l.Key()]; seen {
			return
		}
		index[l.Key()] = len(a.Locations)
		a.Locations = append(a.Locations, model.Location{
			ID:        l.Key(),
			Invariant: constraintsOf(sys.Invariant(l), names),
			Initial:   l == init,
			Urgent:    sys.Urgent(l),
		})
		queue = append(queue, l)
	}
	visit(init)

	actions := append(Actions(sys), Silent)
	for len(queue) > 0 {
		l := queue[0]
		queue = queue[1:]
		for _, action := range actions {
			label := action
			switch {
			case action == Silent:
			case IsInput(sys, action):
				label += "?"
			default:
				label += "!"
			}
			for _, t := range sys.Transitions(l, action) {
				visit(t.Target)
				var resets []model.Reset
				for _, r := range t.Resets {
					resets = append(resets, model.Reset{Clock: names[r.Clock], Value: r.Value})
				}
				for _, z := range t.Guard.Zones() {
					a.Edges = append(a.Edges, model.Edge{
						Source: l.Key(),
						Target: t.Target.Key(),
						Guard:  constraintsOf(z, names),
						Sync:   label,
						Resets: resets,
					})
				}
			}
		}
	}
	return a, nil
}

// constraintsOf lists the constraints of a canonical zone, skipping
// non-negativity and differences implied by single-clock bounds.
func constraintsOf(z dbm.Zone, names []string) []model.Constraint {
	if z.IsEmpty() {
		// x < 0 on the first clock, or nothing at all without clocks.
		if z.Dim() > 1 {
			return []model.Constraint{{Left: names[1], Bound: 0, Strict: true}}
		}
		return nil
	}
	n := z.Dim()
	name := func(i int) string {
		if i == 0 {
			return ""
		}
		return names[i]
	}
	var out []model.Constraint
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			b := z.At(i, j)
			if i == j || b.IsInfinite() {
				continue
			}
			if i == 0 && b == dbm.LE(0) {
				continue
			}
			if i != 0 && j != 0 && b >= z.At(i, 0).Add(z.At(0, j)) {
				continue
			}
			out = append(out, model.Constraint{Left: name(i), Right: name(j), Bound: b.Value(), Strict: b.Strict()})
		}
	}
	return out
}
