package engine

import (
	"fmt"

	"github.com/roach88/tioga/internal/check"
	"github.com/roach88/tioga/internal/dbm"
	"github.com/roach88/tioga/internal/query"
	"github.com/roach88/tioga/internal/system"
)

// Plan converts an operand expression into a build plan.
func Plan(e query.Expr) *system.Plan {
	switch v := e.(type) {
	case *query.Ref:
		return system.Ref(v.Name)
	case *query.Conjunction:
		return system.And(Plan(v.Left), Plan(v.Right))
	case *query.Composition:
		return system.Par(Plan(v.Left), Plan(v.Right))
	case *query.Quotient:
		return system.Div(Plan(v.Left), Plan(v.Right))
	default:
		panic(fmt.Sprintf("engine: unknown expression %T", e))
	}
}

// ResolvePredicate binds the names in p to the components and global
// clocks of sys. Two location terms for one component that disagree give
// a predicate no state satisfies, not an error.
func ResolvePredicate(sys system.System, p *query.Predicate) (check.Predicate, error) {
	out := check.Predicate{Locations: map[string]string{}, Zone: dbm.Universe(sys.Dim())}
	for _, term := range p.Terms {
		switch t := term.(type) {
		case *query.LocTerm:
			c, err := component(sys, t.Component, t.Pos)
			if err != nil {
				return check.Predicate{}, err
			}
			if _, ok := c.Automaton().LocationIndex(t.Location); !ok {
				return check.Predicate{}, queryErrorf(ErrUnknownLocation, &t.Pos,
					"%s has no location %q", t.Component, t.Location)
			}
			if prev, ok := out.Locations[t.Component]; ok && prev != t.Location {
				out.Zone = dbm.Empty(sys.Dim())
			}
			out.Locations[t.Component] = t.Location

		case *query.ClockTerm:
			i, err := clock(sys, t.Left, t.Pos)
			if err != nil {
				return check.Predicate{}, err
			}
			j := 0
			if t.Right != nil {
				if j, err = clock(sys, *t.Right, t.Pos); err != nil {
					return check.Predicate{}, err
				}
				out.Diagonal = append(out.Diagonal, i, j)
			}
			out.Zone = compare(out.Zone, i, j, t.Op, t.Value)

		case query.TrueTerm:
		}
	}
	return out, nil
}

func component(sys system.System, name string, pos query.Pos) (*system.Component, error) {
	c, ok := system.FindComponent(sys, name)
	if !ok {
		return nil, queryErrorf(ErrUnknownComponent, &pos, "no component %q in %s", name, sys)
	}
	return c, nil
}

func clock(sys system.System, ref query.ClockRef, pos query.Pos) (int, error) {
	c, err := component(sys, ref.Component, pos)
	if err != nil {
		return 0, err
	}
	i, ok := c.GlobalClock(ref.Clock)
	if !ok {
		return 0, queryErrorf(ErrUnknownClock, &pos, "%s has no clock %q", ref.Component, ref.Clock)
	}
	return i, nil
}

// compare constrains x_i - x_j op value.
func compare(z dbm.Zone, i, j int, op string, value int64) dbm.Zone {
	switch op {
	case "<":
		return z.Constrain(i, j, dbm.LT(value))
	case "<=":
		return z.Constrain(i, j, dbm.LE(value))
	case ">":
		return z.Constrain(j, i, dbm.LT(-value))
	case ">=":
		return z.Constrain(j, i, dbm.LE(-value))
	default: // ==
		return z.Constrain(i, j, dbm.LE(value)).Constrain(j, i, dbm.LE(-value))
	}
}

// mentionsClocks reports whether a predicate of q names a clock. Clock
// reduction is skipped for such queries so that every named clock keeps
// its own index.
func mentionsClocks(q query.Query) bool {
	r, ok := q.(*query.Reachability)
	if !ok {
		return false
	}
	for _, p := range []*query.Predicate{r.Start, r.Target} {
		if p == nil {
			continue
		}
		for _, t := range p.Terms {
			if _, ok := t.(*query.ClockTerm); ok {
				return true
			}
		}
	}
	return false
}
