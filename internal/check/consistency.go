package check

import (
	"context"
	"fmt"

	"github.com/roach88/tioga/internal/dbm"
	"github.com/roach88/tioga/internal/explore"
	"github.com/roach88/tioga/internal/system"
)

// region is one location of the location graph together with the
// valuations from which the environment can force an inconsistency.
type region struct {
	loc   *system.Loc
	inv   dbm.Federation
	moves []move
	preds []int
	bad   dbm.Federation
	// cause is the region that made this one bad, or the region itself
	// when it is bad on its own. action is the move leading there.
	cause  int
	action string
}

type move struct {
	action string
	kind   explore.EdgeKind
	t      system.Transition
	to     int
}

// losingGame is the backward fixpoint over the location graph of sys. A
// valuation is losing when an input can take it into a losing valuation,
// or when time cannot pass forever and no output or silent move reaches a
// winning valuation before an input forces a loss.
type losingGame struct {
	sys     system.System
	regions []*region
	index   map[string]int
}

func newLosingGame(ctx context.Context, sys system.System, init *system.Loc, opts Options) (*losingGame, error) {
	g := &losingGame{sys: sys, index: map[string]int{}}
	quota := explore.NewQuota(opts.MaxStates)
	add := func(l *system.Loc) (int, error) {
		if id, ok := g.index[l.Key()]; ok {
			return id, nil
		}
		if err := quota.Check(); err != nil {
			return 0, err
		}
		id := len(g.regions)
		g.index[l.Key()] = id
		g.regions = append(g.regions, &region{
			loc:   l,
			inv:   dbm.NewFederation(sys.Dim(), sys.Invariant(l)),
			bad:   dbm.EmptyFederation(sys.Dim()),
			cause: id,
		})
		return id, nil
	}
	if _, err := add(init); err != nil {
		return nil, err
	}
	actions := append(system.Actions(sys), system.Silent)
	for id := 0; id < len(g.regions); id++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r := g.regions[id]
		for _, action := range actions {
			kind := explore.KindOf(sys, action)
			for _, t := range sys.Transitions(r.loc, action) {
				to, err := add(t.Target)
				if err != nil {
					return nil, err
				}
				r.moves = append(r.moves, move{action: action, kind: kind, t: t, to: to})
				g.regions[to].preds = append(g.regions[to].preds, id)
			}
		}
	}
	return g, nil
}

// pre returns the valuations of r from which m lands in target.
func (g *losingGame) pre(r *region, m move, target dbm.Federation) dbm.Federation {
	return m.t.Guard.Intersect(system.Preimage(target, m.t.Resets)).Intersect(r.inv)
}

// forever returns the valuations of safe from which time can pass without
// ever leaving safe.
func forever(safe dbm.Federation) dbm.Federation {
	return safe.Subtract(safe.Complement().Down())
}

// losing recomputes the losing valuations of r from its successors.
func (g *losingGame) losing(r *region) dbm.Federation {
	if r.loc.Kind == system.LocInconsistent {
		return r.inv
	}
	dim := g.sys.Dim()
	forced := dbm.EmptyFederation(dim)
	escape := dbm.EmptyFederation(dim)
	for _, m := range r.moves {
		to := g.regions[m.to]
		if m.kind == explore.EdgeInput {
			if !to.bad.IsEmpty() {
				forced = forced.Union(g.pre(r, m, to.bad))
			}
			continue
		}
		escape = escape.Union(g.pre(r, m, to.inv.Subtract(to.bad)))
	}
	safe := r.inv.Subtract(forced)
	escape = escape.Intersect(safe)
	good := escape
	if !g.sys.Urgent(r.loc) {
		good = forever(safe).Union(escape.PastAvoiding(forced)).Intersect(r.inv)
	}
	return r.inv.Subtract(good)
}

// blame picks the successor that explains why r became bad.
func (g *losingGame) blame(id int) {
	r := g.regions[id]
	for _, m := range r.moves {
		to := g.regions[m.to]
		if m.kind == explore.EdgeInput && m.to != id && !to.bad.IsEmpty() && !g.pre(r, m, to.bad).IsEmpty() {
			r.cause, r.action = m.to, m.action
			return
		}
	}
	for _, m := range r.moves {
		if m.kind != explore.EdgeInput && m.to != id && !g.regions[m.to].bad.IsEmpty() {
			r.cause, r.action = m.to, m.action
			return
		}
	}
}

func (g *losingGame) solve(ctx context.Context) error {
	queued := make([]bool, len(g.regions))
	work := make([]int, len(g.regions))
	for id := range g.regions {
		work[id] = id
		queued[id] = true
	}
	for len(work) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		id := work[0]
		work = work[1:]
		queued[id] = false
		r := g.regions[id]
		bad := g.losing(r)
		if bad.IsSubset(r.bad) {
			continue
		}
		first := r.bad.IsEmpty()
		r.bad = r.bad.Union(bad)
		if first {
			g.blame(id)
		}
		for _, p := range r.preds {
			if !queued[p] {
				queued[p] = true
				work = append(work, p)
			}
		}
	}
	return nil
}

// witness follows the causes from the initial region. Each step shows the
// losing valuations of its location.
func (g *losingGame) witness() []Step {
	var out []Step
	action := ""
	for id := 0; ; {
		r := g.regions[id]
		out = append(out, Step{Locations: r.loc.Vector(), Zone: r.bad.Format(g.sys.ClockNames()), Action: action})
		if r.cause == id {
			return out
		}
		id, action = r.cause, r.action
	}
}

// solveLosing builds and solves the losing game of sys from its initial
// location.
func solveLosing(ctx context.Context, sys system.System, opts Options) (*losingGame, error) {
	init, _ := sys.Initial()
	g, err := newLosingGame(ctx, sys, init, opts)
	if err != nil {
		return nil, err
	}
	if err := g.solve(ctx); err != nil {
		return nil, err
	}
	return g, nil
}

// judged returns the system a consistency verdict is computed on. Pruning
// that Build applied on its own keeps the verdict, so it is looked through
// to report the unpruned witness.
func judged(sys system.System) system.System {
	if p, ok := sys.(*system.Pruned); ok && p.Implicit() {
		return judged(p.Inner())
	}
	return sys
}

// Consistency checks that sys can always avoid an inconsistent state
// whatever inputs it receives, starting from the initial valuation.
func Consistency(ctx context.Context, sys system.System, opts Options) (Result, error) {
	sys = judged(sys)
	if r, ok := noInitial(sys); ok {
		return r, nil
	}
	g, err := solveLosing(ctx, sys, opts)
	if err != nil {
		return interrupted(err, 0)
	}
	return g.verdict(), nil
}

func (g *losingGame) verdict() Result {
	n := len(g.regions)
	if g.regions[0].bad.IntersectZone(dbm.Zero(g.sys.Dim())).IsEmpty() {
		return Result{Outcome: OutcomeSuccess, States: n}
	}
	witness := g.witness()
	last := witness[len(witness)-1]
	return Result{
		Outcome:     OutcomeFailure,
		Witness:     witness,
		Diagnostics: []string{fmt.Sprintf("inconsistent state %v with %s", last.Locations, last.Zone)},
		States:      n,
	}
}

// noInitial returns the failure for a system without an initial state.
func noInitial(sys system.System) (Result, bool) {
	if _, ok := explore.Initial(sys); ok {
		return Result{}, false
	}
	l, ok := sys.Initial()
	if !ok {
		return Result{
			Outcome:     OutcomeFailure,
			Diagnostics: []string{fmt.Sprintf("%s has no initial location", sys)},
		}, true
	}
	z := explore.Delay(sys, l, dbm.Zero(sys.Dim()))
	return Result{
		Outcome:     OutcomeFailure,
		Witness:     []Step{step(sys, l, z, "")},
		Diagnostics: []string{fmt.Sprintf("initial state %v violates its invariant", l.Vector())},
	}, true
}

// stuck returns the valuations of s from which sys can neither let time
// pass forever nor take an output or silent move.
func stuck(sys system.System, s explore.State) dbm.Federation {
	dim := sys.Dim()
	inv := dbm.NewFederation(dim, sys.Invariant(s.Loc))
	escape := dbm.EmptyFederation(dim)
	for _, action := range append(system.Actions(sys), system.Silent) {
		if explore.KindOf(sys, action) == explore.EdgeInput {
			continue
		}
		escape = escape.Union(system.AllowedUnion(sys, sys.Transitions(s.Loc, action)))
	}
	good := escape
	if !sys.Urgent(s.Loc) {
		good = forever(inv).Union(escape.Down())
	}
	return inv.IntersectZone(s.Zone).Subtract(good)
}

// Implementation checks consistency and independent progress: every
// reachable state can either delay forever or take an output or silent
// move.
func Implementation(ctx context.Context, sys system.System, opts Options) (Result, error) {
	if r, err := Consistency(ctx, sys, opts); err != nil || r.Outcome != OutcomeSuccess {
		return r, err
	}
	e := explore.New(sys, opts.explore(false))
	var first int
	var rest dbm.Federation
	found := false
	_, err := e.RunInitial(ctx, func(id int) bool {
		if f := stuck(sys, e.Node(id).State); !f.IsEmpty() {
			first, rest, found = id, f, true
		}
		return found
	})
	if err != nil {
		return interrupted(err, e.Len())
	}
	if !found {
		return Result{Outcome: OutcomeSuccess, States: e.Len()}, nil
	}
	n := e.Node(first)
	return Result{
		Outcome: OutcomeFailure,
		Witness: path(e, first),
		Diagnostics: []string{fmt.Sprintf("no independent progress in %v with %s",
			n.State.Loc.Vector(), rest.Format(sys.ClockNames()))},
		States: e.Len(),
	}, nil
}
