package check

import (
	"context"
	"fmt"

	"github.com/roach88/tioga/internal/dbm"
	"github.com/roach88/tioga/internal/explore"
	"github.com/roach88/tioga/internal/system"
)

// pair is one node of the refinement game arena.
type pair struct {
	a, b   *system.Loc
	zone   dbm.Zone
	parent int
	action string
}

func (p pair) key() string { return p.a.Key() + "|" + p.b.Key() }

// game is the refinement game of impl against spec. Both systems must have
// been built over one clock space.
type game struct {
	impl, spec system.System
	bounds     dbm.Bounds
	names      []string
	nodes      []pair
	waiting    *explore.Waiting
	passed     *explore.Passed
	quota      *explore.Quota
}

// losing describes a position the specification cannot answer.
type losing struct {
	node   int
	action string
	zone   dbm.Zone
	reason string
}

func (g *game) add(p pair) error {
	if _, ok := g.passed.Covering(p.key(), p.zone); ok {
		return nil
	}
	if err := g.quota.Check(); err != nil {
		return err
	}
	id := len(g.nodes)
	g.nodes = append(g.nodes, p)
	g.passed.Add(p.key(), p.zone, id)
	g.waiting.Push(id)
	return nil
}

// delay lets time pass in a pair. The implementation's delay must stay
// inside the specification's invariant, otherwise the position is losing
// and the offending zone is returned.
func (g *game) delay(a, b *system.Loc, z dbm.Zone) (dbm.Zone, dbm.Zone) {
	z = z.Intersect(g.impl.Invariant(a))
	if z.IsEmpty() {
		return z, dbm.Zone{}
	}
	if !g.impl.Urgent(a) {
		before := z
		z = z.Up().Intersect(g.impl.Invariant(a))
		if g.spec.Urgent(b) && !z.Equal(before) {
			return z, z
		}
	}
	invB := dbm.NewFederation(z.Dim(), g.spec.Invariant(b))
	if bad := dbm.NewFederation(z.Dim(), z).Subtract(invB); !bad.IsEmpty() {
		return z, bad.Zones()[0]
	}
	return z.Extrapolate(g.bounds), dbm.Zone{}
}

func (g *game) lose(node int, action string, zone dbm.Zone, reason string) *losing {
	return &losing{node: node, action: action, zone: zone, reason: reason}
}

// expand checks the moves of one pair and queues its successors.
func (g *game) expand(id int) (*losing, error) {
	p := g.nodes[id]

	// match lets one side challenge on action and requires the other side
	// to answer from every valuation the challenge is enabled in.
	match := func(action string, implChallenges bool, reason string) (*losing, error) {
		tsA := g.impl.Transitions(p.a, action)
		tsB := g.spec.Transitions(p.b, action)
		fa := system.AllowedUnion(g.impl, tsA).IntersectZone(p.zone)
		fb := system.AllowedUnion(g.spec, tsB).IntersectZone(p.zone)
		challenge, answer := fa, fb
		if !implChallenges {
			challenge, answer = fb, fa
		}
		if challenge.IsEmpty() {
			return nil, nil
		}
		if miss := challenge.Subtract(answer); !miss.IsEmpty() {
			return g.lose(id, action, miss.Zones()[0], reason), nil
		}
		for _, t := range tsA {
			ga := system.Allowed(g.impl, t).IntersectZone(p.zone)
			for _, u := range tsB {
				both := ga.Intersect(system.Allowed(g.spec, u))
				for _, z := range both.Zones() {
					if l, err := g.successor(id, action, z, t, &u); l != nil || err != nil {
						return l, err
					}
				}
			}
		}
		return nil, nil
	}

	for _, o := range g.impl.Outputs() {
		if l, err := match(o, true, "output of the implementation not allowed by the specification"); l != nil || err != nil {
			return l, err
		}
	}
	for _, i := range g.spec.Inputs() {
		if l, err := match(i, false, "input of the specification not accepted by the implementation"); l != nil || err != nil {
			return l, err
		}
	}
	for _, t := range g.impl.Transitions(p.a, system.Silent) {
		f := system.Allowed(g.impl, t).IntersectZone(p.zone)
		for _, z := range f.Zones() {
			if l, err := g.successor(id, system.Silent, z, t, nil); l != nil || err != nil {
				return l, err
			}
		}
	}
	return nil, nil
}

// successor fires t (and u, when the specification moves too) from the
// valuations z of pair id.
func (g *game) successor(id int, action string, z dbm.Zone, t system.Transition, u *system.Transition) (*losing, error) {
	p := g.nodes[id]
	target := p.b
	for _, r := range t.Resets {
		z = z.Reset(r.Clock, r.Value)
	}
	if u != nil {
		for _, r := range u.Resets {
			z = z.Reset(r.Clock, r.Value)
		}
		target = u.Target
	}
	z, bad := g.delay(t.Target, target, z)
	if z.IsEmpty() {
		return nil, nil
	}
	if !bad.IsEmpty() {
		// Record the losing pair so the witness ends there.
		g.nodes = append(g.nodes, pair{a: t.Target, b: target, zone: z, parent: id, action: action})
		return g.lose(len(g.nodes)-1, "", bad, "delay of the implementation not allowed by the specification"), nil
	}
	return nil, g.add(pair{a: t.Target, b: target, zone: z, parent: id, action: action})
}

func (g *game) witness(id int) []Step {
	var rev []Step
	for ; id >= 0; id = g.nodes[id].parent {
		n := g.nodes[id]
		locs := append(n.a.Vector(), n.b.Vector()...)
		rev = append(rev, Step{Locations: locs, Zone: n.zone.Format(g.names), Action: n.action})
	}
	out := make([]Step, len(rev))
	for i, s := range rev {
		out[len(rev)-1-i] = s
	}
	return out
}

// Refinement decides whether impl refines spec. Every output the
// implementation can produce must be allowed by the specification, and
// every input the specification accepts must be accepted by the
// implementation. Silent moves of the implementation are answered by the
// specification idling. Both systems must come from one system.BuildAll
// and must be consistent and deterministic.
func Refinement(ctx context.Context, impl, spec system.System, opts Options) (Result, error) {
	if impl.Dim() != spec.Dim() {
		return Result{}, fmt.Errorf("refinement operands have different clock spaces (%d, %d)", impl.Dim(), spec.Dim())
	}
	var diags []string
	if extra := missing(spec.Inputs(), impl.Inputs()); len(extra) > 0 {
		diags = append(diags, fmt.Sprintf("inputs %v of %s are not inputs of %s", extra, spec, impl))
	}
	if extra := missing(impl.Outputs(), spec.Outputs()); len(extra) > 0 {
		diags = append(diags, fmt.Sprintf("outputs %v of %s are not outputs of %s", extra, impl, spec))
	}
	if len(diags) > 0 {
		return Result{Outcome: OutcomeFailure, Diagnostics: diags}, nil
	}
	if r, err := precheck(ctx, "implementation", impl, opts); err != nil || r.Outcome != OutcomeSuccess {
		return r, err
	}
	if r, err := precheck(ctx, "specification", spec, opts); err != nil || r.Outcome != OutcomeSuccess {
		return r, err
	}
	return refines(ctx, impl, spec, opts)
}

// precheck runs the consistency and determinism checks that the refinement
// game relies on. A failure names the side and keeps the witness.
func precheck(ctx context.Context, side string, sys system.System, opts Options) (Result, error) {
	what := "consistent"
	r, err := Consistency(ctx, sys, opts)
	if err == nil && r.Outcome == OutcomeSuccess {
		what = "deterministic"
		r, err = Determinism(ctx, sys, opts)
	}
	if err != nil || r.Outcome == OutcomeSuccess {
		return r, err
	}
	r.Diagnostics = append([]string{fmt.Sprintf("%s %s is not %s", side, sys, what)}, r.Diagnostics...)
	return r, nil
}

// refines plays the refinement game between two prechecked systems.
func refines(ctx context.Context, impl, spec system.System, opts Options) (Result, error) {
	la, okA := impl.Initial()
	lb, okB := spec.Initial()
	if !okA || !okB {
		return Result{Outcome: OutcomeFailure, Diagnostics: []string{"both sides need an initial location"}}, nil
	}

	g := &game{
		impl:    impl,
		spec:    spec,
		bounds:  impl.MaxBounds().Merge(spec.MaxBounds()),
		names:   impl.ClockNames(),
		waiting: explore.NewWaiting(),
		passed:  explore.NewPassed(),
		quota:   explore.NewQuota(opts.MaxStates),
	}
	zA := dbm.Zero(impl.Dim()).Intersect(impl.Invariant(la))
	z0 := zA.Intersect(spec.Invariant(lb))
	if z0.IsEmpty() {
		diag := "initial state of the implementation not allowed by the specification"
		if zA.IsEmpty() {
			diag = fmt.Sprintf("%s has no initial state", impl)
		}
		return Result{
			Outcome:     OutcomeFailure,
			Witness:     []Step{{Locations: append(la.Vector(), lb.Vector()...), Zone: z0.Format(g.names)}},
			Diagnostics: []string{diag},
		}, nil
	}
	start := pair{a: la, b: lb, zone: z0, parent: -1}
	z, bad := g.delay(la, lb, z0)
	if !bad.IsEmpty() {
		g.nodes = append(g.nodes, start)
		return g.failure(g.lose(0, "", bad, "initial delay of the implementation not allowed by the specification")), nil
	}
	start.zone = z
	if err := g.add(start); err != nil {
		return interrupted(err, len(g.nodes))
	}

	for {
		id, ok := g.waiting.Pop()
		if !ok {
			return Result{Outcome: OutcomeSuccess, States: len(g.nodes)}, nil
		}
		if err := ctx.Err(); err != nil {
			return interrupted(err, len(g.nodes))
		}
		l, err := g.expand(id)
		if err != nil {
			return interrupted(err, len(g.nodes))
		}
		if l != nil {
			return g.failure(l), nil
		}
	}
}

func (g *game) failure(l *losing) Result {
	diag := l.reason
	if l.action != "" {
		diag = fmt.Sprintf("%s: %s", label(g.impl, l.action), l.reason)
	}
	diag = fmt.Sprintf("%s in %s", diag, l.zone.Format(g.names))
	return Result{
		Outcome:     OutcomeFailure,
		Witness:     g.witness(l.node),
		Diagnostics: []string{diag},
		States:      len(g.nodes),
	}
}

// missing returns the members of a that are not in b.
func missing(a, b []string) []string {
	in := make(map[string]bool, len(b))
	for _, s := range b {
		in[s] = true
	}
	var out []string
	for _, s := range a {
		if !in[s] {
			out = append(out, s)
		}
	}
	return out
}
