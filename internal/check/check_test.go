package check

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tioga/internal/dbm"
	"github.com/roach88/tioga/internal/model"
	"github.com/roach88/tioga/internal/system"
	"github.com/roach88/tioga/internal/testutil"
)

func build(t *testing.T, m *model.Model, p *system.Plan) system.System {
	t.Helper()
	sys, err := system.Build(context.Background(), m, p, system.Options{Prune: Pruner(Options{})})
	require.NoError(t, err)
	return sys
}

func refine(t *testing.T, m *model.Model, impl, spec *system.Plan) Result {
	t.Helper()
	return refineWith(t, m, system.Options{}, impl, spec)
}

func refineWith(t *testing.T, m *model.Model, opts system.Options, impl, spec *system.Plan) Result {
	t.Helper()
	out, err := system.BuildAll(context.Background(), m, opts, impl, spec)
	require.NoError(t, err)
	r, err := Refinement(context.Background(), out[0], out[1], Options{})
	require.NoError(t, err)
	return r
}

// trap accepts an input that leads into a location it can never leave.
func trap() *model.Automaton {
	return &model.Automaton{
		Name:   "Trap",
		Clocks: []string{"x"},
		Locations: []model.Location{
			{ID: "L0", Initial: true},
			{ID: "L1", Invariant: []model.Constraint{testutil.Le("x", 2)}},
		},
		Edges: []model.Edge{
			{Source: "L0", Target: "L1", Sync: "i?", Resets: []model.Reset{{Clock: "x"}}},
		},
	}
}

// open accepts the input of trap forever.
func open() *model.Automaton {
	return &model.Automaton{
		Name:      "Open",
		Clocks:    []string{"x"},
		Locations: []model.Location{{ID: "L0", Initial: true}},
		Edges:     []model.Edge{{Source: "L0", Target: "L0", Sync: "i?"}},
	}
}

// deadline must output a! while x <= bound and has nothing left to do
// afterwards.
func deadline(name string, bound int64) *model.Automaton {
	return &model.Automaton{
		Name:   name,
		Clocks: []string{"x"},
		Locations: []model.Location{
			{ID: "L0", Initial: true, Invariant: []model.Constraint{testutil.Le("x", bound)}},
			{ID: "L1"},
		},
		Edges: []model.Edge{
			{Source: "L0", Target: "L1", Sync: "a!", Guard: []model.Constraint{testutil.Le("x", bound)}},
		},
	}
}

// idle has no clocks and no actions.
func idle(name string) *model.Automaton {
	return &model.Automaton{Name: name, Locations: []model.Location{{ID: "L0", Initial: true}}}
}

// stranded outputs a! at any time into a location it cannot leave.
func stranded(name string) *model.Automaton {
	return &model.Automaton{
		Name:   name,
		Clocks: []string{"x"},
		Locations: []model.Location{
			{ID: "L0", Initial: true},
			{ID: "L1", Invariant: []model.Constraint{testutil.Le("x", 3)}},
		},
		Edges: []model.Edge{
			{Source: "L0", Target: "L1", Sync: "a!", Resets: []model.Reset{{Clock: "x"}}},
		},
	}
}

func TestRefinement_WeakerGuardIsRefined(t *testing.T) {
	r := refine(t, testutil.ScenarioModel(), system.Ref("G1"), system.Ref("G2"))
	assert.Equal(t, OutcomeSuccess, r.Outcome)
	assert.Empty(t, r.Witness)
	assert.Positive(t, r.States)
}

func TestRefinement_StrongerGuardFails(t *testing.T) {
	r := refine(t, testutil.ScenarioModel(), system.Ref("G2"), system.Ref("G1"))
	require.Equal(t, OutcomeFailure, r.Outcome)
	require.Len(t, r.Witness, 1)
	assert.Equal(t, []string{"G2.L0", "G1.L0"}, r.Witness[0].Locations)
	require.Len(t, r.Diagnostics, 1)
	assert.Contains(t, r.Diagnostics[0], "a!: output of the implementation not allowed")
	assert.Contains(t, r.Diagnostics[0], "G2.x>5")
	assert.Contains(t, r.Diagnostics[0], "G2.x<=10")
}

func TestRefinement_LosingZoneContainsSeven(t *testing.T) {
	m := testutil.ScenarioModel()
	out, err := system.BuildAll(context.Background(), m, system.Options{}, system.Ref("G2"), system.Ref("G1"))
	require.NoError(t, err)
	g2, g1 := out[0], out[1]

	z0, _ := g2.Initial()
	zone := dbm.Zero(g2.Dim()).Up()
	fa := system.AllowedUnion(g2, g2.Transitions(z0, "a")).IntersectZone(zone)
	l1, _ := g1.Initial()
	fb := system.AllowedUnion(g1, g1.Transitions(l1, "a")).IntersectZone(zone)
	miss := fa.Subtract(fb)
	require.False(t, miss.IsEmpty())
	assert.True(t, miss.Zones()[0].Contains([]float64{0, 7, 7}))
}

func TestRefinement_Reflexive(t *testing.T) {
	m := testutil.ScenarioModel()
	for _, name := range []string{"G1", "G2", "G3", "U", "S", "C", "T"} {
		t.Run(name, func(t *testing.T) {
			r := refine(t, m, system.Ref(name), system.Ref(name))
			assert.Equal(t, OutcomeSuccess, r.Outcome, r.Diagnostics)
		})
	}
}

func TestRefinement_Transitive(t *testing.T) {
	m := testutil.ScenarioModel()
	assert.True(t, refine(t, m, system.Ref("G1"), system.Ref("G2")).Success())
	assert.True(t, refine(t, m, system.Ref("G2"), system.Ref("G3")).Success())
	assert.True(t, refine(t, m, system.Ref("G1"), system.Ref("G3")).Success())
	assert.False(t, refine(t, m, system.Ref("G3"), system.Ref("G1")).Success())
}

func TestRefinement_PrechecksBothSides(t *testing.T) {
	m := model.MustNew(trap(), open(), testutil.Overlapping("M"))

	r := refine(t, m, system.Ref("Trap"), system.Ref("Trap"))
	require.Equal(t, OutcomeFailure, r.Outcome)
	assert.Equal(t, "implementation Trap is not consistent", r.Diagnostics[0])
	require.Len(t, r.Witness, 2)
	assert.Equal(t, []string{"Trap.L1"}, r.Witness[1].Locations)

	r = refine(t, m, system.Ref("Open"), system.Ref("Trap"))
	require.Equal(t, OutcomeFailure, r.Outcome)
	assert.Equal(t, "specification Trap is not consistent", r.Diagnostics[0])

	r = refine(t, m, system.Ref("M"), system.Ref("M"))
	require.Equal(t, OutcomeFailure, r.Outcome)
	assert.Equal(t, "implementation M is not deterministic", r.Diagnostics[0])
	assert.Contains(t, r.Diagnostics[1], "nondeterministic a!")

	r = refine(t, testutil.ScenarioModel(), system.Ref("A"), system.Ref("A"))
	require.Equal(t, OutcomeFailure, r.Outcome)
	assert.Equal(t, "implementation A is not consistent", r.Diagnostics[0])
}

func TestRefinement_AlphabetPreconditions(t *testing.T) {
	r := refine(t, testutil.ScenarioModel(), system.Ref("G1"), system.Ref("T"))
	require.Equal(t, OutcomeFailure, r.Outcome)
	assert.Contains(t, r.Diagnostics[0], "outputs [a] of G1 are not outputs of T")
}

func TestRefinement_EmptyImplementation(t *testing.T) {
	r := refine(t, testutil.ScenarioModel(), system.Ref("B"), system.Ref("B"))
	require.Equal(t, OutcomeFailure, r.Outcome)
	require.Len(t, r.Witness, 1)
	assert.Equal(t, "false", r.Witness[0].Zone)
}

func TestRefinement_SpecificationInvariantBoundsDelay(t *testing.T) {
	m := model.MustNew(deadline("Slow", 5), deadline("Fast", 3))
	assert.True(t, refine(t, m, system.Ref("Fast"), system.Ref("Slow")).Success())

	r := refine(t, m, system.Ref("Slow"), system.Ref("Fast"))
	require.Equal(t, OutcomeFailure, r.Outcome)
	assert.Contains(t, r.Diagnostics[0], "initial delay")
}

func TestRefinement_InitialStateOutsideSpecification(t *testing.T) {
	m := model.MustNew(testutil.Holding("Free"), testutil.Holding("Late", testutil.Ge("x", 5)))
	out, err := system.BuildAll(context.Background(), m, system.Options{}, system.Ref("Free"), system.Ref("Late"))
	require.NoError(t, err)

	r, err := refines(context.Background(), out[0], out[1], Options{})
	require.NoError(t, err)
	require.Equal(t, OutcomeFailure, r.Outcome)
	assert.Equal(t, []string{"initial state of the implementation not allowed by the specification"}, r.Diagnostics)
	require.Len(t, r.Witness, 1)
	assert.Equal(t, []string{"Free.L0", "Late.L0"}, r.Witness[0].Locations)
	assert.Equal(t, "false", r.Witness[0].Zone)

	r, err = refines(context.Background(), out[1], out[0], Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Late has no initial state"}, r.Diagnostics)
}

func TestRefinement_QuotientWithDividendInvariant(t *testing.T) {
	m := model.MustNew(deadline("D", 5), idle("E"))
	quotient := system.Div(system.Ref("D"), system.Ref("E"))
	opts := system.Options{Prune: Pruner(Options{})}

	r := refineWith(t, m, opts, system.Par(system.Ref("E"), quotient), system.Ref("D"))
	assert.Equal(t, OutcomeSuccess, r.Outcome, r.Diagnostics)

	// Without pruning the quotient may still wait past the deadline.
	r = refine(t, m, system.Par(system.Ref("E"), quotient), system.Ref("D"))
	assert.Equal(t, OutcomeFailure, r.Outcome)
}

func TestRefinement_ConjunctionIsPruned(t *testing.T) {
	m := model.MustNew(stranded("K"), testutil.Gate("G", 5))
	impl := system.And(system.Ref("K"), system.Ref("K"))

	r := refineWith(t, m, system.Options{Prune: Pruner(Options{})}, impl, system.Ref("G"))
	assert.Equal(t, OutcomeSuccess, r.Outcome, r.Diagnostics)

	r = refine(t, m, impl, system.Ref("G"))
	require.Equal(t, OutcomeFailure, r.Outcome)
	assert.Contains(t, r.Diagnostics[0], "a!: output of the implementation not allowed")
}

func TestRefinement_QuotientIsSound(t *testing.T) {
	m := testutil.ScenarioModel()
	r := refine(t, m, system.Par(system.Ref("G1"), system.Div(system.Ref("G2"), system.Ref("G1"))), system.Ref("G2"))
	assert.Equal(t, OutcomeSuccess, r.Outcome, r.Diagnostics)
}

func TestRefinement_StateLimitIsInconclusive(t *testing.T) {
	out, err := system.BuildAll(context.Background(), testutil.ScenarioModel(), system.Options{}, system.Ref("S"), system.Ref("S"))
	require.NoError(t, err)
	r, err := Refinement(context.Background(), out[0], out[1], Options{MaxStates: 1})
	require.NoError(t, err)
	assert.Equal(t, OutcomeInconclusive, r.Outcome)
	assert.Contains(t, r.Diagnostics[0], "state limit exceeded")
}

func TestRefinement_NeedsSharedClockSpace(t *testing.T) {
	a := build(t, testutil.ScenarioModel(), system.Ref("G1"))
	b := build(t, testutil.ScenarioModel(), system.And(system.Ref("G1"), system.Ref("G2")))
	_, err := Refinement(context.Background(), a, b, Options{})
	assert.Error(t, err)
}

func TestConsistency_EmptyInitialZone(t *testing.T) {
	sys := build(t, testutil.ScenarioModel(), system.And(system.Ref("A"), system.Ref("B")))
	r, err := Consistency(context.Background(), sys, Options{})
	require.NoError(t, err)
	require.Equal(t, OutcomeFailure, r.Outcome)
	require.Len(t, r.Witness, 1)
	assert.Equal(t, []string{"A.L0", "B.L0"}, r.Witness[0].Locations)
	assert.Equal(t, "false", r.Witness[0].Zone)
}

func TestConsistency_QuotientKeepsDividendInvariant(t *testing.T) {
	m := model.MustNew(deadline("D", 5), idle("E"))

	r, err := Consistency(context.Background(), build(t, m, system.Ref("D")), Options{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, r.Outcome, r.Diagnostics)

	// Past x > 5 the quotient is forced into its inconsistent location, but
	// from x == 0 it can still output a! in time.
	quotient := system.Div(system.Ref("D"), system.Ref("E"))
	raw, err := system.Build(context.Background(), m, quotient, system.Options{})
	require.NoError(t, err)
	r, err = Consistency(context.Background(), raw, Options{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, r.Outcome, r.Diagnostics)

	losing, err := LosingStates(context.Background(), raw, Options{})
	require.NoError(t, err)
	bad := map[string]string{}
	for _, l := range losing {
		bad[l.Loc.Key()] = l.Bad.Format(raw.ClockNames())
	}
	assert.Equal(t, "D.x>5", bad["(D.L0,E.L0)"])
	assert.Contains(t, bad, "#inconsistent")

	pruned := build(t, m, system.PruneOf(quotient))
	init, ok := pruned.Initial()
	require.True(t, ok)
	assert.Equal(t, "D.x<=5", pruned.Invariant(init).Format(pruned.ClockNames()))
	r, err = Consistency(context.Background(), pruned, Options{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, r.Outcome, r.Diagnostics)
}

func TestConsistency_OutputsCanAvoidTimelock(t *testing.T) {
	sys := build(t, testutil.ScenarioModel(), system.Ref("T"))
	r, err := Consistency(context.Background(), sys, Options{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, r.Outcome)
	assert.Equal(t, 2, r.States)
}

func TestConsistency_InputIntoTimelock(t *testing.T) {
	sys := build(t, model.MustNew(trap()), system.Ref("Trap"))
	r, err := Consistency(context.Background(), sys, Options{})
	require.NoError(t, err)
	require.Equal(t, OutcomeFailure, r.Outcome)
	require.Len(t, r.Witness, 2)
	assert.Equal(t, []string{"Trap.L0"}, r.Witness[0].Locations)
	assert.Equal(t, []string{"Trap.L1"}, r.Witness[1].Locations)
	assert.Equal(t, "i", r.Witness[1].Action)
	assert.Equal(t, "Trap.x<=2", r.Witness[1].Zone)
}

func TestConsistency_Scenarios(t *testing.T) {
	m := testutil.ScenarioModel()
	cases := []struct {
		name string
		plan *system.Plan
		want Outcome
	}{
		{"gate", system.Ref("G1"), OutcomeSuccess},
		{"server", system.Ref("S"), OutcomeSuccess},
		{"client and server", system.Par(system.Ref("C"), system.Ref("S")), OutcomeSuccess},
		{"quotient", system.Div(system.Ref("G2"), system.Ref("G1")), OutcomeSuccess},
		{"empty invariant", system.Ref("B"), OutcomeFailure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := Consistency(context.Background(), build(t, m, tc.plan), Options{})
			require.NoError(t, err)
			assert.Equal(t, tc.want, r.Outcome, r.Diagnostics)
		})
	}
}

func TestConsistency_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, err := Consistency(ctx, build(t, testutil.ScenarioModel(), system.Ref("S")), Options{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeInconclusive, r.Outcome)
}

func TestImplementation(t *testing.T) {
	m := testutil.ScenarioModel()

	r, err := Implementation(context.Background(), build(t, m, system.Ref("S")), Options{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, r.Outcome, r.Diagnostics)

	r, err = Implementation(context.Background(), build(t, m, system.Ref("T")), Options{})
	require.NoError(t, err)
	require.Equal(t, OutcomeFailure, r.Outcome)
	require.Len(t, r.Witness, 2)
	assert.Equal(t, "go", r.Witness[1].Action)
	assert.Contains(t, r.Diagnostics[0], "no independent progress")
}

func TestDeterminism_OverlappingGuards(t *testing.T) {
	r, err := Determinism(context.Background(), build(t, testutil.ScenarioModel(), system.Ref("M")), Options{})
	require.NoError(t, err)
	require.Equal(t, OutcomeFailure, r.Outcome)
	require.Len(t, r.Witness, 1)
	assert.Equal(t, []string{"M.L0"}, r.Witness[0].Locations)
	assert.Equal(t, []string{"nondeterministic a! at [M.L0] in M.x>1 && M.x<2"}, r.Diagnostics)
}

func TestDeterminism_DisjointGuards(t *testing.T) {
	m := testutil.ScenarioModel()
	for _, name := range []string{"G1", "U", "S", "C", "T"} {
		r, err := Determinism(context.Background(), build(t, m, system.Ref(name)), Options{})
		require.NoError(t, err)
		assert.Equal(t, OutcomeSuccess, r.Outcome, name)
	}
}

func TestDeterminism_FindingCap(t *testing.T) {
	m := model.MustNew(testutil.Overlapping("M1"), testutil.Overlapping("M2"))
	// Every pair of the four joint a-moves overlaps.
	conj := build(t, m, system.And(system.Ref("M1"), system.Ref("M2")))
	r, err := Determinism(context.Background(), conj, Options{MaxFindings: 100})
	require.NoError(t, err)
	require.Equal(t, OutcomeFailure, r.Outcome)
	assert.Greater(t, len(r.Diagnostics), 1)

	r, err = Determinism(context.Background(), conj, Options{MaxFindings: 2})
	require.NoError(t, err)
	assert.Len(t, r.Diagnostics, 2)
}

func TestReachability_UnreachableLocation(t *testing.T) {
	sys := build(t, testutil.ScenarioModel(), system.Ref("U"))
	r, err := Reachability(context.Background(), sys, nil, Predicate{
		Locations: map[string]string{"U": "L5"},
		Zone:      dbm.Universe(sys.Dim()),
	}, Options{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailure, r.Outcome)
	assert.Empty(t, r.Witness)
}

func TestReachability_PathToTarget(t *testing.T) {
	sys := build(t, testutil.ScenarioModel(), system.Par(system.Ref("C"), system.Ref("S")))
	r, err := Reachability(context.Background(), sys, nil, Predicate{
		Locations: map[string]string{"S": "Busy"},
		Zone:      dbm.Universe(sys.Dim()).Constrain(0, 1, dbm.LE(-3)),
	}, Options{})
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, r.Outcome)
	require.Len(t, r.Witness, 2)
	assert.Equal(t, "req", r.Witness[1].Action)
	assert.Equal(t, "S.y>=3 && S.y<=4", r.Witness[1].Zone)
}

func TestReachability_ClockTargetOutOfRange(t *testing.T) {
	sys := build(t, testutil.ScenarioModel(), system.Ref("S"))
	r, err := Reachability(context.Background(), sys, nil, Predicate{
		Locations: map[string]string{"S": "Busy"},
		Zone:      dbm.Universe(sys.Dim()).Constrain(0, 1, dbm.LT(-4)),
	}, Options{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailure, r.Outcome)
}

func TestReachability_StartPredicate(t *testing.T) {
	sys := build(t, testutil.ScenarioModel(), system.Ref("U"))
	start := &Predicate{Locations: map[string]string{"U": "L1"}, Zone: dbm.Universe(sys.Dim())}
	r, err := Reachability(context.Background(), sys, start, Predicate{
		Locations: map[string]string{"U": "L0"},
		Zone:      dbm.Universe(sys.Dim()),
	}, Options{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailure, r.Outcome, "L0 is behind the start")

	states := StartStates(sys, start)
	require.Len(t, states, 1)
	assert.Equal(t, "U.L1", states[0].Key())
}

func TestPrune_RemovesInconsistentLocations(t *testing.T) {
	m := model.MustNew(trap())
	losing, err := LosingStates(context.Background(), build(t, m, system.Ref("Trap")), Options{})
	require.NoError(t, err)
	require.Len(t, losing, 2)
	assert.Equal(t, "Trap.L0", losing[0].Loc.Key())
	assert.Equal(t, "Trap.L1", losing[1].Loc.Key())

	pruned := build(t, m, system.PruneOf(system.Ref("Trap")))
	assert.Equal(t, []string{"Trap.L0", "Trap.L1"}, pruned.(*system.Pruned).Removed())
	_, ok := pruned.Initial()
	assert.False(t, ok)
	r, err := Consistency(context.Background(), pruned, Options{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailure, r.Outcome)
	assert.Contains(t, r.Diagnostics[0], "no initial location")
}

func TestPrune_KeepsConsistentSystems(t *testing.T) {
	pruned := build(t, testutil.ScenarioModel(), system.PruneOf(system.Ref("T")))
	p, ok := pruned.(*system.Pruned)
	require.True(t, ok)
	assert.Equal(t, []string{"T.L1"}, p.Removed())

	r, err := Implementation(context.Background(), pruned, Options{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, r.Outcome, r.Diagnostics)
}

func TestOutcome_Text(t *testing.T) {
	for _, o := range []Outcome{OutcomeSuccess, OutcomeFailure, OutcomeInconclusive} {
		b, err := o.MarshalText()
		require.NoError(t, err)
		var back Outcome
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, o, back)
	}
	var o Outcome
	assert.Error(t, o.UnmarshalText([]byte("maybe")))
}
