package system

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tioga/internal/dbm"
	"github.com/roach88/tioga/internal/model"
	"github.com/roach88/tioga/internal/testutil"
)

func TestConjunction_RejectsDifferentAlphabets(t *testing.T) {
	_, err := Build(context.Background(), testutil.ScenarioModel(), And(Ref("G1"), Ref("S")), Options{})
	require.Error(t, err)
	var ce *CompositionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrConjunctionActions, ce.Code)
	assert.Equal(t, "conjunction", ce.Operator)
}

func TestConjunction_SynchronizesLabeledMoves(t *testing.T) {
	sys := build(t, testutil.ScenarioModel(), And(Ref("G1"), Ref("G2")))
	init, _ := sys.Initial()
	ts := sys.Transitions(init, "a")
	require.Len(t, ts, 1)
	assert.Equal(t, "(G1.L1,G2.L1)", ts[0].Target.Key())
	assert.Equal(t, "G1.x<=5 && G2.x<=10", ts[0].Guard.Format(sys.ClockNames()))
	assert.Equal(t, "(G1 && G2)", sys.String())
}

func TestComposition_RejectsSharedOutputs(t *testing.T) {
	_, err := Build(context.Background(), testutil.ScenarioModel(), Par(Ref("G1"), Ref("G2")), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCompositionOutputs)
}

func TestComposition_ClientServer(t *testing.T) {
	sys := build(t, testutil.ScenarioModel(), Par(Ref("C"), Ref("S")))
	assert.Equal(t, []string{"ack", "req"}, sys.Outputs())
	assert.Empty(t, sys.Inputs())

	init, ok := sys.Initial()
	require.True(t, ok)
	assert.Equal(t, []string{"C.Ready", "S.Idle"}, init.Vector())

	req := sys.Transitions(init, "req")
	require.Len(t, req, 1)
	assert.Equal(t, "(C.Waiting,S.Busy)", req[0].Target.Key())
	assert.Equal(t, []Reset{{Clock: 1, Value: 0}}, req[0].Resets)
	assert.Equal(t, "S.y<=4", sys.Invariant(req[0].Target).Format(sys.ClockNames()))

	assert.Empty(t, sys.Transitions(init, "ack"), "the server is idle")
	assert.Empty(t, sys.Transitions(init, "nope"))
}

func TestComposition_UnsharedActionsInterleave(t *testing.T) {
	sys := build(t, testutil.ScenarioModel(), Par(Ref("G1"), Ref("U")))
	init, _ := sys.Initial()

	a := sys.Transitions(init, "a")
	require.Len(t, a, 1)
	assert.Equal(t, "(G1.L1,U.L0)", a[0].Target.Key())

	g := sys.Transitions(init, "go")
	require.Len(t, g, 1)
	assert.Equal(t, "(G1.L0,U.L1)", g[0].Target.Key())
}

func TestQuotient_Alphabet(t *testing.T) {
	sys := build(t, testutil.ScenarioModel(), Div(Ref("G2"), Ref("G1")))
	assert.Equal(t, []string{"a", QuotientAction}, sys.Inputs())
	assert.Empty(t, sys.Outputs())

	_, err := Build(context.Background(), testutil.ScenarioModel(), Div(Ref("G1"), Ref("S")), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrQuotientActions)
}

func TestQuotient_DivisorOutputOutsideDividend(t *testing.T) {
	sys := build(t, testutil.ScenarioModel(), Div(Ref("G2"), Ref("G1")))
	names := sys.ClockNames()
	init, _ := sys.Initial()

	ts := sys.Transitions(init, "a")
	require.Len(t, ts, 2)
	assert.Equal(t, "(G2.L1,G1.L1)", ts[0].Target.Key())
	assert.Equal(t, "G2.x<=10 && G1.x<=5", ts[0].Guard.Format(names))

	assert.Equal(t, Inconsistent(), ts[1].Target)
	assert.Equal(t, "G2.x>10 && G1.x<=5", ts[1].Guard.Format(names))
	assert.Equal(t, []Reset{{Clock: 3, Value: 0}}, ts[1].Resets)

	assert.Empty(t, sys.Transitions(init, QuotientAction))
}

func TestQuotient_InvariantRules(t *testing.T) {
	sys := build(t, testutil.ScenarioModel(), Div(Ref("B"), Ref("A")))
	names := sys.ClockNames()
	init, _ := sys.Initial()
	assert.Equal(t, "true", sys.Invariant(init).Format(names))

	ts := sys.Transitions(init, QuotientAction)
	require.Len(t, ts, 2)
	assert.Equal(t, Inconsistent(), ts[0].Target)
	assert.Equal(t, "B.x<5 && A.x<=3", ts[0].Guard.Format(names))
	assert.Equal(t, Universal(), ts[1].Target)
	assert.Equal(t, "A.x>3", ts[1].Guard.Format(names))
}

func TestQuotient_SpecialLocations(t *testing.T) {
	sys := build(t, testutil.ScenarioModel(), Div(Ref("G2"), Ref("G1")))
	names := sys.ClockNames()

	u := sys.Transitions(Universal(), "a")
	require.Len(t, u, 1)
	assert.Equal(t, Universal(), u[0].Target)
	assert.Empty(t, sys.Transitions(Universal(), Silent))

	assert.Equal(t, "quotient#1==0", sys.Invariant(Inconsistent()).Format(names))
	in := sys.Transitions(Inconsistent(), "a")
	require.Len(t, in, 1)
	assert.Equal(t, "quotient#1==0", in[0].Guard.Format(names))
	assert.Equal(t, []string{"inconsistent"}, Inconsistent().Vector())
}

func TestPruned_HidesRemovedLocations(t *testing.T) {
	inner := build(t, testutil.ScenarioModel(), Ref("T"))
	dim := inner.Dim()
	l0, l1 := Leaf("T", 0, "L0"), Leaf("T", 1, "L1")
	p := NewPruned(inner, []Losing{
		{Loc: l1, Bad: dbm.UniverseFederation(dim)},
		{Loc: l0, Bad: dbm.EmptyFederation(dim)},
	})
	assert.Equal(t, []string{"T.L1"}, p.Removed())

	init, ok := p.Initial()
	require.True(t, ok)
	assert.Empty(t, p.Transitions(init, "go"))
	assert.Len(t, inner.Transitions(init, "go"), 1)

	gone := NewPruned(inner, []Losing{{Loc: l0, Bad: dbm.UniverseFederation(dim)}})
	_, ok = gone.Initial()
	assert.False(t, ok)
}

func TestPruned_KeepsRemainingValuations(t *testing.T) {
	inner := build(t, testutil.ScenarioModel(), Ref("T"))
	dim, names := inner.Dim(), inner.ClockNames()
	l0 := Leaf("T", 0, "L0")
	late := dbm.NewFederation(dim, dbm.Universe(dim).Constrain(0, 1, dbm.LT(-4)))

	p := NewPruned(inner, []Losing{{Loc: l0, Bad: late}})
	assert.Empty(t, p.Removed())
	init, ok := p.Initial()
	require.True(t, ok)
	assert.Equal(t, "T.x<=4", p.Invariant(init).Format(names))
	assert.Equal(t, "T.x<=4", p.Remaining(init).Format(names))

	ts := p.Transitions(init, "go")
	require.Len(t, ts, 1)
	assert.Equal(t, "T.x<=4", ts[0].Guard.Format(names))

	// Losing the zero valuation loses the initial state but not the location.
	early := dbm.NewFederation(dim, dbm.Universe(dim).Constrain(1, 0, dbm.LE(1)))
	p = NewPruned(inner, []Losing{{Loc: l0, Bad: early}})
	assert.Empty(t, p.Removed())
	_, ok = p.Initial()
	assert.False(t, ok)
}

func TestMaterialize_ClientServer(t *testing.T) {
	sys := build(t, testutil.ScenarioModel(), Par(Ref("C"), Ref("S")))
	a, err := Materialize(sys, "CS")
	require.NoError(t, err)

	assert.Equal(t, "CS", a.Name)
	assert.Equal(t, []string{"S.y"}, a.Clocks)
	require.Len(t, a.Locations, 2)
	assert.Equal(t, "(C.Ready,S.Idle)", a.Locations[0].ID)
	assert.True(t, a.Locations[0].Initial)
	assert.Equal(t, []model.Constraint{{Left: "S.y", Bound: 4}}, a.Locations[1].Invariant)

	require.Len(t, a.Edges, 2)
	assert.Equal(t, "req!", a.Edges[0].Sync)
	assert.Equal(t, []model.Reset{{Clock: "S.y"}}, a.Edges[0].Resets)
	assert.Equal(t, "ack!", a.Edges[1].Sync)

	assert.Empty(t, model.Validate(a))
}

func TestMaterialize_NoInitial(t *testing.T) {
	inner := build(t, testutil.ScenarioModel(), Ref("T"))
	gone := []Losing{{Loc: Leaf("T", 0, "L0"), Bad: dbm.UniverseFederation(inner.Dim())}}
	_, err := Materialize(NewPruned(inner, gone), "X")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrNoInitial)
}
