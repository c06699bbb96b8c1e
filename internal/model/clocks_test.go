package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func threeClocks() *Automaton {
	return &Automaton{
		Name:   "R",
		Clocks: []string{"x", "y", "z", "w"},
		Locations: []Location{
			{ID: "L0", Initial: true, Invariant: []Constraint{{Left: "x", Bound: 10}}},
			{ID: "L1", Invariant: []Constraint{{Left: "y", Right: "x", Bound: 3}}},
		},
		Edges: []Edge{
			{Source: "L0", Target: "L1", Guard: []Constraint{{Right: "z", Bound: -4}},
				Resets: []Reset{{Clock: "x"}, {Clock: "y"}, {Clock: "w"}}},
			{Source: "L1", Target: "L0", Resets: []Reset{{Clock: "z"}, {Clock: "x"}, {Clock: "y"}}},
		},
	}
}

func TestUnusedClocks(t *testing.T) {
	assert.Equal(t, []string{"w"}, UnusedClocks(threeClocks()))
	assert.Empty(t, UnusedClocks(gate("G", 1)))
}

func TestEquivalentClocks(t *testing.T) {
	// x and y are reset together everywhere; z is reset alone on the way back.
	assert.Equal(t, [][]string{{"x", "y"}}, EquivalentClocks(threeClocks()))

	a := threeClocks()
	a.Edges[1].Resets = []Reset{{Clock: "x"}, {Clock: "y", Value: 1}}
	assert.Empty(t, EquivalentClocks(a), "different reset values split the group")
}

func TestMaxConstants(t *testing.T) {
	got := MaxConstants(threeClocks())
	assert.Equal(t, map[string]int64{"x": 10, "y": 3, "z": 4}, got)
}
