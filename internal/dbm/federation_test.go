package dbm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func between(lo, hi int64) Zone {
	return Universe(3).Constrain(0, 1, LE(-lo)).Constrain(1, 0, LE(hi))
}

func TestFederation_SubtractSplitsIntoPieces(t *testing.T) {
	f := NewFederation(3, between(0, 10))
	r := f.SubtractZone(between(3, 5))

	assert.False(t, r.IsEmpty())
	for _, x := range []float64{0, 2.9, 5.1, 10} {
		assert.True(t, inFed(r, x), "x=%v", x)
	}
	for _, x := range []float64{3, 4, 5} {
		assert.False(t, inFed(r, x), "x=%v", x)
	}
	assert.True(t, r.IsSubset(f))
}

func TestFederation_SubtractEverything(t *testing.T) {
	f := NewFederation(3, between(2, 4))
	assert.True(t, f.SubtractZone(between(0, 10)).IsEmpty())
	assert.True(t, f.Subtract(UniverseFederation(3)).IsEmpty())
	assert.True(t, f.SubtractZone(between(6, 8)).Equal(f))
}

func TestFederation_SubsetOfUnion(t *testing.T) {
	whole := NewFederation(3, between(0, 6))
	halves := NewFederation(3, between(0, 3), between(3, 6))
	assert.True(t, whole.IsSubset(halves))
	assert.True(t, halves.IsSubset(whole))
	assert.True(t, whole.Equal(halves))

	gap := NewFederation(3, between(0, 2), between(3, 6))
	assert.False(t, whole.IsSubset(gap))
}

func TestFederation_IntersectAndReduce(t *testing.T) {
	f := NewFederation(3, between(0, 4), between(6, 9))
	g := f.IntersectZone(between(3, 7))
	assert.Len(t, g.Zones(), 2)
	assert.True(t, inFed(g, 3.5))
	assert.True(t, inFed(g, 6.5))
	assert.False(t, inFed(g, 5))

	r := NewFederation(3, between(0, 9), between(2, 3), Empty(3))
	assert.Len(t, r.Reduce().Zones(), 1)
	assert.Len(t, r.Zones(), 2, "empty members are dropped on construction")
}

func TestFederation_Complement(t *testing.T) {
	c := NewFederation(3, between(2, 4)).Complement()
	assert.True(t, inFed(c, 1))
	assert.True(t, inFed(c, 5))
	assert.False(t, inFed(c, 3))
	assert.True(t, EmptyFederation(3).Complement().Equal(UniverseFederation(3)))
}

func TestFederation_ResetPreimage(t *testing.T) {
	target := NewFederation(3, between(0, 5))
	assert.False(t, target.ResetPreimage(1, 2).IsEmpty())
	assert.True(t, target.ResetPreimage(1, 8).IsEmpty())
}

func TestFederation_Format(t *testing.T) {
	names := []string{"0", "x", "y"}
	assert.Equal(t, "false", EmptyFederation(3).Format(names))
	assert.Equal(t, "x<=4", NewFederation(3, between(0, 4)).Format(names))
	assert.Equal(t, "(x<=1) || (x>=3 && x<=4)", NewFederation(3, between(0, 1), between(3, 4)).Format(names))
}

func inFed(f Federation, x float64) bool {
	for _, z := range f.Zones() {
		if z.Contains([]float64{0, x, 0}) {
			return true
		}
	}
	return false
}

func TestFederation_PastAvoiding(t *testing.T) {
	goal := NewFederation(3, between(4, 6))

	// The obstacle lies wholly before the goal.
	r := goal.PastAvoiding(NewFederation(3, between(2, 3)))
	for _, x := range []float64{3.5, 4, 6} {
		assert.True(t, inFed(r, x), "x=%v", x)
	}
	for _, x := range []float64{0, 2.5, 3, 6.5} {
		assert.False(t, inFed(r, x), "x=%v", x)
	}

	// The obstacle starts inside the goal: only its front part helps.
	r = goal.PastAvoiding(NewFederation(3, between(5, 7)))
	for _, x := range []float64{0, 1, 4, 4.9} {
		assert.True(t, inFed(r, x), "x=%v", x)
	}
	for _, x := range []float64{5, 6} {
		assert.False(t, inFed(r, x), "x=%v", x)
	}

	// Two obstacles, one on each side of the start.
	r = goal.PastAvoiding(NewFederation(3, between(1, 2), between(5, 7)))
	assert.True(t, inFed(r, 2.5))
	assert.False(t, inFed(r, 0.5))

	assert.True(t, goal.PastAvoiding(EmptyFederation(3)).Equal(goal.Down()))
	assert.True(t, EmptyFederation(3).PastAvoiding(goal).IsEmpty())
}

func TestFederation_Hull(t *testing.T) {
	f := NewFederation(3, between(1, 2), between(4, 5))
	h := f.Hull()
	assert.True(t, h.Contains([]float64{0, 3, 0}))
	assert.False(t, h.Contains([]float64{0, 0.5, 0}))
	assert.False(t, h.Contains([]float64{0, 5.5, 0}))
	assert.True(t, f.IsSubset(NewFederation(3, h)))
	assert.True(t, EmptyFederation(3).Hull().IsEmpty())
}
