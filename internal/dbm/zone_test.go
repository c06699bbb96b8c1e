package dbm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// upTo returns 0 <= x1 ≺ c in a two-clock zone.
func upTo(c int64, strict bool) Zone {
	b := LE(c)
	if strict {
		b = LT(c)
	}
	return Universe(3).Constrain(1, 0, b)
}

func atLeast(c int64) Zone {
	return Universe(3).Constrain(0, 1, LE(-c))
}

func TestBound_Encoding(t *testing.T) {
	assert.True(t, LT(3) < LE(3))
	assert.True(t, LE(3) < LT(4))
	assert.True(t, LE(-1) < LT(0))
	assert.Equal(t, int64(-3), LT(-3).Value())
	assert.True(t, LT(-3).Strict())
	assert.False(t, LE(-3).Strict())

	assert.Equal(t, LE(5), LE(2).Add(LE(3)))
	assert.Equal(t, LT(5), LT(2).Add(LE(3)))
	assert.Equal(t, Infinity, Infinity.Add(LE(-7)))

	assert.Equal(t, LT(-4), LE(4).Negate())
	assert.Equal(t, LE(-4), LT(4).Negate())
}

func TestZone_UniverseAndZero(t *testing.T) {
	u := Universe(3)
	assert.False(t, u.IsEmpty())
	assert.True(t, u.CanDelayIndefinitely())
	assert.Equal(t, "true", u.Format([]string{"0", "x", "y"}))

	z := Zero(3)
	assert.True(t, z.Contains([]float64{0, 0, 0}))
	assert.False(t, z.Contains([]float64{0, 1, 0}))
	assert.True(t, z.IsSubset(u))
	assert.False(t, u.IsSubset(z))
}

func TestZone_CanonicalIsIdempotent(t *testing.T) {
	zones := []Zone{
		Universe(3),
		Zero(3),
		upTo(5, false).Constrain(2, 1, LT(3)),
		atLeast(2).Constrain(1, 2, LE(1)).Up(),
		Empty(3),
	}
	for _, z := range zones {
		c := z.Canonical()
		assert.True(t, c.Equal(z), "canonical changed %s", z)
		assert.True(t, c.Canonical().Equal(c))
	}
}

func TestZone_FromMatrixTightens(t *testing.T) {
	// x <= 3, y - x <= 2 and no direct bound on y.
	raw := []Bound{
		zero, zero, zero,
		LE(3), zero, Infinity,
		Infinity, LE(2), zero,
	}
	z := FromMatrix(3, raw)
	assert.Equal(t, LE(5), z.At(2, 0))
}

func TestZone_Intersect(t *testing.T) {
	a := upTo(5, false)
	b := atLeast(3)
	c := Universe(3).Constrain(2, 0, LE(1))

	ab := a.Intersect(b)
	assert.True(t, ab.Equal(b.Intersect(a)), "commutative")
	assert.True(t, ab.Intersect(c).Equal(a.Intersect(b.Intersect(c))), "associative")
	assert.True(t, ab.Contains([]float64{0, 4, 0}))
	assert.False(t, ab.Contains([]float64{0, 2, 0}))

	e := upTo(2, false).Intersect(atLeast(3))
	assert.True(t, e.IsEmpty())
	assert.True(t, a.Intersect(e).IsEmpty())
	assert.True(t, e.Intersect(a).IsEmpty())
}

func TestZone_ConstrainDetectsEmptiness(t *testing.T) {
	z := upTo(5, true)
	assert.True(t, z.Constrain(0, 1, LE(-5)).IsEmpty())
	assert.False(t, z.Constrain(0, 1, LT(-4)).IsEmpty())
	assert.True(t, Universe(2).Constrain(1, 0, LT(0)).IsEmpty())
}

func TestZone_UpIsMonotonic(t *testing.T) {
	zones := []Zone{Zero(3), upTo(4, false), atLeast(2).Constrain(1, 0, LE(6)), Empty(3)}
	for _, z := range zones {
		assert.True(t, z.IsSubset(z.Up()), "%s", z)
	}
	up := Zero(3).Up()
	assert.True(t, up.Contains([]float64{0, 7, 7}))
	assert.False(t, up.Contains([]float64{0, 7, 6}), "clocks advance together")
}

func TestZone_Down(t *testing.T) {
	z := atLeast(3).Constrain(1, 0, LE(5)).Down()
	assert.True(t, z.Contains([]float64{0, 0, 0}))
	assert.True(t, z.Contains([]float64{0, 5, 5}))
	assert.False(t, z.Contains([]float64{0, 6, 6}))
}

func TestZone_Reset(t *testing.T) {
	z := Zero(3).Up().Constrain(1, 0, LE(4)).Reset(2, 0)
	assert.True(t, z.Contains([]float64{0, 3, 0}))
	assert.False(t, z.Contains([]float64{0, 3, 1}))

	z = z.Reset(1, 7)
	assert.True(t, z.Contains([]float64{0, 7, 0}))
	assert.False(t, z.Contains([]float64{0, 6, 0}))
	assert.True(t, Empty(3).Reset(1, 0).IsEmpty())
}

func TestZone_Free(t *testing.T) {
	z := Zero(3).Up().Constrain(1, 0, LE(2)).Free(1)
	assert.True(t, z.Contains([]float64{0, 9, 1}))
	assert.False(t, z.Contains([]float64{0, 1, 3}), "y keeps its bound")
}

func TestZone_ResetPreimage(t *testing.T) {
	target := upTo(5, false)
	pre := target.ResetPreimage(1, 3)
	assert.True(t, pre.Equal(Universe(3)))

	pre = target.ResetPreimage(1, 6)
	assert.True(t, pre.IsEmpty())
}

func TestZone_Extrapolate(t *testing.T) {
	bounds := Bounds{0, 5, -1}
	z := atLeast(8).Constrain(1, 0, LE(9))
	e := z.Extrapolate(bounds)
	assert.True(t, z.IsSubset(e))
	assert.True(t, e.Contains([]float64{0, 100, 100}))
	assert.False(t, e.Contains([]float64{0, 5, 5}))

	// A clock that is never compared loses all of its bounds above zero.
	y := Zero(3).Up().Constrain(2, 0, LE(3)).Extrapolate(bounds)
	assert.Equal(t, Infinity, y.At(2, 0))
	assert.Equal(t, zero, y.At(0, 2))

	inside := upTo(3, false)
	assert.True(t, inside.Extrapolate(Bounds{0, 5, 5}).Equal(inside))
}

func TestZone_ExtrapolateKeepsExactClocks(t *testing.T) {
	// x runs 10 ahead of y forever.
	z := Zero(3).Up().Constrain(1, 0, LE(10)).Constrain(0, 1, LE(-10)).Reset(2, 0).Up()
	loose := z.Extrapolate(Bounds{0, 5, 5})
	assert.True(t, loose.Contains([]float64{0, 25, 5}), "plain extrapolation forgets x-y==10")

	bounds := Bounds{0, 5, 5}
	bounds.Pin(1)
	bounds.Pin(2)
	exact := z.Extrapolate(bounds)
	assert.True(t, exact.Equal(z))
	assert.False(t, exact.Contains([]float64{0, 25, 5}))

	// Merging keeps the pin.
	assert.Equal(t, Exact, Bounds{0, 3, 1}.Merge(bounds)[1])
	bounds.Raise(1, 40)
	assert.Equal(t, Exact, bounds[1])
}

func TestZone_SubsetAndEqual(t *testing.T) {
	small := upTo(3, false)
	big := upTo(5, false)
	assert.True(t, small.IsSubset(big))
	assert.False(t, big.IsSubset(small))
	assert.True(t, Empty(3).IsSubset(small))
	assert.False(t, small.IsSubset(Empty(3)))
	assert.True(t, Empty(3).Equal(Empty(3)))
	assert.False(t, small.Equal(big))
	assert.True(t, small.Equal(upTo(3, false)))
}

func TestZone_Format(t *testing.T) {
	names := []string{"0", "x", "y"}
	tests := []struct {
		name string
		zone Zone
		want string
	}{
		{"empty", Empty(3), "false"},
		{"upper", upTo(5, false), "x<=5"},
		{"open interval", atLeast(0).Constrain(0, 1, LT(-1)).Constrain(1, 0, LT(2)), "x>1 && x<2"},
		{"point", Zero(3), "x==0 && y==0"},
		{"difference", Zero(3).Up().Constrain(1, 0, LE(4)).Reset(2, 0).Up(), "x-y<=4 && y-x<=0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.zone.Format(names))
		})
	}
}

func TestZone_DimensionMismatchPanics(t *testing.T) {
	require.Panics(t, func() { Universe(2).Intersect(Universe(3)) })
}
