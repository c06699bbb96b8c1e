package dbm

import (
	"fmt"
	"math"
)

// Bound is an upper bound on a clock difference, encoded as value<<1 with
// the low bit set for non-strict (<=) bounds. The encoding orders bounds
// so that integer comparison is bound comparison: (c,<) < (c,<=) < (c+1,<).
type Bound int64

// Infinity is the absent bound.
const Infinity Bound = math.MaxInt64

// LE returns the non-strict bound "<= c".
func LE(c int64) Bound { return Bound(c<<1 | 1) }

// LT returns the strict bound "< c".
func LT(c int64) Bound { return Bound(c << 1) }

// zero is the bound "<= 0", the diagonal of every non-empty zone.
const zero = Bound(1)

// Value returns the constant of a finite bound.
func (b Bound) Value() int64 { return int64(b) >> 1 }

// Strict reports whether the bound is "<".
func (b Bound) Strict() bool { return b&1 == 0 }

// IsInfinite reports whether b is Infinity.
func (b Bound) IsInfinite() bool { return b == Infinity }

// Add sums two bounds along a path. The sum is strict if either side is.
func (b Bound) Add(o Bound) Bound {
	if b == Infinity || o == Infinity {
		return Infinity
	}
	return Bound((b.Value()+o.Value())<<1 | int64(b&o&1))
}

// Negate returns the bound of the complementary constraint read in the
// opposite direction: not(x_i - x_j <= c) is x_j - x_i < -c.
func (b Bound) Negate() Bound {
	return 1 - b
}

func (b Bound) String() string {
	if b == Infinity {
		return "<inf"
	}
	if b.Strict() {
		return fmt.Sprintf("<%d", b.Value())
	}
	return fmt.Sprintf("<=%d", b.Value())
}

func minBound(a, b Bound) Bound {
	if a < b {
		return a
	}
	return b
}
