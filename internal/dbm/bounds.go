package dbm

import "math"

// Bounds holds, per clock, the largest constant the clock is compared
// against. -1 marks a clock that is never compared. Index 0 is always 0.
type Bounds []int64

// Exact marks a clock that extrapolation must leave alone. Clocks that
// occur in a difference constraint are pinned this way: max-bound
// abstraction is only sound for constraints against constants.
const Exact int64 = math.MaxInt64

// NewBounds returns bounds for dim-1 clocks, none of them constrained.
func NewBounds(dim int) Bounds {
	b := make(Bounds, dim)
	for i := 1; i < dim; i++ {
		b[i] = -1
	}
	return b
}

// Raise records that clock i is compared against c.
func (b Bounds) Raise(i int, c int64) {
	if i == 0 {
		return
	}
	if c < 0 {
		c = -c
	}
	if c > b[i] {
		b[i] = c
	}
}

// Pin marks clock i as Exact.
func (b Bounds) Pin(i int) {
	if i > 0 {
		b[i] = Exact
	}
}

// Merge returns the pointwise maximum of b and o.
func (b Bounds) Merge(o Bounds) Bounds {
	r := append(Bounds(nil), b...)
	for i, c := range o {
		if i < len(r) && c > r[i] {
			r[i] = c
		}
	}
	return r
}
