package dbm

import (
	"fmt"
	"strings"
)

// Zone is a canonical difference bound matrix over Dim()-1 clocks.
// The zero Zone is the empty zone of dimension 0.
type Zone struct {
	dim int
	m   []Bound // row-major, nil when empty
}

// Universe returns the zone where every clock is non-negative and otherwise
// unconstrained.
func Universe(dim int) Zone {
	z := Zone{dim: dim, m: make([]Bound, dim*dim)}
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			switch {
			case i == j, i == 0:
				z.m[i*dim+j] = zero
			default:
				z.m[i*dim+j] = Infinity
			}
		}
	}
	return z
}

// Zero returns the zone where every clock equals 0.
func Zero(dim int) Zone {
	z := Zone{dim: dim, m: make([]Bound, dim*dim)}
	for i := range z.m {
		z.m[i] = zero
	}
	return z
}

// Empty returns the unsatisfiable zone of the given dimension.
func Empty(dim int) Zone {
	return Zone{dim: dim}
}

// FromMatrix builds a zone from raw bounds and closes it.
// The matrix must be dim*dim entries, row-major.
func FromMatrix(dim int, bounds []Bound) Zone {
	if len(bounds) != dim*dim {
		panic(fmt.Sprintf("dbm: matrix has %d entries, want %d", len(bounds), dim*dim))
	}
	z := Zone{dim: dim, m: append([]Bound(nil), bounds...)}
	z.close()
	return z
}

// Dim returns the matrix dimension (clock count plus the reference clock).
func (z Zone) Dim() int { return z.dim }

// IsEmpty reports whether the zone is unsatisfiable.
func (z Zone) IsEmpty() bool { return z.m == nil }

// At returns the bound on x_i - x_j. The empty zone reports LT(0) on the
// diagonal as a reminder that it has a negative cycle.
func (z Zone) At(i, j int) Bound {
	if z.m == nil {
		if i == j {
			return LT(0)
		}
		return Infinity
	}
	return z.m[i*z.dim+j]
}

func (z Zone) clone() Zone {
	if z.m == nil {
		return z
	}
	return Zone{dim: z.dim, m: append([]Bound(nil), z.m...)}
}

// close runs Floyd-Warshall and collapses the zone to the empty sentinel on
// a negative cycle.
func (z *Zone) close() {
	if z.m == nil {
		return
	}
	n := z.dim
	m := z.m
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			ik := m[i*n+k]
			if ik == Infinity {
				continue
			}
			for j := 0; j < n; j++ {
				if s := ik.Add(m[k*n+j]); s < m[i*n+j] {
					m[i*n+j] = s
				}
			}
		}
		if m[k*n+k] < zero {
			z.m = nil
			return
		}
	}
	for i := 0; i < n; i++ {
		if m[i*n+i] < zero {
			z.m = nil
			return
		}
	}
}

// Canonical returns the closed form of z. Zones built through this package
// are already closed, so this is the identity on them.
func (z Zone) Canonical() Zone {
	c := z.clone()
	c.close()
	return c
}

func (z Zone) mustMatch(o Zone) {
	if z.dim != o.dim {
		panic(fmt.Sprintf("dbm: dimension mismatch %d != %d", z.dim, o.dim))
	}
}

// Intersect returns the conjunction of two zones.
func (z Zone) Intersect(o Zone) Zone {
	z.mustMatch(o)
	if z.m == nil || o.m == nil {
		return Empty(z.dim)
	}
	r := z.clone()
	changed := false
	for i, b := range o.m {
		if b < r.m[i] {
			r.m[i] = b
			changed = true
		}
	}
	if changed {
		r.close()
	}
	return r
}

// Constrain adds x_i - x_j ≺ b and re-closes incrementally.
func (z Zone) Constrain(i, j int, b Bound) Zone {
	if z.m == nil {
		return z
	}
	n := z.dim
	if b >= z.m[i*n+j] {
		return z
	}
	if z.m[j*n+i].Add(b) < zero {
		return Empty(n)
	}
	r := z.clone()
	m := r.m
	m[i*n+j] = b
	for k := 0; k < n; k++ {
		ki := m[k*n+i]
		if ki == Infinity {
			continue
		}
		kib := ki.Add(b)
		for l := 0; l < n; l++ {
			if s := kib.Add(m[j*n+l]); s < m[k*n+l] {
				m[k*n+l] = s
			}
		}
	}
	return r
}

// Up lets time pass: upper bounds against the reference clock are dropped.
func (z Zone) Up() Zone {
	if z.m == nil {
		return z
	}
	r := z.clone()
	for i := 1; i < r.dim; i++ {
		r.m[i*r.dim] = Infinity
	}
	return r
}

// Down computes the past of z: every valuation from which some delay leads
// into z.
func (z Zone) Down() Zone {
	if z.m == nil {
		return z
	}
	r := z.clone()
	n := r.dim
	for j := 1; j < n; j++ {
		b := zero
		for i := 1; i < n; i++ {
			b = minBound(b, r.m[i*n+j])
		}
		r.m[j] = b
	}
	r.close()
	return r
}

// Reset assigns value to clock x.
func (z Zone) Reset(x int, value int64) Zone {
	if z.m == nil {
		return z
	}
	r := z.clone()
	n := r.dim
	pos, neg := LE(value), LE(-value)
	for j := 0; j < n; j++ {
		r.m[x*n+j] = pos.Add(z.m[j])
		r.m[j*n+x] = z.m[j*n].Add(neg)
	}
	r.m[x*n+x] = zero
	return r
}

// Free removes every constraint on x except x >= 0.
func (z Zone) Free(x int) Zone {
	if z.m == nil {
		return z
	}
	r := z.clone()
	n := r.dim
	for i := 0; i < n; i++ {
		if i == x {
			continue
		}
		r.m[x*n+i] = Infinity
		r.m[i*n+x] = r.m[i*n]
	}
	return r
}

// ResetPreimage returns the valuations that land in z after x := value.
func (z Zone) ResetPreimage(x int, value int64) Zone {
	return z.Constrain(x, 0, LE(value)).Constrain(0, x, LE(-value)).Free(x)
}

// Extrapolate applies max-bound abstraction. bounds[i] is the largest
// constant clock i is compared against, or -1 if it never is. Entries
// involving an Exact clock are kept.
func (z Zone) Extrapolate(bounds Bounds) Zone {
	if z.m == nil {
		return z
	}
	r := z.clone()
	n := r.dim
	changed := false
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			b := r.m[i*n+j]
			if b == Infinity {
				continue
			}
			var nb Bound
			switch {
			case i != 0 && bounds[i] == Exact, j != 0 && bounds[j] == Exact:
				continue
			case i != 0 && b > LE(bounds[i]):
				nb = Infinity
			case j != 0 && bounds[j] < 0:
				nb = Infinity
				if i == 0 {
					nb = zero
				}
			case j != 0 && b < LT(-bounds[j]):
				nb = LT(-bounds[j])
				if i == 0 {
					nb = minBound(nb, zero)
				}
			default:
				continue
			}
			if nb != b {
				r.m[i*n+j] = nb
				changed = true
			}
		}
	}
	if changed {
		r.close()
	}
	return r
}

// IsSubset reports whether every valuation of z is in o.
func (z Zone) IsSubset(o Zone) bool {
	z.mustMatch(o)
	if z.m == nil {
		return true
	}
	if o.m == nil {
		return false
	}
	for i, b := range z.m {
		if b > o.m[i] {
			return false
		}
	}
	return true
}

// Equal reports whether both zones denote the same set.
func (z Zone) Equal(o Zone) bool {
	if z.dim != o.dim {
		return false
	}
	if z.m == nil || o.m == nil {
		return z.m == nil && o.m == nil
	}
	for i, b := range z.m {
		if b != o.m[i] {
			return false
		}
	}
	return true
}

// CanDelayIndefinitely reports whether no clock has an upper bound.
func (z Zone) CanDelayIndefinitely() bool {
	if z.m == nil {
		return false
	}
	for i := 1; i < z.dim; i++ {
		if z.m[i*z.dim] != Infinity {
			return false
		}
	}
	return true
}

// Contains reports whether the valuation lies in z. v[0] is ignored and
// taken to be 0.
func (z Zone) Contains(v []float64) bool {
	if z.m == nil {
		return false
	}
	val := func(i int) float64 {
		if i == 0 {
			return 0
		}
		return v[i]
	}
	n := z.dim
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			b := z.m[i*n+j]
			if i == j || b == Infinity {
				continue
			}
			d := val(i) - val(j)
			c := float64(b.Value())
			if d > c || (b.Strict() && d == c) {
				return false
			}
		}
	}
	return true
}

// Key returns a string usable as a map key for exact zone identity.
func (z Zone) Key() string {
	if z.m == nil {
		return "false"
	}
	var sb strings.Builder
	for _, b := range z.m {
		fmt.Fprintf(&sb, "%x,", int64(b))
	}
	return sb.String()
}

// String renders z with generic clock names.
func (z Zone) String() string {
	names := make([]string, z.dim)
	for i := range names {
		names[i] = fmt.Sprintf("x%d", i)
	}
	return z.Format(names)
}

// Format renders z as a conjunction using names[i] for clock i. Difference
// constraints implied by the single-clock bounds are omitted.
func (z Zone) Format(names []string) string {
	if z.m == nil {
		return "false"
	}
	n := z.dim
	var parts []string
	for i := 1; i < n; i++ {
		upper := z.m[i*n]
		if !upper.IsInfinite() && z.m[i] == LE(-upper.Value()) && !upper.Strict() {
			parts = append(parts, fmt.Sprintf("%s==%d", names[i], upper.Value()))
			continue
		}
		if z.m[i] != zero {
			op := ">="
			if z.m[i].Strict() {
				op = ">"
			}
			parts = append(parts, fmt.Sprintf("%s%s%d", names[i], op, -z.m[i].Value()))
		}
		if !upper.IsInfinite() {
			parts = append(parts, fmt.Sprintf("%s%s%d", names[i], opOf(upper), upper.Value()))
		}
	}
	for i := 1; i < n; i++ {
		for j := 1; j < n; j++ {
			if i == j {
				continue
			}
			b := z.m[i*n+j]
			if b == Infinity || b >= z.m[i*n].Add(z.m[j]) {
				continue
			}
			parts = append(parts, fmt.Sprintf("%s-%s%s%d", names[i], names[j], opOf(b), b.Value()))
		}
	}
	if len(parts) == 0 {
		return "true"
	}
	return strings.Join(parts, " && ")
}

func opOf(b Bound) string {
	if b.Strict() {
		return "<"
	}
	return "<="
}
