package dbm

import "strings"

// Federation is a finite union of non-empty zones of one dimension.
type Federation struct {
	dim   int
	zones []Zone
}

// NewFederation collects the non-empty zones given.
func NewFederation(dim int, zones ...Zone) Federation {
	f := Federation{dim: dim}
	for _, z := range zones {
		if z.dim != dim {
			panic("dbm: federation dimension mismatch")
		}
		if !z.IsEmpty() {
			f.zones = append(f.zones, z)
		}
	}
	return f
}

// EmptyFederation returns the empty union.
func EmptyFederation(dim int) Federation { return Federation{dim: dim} }

// UniverseFederation returns the federation holding the universe zone.
func UniverseFederation(dim int) Federation { return NewFederation(dim, Universe(dim)) }

// Dim returns the dimension shared by all members.
func (f Federation) Dim() int { return f.dim }

// Zones returns the members. Callers must not modify the slice.
func (f Federation) Zones() []Zone { return f.zones }

// IsEmpty reports whether the union is unsatisfiable.
func (f Federation) IsEmpty() bool { return len(f.zones) == 0 }

// Union returns f ∪ o.
func (f Federation) Union(o Federation) Federation {
	r := Federation{dim: f.dim, zones: make([]Zone, 0, len(f.zones)+len(o.zones))}
	r.zones = append(r.zones, f.zones...)
	r.zones = append(r.zones, o.zones...)
	return r.Reduce()
}

// AddZone returns f ∪ {z}.
func (f Federation) AddZone(z Zone) Federation {
	return f.Union(NewFederation(f.dim, z))
}

// IntersectZone intersects every member with z.
func (f Federation) IntersectZone(z Zone) Federation {
	r := Federation{dim: f.dim}
	for _, a := range f.zones {
		if c := a.Intersect(z); !c.IsEmpty() {
			r.zones = append(r.zones, c)
		}
	}
	return r
}

// Intersect returns f ∩ o.
func (f Federation) Intersect(o Federation) Federation {
	r := Federation{dim: f.dim}
	for _, b := range o.zones {
		r.zones = append(r.zones, f.IntersectZone(b).zones...)
	}
	return r.Reduce()
}

// Subtract returns f \ o.
func (f Federation) Subtract(o Federation) Federation {
	r := f
	for _, z := range o.zones {
		if r.IsEmpty() {
			break
		}
		r = r.subtractZone(z)
	}
	return r
}

// SubtractZone returns f \ z.
func (f Federation) SubtractZone(z Zone) Federation {
	return f.subtractZone(z)
}

func (f Federation) subtractZone(z Zone) Federation {
	if z.IsEmpty() {
		return f
	}
	r := Federation{dim: f.dim}
	for _, a := range f.zones {
		r.zones = append(r.zones, zoneMinus(a, z)...)
	}
	return r
}

// zoneMinus splits a \ z into disjoint convex pieces by walking the
// constraints of z that cut a.
func zoneMinus(a, z Zone) []Zone {
	if a.Intersect(z).IsEmpty() {
		return []Zone{a}
	}
	n := a.dim
	var out []Zone
	rest := a
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			b := z.m[i*n+j]
			if b == Infinity || b >= rest.At(i, j) {
				continue
			}
			if piece := rest.Constrain(j, i, b.Negate()); !piece.IsEmpty() {
				out = append(out, piece)
			}
			rest = rest.Constrain(i, j, b)
			if rest.IsEmpty() {
				return out
			}
		}
	}
	return out
}

// IsSubset reports whether f ⊆ o.
func (f Federation) IsSubset(o Federation) bool {
	return f.Subtract(o).IsEmpty()
}

// Equal reports set equality.
func (f Federation) Equal(o Federation) bool {
	return f.IsSubset(o) && o.IsSubset(f)
}

// Up delays every member.
func (f Federation) Up() Federation {
	return f.mapZones(Zone.Up)
}

// Down takes the past of every member.
func (f Federation) Down() Federation {
	return f.mapZones(Zone.Down)
}

// Reset applies x := value to every member.
func (f Federation) Reset(x int, value int64) Federation {
	return f.mapZones(func(z Zone) Zone { return z.Reset(x, value) })
}

// Free frees x in every member.
func (f Federation) Free(x int) Federation {
	return f.mapZones(func(z Zone) Zone { return z.Free(x) })
}

// ResetPreimage returns the valuations that land in f after x := value.
func (f Federation) ResetPreimage(x int, value int64) Federation {
	return f.mapZones(func(z Zone) Zone { return z.ResetPreimage(x, value) })
}

// Constrain adds one difference constraint to every member.
func (f Federation) Constrain(i, j int, b Bound) Federation {
	return f.mapZones(func(z Zone) Zone { return z.Constrain(i, j, b) })
}

// Extrapolate applies max-bound abstraction to every member.
func (f Federation) Extrapolate(bounds Bounds) Federation {
	return f.mapZones(func(z Zone) Zone { return z.Extrapolate(bounds) })
}

func (f Federation) mapZones(fn func(Zone) Zone) Federation {
	r := Federation{dim: f.dim, zones: make([]Zone, 0, len(f.zones))}
	for _, z := range f.zones {
		if c := fn(z); !c.IsEmpty() {
			r.zones = append(r.zones, c)
		}
	}
	return r.Reduce()
}

// Reduce drops members included in another member.
func (f Federation) Reduce() Federation {
	if len(f.zones) < 2 {
		return f
	}
	keep := make([]Zone, 0, len(f.zones))
outer:
	for i, z := range f.zones {
		for j, o := range f.zones {
			if i == j {
				continue
			}
			// On equal members keep the first.
			if z.IsSubset(o) && (!o.IsSubset(z) || j < i) {
				continue outer
			}
		}
		keep = append(keep, z)
	}
	return Federation{dim: f.dim, zones: keep}
}

// Complement returns the universe minus f.
func (f Federation) Complement() Federation {
	return UniverseFederation(f.dim).Subtract(f)
}

// Format renders the union with names[i] for clock i.
func (f Federation) Format(names []string) string {
	if f.IsEmpty() {
		return "false"
	}
	parts := make([]string, len(f.zones))
	for i, z := range f.zones {
		parts[i] = z.Format(names)
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, ") || (") + ")"
}

// PastAvoiding returns the valuations that can delay into f without
// passing through avoid on the way. With an empty avoid set it is Down.
func (f Federation) PastAvoiding(avoid Federation) Federation {
	out := EmptyFederation(f.dim)
	for _, g := range f.zones {
		gf := NewFederation(f.dim, g)
		acc := gf.Down()
		for _, b := range avoid.zones {
			bf := NewFederation(f.dim, b)
			bDown := bf.Down()
			// Reach g outside the past of b, or at a point of g that is
			// still ahead of b.
			early := gf.Down().Subtract(bDown)
			late := gf.Intersect(bDown).Subtract(bf).Down()
			acc = acc.Intersect(early.Union(late))
			if acc.IsEmpty() {
				break
			}
		}
		out = out.Union(acc)
	}
	return out
}

// Hull returns the smallest zone containing every zone of f.
func (f Federation) Hull() Zone {
	if f.IsEmpty() {
		return Empty(f.dim)
	}
	h := f.zones[0].clone()
	for _, z := range f.zones[1:] {
		for k, b := range z.m {
			if b > h.m[k] {
				h.m[k] = b
			}
		}
	}
	return h
}
