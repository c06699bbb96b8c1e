package system

import "github.com/roach88/tioga/internal/dbm"

// Pinned is an inner system whose extrapolation leaves some clocks
// alone. Reachability uses it for predicates that compare two clocks.
type Pinned struct {
	System
	bounds dbm.Bounds
}

// Pin wraps sys so that extrapolation keeps the given clocks exact. It
// returns sys itself when there is nothing to pin.
func Pin(sys System, clocks ...int) System {
	if len(clocks) == 0 {
		return sys
	}
	b := sys.MaxBounds().Merge(nil)
	for _, c := range clocks {
		b.Pin(c)
	}
	return &Pinned{System: sys, bounds: b}
}

// MaxBounds returns the bounds with the pinned clocks marked Exact.
func (p *Pinned) MaxBounds() dbm.Bounds { return p.bounds }
