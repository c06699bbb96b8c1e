package explore

import "github.com/roach88/tioga/internal/dbm"

type passedEntry struct {
	zone dbm.Zone
	node int
}

// Passed records the zones already stored per location key.
type Passed struct {
	entries map[string][]passedEntry
	size    int
}

// NewPassed returns an empty passed list.
func NewPassed() *Passed {
	return &Passed{entries: make(map[string][]passedEntry)}
}

// Covering returns the node of a stored zone at key that includes z.
func (p *Passed) Covering(key string, z dbm.Zone) (int, bool) {
	for _, e := range p.entries[key] {
		if z.IsSubset(e.zone) {
			return e.node, true
		}
	}
	return 0, false
}

// Add stores z for node at key. Stored zones that z includes no longer
// take part in subsumption; their nodes stay in the arena.
func (p *Passed) Add(key string, z dbm.Zone, node int) {
	kept := p.entries[key][:0]
	for _, e := range p.entries[key] {
		if !e.zone.IsSubset(z) {
			kept = append(kept, e)
		}
	}
	p.size += len(kept) + 1 - len(p.entries[key])
	p.entries[key] = append(kept, passedEntry{zone: z, node: node})
}

// Len returns the number of zones currently stored.
func (p *Passed) Len() int { return p.size }
