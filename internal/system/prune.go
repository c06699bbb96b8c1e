package system

import (
	"fmt"
	"sort"

	"github.com/roach88/tioga/internal/dbm"
)

// Losing is the set of inconsistent valuations of one location.
type Losing struct {
	Loc *Loc
	Bad dbm.Federation
}

// Pruned hides the inconsistent valuations of an inner system. A location
// that loses all of its valuations disappears together with the moves into
// it. Elsewhere moves are restricted to the remaining valuations on both
// ends and the invariant shrinks to the hull of what remains.
type Pruned struct {
	inner   System
	keep    map[string]dbm.Federation
	removed map[string]bool
	// implicit is set when Build pruned a conjunction or quotient on its
	// own rather than for an explicit prune operator.
	implicit bool
}

// NewPruned wraps inner, hiding the losing valuations.
func NewPruned(inner System, losing []Losing) *Pruned {
	p := &Pruned{inner: inner, keep: map[string]dbm.Federation{}, removed: map[string]bool{}}
	for _, l := range losing {
		if l.Bad.IsEmpty() {
			continue
		}
		key := l.Loc.Key()
		keep := dbm.NewFederation(inner.Dim(), inner.Invariant(l.Loc)).Subtract(l.Bad)
		if keep.IsEmpty() {
			p.removed[key] = true
			continue
		}
		p.keep[key] = keep
	}
	return p
}

func (p *Pruned) isSystem() {}

// Removed returns the hidden location keys in sorted order.
func (p *Pruned) Removed() []string {
	out := make([]string, 0, len(p.removed))
	for k := range p.removed {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Remaining returns the valuations of l that survive pruning.
func (p *Pruned) Remaining(l *Loc) dbm.Federation {
	key := l.Key()
	if p.removed[key] {
		return dbm.EmptyFederation(p.Dim())
	}
	if keep, ok := p.keep[key]; ok {
		return keep
	}
	return dbm.NewFederation(p.Dim(), p.inner.Invariant(l))
}

// Inner returns the wrapped system.
func (p *Pruned) Inner() System { return p.inner }

// Implicit reports whether the pruning was applied by Build rather than
// requested.
func (p *Pruned) Implicit() bool { return p.implicit }

func (p *Pruned) Dim() int              { return p.inner.Dim() }
func (p *Pruned) ClockNames() []string  { return p.inner.ClockNames() }
func (p *Pruned) Inputs() []string      { return p.inner.Inputs() }
func (p *Pruned) Outputs() []string     { return p.inner.Outputs() }
func (p *Pruned) MaxBounds() dbm.Bounds { return p.inner.MaxBounds() }
func (p *Pruned) Urgent(l *Loc) bool    { return p.inner.Urgent(l) }

func (p *Pruned) String() string {
	if p.implicit {
		return p.inner.String()
	}
	return fmt.Sprintf("prune(%s)", p.inner)
}

// Invariant is exact when the remaining valuations are convex and the
// smallest zone around them otherwise.
func (p *Pruned) Invariant(l *Loc) dbm.Zone {
	return p.Remaining(l).Hull()
}

func (p *Pruned) Initial() (*Loc, bool) {
	l, ok := p.inner.Initial()
	if !ok || p.Remaining(l).IntersectZone(dbm.Zero(p.Dim())).IsEmpty() {
		return nil, false
	}
	return l, true
}

func (p *Pruned) Transitions(l *Loc, action string) []Transition {
	ts := p.inner.Transitions(l, action)
	out := make([]Transition, 0, len(ts))
	for _, t := range ts {
		target := t.Target.Key()
		if p.removed[target] {
			continue
		}
		if keep, ok := p.keep[l.Key()]; ok {
			t.Guard = t.Guard.Intersect(keep)
		}
		if keep, ok := p.keep[target]; ok {
			t.Guard = t.Guard.Intersect(Preimage(keep, t.Resets))
		}
		if !t.Guard.IsEmpty() {
			out = append(out, t)
		}
	}
	return out
}
