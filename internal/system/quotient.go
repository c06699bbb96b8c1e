package system

import (
	"fmt"

	"github.com/roach88/tioga/internal/dbm"
)

// QuotientAction is the fresh input a quotient uses to move to its
// inconsistent location when the dividend's invariant runs out first.
const QuotientAction = "quotient.i"

// Quotient is the residual T \\ S: the most permissive system Q such that
// S || Q refines T.
//
// Locations are pairs (lT, lS) plus a universal location, entered when S
// breaks its own invariant, and an inconsistent location, entered when S
// could do something T forbids. Pair locations carry no invariant; the
// rules below turn invariant violations into moves instead.
type Quotient struct {
	t, s    System
	clock   int
	inputs  []string
	outputs []string
	tActs   []string
	sActs   []string
	bounds  dbm.Bounds
}

// NewQuotient requires the alphabet of s to be included in that of t and
// the outputs of s to be outputs of t. clock is the fresh global clock.
func NewQuotient(t, s System, clock int) (*Quotient, error) {
	tActs := union(t.Inputs(), t.Outputs())
	sActs := union(s.Inputs(), s.Outputs())
	if extra := minus(sActs, tActs); len(extra) > 0 {
		return nil, &CompositionError{
			Code:     ErrQuotientActions,
			Operator: "quotient",
			Message:  fmt.Sprintf("actions %v of %s are unknown to %s", extra, s, t),
		}
	}
	if extra := minus(s.Outputs(), t.Outputs()); len(extra) > 0 {
		return nil, &CompositionError{
			Code:     ErrQuotientActions,
			Operator: "quotient",
			Message:  fmt.Sprintf("outputs %v of %s are not outputs of %s", extra, s, t),
		}
	}
	bounds := t.MaxBounds().Merge(s.MaxBounds())
	bounds.Raise(clock, 0)
	return &Quotient{
		t:       t,
		s:       s,
		clock:   clock,
		inputs:  union(union(t.Inputs(), s.Outputs()), []string{QuotientAction}),
		outputs: minus(t.Outputs(), s.Outputs()),
		tActs:   tActs,
		sActs:   sActs,
		bounds:  bounds,
	}, nil
}

func (q *Quotient) isSystem() {}

func (q *Quotient) Dim() int              { return q.t.Dim() }
func (q *Quotient) ClockNames() []string  { return q.t.ClockNames() }
func (q *Quotient) Inputs() []string      { return q.inputs }
func (q *Quotient) Outputs() []string     { return q.outputs }
func (q *Quotient) MaxBounds() dbm.Bounds { return q.bounds }
func (q *Quotient) String() string        { return fmt.Sprintf("(%s \\\\ %s)", q.t, q.s) }

func (q *Quotient) Initial() (*Loc, bool) {
	lt, ok := q.t.Initial()
	if !ok {
		return nil, false
	}
	ls, ok := q.s.Initial()
	if !ok {
		return nil, false
	}
	return Pair(lt, ls), true
}

func (q *Quotient) Invariant(l *Loc) dbm.Zone {
	if l.Kind == LocInconsistent {
		return dbm.Universe(q.Dim()).Constrain(q.clock, 0, dbm.LE(0))
	}
	return dbm.Universe(q.Dim())
}

func (q *Quotient) Urgent(*Loc) bool { return false }

func (q *Quotient) Transitions(l *Loc, action string) []Transition {
	dim := q.Dim()
	switch l.Kind {
	case LocUniversal:
		if action == Silent {
			return nil
		}
		return []Transition{{Guard: dbm.UniverseFederation(dim), Target: l}}
	case LocInconsistent:
		if !contains(q.inputs, action) {
			return nil
		}
		zero := dbm.Universe(dim).Constrain(q.clock, 0, dbm.LE(0))
		return []Transition{{Guard: dbm.NewFederation(dim, zero), Target: l}}
	}

	lt, ls := l.Left, l.Right
	invS := dbm.NewFederation(dim, q.s.Invariant(ls))
	resetClock := []Reset{{Clock: q.clock, Value: 0}}
	var out []Transition

	if action == Silent {
		for _, t := range q.t.Transitions(lt, Silent) {
			out = appendNonEmpty(out, Allowed(q.t, t).Intersect(invS), t.Resets, Pair(t.Target, ls))
		}
		for _, s := range q.s.Transitions(ls, Silent) {
			out = appendNonEmpty(out, Allowed(q.s, s).Intersect(invS), s.Resets, Pair(lt, s.Target))
		}
		return out
	}

	inT, inS := contains(q.tActs, action), contains(q.sActs, action)
	var ts, ss []Transition
	if inT {
		ts = q.t.Transitions(lt, action)
	}
	if inS {
		ss = q.s.Transitions(ls, action)
	}

	switch {
	case inT && inS:
		// Both move.
		for _, t := range ts {
			gt := Allowed(q.t, t)
			for _, s := range ss {
				g := gt.Intersect(Allowed(q.s, s)).Intersect(invS)
				out = appendNonEmpty(out, g, concatResets(t.Resets, s.Resets), Pair(t.Target, s.Target))
			}
		}
	case inT:
		// Only T knows the action; S stays put.
		for _, t := range ts {
			out = appendNonEmpty(out, Allowed(q.t, t).Intersect(invS), t.Resets, Pair(t.Target, ls))
		}
	}

	if contains(q.s.Outputs(), action) {
		// S may output what T cannot accept.
		g := AllowedUnion(q.s, ss).Subtract(AllowedUnion(q.t, ts)).Intersect(invS)
		out = appendNonEmpty(out, g, resetClock, Inconsistent())
	}

	if action == QuotientAction {
		// T's invariant ends while S's still holds.
		g := invS.SubtractZone(q.t.Invariant(lt))
		out = appendNonEmpty(out, g, resetClock, Inconsistent())
	}

	if contains(q.inputs, action) || contains(q.outputs, action) {
		// S has left its invariant: anything goes.
		out = appendNonEmpty(out, invS.Complement(), nil, Universal())
	}
	return out
}

func appendNonEmpty(out []Transition, guard dbm.Federation, resets []Reset, target *Loc) []Transition {
	if guard.IsEmpty() {
		return out
	}
	return append(out, Transition{Guard: guard, Resets: resets, Target: target})
}
