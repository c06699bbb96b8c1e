package system

import (
	"fmt"

	"github.com/roach88/tioga/internal/dbm"
)

// Conjunction is the behavior both operands allow. Every labeled move is
// taken jointly; silent moves interleave.
type Conjunction struct {
	left, right System
	bounds      dbm.Bounds
}

// NewConjunction requires both operands to have the same inputs and the
// same outputs.
func NewConjunction(left, right System) (*Conjunction, error) {
	if !equalSets(left.Inputs(), right.Inputs()) || !equalSets(left.Outputs(), right.Outputs()) {
		return nil, &CompositionError{
			Code:     ErrConjunctionActions,
			Operator: "conjunction",
			Message: fmt.Sprintf("%s and %s have different alphabets (inputs %v/%v, outputs %v/%v)",
				left, right, left.Inputs(), right.Inputs(), left.Outputs(), right.Outputs()),
		}
	}
	return &Conjunction{left: left, right: right, bounds: left.MaxBounds().Merge(right.MaxBounds())}, nil
}

func (c *Conjunction) isSystem() {}

func (c *Conjunction) Dim() int              { return c.left.Dim() }
func (c *Conjunction) ClockNames() []string  { return c.left.ClockNames() }
func (c *Conjunction) Inputs() []string      { return c.left.Inputs() }
func (c *Conjunction) Outputs() []string     { return c.left.Outputs() }
func (c *Conjunction) MaxBounds() dbm.Bounds { return c.bounds }
func (c *Conjunction) String() string        { return fmt.Sprintf("(%s && %s)", c.left, c.right) }

func (c *Conjunction) Initial() (*Loc, bool) {
	l, ok := c.left.Initial()
	if !ok {
		return nil, false
	}
	r, ok := c.right.Initial()
	if !ok {
		return nil, false
	}
	return Pair(l, r), true
}

func (c *Conjunction) Invariant(l *Loc) dbm.Zone {
	return c.left.Invariant(l.Left).Intersect(c.right.Invariant(l.Right))
}

func (c *Conjunction) Urgent(l *Loc) bool {
	return c.left.Urgent(l.Left) || c.right.Urgent(l.Right)
}

func (c *Conjunction) Transitions(l *Loc, action string) []Transition {
	if action == Silent {
		out := lift(c.left.Transitions(l.Left, Silent), l.Right, true)
		return append(out, lift(c.right.Transitions(l.Right, Silent), l.Left, false)...)
	}
	return product(c.left.Transitions(l.Left, action), c.right.Transitions(l.Right, action))
}
