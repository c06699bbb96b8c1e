package system

import (
	"fmt"

	"github.com/roach88/tioga/internal/dbm"
)

// Composition runs two systems side by side. Shared actions synchronize;
// an output of one side meeting an input of the other stays an output.
type Composition struct {
	left, right     System
	leftActs        []string
	rightActs       []string
	inputs, outputs []string
	bounds          dbm.Bounds
}

// NewComposition requires the operands' outputs to be disjoint.
func NewComposition(left, right System) (*Composition, error) {
	if shared := intersect(left.Outputs(), right.Outputs()); len(shared) > 0 {
		return nil, &CompositionError{
			Code:     ErrCompositionOutputs,
			Operator: "composition",
			Message:  fmt.Sprintf("%s and %s both output %v", left, right, shared),
		}
	}
	outputs := union(left.Outputs(), right.Outputs())
	return &Composition{
		left:      left,
		right:     right,
		leftActs:  union(left.Inputs(), left.Outputs()),
		rightActs: union(right.Inputs(), right.Outputs()),
		inputs:    minus(union(left.Inputs(), right.Inputs()), outputs),
		outputs:   outputs,
		bounds:    left.MaxBounds().Merge(right.MaxBounds()),
	}, nil
}

func (c *Composition) isSystem() {}

func (c *Composition) Dim() int              { return c.left.Dim() }
func (c *Composition) ClockNames() []string  { return c.left.ClockNames() }
func (c *Composition) Inputs() []string      { return c.inputs }
func (c *Composition) Outputs() []string     { return c.outputs }
func (c *Composition) MaxBounds() dbm.Bounds { return c.bounds }
func (c *Composition) String() string        { return fmt.Sprintf("(%s || %s)", c.left, c.right) }

func (c *Composition) Initial() (*Loc, bool) {
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

func (c *Composition) Invariant(l *Loc) dbm.Zone {
	return c.left.Invariant(l.Left).Intersect(c.right.Invariant(l.Right))
}

func (c *Composition) Urgent(l *Loc) bool {
	return c.left.Urgent(l.Left) || c.right.Urgent(l.Right)
}

func (c *Composition) Transitions(l *Loc, action string) []Transition {
	inLeft := action != Silent && contains(c.leftActs, action)
	inRight := action != Silent && contains(c.rightActs, action)
	switch {
	case inLeft && inRight:
		return product(c.left.Transitions(l.Left, action), c.right.Transitions(l.Right, action))
	case inLeft:
		return lift(c.left.Transitions(l.Left, action), l.Right, true)
	case inRight:
		return lift(c.right.Transitions(l.Right, action), l.Left, false)
	case action == Silent:
		out := lift(c.left.Transitions(l.Left, Silent), l.Right, true)
		return append(out, lift(c.right.Transitions(l.Right, Silent), l.Left, false)...)
	default:
		return nil
	}
}
