package query

import (
	"fmt"
	"strings"
)

// Pos is a position in the query text. Line and Column are 1-based.
type Pos struct {
	Offset int `json:"offset"`
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (p Pos) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Column) }

// Kind names a query kind as written in the text.
type Kind string

const (
	KindRefinement     Kind = "refinement"
	KindConsistency    Kind = "consistency"
	KindDeterminism    Kind = "determinism"
	KindReachability   Kind = "reachability"
	KindImplementation Kind = "implementation"
	KindSpecification  Kind = "specification"
	KindGetComponent   Kind = "get-component"
	KindPrune          Kind = "prune"
)

// Kinds lists every query kind.
var Kinds = []Kind{
	KindRefinement, KindConsistency, KindDeterminism, KindReachability,
	KindImplementation, KindSpecification, KindGetComponent, KindPrune,
}

// Expr is an operand expression over automaton names.
type Expr interface {
	fmt.Stringer
	exprNode()
}

// Ref names one automaton.
type Ref struct {
	Name string
	Pos  Pos
}

// Conjunction is Left && Right.
type Conjunction struct{ Left, Right Expr }

// Composition is Left || Right.
type Composition struct{ Left, Right Expr }

// Quotient is Left \\ Right.
type Quotient struct{ Left, Right Expr }

func (*Ref) exprNode()         {}
func (*Conjunction) exprNode() {}
func (*Composition) exprNode() {}
func (*Quotient) exprNode()    {}

func (r *Ref) String() string         { return r.Name }
func (c *Conjunction) String() string { return fmt.Sprintf("(%s && %s)", c.Left, c.Right) }
func (c *Composition) String() string { return fmt.Sprintf("(%s || %s)", c.Left, c.Right) }
func (q *Quotient) String() string    { return fmt.Sprintf("(%s \\\\ %s)", q.Left, q.Right) }

// Term is one conjunct of a state predicate.
type Term interface {
	fmt.Stringer
	termNode()
}

// LocTerm requires Component to be in Location.
type LocTerm struct {
	Component string
	Location  string
	Pos       Pos
}

// ClockRef names a clock of a component.
type ClockRef struct {
	Component string
	Clock     string
}

func (c ClockRef) String() string { return c.Component + "." + c.Clock }

// ClockTerm is Left op Value, or Left - Right op Value when Right is set.
type ClockTerm struct {
	Left  ClockRef
	Right *ClockRef
	Op    string
	Value int64
	Pos   Pos
}

// TrueTerm is the predicate that always holds.
type TrueTerm struct{}

func (*LocTerm) termNode()   {}
func (*ClockTerm) termNode() {}
func (TrueTerm) termNode()   {}

func (t *LocTerm) String() string { return t.Component + "." + t.Location }
func (TrueTerm) String() string   { return "true" }

func (t *ClockTerm) String() string {
	lhs := t.Left.String()
	if t.Right != nil {
		lhs += "-" + t.Right.String()
	}
	return fmt.Sprintf("%s%s%d", lhs, t.Op, t.Value)
}

// Predicate is a conjunction of terms.
type Predicate struct {
	Terms []Term
}

func (p *Predicate) String() string {
	parts := make([]string, len(p.Terms))
	for i, t := range p.Terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, " && ")
}

// Query is one parsed query.
type Query interface {
	Kind() Kind
	// Text returns the query as written, trimmed.
	Text() string
	// String renders the query in normal form.
	String() string
	queryNode()
}

// header is shared by every query type.
type header struct {
	text string
	pos  Pos
}

func (h header) Text() string { return h.text }

// Position returns where the query starts.
func (h header) Position() Pos { return h.pos }

// Refinement asks whether Impl refines Spec.
type Refinement struct {
	header
	Impl, Spec Expr
}

// Consistency asks whether System can always avoid inconsistency.
type Consistency struct {
	header
	System Expr
}

// Specification asks the same as Consistency.
type Specification struct {
	header
	System Expr
}

// Implementation asks for consistency and independent progress.
type Implementation struct {
	header
	System Expr
}

// Determinism asks whether no label is ever enabled twice at once.
type Determinism struct {
	header
	System Expr
}

// Reachability asks whether a state satisfying Target can be reached from
// the initial state, or from the states satisfying Start.
type Reachability struct {
	header
	System Expr
	Start  *Predicate
	Target *Predicate
}

// GetComponent materializes System, optionally under a new name.
type GetComponent struct {
	header
	System Expr
	SaveAs string
}

// Prune materializes the pruned System, optionally under a new name.
type Prune struct {
	header
	System Expr
	SaveAs string
}

func (*Refinement) queryNode()     {}
func (*Consistency) queryNode()    {}
func (*Specification) queryNode()  {}
func (*Implementation) queryNode() {}
func (*Determinism) queryNode()    {}
func (*Reachability) queryNode()   {}
func (*GetComponent) queryNode()   {}
func (*Prune) queryNode()          {}

func (*Refinement) Kind() Kind     { return KindRefinement }
func (*Consistency) Kind() Kind    { return KindConsistency }
func (*Specification) Kind() Kind  { return KindSpecification }
func (*Implementation) Kind() Kind { return KindImplementation }
func (*Determinism) Kind() Kind    { return KindDeterminism }
func (*Reachability) Kind() Kind   { return KindReachability }
func (*GetComponent) Kind() Kind   { return KindGetComponent }
func (*Prune) Kind() Kind          { return KindPrune }

func (q *Refinement) String() string     { return fmt.Sprintf("refinement: %s <= %s", q.Impl, q.Spec) }
func (q *Consistency) String() string    { return fmt.Sprintf("consistency: %s", q.System) }
func (q *Specification) String() string  { return fmt.Sprintf("specification: %s", q.System) }
func (q *Implementation) String() string { return fmt.Sprintf("implementation: %s", q.System) }
func (q *Determinism) String() string    { return fmt.Sprintf("determinism: %s", q.System) }

func (q *Reachability) String() string {
	s := "reachability: " + q.System.String()
	if q.Start != nil {
		s += " @ " + q.Start.String()
	}
	return s + " -> " + q.Target.String()
}

func (q *GetComponent) String() string { return withSaveAs("get-component: "+q.System.String(), q.SaveAs) }
func (q *Prune) String() string        { return withSaveAs("prune: "+q.System.String(), q.SaveAs) }

func withSaveAs(s, name string) string {
	if name == "" {
		return s
	}
	return s + " save-as " + name
}

// Operands returns the operand expressions of q.
func Operands(q Query) []Expr {
	switch v := q.(type) {
	case *Refinement:
		return []Expr{v.Impl, v.Spec}
	case *Consistency:
		return []Expr{v.System}
	case *Specification:
		return []Expr{v.System}
	case *Implementation:
		return []Expr{v.System}
	case *Determinism:
		return []Expr{v.System}
	case *Reachability:
		return []Expr{v.System}
	case *GetComponent:
		return []Expr{v.System}
	case *Prune:
		return []Expr{v.System}
	default:
		return nil
	}
}

// Names returns the automaton names referenced by q, in order of first
// appearance.
func Names(q Query) []string {
	seen := map[string]bool{}
	var out []string
	var stack []Expr
	ops := Operands(q)
	for i := len(ops) - 1; i >= 0; i-- {
		stack = append(stack, ops[i])
	}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch v := e.(type) {
		case *Ref:
			if !seen[v.Name] {
				seen[v.Name] = true
				out = append(out, v.Name)
			}
		case *Conjunction:
			stack = append(stack, v.Right, v.Left)
		case *Composition:
			stack = append(stack, v.Right, v.Left)
		case *Quotient:
			stack = append(stack, v.Right, v.Left)
		}
	}
	return out
}
