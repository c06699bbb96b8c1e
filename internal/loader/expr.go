package loader

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/roach88/tioga/internal/model"
)

// ParseConstraints parses a guard or invariant such as "x >= 2 && x - y < 5"
// into clock constraints. The empty string and "true" mean no constraint.
// Positions in errors are relative to base, the position of the first
// character of src.
func ParseConstraints(src string, base Pos) ([]model.Constraint, error) {
	if strings.TrimSpace(src) == "" {
		return nil, nil
	}
	expr, diags := hclsyntax.ParseExpression([]byte(src), base.Filename, hcl.InitialPos)
	if diags.HasErrors() {
		d := diags[0]
		pos := base
		if d.Subject != nil {
			pos = shift(base, d.Subject.Start)
		}
		return nil, &LoadError{Code: ErrExpression, Message: fmt.Sprintf("%s: %s", d.Summary, d.Detail), Pos: pos}
	}
	p := &exprParser{base: base}
	var out []model.Constraint
	if err := p.conjunction(expr, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// shift maps a position inside a single-line expression onto the file.
func shift(base Pos, p hcl.Pos) Pos {
	if p.Line > 1 {
		return Pos{Filename: base.Filename, Line: base.Line + p.Line - 1, Column: p.Column}
	}
	return Pos{Filename: base.Filename, Line: base.Line, Column: base.Column + p.Column - 1}
}

type exprParser struct {
	base Pos
}

func (p *exprParser) errorf(e hclsyntax.Expression, format string, args ...any) error {
	return &LoadError{
		Code:    ErrExpression,
		Message: fmt.Sprintf(format, args...),
		Pos:     shift(p.base, e.Range().Start),
	}
}

func (p *exprParser) conjunction(e hclsyntax.Expression, out *[]model.Constraint) error {
	switch v := e.(type) {
	case *hclsyntax.ParenthesesExpr:
		return p.conjunction(v.Expression, out)
	case *hclsyntax.LiteralValueExpr:
		if v.Val.Type() == cty.Bool && v.Val.True() {
			return nil
		}
	case *hclsyntax.BinaryOpExpr:
		if v.Op == hclsyntax.OpLogicalAnd {
			if err := p.conjunction(v.LHS, out); err != nil {
				return err
			}
			return p.conjunction(v.RHS, out)
		}
		if op, ok := comparisons[v.Op]; ok {
			cs, err := p.comparison(v, op)
			if err != nil {
				return err
			}
			*out = append(*out, cs...)
			return nil
		}
	}
	return p.errorf(e, "expected a conjunction of clock comparisons")
}

var comparisons = map[*hclsyntax.Operation]string{
	hclsyntax.OpLessThan:           "<",
	hclsyntax.OpLessThanOrEqual:    "<=",
	hclsyntax.OpEqual:              "==",
	hclsyntax.OpGreaterThanOrEqual: ">=",
	hclsyntax.OpGreaterThan:        ">",
}

// flipped is the operator with its operands swapped: 3 < x is x > 3.
var flipped = map[string]string{"<": ">", "<=": ">=", "==": "==", ">=": "<=", ">": "<"}

// comparison converts one side a clock term, other side an integer.
func (p *exprParser) comparison(e *hclsyntax.BinaryOpExpr, op string) ([]model.Constraint, error) {
	lhs, rhs := e.LHS, e.RHS
	if _, err := p.integer(lhs); err == nil {
		lhs, rhs = rhs, lhs
		op = flipped[op]
	}
	left, right, err := p.clockTerm(lhs)
	if err != nil {
		return nil, err
	}
	n, err := p.integer(rhs)
	if err != nil {
		return nil, err
	}

	le := model.Constraint{Left: left, Right: right, Bound: n}
	ge := model.Constraint{Left: right, Right: left, Bound: -n}
	switch op {
	case "<":
		le.Strict = true
		return []model.Constraint{le}, nil
	case "<=":
		return []model.Constraint{le}, nil
	case ">":
		ge.Strict = true
		return []model.Constraint{ge}, nil
	case ">=":
		return []model.Constraint{ge}, nil
	default:
		return []model.Constraint{ge, le}, nil
	}
}

// clockTerm accepts x or x - y.
func (p *exprParser) clockTerm(e hclsyntax.Expression) (string, string, error) {
	switch v := e.(type) {
	case *hclsyntax.ParenthesesExpr:
		return p.clockTerm(v.Expression)
	case *hclsyntax.ScopeTraversalExpr:
		name, err := p.clock(v)
		return name, "", err
	case *hclsyntax.BinaryOpExpr:
		if v.Op != hclsyntax.OpSubtract {
			break
		}
		l, err := p.clock(v.LHS)
		if err != nil {
			return "", "", err
		}
		r, err := p.clock(v.RHS)
		if err != nil {
			return "", "", err
		}
		return l, r, nil
	}
	return "", "", p.errorf(e, "expected a clock or a clock difference")
}

func (p *exprParser) clock(e hclsyntax.Expression) (string, error) {
	v, ok := e.(*hclsyntax.ScopeTraversalExpr)
	if !ok || len(v.Traversal) != 1 {
		return "", p.errorf(e, "expected a clock name")
	}
	return model.NormalizeName(v.Traversal.RootName()), nil
}

// integer evaluates an integer literal, possibly negated.
func (p *exprParser) integer(e hclsyntax.Expression) (int64, error) {
	var val cty.Value
	switch v := e.(type) {
	case *hclsyntax.LiteralValueExpr:
		val = v.Val
	case *hclsyntax.UnaryOpExpr:
		if v.Op != hclsyntax.OpNegate {
			return 0, p.errorf(e, "expected an integer")
		}
		n, err := p.integer(v.Val)
		return -n, err
	case *hclsyntax.ParenthesesExpr:
		return p.integer(v.Expression)
	default:
		return 0, p.errorf(e, "expected an integer")
	}
	if val.Type() != cty.Number || val.IsNull() {
		return 0, p.errorf(e, "expected an integer")
	}
	var n int64
	if err := gocty.FromCtyValue(val, &n); err != nil {
		return 0, p.errorf(e, "expected an integer: %v", err)
	}
	return n, nil
}
