package query

import (
	"fmt"
	"strconv"
	"strings"
)

type parser struct {
	src  string
	toks []token
	i    int
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) peekAt(n int) token {
	if p.i+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i+n]
}

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tEOF {
		p.i++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return &ParseError{Pos: t.pos, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(kind tokenKind) (token, error) {
	t := p.next()
	if t.kind != kind {
		return t, p.errorf(t, "expected %s, found %s", kind, t.describe())
	}
	return t, nil
}

// Parse parses a list of queries separated by ';'. Empty entries are
// skipped.
func Parse(src string) ([]Query, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, toks: toks}
	var out []Query
	for {
		for p.peek().kind == tSemi {
			p.next()
		}
		if p.peek().kind == tEOF {
			return out, nil
		}
		q, err := p.query()
		if err != nil {
			return nil, err
		}
		out = append(out, q)
		if t := p.peek(); t.kind != tSemi && t.kind != tEOF {
			return nil, p.errorf(t, "expected ';' or end of input, found %s", t.describe())
		}
	}
}

// ParseOne parses exactly one query.
func ParseOne(src string) (Query, error) {
	qs, err := Parse(src)
	if err != nil {
		return nil, err
	}
	if len(qs) != 1 {
		return nil, &ParseError{Pos: Pos{Line: 1, Column: 1}, Message: fmt.Sprintf("expected one query, found %d", len(qs))}
	}
	return qs[0], nil
}

// ParseExpr parses an operand expression on its own.
func ParseExpr(src string) (Expr, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, toks: toks}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tEOF {
		return nil, p.errorf(t, "unexpected %s after expression", t.describe())
	}
	return e, nil
}

func (p *parser) query() (Query, error) {
	first := p.peek()
	kind, err := p.kind()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tColon); err != nil {
		return nil, err
	}

	var q Query
	switch kind {
	case KindRefinement:
		q, err = p.refinement()
	case KindConsistency, KindSpecification, KindImplementation, KindDeterminism:
		q, err = p.single(kind)
	case KindReachability:
		q, err = p.reachability()
	case KindGetComponent, KindPrune:
		q, err = p.component(kind)
	default:
		return nil, p.errorf(first, "unknown query kind %q", string(kind))
	}
	if err != nil {
		return nil, err
	}

	end := p.toks[p.i-1].end
	h := header{text: strings.TrimSpace(p.src[first.pos.Offset:end]), pos: first.pos}
	switch v := q.(type) {
	case *Refinement:
		v.header = h
	case *Consistency:
		v.header = h
	case *Specification:
		v.header = h
	case *Implementation:
		v.header = h
	case *Determinism:
		v.header = h
	case *Reachability:
		v.header = h
	case *GetComponent:
		v.header = h
	case *Prune:
		v.header = h
	}
	return q, nil
}

// kind reads a possibly hyphenated kind name such as get-component.
func (p *parser) kind() (Kind, error) {
	t, err := p.expect(tIdent)
	if err != nil {
		return "", err
	}
	name := t.text
	for p.peek().kind == tMinus && p.peekAt(1).kind == tIdent {
		p.next()
		name += "-" + p.next().text
	}
	return Kind(name), nil
}

func (p *parser) refinement() (Query, error) {
	impl, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tLE); err != nil {
		return nil, err
	}
	spec, err := p.expr()
	if err != nil {
		return nil, err
	}
	return &Refinement{Impl: impl, Spec: spec}, nil
}

func (p *parser) single(kind Kind) (Query, error) {
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindConsistency:
		return &Consistency{System: e}, nil
	case KindSpecification:
		return &Specification{System: e}, nil
	case KindImplementation:
		return &Implementation{System: e}, nil
	default:
		return &Determinism{System: e}, nil
	}
}

func (p *parser) component(kind Kind) (Query, error) {
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	var name string
	if p.peek().kind == tSaveAs {
		p.next()
		t, err := p.expect(tIdent)
		if err != nil {
			return nil, err
		}
		name = t.text
	}
	if kind == KindPrune {
		return &Prune{System: e, SaveAs: name}, nil
	}
	return &GetComponent{System: e, SaveAs: name}, nil
}

// reachability parses "expr [@ pred] -> pred" or the short form "pred",
// whose system composes the components the predicate mentions.
func (p *parser) reachability() (Query, error) {
	if p.peek().kind == tIdent && p.peekAt(1).kind == tDot {
		start := p.peek()
		target, err := p.predicate()
		if err != nil {
			return nil, err
		}
		sys := implied(target)
		if sys == nil {
			return nil, p.errorf(start, "reachability needs a system")
		}
		return &Reachability{System: sys, Target: target}, nil
	}

	sys, err := p.expr()
	if err != nil {
		return nil, err
	}
	q := &Reachability{System: sys}
	if p.peek().kind == tAt {
		p.next()
		if q.Start, err = p.predicate(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(tArrow); err != nil {
		return nil, err
	}
	if q.Target, err = p.predicate(); err != nil {
		return nil, err
	}
	return q, nil
}

// implied composes the components named in pred, in order of appearance.
func implied(pred *Predicate) Expr {
	seen := map[string]bool{}
	var refs []*Ref
	add := func(name string, pos Pos) {
		if !seen[name] {
			seen[name] = true
			refs = append(refs, &Ref{Name: name, Pos: pos})
		}
	}
	for _, t := range pred.Terms {
		switch v := t.(type) {
		case *LocTerm:
			add(v.Component, v.Pos)
		case *ClockTerm:
			add(v.Left.Component, v.Pos)
		}
	}
	if len(refs) == 0 {
		return nil
	}
	var e Expr = refs[0]
	for _, r := range refs[1:] {
		e = &Composition{Left: e, Right: r}
	}
	return e
}

// expr parses quotients, the weakest operator.
func (p *parser) expr() (Expr, error) {
	left, err := p.composition()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tQuot {
		p.next()
		right, err := p.composition()
		if err != nil {
			return nil, err
		}
		left = &Quotient{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) composition() (Expr, error) {
	left, err := p.conjunction()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tPar {
		p.next()
		right, err := p.conjunction()
		if err != nil {
			return nil, err
		}
		left = &Composition{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) conjunction() (Expr, error) {
	left, err := p.atom()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tAnd {
		p.next()
		right, err := p.atom()
		if err != nil {
			return nil, err
		}
		left = &Conjunction{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) atom() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tIdent:
		return &Ref{Name: t.text, Pos: t.pos}, nil
	case tLParen:
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tRParen); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, p.errorf(t, "expected automaton name or '(', found %s", t.describe())
	}
}

func (p *parser) predicate() (*Predicate, error) {
	pred := &Predicate{}
	for {
		t, err := p.term()
		if err != nil {
			return nil, err
		}
		pred.Terms = append(pred.Terms, t)
		if p.peek().kind != tAnd {
			return pred, nil
		}
		p.next()
	}
}

var comparisons = map[tokenKind]string{tLE: "<=", tLT: "<", tGE: ">=", tGT: ">", tEQ: "=="}

func (p *parser) dotted() (string, string, token, error) {
	first, err := p.expect(tIdent)
	if err != nil {
		return "", "", first, err
	}
	if _, err := p.expect(tDot); err != nil {
		return "", "", first, err
	}
	second, err := p.expect(tIdent)
	if err != nil {
		return "", "", first, err
	}
	return first.text, second.text, first, nil
}

func (p *parser) term() (Term, error) {
	if t := p.peek(); t.kind == tIdent && t.text == "true" && p.peekAt(1).kind != tDot {
		p.next()
		return TrueTerm{}, nil
	}
	comp, name, first, err := p.dotted()
	if err != nil {
		return nil, err
	}
	if _, isCmp := comparisons[p.peek().kind]; !isCmp && p.peek().kind != tMinus {
		return &LocTerm{Component: comp, Location: name, Pos: first.pos}, nil
	}

	ct := &ClockTerm{Left: ClockRef{Component: comp, Clock: name}, Pos: first.pos}
	if p.peek().kind == tMinus {
		p.next()
		rc, rn, _, err := p.dotted()
		if err != nil {
			return nil, err
		}
		ct.Right = &ClockRef{Component: rc, Clock: rn}
	}
	opTok := p.next()
	op, ok := comparisons[opTok.kind]
	if !ok {
		return nil, p.errorf(opTok, "expected comparison, found %s", opTok.describe())
	}
	ct.Op = op

	neg := false
	if p.peek().kind == tMinus {
		p.next()
		neg = true
	}
	num, err := p.expect(tInt)
	if err != nil {
		return nil, err
	}
	v, _ := strconv.ParseInt(num.text, 10, 64)
	if neg {
		v = -v
	}
	ct.Value = v
	return ct, nil
}
