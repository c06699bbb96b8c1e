package loader

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"cuelang.org/go/cue/ast"
	"cuelang.org/go/cue/format"
	"cuelang.org/go/cue/token"

	"github.com/roach88/tioga/internal/model"
)

var (
	identRE    = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)
	nonIdentRE = regexp.MustCompile(`[^A-Za-z0-9_]+`)
)

// keywords cannot be bare labels.
var keywords = map[string]bool{
	"true": true, "false": true, "null": true, "if": true, "for": true,
	"in": true, "let": true, "import": true, "package": true,
}

// Emit renders automata as a CUE file of package pkg in the form LoadDir
// reads. Clock names that
// are not identifiers, such as the qualified clocks of a materialized
// composition, are renamed so that the guards parse again.
func Emit(pkg string, automata ...*model.Automaton) ([]byte, error) {
	var fields []any
	for _, a := range automata {
		fields = append(fields, field(a.Name, automaton(a)))
	}
	f := &ast.File{Decls: []ast.Decl{
		&ast.Package{Name: ast.NewIdent(pkg)},
		field("automata", ast.NewStruct(fields...)),
	}}
	out, err := format.Node(f)
	if err != nil {
		return nil, fmt.Errorf("format CUE: %w", err)
	}
	return out, nil
}

func automaton(a *model.Automaton) *ast.StructLit {
	a = renameClocks(a)
	var fields []any
	if len(a.Clocks) > 0 {
		fields = append(fields, field("clocks", stringList(a.Clocks)))
	}
	if len(a.Inputs) > 0 {
		fields = append(fields, field("inputs", stringList(a.Inputs)))
	}
	if len(a.Outputs) > 0 {
		fields = append(fields, field("outputs", stringList(a.Outputs)))
	}

	var locs []any
	for _, l := range a.Locations {
		locs = append(locs, field(l.ID, location(l)))
	}
	fields = append(fields, field("locations", ast.NewStruct(locs...)))

	if len(a.Edges) > 0 {
		edges := make([]ast.Expr, len(a.Edges))
		for i, e := range a.Edges {
			edges[i] = edge(e)
		}
		fields = append(fields, field("edges", ast.NewList(edges...)))
	}
	return ast.NewStruct(fields...)
}

func location(l model.Location) *ast.StructLit {
	var fields []any
	if l.Initial {
		fields = append(fields, field("initial", ast.NewIdent("true")))
	}
	if l.Urgent {
		fields = append(fields, field("urgent", ast.NewIdent("true")))
	}
	if len(l.Invariant) > 0 {
		fields = append(fields, field("invariant", ast.NewString(constraintText(l.Invariant))))
	}
	return ast.NewStruct(fields...)
}

func edge(e model.Edge) *ast.StructLit {
	fields := []any{
		field("from", ast.NewString(e.Source)),
		field("to", ast.NewString(e.Target)),
	}
	if e.Sync != "" {
		fields = append(fields, field("sync", ast.NewString(e.Sync)))
	}
	if len(e.Guard) > 0 {
		fields = append(fields, field("guard", ast.NewString(constraintText(e.Guard))))
	}
	if len(e.Resets) > 0 {
		var resets []any
		for _, r := range e.Resets {
			resets = append(resets, field(r.Clock, ast.NewLit(token.INT, strconv.FormatInt(r.Value, 10))))
		}
		fields = append(fields, field("reset", ast.NewStruct(resets...)))
	}
	return ast.NewStruct(fields...)
}

// field quotes labels that are not plain identifiers. Composed location
// and component names usually are not.
func field(name string, value ast.Expr) *ast.Field {
	var label ast.Label = ast.NewString(name)
	if identRE.MatchString(name) && !keywords[name] {
		label = ast.NewIdent(name)
	}
	return &ast.Field{Label: label, Value: value}
}

func stringList(ss []string) *ast.ListLit {
	elems := make([]ast.Expr, len(ss))
	for i, s := range ss {
		elems[i] = ast.NewString(s)
	}
	return ast.NewList(elems...)
}

// renameClocks returns a copy of a whose clocks are all identifiers.
func renameClocks(a *model.Automaton) *model.Automaton {
	rename := map[string]string{}
	taken := map[string]bool{}
	for _, c := range a.Clocks {
		if identRE.MatchString(c) {
			taken[c] = true
		}
	}
	for _, c := range a.Clocks {
		if identRE.MatchString(c) {
			continue
		}
		base := strings.Trim(nonIdentRE.ReplaceAllString(c, "_"), "_")
		if !identRE.MatchString(base) {
			base = "c_" + base
		}
		name := base
		for i := 2; taken[name]; i++ {
			name = fmt.Sprintf("%s_%d", base, i)
		}
		taken[name] = true
		rename[c] = name
	}
	if len(rename) == 0 {
		return a
	}

	mapName := func(c string) string {
		if n, ok := rename[c]; ok {
			return n
		}
		return c
	}
	mapConstraints := func(cs []model.Constraint) []model.Constraint {
		out := make([]model.Constraint, len(cs))
		for i, c := range cs {
			c.Left, c.Right = mapName(c.Left), mapName(c.Right)
			out[i] = c
		}
		return out
	}

	b := a.Clone()
	for i, c := range b.Clocks {
		b.Clocks[i] = mapName(c)
	}
	for i := range b.Locations {
		b.Locations[i].Invariant = mapConstraints(b.Locations[i].Invariant)
	}
	for i := range b.Edges {
		b.Edges[i].Guard = mapConstraints(b.Edges[i].Guard)
		for j := range b.Edges[i].Resets {
			b.Edges[i].Resets[j].Clock = mapName(b.Edges[i].Resets[j].Clock)
		}
	}
	return b
}

// constraintText prints constraints with spaced operators. HCL identifiers
// may contain dashes, so x-y would read as one name.
func constraintText(cs []model.Constraint) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		op := "<="
		if c.Strict {
			op = "<"
		}
		switch {
		case c.Right == "":
			parts[i] = fmt.Sprintf("%s %s %d", c.Left, op, c.Bound)
		case c.Left == "":
			op = strings.Replace(op, "<", ">", 1)
			parts[i] = fmt.Sprintf("%s %s %d", c.Right, op, -c.Bound)
		default:
			parts[i] = fmt.Sprintf("%s - %s %s %d", c.Left, c.Right, op, c.Bound)
		}
	}
	return strings.Join(parts, " && ")
}
