package loader

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/tioga/internal/model"
)

// Result is a loaded model with the metadata the CLI reports.
type Result struct {
	Model     *model.Model
	Files     []string
	Automata  int
	Locations int
	Edges     int
}

// LoadDir loads the CUE package in dir.
//
// Every decoding problem is collected into LoadErrors before anything is
// validated. Structural errors come from model.New.
func LoadDir(dir string) (*Result, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrNotFound, Message: fmt.Sprintf("model directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}
	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrNotFound, Message: fmt.Sprintf("scanning %s: %v", dir, err)}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCUE, Message: "no CUE instances loaded"}
	}
	if err := instances[0].Err; err != nil {
		return nil, fromCUE(err)
	}
	value := cuecontext.New().BuildInstance(instances[0])
	res, err := decode(value)
	if err != nil {
		return nil, err
	}
	res.Files = files
	return res, nil
}

// LoadSource loads a model from CUE source text. filename is used in
// positions only.
func LoadSource(filename, src string) (*Result, error) {
	value := cuecontext.New().CompileString(src, cue.Filename(filename))
	return decode(value)
}

// FindCUEFiles returns the .cue files directly in dir, sorted.
func FindCUEFiles(dir string) ([]string, error) {
	return filepath.Glob(filepath.Join(dir, "*.cue"))
}

func decode(value cue.Value) (*Result, error) {
	if err := value.Err(); err != nil {
		return nil, fromCUE(err)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, fromCUE(err)
	}
	automataVal := value.LookupPath(cue.ParsePath("automata"))
	if !automataVal.Exists() {
		return nil, &LoadError{Code: ErrNoAutomata, Message: "no automata declared", Pos: posOf(value.Pos())}
	}
	iter, err := automataVal.Fields()
	if err != nil {
		return nil, &LoadError{Code: ErrField, Message: "automata must be a struct", Pos: posOf(automataVal.Pos())}
	}

	d := &decoder{}
	var automata []*model.Automaton
	for iter.Next() {
		a := d.automaton(iter.Label(), iter.Value())
		automata = append(automata, a)
	}
	if len(d.errs) > 0 {
		return nil, d.errs
	}
	if len(automata) == 0 {
		return nil, &LoadError{Code: ErrNoAutomata, Message: "no automata declared", Pos: posOf(automataVal.Pos())}
	}

	m, err := model.New(automata...)
	if err != nil {
		return nil, err
	}
	res := &Result{Model: m, Automata: len(automata)}
	for _, a := range automata {
		res.Locations += len(a.Locations)
		res.Edges += len(a.Edges)
	}
	return res, nil
}

// decoder accumulates errors while converting CUE values.
type decoder struct {
	errs LoadErrors
}

func (d *decoder) fail(v cue.Value, format string, args ...any) {
	d.errs = append(d.errs, &LoadError{Code: ErrField, Message: fmt.Sprintf(format, args...), Pos: posOf(v.Pos())})
}

func (d *decoder) automaton(name string, v cue.Value) *model.Automaton {
	a := &model.Automaton{
		Name:    model.NormalizeName(name),
		Clocks:  d.strings(v, "clocks"),
		Inputs:  d.strings(v, "inputs"),
		Outputs: d.strings(v, "outputs"),
	}

	locs := v.LookupPath(cue.ParsePath("locations"))
	if locs.Exists() {
		iter, err := locs.Fields()
		if err != nil {
			d.fail(locs, "%s.locations must be a struct", name)
		} else {
			for iter.Next() {
				a.Locations = append(a.Locations, d.location(iter.Label(), iter.Value()))
			}
		}
	}

	edges := v.LookupPath(cue.ParsePath("edges"))
	if edges.Exists() {
		iter, err := edges.List()
		if err != nil {
			d.fail(edges, "%s.edges must be a list", name)
		} else {
			for iter.Next() {
				a.Edges = append(a.Edges, d.edge(name, iter.Value()))
			}
		}
	}
	return a
}

func (d *decoder) location(id string, v cue.Value) model.Location {
	l := model.Location{
		ID:        model.NormalizeName(id),
		Initial:   d.boolean(v, "initial"),
		Urgent:    d.boolean(v, "urgent") || d.boolean(v, "committed"),
		Invariant: d.constraints(v, "invariant"),
	}
	return l
}

func (d *decoder) edge(automaton string, v cue.Value) model.Edge {
	e := model.Edge{
		Source: d.str(v, "from"),
		Target: d.str(v, "to"),
		Sync:   d.str(v, "sync"),
		Guard:  d.constraints(v, "guard"),
	}
	if e.Source == "" || e.Target == "" {
		d.fail(v, "%s: edge needs from and to", automaton)
	}
	reset := v.LookupPath(cue.ParsePath("reset"))
	if reset.Exists() {
		iter, err := reset.Fields()
		if err != nil {
			d.fail(reset, "%s: reset must map clocks to values", automaton)
			return e
		}
		for iter.Next() {
			n, err := iter.Value().Int64()
			if err != nil {
				d.fail(iter.Value(), "%s: reset of %s must be an integer", automaton, iter.Label())
				continue
			}
			e.Resets = append(e.Resets, model.Reset{Clock: model.NormalizeName(iter.Label()), Value: n})
		}
	}
	return e
}

func (d *decoder) str(v cue.Value, field string) string {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return ""
	}
	s, err := f.String()
	if err != nil {
		d.fail(f, "%s must be a string", field)
	}
	return model.NormalizeName(s)
}

func (d *decoder) boolean(v cue.Value, field string) bool {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return false
	}
	b, err := f.Bool()
	if err != nil {
		d.fail(f, "%s must be a bool", field)
	}
	return b
}

func (d *decoder) strings(v cue.Value, field string) []string {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return nil
	}
	iter, err := f.List()
	if err != nil {
		d.fail(f, "%s must be a list of strings", field)
		return nil
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			d.fail(iter.Value(), "%s must be a list of strings", field)
			continue
		}
		out = append(out, model.NormalizeName(s))
	}
	return out
}

// constraints parses a guard or invariant string. The string literal's
// opening quote is at the value position, so the text starts one column on.
func (d *decoder) constraints(v cue.Value, field string) []model.Constraint {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return nil
	}
	src, err := f.String()
	if err != nil {
		d.fail(f, "%s must be a string", field)
		return nil
	}
	base := posOf(f.Pos())
	if base.IsValid() {
		base.Column++
	}
	cs, err := ParseConstraints(src, base)
	if err != nil {
		if le, ok := err.(*LoadError); ok {
			d.errs = append(d.errs, le)
		} else {
			d.fail(f, "%s: %v", field, err)
		}
		return nil
	}
	return cs
}
