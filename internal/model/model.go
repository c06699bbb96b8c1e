package model

import (
	"fmt"
	"sort"
)

// Model is an immutable set of automata keyed by name.
type Model struct {
	automata map[string]*Automaton
	names    []string
	hash     string
}

// New validates and copies the given automata into a model.
// Every structural defect is reported; a model with defects is never built.
func New(automata ...*Automaton) (*Model, error) {
	m := &Model{automata: make(map[string]*Automaton, len(automata))}
	var errs StructuralErrors
	for i, a := range automata {
		errs = append(errs, Validate(a)...)
		if _, dup := m.automata[a.Name]; dup {
			errs = append(errs, &StructuralError{
				Code:      ErrDuplicateAutomaton,
				Automaton: a.Name,
				Field:     fmt.Sprintf("automata[%d]", i),
				Message:   fmt.Sprintf("automaton %q declared twice", a.Name),
			})
			continue
		}
		m.automata[a.Name] = a.Clone()
		m.names = append(m.names, a.Name)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	sort.Strings(m.names)

	hash, err := modelHash(m)
	if err != nil {
		return nil, fmt.Errorf("fingerprint model: %w", err)
	}
	m.hash = hash
	return m, nil
}

// MustNew is New for fixtures known to be valid.
func MustNew(automata ...*Automaton) *Model {
	m, err := New(automata...)
	if err != nil {
		panic(err)
	}
	return m
}

// Automaton returns the named automaton. The result is shared; do not modify it.
func (m *Model) Automaton(name string) (*Automaton, bool) {
	a, ok := m.automata[name]
	return a, ok
}

// Names returns the automaton names in sorted order.
func (m *Model) Names() []string {
	return append([]string(nil), m.names...)
}

// Len returns the number of automata.
func (m *Model) Len() int { return len(m.names) }

// Hash returns the content fingerprint of the model.
func (m *Model) Hash() string { return m.hash }

// With returns a new model holding m's automata plus the given ones. An
// automaton with an existing name replaces the old definition.
func (m *Model) With(automata ...*Automaton) (*Model, error) {
	replaced := make(map[string]bool, len(automata))
	for _, a := range automata {
		replaced[a.Name] = true
	}
	all := make([]*Automaton, 0, len(m.names)+len(automata))
	for _, name := range m.names {
		if !replaced[name] {
			all = append(all, m.automata[name])
		}
	}
	all = append(all, automata...)
	return New(all...)
}
