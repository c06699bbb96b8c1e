package system

import (
	"context"
	"fmt"

	"github.com/roach88/tioga/internal/model"
)

// Op names the operator of a plan node.
type Op int

const (
	OpComponent Op = iota
	OpConjunction
	OpComposition
	OpQuotient
	OpPrune
)

func (o Op) String() string {
	switch o {
	case OpComponent:
		return "component"
	case OpConjunction:
		return "conjunction"
	case OpComposition:
		return "composition"
	case OpQuotient:
		return "quotient"
	case OpPrune:
		return "prune"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// Plan is an operator tree over automaton names. Prune uses Left only.
type Plan struct {
	Op    Op
	Name  string
	Left  *Plan
	Right *Plan
}

// Ref, And, Par, Div and PruneOf build plans.
func Ref(name string) *Plan { return &Plan{Op: OpComponent, Name: name} }
func And(l, r *Plan) *Plan { return &Plan{Op: OpConjunction, Left: l, Right: r} }
func Par(l, r *Plan) *Plan { return &Plan{Op: OpComposition, Left: l, Right: r} }
func Div(t, s *Plan) *Plan { return &Plan{Op: OpQuotient, Left: t, Right: s} }
func PruneOf(inner *Plan) *Plan { return &Plan{Op: OpPrune, Left: inner} }

// Pruner computes the pruned view of a system. It is supplied by the caller
// because the analysis needs the explorer, which depends on this package.
type Pruner func(ctx context.Context, sys System) (System, error)

// Options configures Build.
type Options struct {
	ClockReduction bool
	Prune          Pruner
}

// placement is the first-pass record for a component occurrence.
type placement struct {
	instance string
	remap    []int
}

// Layout is the global clock space of one query.
type Layout struct {
	names      []string
	seen       map[string]int
	components map[*Plan]placement
	quotients  map[*Plan]int
}

func newLayout() *Layout {
	return &Layout{
		names:      []string{"0"},
		seen:       make(map[string]int),
		components: make(map[*Plan]placement),
		quotients:  make(map[*Plan]int),
	}
}

// Dim returns the zone dimension.
func (l *Layout) Dim() int { return len(l.names) }

// Names returns display names per global clock.
func (l *Layout) Names() []string { return append([]string(nil), l.names...) }

func (l *Layout) allocate(name string) int {
	l.names = append(l.names, name)
	return len(l.names) - 1
}

// place assigns global indices to the clocks of one component occurrence.
func (l *Layout) place(a *model.Automaton, reduce bool) placement {
	l.seen[a.Name]++
	instance := a.Name
	if n := l.seen[a.Name]; n > 1 {
		instance = fmt.Sprintf("%s#%d", a.Name, n)
	}

	remap := make([]int, len(a.Clocks)+1)
	unused := make(map[string]bool)
	leader := make(map[string]string)
	if reduce {
		for _, c := range model.UnusedClocks(a) {
			unused[c] = true
		}
		for _, group := range model.EquivalentClocks(a) {
			for _, c := range group[1:] {
				leader[c] = group[0]
			}
		}
	}
	for i, c := range a.Clocks {
		switch {
		case unused[c]:
			remap[i+1] = -1
		case leader[c] != "":
			remap[i+1] = remap[a.ClockIndex(leader[c])]
		default:
			remap[i+1] = l.allocate(instance + "." + c)
		}
	}
	return placement{instance: instance, remap: remap}
}

// Build constructs the system described by plan over m.
func Build(ctx context.Context, m *model.Model, plan *Plan, opts Options) (System, error) {
	out, err := BuildAll(ctx, m, opts, plan)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// BuildAll constructs several systems over one shared clock space, so that
// their zones can be intersected. Every clock is allocated before any
// system is compiled.
func BuildAll(ctx context.Context, m *model.Model, opts Options, plans ...*Plan) ([]System, error) {
	lay := newLayout()
	for _, p := range plans {
		if err := lay.walk(m, p, opts.ClockReduction); err != nil {
			return nil, err
		}
	}
	out := make([]System, len(plans))
	for i, p := range plans {
		sys, err := lay.build(ctx, m, p, opts)
		if err != nil {
			return nil, err
		}
		out[i] = sys
	}
	return out, nil
}

func (l *Layout) walk(m *model.Model, p *Plan, reduce bool) error {
	switch p.Op {
	case OpComponent:
		a, ok := m.Automaton(p.Name)
		if !ok {
			return &CompositionError{
				Code:     ErrUnknownAutomaton,
				Operator: p.Op.String(),
				Message:  fmt.Sprintf("no automaton named %q", p.Name),
			}
		}
		l.components[p] = l.place(a, reduce)
		return nil
	case OpPrune:
		return l.walk(m, p.Left, reduce)
	case OpQuotient:
		if err := l.walk(m, p.Left, reduce); err != nil {
			return err
		}
		if err := l.walk(m, p.Right, reduce); err != nil {
			return err
		}
		l.quotients[p] = l.allocate(fmt.Sprintf("quotient#%d", len(l.quotients)+1))
		return nil
	default:
		if err := l.walk(m, p.Left, reduce); err != nil {
			return err
		}
		return l.walk(m, p.Right, reduce)
	}
}

func (l *Layout) build(ctx context.Context, m *model.Model, p *Plan, opts Options) (System, error) {
	switch p.Op {
	case OpComponent:
		a, _ := m.Automaton(p.Name)
		pl := l.components[p]
		return NewComponent(a, pl.instance, pl.remap, l), nil
	case OpPrune:
		inner, err := l.build(ctx, m, p.Left, opts)
		if err != nil {
			return nil, err
		}
		if opts.Prune == nil {
			return nil, &CompositionError{Code: ErrNoPruner, Operator: p.Op.String(), Message: "no pruning analysis configured"}
		}
		return opts.Prune(ctx, inner)
	}

	left, err := l.build(ctx, m, p.Left, opts)
	if err != nil {
		return nil, err
	}
	right, err := l.build(ctx, m, p.Right, opts)
	if err != nil {
		return nil, err
	}
	var sys System
	switch p.Op {
	case OpConjunction:
		sys, err = NewConjunction(left, right)
	case OpComposition:
		return NewComposition(left, right)
	case OpQuotient:
		sys, err = NewQuotient(left, right, l.quotients[p])
	default:
		return nil, fmt.Errorf("unknown operator %v", p.Op)
	}
	if err != nil || opts.Prune == nil {
		return sys, err
	}
	// Conjunction and quotient can produce inconsistent states; prune them
	// before anything else looks at the result.
	pruned, err := opts.Prune(ctx, sys)
	if err != nil {
		return nil, err
	}
	if pp, ok := pruned.(*Pruned); ok {
		pp.implicit = true
	}
	return pruned, nil
}
