package system

import (
	"github.com/roach88/tioga/internal/dbm"
	"github.com/roach88/tioga/internal/model"
)

// Component is an automaton compiled into the global clock space.
type Component struct {
	automaton *model.Automaton
	instance  string
	remap     []int
	dim       int
	names     []string
	inputs    []string
	outputs   []string

	locs       []*Loc
	invariants []dbm.Zone
	// moves[location][action] lists the transitions, input-enabling
	// self-loops included.
	moves  []map[string][]Transition
	bounds dbm.Bounds
}

// NewComponent compiles a into the layout using remap, which maps local
// clock indices (1-based, 0 = reference) to global ones or -1.
func NewComponent(a *model.Automaton, instance string, remap []int, lay *Layout) *Component {
	c := &Component{
		automaton: a,
		instance:  instance,
		remap:     remap,
		dim:       lay.Dim(),
		names:     lay.Names(),
		inputs:    a.InputActions(),
		outputs:   a.OutputActions(),
	}
	c.compile()
	return c
}

func (c *Component) isSystem() {}

// Instance returns the instance name used in location keys.
func (c *Component) Instance() string { return c.instance }

// Automaton returns the source definition.
func (c *Component) Automaton() *model.Automaton { return c.automaton }

// Remap returns the local to global clock table.
func (c *Component) Remap() []int { return append([]int(nil), c.remap...) }

func (c *Component) global(clock string) int {
	return c.remap[c.automaton.ClockIndex(clock)]
}

func (c *Component) zoneOf(cs []model.Constraint) dbm.Zone {
	z := dbm.Universe(c.dim)
	for _, k := range cs {
		b := dbm.LE(k.Bound)
		if k.Strict {
			b = dbm.LT(k.Bound)
		}
		z = z.Constrain(c.global(k.Left), c.global(k.Right), b)
	}
	return z
}

func (c *Component) compile() {
	a := c.automaton
	c.bounds = dbm.NewBounds(c.dim)
	for clock, k := range model.MaxConstants(a) {
		if g := c.global(clock); g > 0 {
			c.bounds.Raise(g, k)
		}
	}
	pin := func(cs []model.Constraint) {
		for _, k := range cs {
			if k.Left == "" || k.Right == "" {
				continue
			}
			for _, clock := range []string{k.Left, k.Right} {
				if g := c.global(clock); g > 0 {
					c.bounds.Pin(g)
				}
			}
		}
	}
	for _, l := range a.Locations {
		pin(l.Invariant)
	}
	for _, e := range a.Edges {
		pin(e.Guard)
	}

	c.locs = make([]*Loc, len(a.Locations))
	c.invariants = make([]dbm.Zone, len(a.Locations))
	c.moves = make([]map[string][]Transition, len(a.Locations))
	for i, l := range a.Locations {
		c.locs[i] = Leaf(c.instance, i, l.ID)
		c.invariants[i] = c.zoneOf(l.Invariant)
		c.moves[i] = make(map[string][]Transition)
	}

	for _, e := range a.Edges {
		src, _ := a.LocationIndex(e.Source)
		dst, _ := a.LocationIndex(e.Target)
		action, _ := model.ParseSync(e.Sync)
		var resets []Reset
		for _, r := range e.Resets {
			if g := c.global(r.Clock); g > 0 {
				resets = append(resets, Reset{Clock: g, Value: r.Value})
			}
		}
		t := Transition{
			Guard:  dbm.NewFederation(c.dim, c.zoneOf(e.Guard)),
			Resets: resets,
			Target: c.locs[dst],
		}
		if t.Guard.IsEmpty() {
			continue
		}
		c.moves[src][action] = append(c.moves[src][action], t)
	}

	c.enableInputs()
}

// enableInputs adds, for every input and location, a self-loop covering the
// part of the invariant where no edge accepts the input.
func (c *Component) enableInputs() {
	for i := range c.locs {
		inv := dbm.NewFederation(c.dim, c.invariants[i])
		for _, in := range c.inputs {
			missing := inv.Subtract(AllowedUnion(c, c.moves[i][in]))
			if missing.IsEmpty() {
				continue
			}
			c.moves[i][in] = append(c.moves[i][in], Transition{Guard: missing, Target: c.locs[i]})
		}
	}
}

func (c *Component) Dim() int              { return c.dim }
func (c *Component) ClockNames() []string  { return c.names }
func (c *Component) Inputs() []string      { return c.inputs }
func (c *Component) Outputs() []string     { return c.outputs }
func (c *Component) MaxBounds() dbm.Bounds { return c.bounds }
func (c *Component) String() string        { return c.instance }

func (c *Component) Initial() (*Loc, bool) {
	i, ok := c.automaton.InitialIndex()
	if !ok {
		return nil, false
	}
	return c.locs[i], true
}

func (c *Component) Invariant(l *Loc) dbm.Zone {
	return c.invariants[l.Index]
}

func (c *Component) Urgent(l *Loc) bool {
	return c.automaton.Locations[l.Index].Urgent
}

func (c *Component) Transitions(l *Loc, action string) []Transition {
	return c.moves[l.Index][action]
}
