package system

// Components returns the component instances of sys in operator tree
// order.
func Components(sys System) []*Component {
	var out []*Component
	stack := []System{sys}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch v := s.(type) {
		case *Component:
			out = append(out, v)
		case *Conjunction:
			stack = append(stack, v.right, v.left)
		case *Composition:
			stack = append(stack, v.right, v.left)
		case *Quotient:
			stack = append(stack, v.s, v.t)
		case *Pruned:
			stack = append(stack, v.inner)
		case *Pinned:
			stack = append(stack, v.System)
		}
	}
	return out
}

// FindComponent returns the component with the given instance name.
func FindComponent(sys System, instance string) (*Component, bool) {
	for _, c := range Components(sys) {
		if c.instance == instance {
			return c, true
		}
	}
	return nil, false
}

// GlobalClock resolves a clock of a component instance to its global index.
// It returns false for unknown clocks and for clocks removed by clock
// reduction.
func (c *Component) GlobalClock(clock string) (int, bool) {
	i := c.automaton.ClockIndex(clock)
	if i <= 0 || c.remap[i] < 0 {
		return 0, false
	}
	return c.remap[i], true
}

// Locations returns the locations of sys reachable in its location graph,
// ignoring clocks, in breadth-first order from the initial location.
func Locations(sys System) []*Loc {
	init, ok := sys.Initial()
	if !ok {
		return nil
	}
	seen := map[string]bool{init.Key(): true}
	out := []*Loc{init}
	actions := append(Actions(sys), Silent)
	for i := 0; i < len(out); i++ {
		for _, action := range actions {
			for _, t := range sys.Transitions(out[i], action) {
				if !seen[t.Target.Key()] {
					seen[t.Target.Key()] = true
					out = append(out, t.Target)
				}
			}
		}
	}
	return out
}
