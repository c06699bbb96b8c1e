package model

// MaxConstants returns, per clock, the largest absolute constant the clock is
// compared against. Clocks that appear in no constraint are
// absent from the map.
func MaxConstants(a *Automaton) map[string]int64 {
	out := make(map[string]int64)
	raise := func(clock string, c int64) {
		if clock == "" {
			return
		}
		if c < 0 {
			c = -c
		}
		if old, ok := out[clock]; !ok || c > old {
			out[clock] = c
		}
	}
	visit := func(cs []Constraint) {
		for _, c := range cs {
			raise(c.Left, c.Bound)
			raise(c.Right, c.Bound)
		}
	}
	for _, l := range a.Locations {
		visit(l.Invariant)
	}
	for _, e := range a.Edges {
		visit(e.Guard)
	}
	return out
}

// UnusedClocks returns the clocks that occur in no guard and no invariant.
// Their values never influence behavior, so they can be dropped.
func UnusedClocks(a *Automaton) []string {
	used := make(map[string]bool, len(a.Clocks))
	mark := func(cs []Constraint) {
		for _, c := range cs {
			used[c.Left] = true
			used[c.Right] = true
		}
	}
	for _, l := range a.Locations {
		mark(l.Invariant)
	}
	for _, e := range a.Edges {
		mark(e.Guard)
	}
	var out []string
	for _, c := range a.Clocks {
		if !used[c] {
			out = append(out, c)
		}
	}
	return out
}

// EquivalentClocks partitions the used clocks into groups that always hold
// the same value: every clock starts at 0, and clocks in one group are reset
// on exactly the same edges to the same values. Only groups with at least two
// members are returned, each sorted by declaration order.
func EquivalentClocks(a *Automaton) [][]string {
	unused := make(map[string]bool)
	for _, c := range UnusedClocks(a) {
		unused[c] = true
	}
	// group id per clock; refined edge by edge.
	group := make(map[string]int, len(a.Clocks))
	for _, c := range a.Clocks {
		if !unused[c] {
			group[c] = 0
		}
	}
	next := 1
	for _, e := range a.Edges {
		type key struct {
			group int
			reset bool
			value int64
		}
		resets := make(map[string]int64, len(e.Resets))
		for _, r := range e.Resets {
			resets[r.Clock] = r.Value
		}
		split := make(map[key]int)
		for _, c := range a.Clocks {
			g, ok := group[c]
			if !ok {
				continue
			}
			v, reset := resets[c]
			k := key{group: g, reset: reset, value: v}
			id, seen := split[k]
			if !seen {
				id = next
				next++
				split[k] = id
			}
			group[c] = id
		}
	}

	members := make(map[int][]string)
	var ids []int
	for _, c := range a.Clocks {
		g, ok := group[c]
		if !ok {
			continue
		}
		if _, seen := members[g]; !seen {
			ids = append(ids, g)
		}
		members[g] = append(members[g], c)
	}
	var out [][]string
	for _, id := range ids {
		if len(members[id]) > 1 {
			out = append(out, members[id])
		}
	}
	return out
}
