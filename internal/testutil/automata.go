package testutil

import "github.com/roach88/tioga/internal/model"

// Le and Lt build upper bounds, Ge and Gt lower bounds on one clock.
func Le(clock string, c int64) model.Constraint { return model.Constraint{Left: clock, Bound: c} }
func Lt(clock string, c int64) model.Constraint {
	return model.Constraint{Left: clock, Bound: c, Strict: true}
}
func Ge(clock string, c int64) model.Constraint { return model.Constraint{Right: clock, Bound: -c} }
func Gt(clock string, c int64) model.Constraint {
	return model.Constraint{Right: clock, Bound: -c, Strict: true}
}

// Gate outputs a! from L0 to L1 while x <= bound. G1 and G2 in the checker
// tests are Gate("G1", 5) and Gate("G2", 10).
func Gate(name string, bound int64) *model.Automaton {
	return &model.Automaton{
		Name:   name,
		Clocks: []string{"x"},
		Locations: []model.Location{
			{ID: "L0", Initial: true},
			{ID: "L1"},
		},
		Edges: []model.Edge{
			{Source: "L0", Target: "L1", Sync: "a!", Guard: []model.Constraint{Le("x", bound)}},
		},
	}
}

// Holding is a single location automaton with the given invariant on x.
func Holding(name string, inv ...model.Constraint) *model.Automaton {
	return &model.Automaton{
		Name:      name,
		Clocks:    []string{"x"},
		Locations: []model.Location{{ID: "L0", Initial: true, Invariant: inv}},
	}
}

// Overlapping has two a-edges from L0 with guards x < 2 and x > 1.
func Overlapping(name string) *model.Automaton {
	return &model.Automaton{
		Name:   name,
		Clocks: []string{"x"},
		Locations: []model.Location{
			{ID: "L0", Initial: true},
			{ID: "L1"},
			{ID: "L2"},
		},
		Edges: []model.Edge{
			{Source: "L0", Target: "L1", Sync: "a!", Guard: []model.Constraint{Lt("x", 2)}},
			{Source: "L0", Target: "L2", Sync: "a!", Guard: []model.Constraint{Gt("x", 1)}},
		},
	}
}

// Unreachable hides L5 behind the unsatisfiable guard x < 0.
func Unreachable(name string) *model.Automaton {
	return &model.Automaton{
		Name:   name,
		Clocks: []string{"x"},
		Locations: []model.Location{
			{ID: "L0", Initial: true},
			{ID: "L1"},
			{ID: "L5"},
		},
		Edges: []model.Edge{
			{Source: "L0", Target: "L1", Sync: "go!", Guard: []model.Constraint{Ge("x", 1)}, Resets: []model.Reset{{Clock: "x"}}},
			{Source: "L1", Target: "L5", Sync: "go!", Guard: []model.Constraint{Lt("x", 0)}},
		},
	}
}

// Server answers every req? with an ack! within bound time units.
func Server(name string, bound int64) *model.Automaton {
	return &model.Automaton{
		Name:   name,
		Clocks: []string{"y"},
		Locations: []model.Location{
			{ID: "Idle", Initial: true},
			{ID: "Busy", Invariant: []model.Constraint{Le("y", bound)}},
		},
		Edges: []model.Edge{
			{Source: "Idle", Target: "Busy", Sync: "req?", Resets: []model.Reset{{Clock: "y"}}},
			{Source: "Busy", Target: "Idle", Sync: "ack!"},
		},
	}
}

// Client sends req! and waits for ack?.
func Client(name string) *model.Automaton {
	return &model.Automaton{
		Name: name,
		Locations: []model.Location{
			{ID: "Ready", Initial: true},
			{ID: "Waiting"},
		},
		Edges: []model.Edge{
			{Source: "Ready", Target: "Waiting", Sync: "req!"},
			{Source: "Waiting", Target: "Ready", Sync: "ack?"},
		},
	}
}

// Timelocked must leave L0 by x <= 3 but has no way out.
func Timelocked(name string) *model.Automaton {
	return &model.Automaton{
		Name:   name,
		Clocks: []string{"x"},
		Locations: []model.Location{
			{ID: "L0", Initial: true},
			{ID: "L1", Invariant: []model.Constraint{Le("x", 3)}},
		},
		Edges: []model.Edge{
			{Source: "L0", Target: "L1", Sync: "go!", Resets: []model.Reset{{Clock: "x"}}},
		},
	}
}

// ScenarioModel holds every fixture above under its conventional name.
func ScenarioModel() *model.Model {
	return model.MustNew(
		Gate("G1", 5),
		Gate("G2", 10),
		Gate("G3", 15),
		Holding("A", Le("x", 3)),
		Holding("B", Ge("x", 5)),
		Overlapping("M"),
		Unreachable("U"),
		Server("S", 4),
		Client("C"),
		Timelocked("T"),
	)
}
