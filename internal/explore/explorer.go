package explore

import (
	"context"

	"github.com/roach88/tioga/internal/system"
)

// EdgeKind classifies a recorded successor edge.
type EdgeKind uint8

const (
	EdgeOutput EdgeKind = iota
	EdgeInput
	EdgeSilent
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeOutput:
		return "output"
	case EdgeInput:
		return "input"
	default:
		return "silent"
	}
}

// KindOf returns the edge kind of action in sys.
func KindOf(sys system.System, action string) EdgeKind {
	switch {
	case action == system.Silent:
		return EdgeSilent
	case system.IsInput(sys, action):
		return EdgeInput
	default:
		return EdgeOutput
	}
}

// Node is one arena slot. Parent is -1 for start states.
type Node struct {
	State  State
	Parent int
	Action string
}

// Edge is a recorded successor. To may be a node that subsumed the actual
// successor.
type Edge struct {
	Kind   EdgeKind
	Action string
	To     int
}

// Options configures an Explorer.
type Options struct {
	// MaxStates bounds the arena; zero means unlimited.
	MaxStates int
	// Record keeps the successor graph for Edges.
	Record bool
}

// Visitor is called for every node as it is expanded, in BFS order.
// Returning true stops the exploration.
type Visitor func(id int) bool

// Explorer runs one breadth-first exploration of a system.
type Explorer struct {
	sys     system.System
	opts    Options
	nodes   []Node
	edges   [][]Edge
	waiting *Waiting
	passed  *Passed
	quota   *Quota
}

// New returns an explorer for sys.
func New(sys system.System, opts Options) *Explorer {
	return &Explorer{
		sys:     sys,
		opts:    opts,
		waiting: NewWaiting(),
		passed:  NewPassed(),
		quota:   NewQuota(opts.MaxStates),
	}
}

// System returns the explored system.
func (e *Explorer) System() system.System { return e.sys }

// Node returns the arena slot id.
func (e *Explorer) Node(id int) Node { return e.nodes[id] }

// Len returns the number of stored states.
func (e *Explorer) Len() int { return len(e.nodes) }

// Edges returns the recorded successors of id. It is empty unless
// Options.Record is set.
func (e *Explorer) Edges(id int) []Edge {
	if id >= len(e.edges) {
		return nil
	}
	return e.edges[id]
}

// Path returns the node indices from the start state to id.
func (e *Explorer) Path(id int) []int {
	var rev []int
	for ; id >= 0; id = e.nodes[id].Parent {
		rev = append(rev, id)
	}
	out := make([]int, len(rev))
	for i, n := range rev {
		out[len(rev)-1-i] = n
	}
	return out
}

// add stores a new state unless it is subsumed. It returns the index of
// the stored or covering node and whether the state was new.
func (e *Explorer) add(s State, parent int, action string) (int, bool, error) {
	if id, ok := e.passed.Covering(s.Key(), s.Zone); ok {
		return id, false, nil
	}
	if err := e.quota.Check(); err != nil {
		return 0, false, err
	}
	id := len(e.nodes)
	e.nodes = append(e.nodes, Node{State: s, Parent: parent, Action: action})
	if e.opts.Record {
		e.edges = append(e.edges, nil)
	}
	e.passed.Add(s.Key(), s.Zone, id)
	e.waiting.Push(id)
	return id, true, nil
}

// Run explores from the given start states, calling visit on each node as
// it is popped. It stops early when visit returns true, when the context
// ends, or when the state quota is exceeded; the latter two are returned
// as errors.
func (e *Explorer) Run(ctx context.Context, starts []State, visit Visitor) error {
	for _, s := range starts {
		if _, _, err := e.add(s, -1, ""); err != nil {
			return err
		}
	}
	for {
		id, ok := e.waiting.Pop()
		if !ok {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if visit != nil && visit(id) {
			return nil
		}
		for _, mv := range Successors(e.sys, e.nodes[id].State) {
			to, _, err := e.add(mv.Target, id, mv.Action)
			if err != nil {
				return err
			}
			if e.opts.Record {
				e.edges[id] = append(e.edges[id], Edge{Kind: mv.Kind, Action: mv.Action, To: to})
			}
		}
	}
}

// RunInitial explores from the initial state of the system. It reports
// false without exploring when there is no initial state.
func (e *Explorer) RunInitial(ctx context.Context, visit Visitor) (bool, error) {
	s, ok := Initial(e.sys)
	if !ok {
		return false, nil
	}
	return true, e.Run(ctx, []State{s}, visit)
}
