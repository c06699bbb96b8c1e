package system

// LocKind tags the shape of a composite location.
type LocKind uint8

const (
	LocLeaf LocKind = iota
	LocPair
	LocUniversal
	LocInconsistent
)

// Loc is an immutable composite location. Its shape mirrors the operator
// tree of the system that produced it: leaves for components, pairs for
// binary operators, and the two special quotient locations.
type Loc struct {
	Kind     LocKind
	Instance string // leaf: component instance name
	Index    int    // leaf: location index in the automaton
	ID       string // leaf: location id
	Left     *Loc
	Right    *Loc
	key      string
}

var (
	universalLoc    = &Loc{Kind: LocUniversal, key: "#universal"}
	inconsistentLoc = &Loc{Kind: LocInconsistent, key: "#inconsistent"}
)

// Leaf returns the location of one component instance.
func Leaf(instance string, index int, id string) *Loc {
	return &Loc{Kind: LocLeaf, Instance: instance, Index: index, ID: id, key: instance + "." + id}
}

// Pair combines the locations of two operands.
func Pair(left, right *Loc) *Loc {
	return &Loc{Kind: LocPair, Left: left, Right: right, key: "(" + left.key + "," + right.key + ")"}
}

// Universal returns the quotient location that accepts everything.
func Universal() *Loc { return universalLoc }

// Inconsistent returns the quotient location that must not be entered.
func Inconsistent() *Loc { return inconsistentLoc }

// Key identifies the location within one system.
func (l *Loc) Key() string { return l.key }

func (l *Loc) String() string { return l.key }

// Vector flattens the location into one entry per component, in operator
// tree order.
func (l *Loc) Vector() []string {
	var out []string
	stack := []*Loc{l}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch n.Kind {
		case LocLeaf:
			out = append(out, n.key)
		case LocPair:
			stack = append(stack, n.Right, n.Left)
		case LocUniversal:
			out = append(out, "universal")
		case LocInconsistent:
			out = append(out, "inconsistent")
		}
	}
	return out
}

// Leaves returns the leaf locations keyed by instance name.
func (l *Loc) Leaves() map[string]*Loc {
	out := make(map[string]*Loc)
	stack := []*Loc{l}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch n.Kind {
		case LocLeaf:
			out[n.Instance] = n
		case LocPair:
			stack = append(stack, n.Right, n.Left)
		}
	}
	return out
}
