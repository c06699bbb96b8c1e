// Package system builds the transition systems that checkers explore.
//
// A System is one of a closed set of variants: a compiled Component, a
// Conjunction, a Composition, a Quotient, or a Pruned view of another
// system. Every variant answers the same questions (initial location,
// invariant, enabled transitions for an action), so explorers and checkers
// never branch on which operator produced the system. The set is sealed by
// an unexported marker method.
//
// Systems are lazy: composite locations and their transitions are computed
// when asked for, never enumerated up front.
//
// Clock layout:
// All systems built for one query share a single clock space. Build walks
// the operator tree twice. The first pass assigns every component
// occurrence its own block of global clock indices, recorded as an explicit
// remap table from the component's local clock index to the global one,
// and gives every quotient a fresh clock. The second pass compiles guards
// and invariants into zones of the final dimension. A component that occurs
// twice gets two disjoint clock blocks.
//
// With clock reduction enabled, clocks that are never compared map to -1
// and their resets are dropped, and clocks that always hold the same value
// share one global index.
package system
