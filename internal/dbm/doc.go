// Package dbm implements zones over real-valued clocks as difference bound
// matrices.
//
// A zone over n clocks is an (n+1)×(n+1) matrix of bounds. Entry (i, j)
// bounds the difference x_i - x_j. Index 0 is the reference clock, whose
// value is always 0, so row 0 holds negated lower bounds and column 0 holds
// upper bounds.
//
// INVARIANTS:
//
// Canonical form:
// Every exported operation returns a zone closed under shortest paths.
// Emptiness and inclusion tests read the matrix directly and are only
// sound on closed matrices.
//
// Empty sentinel:
// An unsatisfiable zone keeps its dimension but drops its matrix. It is a
// value, never an error, and every operation on it yields the empty zone.
//
// Value semantics:
// Zones are never mutated in place once returned. Operations copy.
//
// Federations (finite unions of zones) represent the non-convex sets that
// arise from negated guards and invariants.
package dbm
