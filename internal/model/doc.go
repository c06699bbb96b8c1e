// Package model defines timed I/O automata and the immutable model that
// groups them.
//
// An Automaton is a static definition: clocks, locations with invariants,
// and edges with guards, synchronization labels and clock resets. Guards
// and invariants are conjunctions of difference constraints over clock
// names. Synchronization labels carry their direction as a suffix:
//
//	press?   input
//	open!    output
//	open     output
//	""       silent
//
// A Model is built once by New, which validates every automaton and
// rejects structural defects (dangling location references, unknown
// clocks, conflicting action directions). After New returns, the model is
// never mutated and may be read by any number of concurrent evaluations.
// Deriving a model with extra automata (With) produces a new value.
//
// Each model carries a content fingerprint computed over canonical JSON,
// so two loads of the same definitions hash identically regardless of
// map ordering or Unicode normalization of names.
package model
