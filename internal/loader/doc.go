// Package loader reads automaton models from CUE files.
//
// A model directory holds one CUE package whose top-level "automata" struct
// maps automaton names to definitions:
//
//	automata: Gate: {
//		clocks:  ["x"]
//		inputs:  ["press"]
//		outputs: ["open"]
//		locations: {
//			Idle: {initial: true}
//			Busy: {invariant: "x <= 5"}
//		}
//		edges: [
//			{from: "Idle", to: "Busy", sync: "press?", reset: {x: 0}},
//			{from: "Busy", to: "Idle", sync: "open!", guard: "x >= 2"},
//		]
//	}
//
// Guards and invariants are HCL expressions restricted to && of comparisons
// between a clock, a clock difference and an integer. Locations keep their
// declaration order. Committed locations are loaded as urgent.
//
// Decoding problems are *LoadError values carrying a file position. Once
// every automaton decodes, model.New validates the result and reports
// structural defects as *model.StructuralError.
package loader
