// Package explore implements symbolic reachability over a system.
//
// States pair a composite location with a zone. They live in an arena and
// are referenced by index only; parents are indices too, so witness paths
// are recovered by walking back to the root.
//
// Exploration is breadth-first and single-threaded. A successor is dropped
// when a passed state at the same location already covers its zone
// (subsumption). Zones are extrapolated before they are stored, which
// bounds the number of distinct zones per location and makes every run
// terminate.
//
// Waiting, Passed and Quota are exported so that the checkers can run their
// own traversals (the refinement game walks pairs of states) with the same
// machinery.
package explore
