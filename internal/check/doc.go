// Package check implements the checkers layered on the explorer:
// consistency, implementation, determinism, reachability and refinement,
// plus the pruning analysis used by the prune operator.
//
// Every checker returns a Result. Logical outcomes, failures included, are
// results and never errors. Running out of states or time gives an
// inconclusive result. Errors are reserved for misuse.
package check
