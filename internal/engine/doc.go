// Package engine dispatches parsed queries to the checkers.
//
// An Engine holds only immutable options. Every call to Evaluate builds the
// systems it needs from the model it is given, runs one checker and
// packages the outcome as a Result. Nothing is cached between queries, so
// one Engine can serve concurrent evaluations over different models.
//
// Error handling follows one rule: a query that cannot be evaluated at all
// (an unknown automaton, operands with incompatible alphabets, a predicate
// naming a location that does not exist) is a *QueryError. Everything else,
// failing checks and exhausted limits included, is a Result.
package engine
