// Package query defines the query language: a sealed AST and a parser for
// its text form.
//
// A query text holds one or more queries separated by ';'. Each query is a
// kind, a colon and a body:
//
//	refinement: (Machine || Researcher) <= Spec
//	consistency: Adm2 && HalfAdm1
//	reachability: Machine @ Machine.L5 && Machine.y >= 3 -> Machine.L4
//	get-component: Spec \\ Machine save-as Rest
//
// Operand expressions name automata and combine them with '&&'
// (conjunction), '||' or '//' (composition) and '\\' (quotient). Quotient
// binds weakest and conjunction strongest.
//
// Query, Expr and Term are sealed interfaces: only types in this package
// implement them, so type switches over them are exhaustive.
package query
