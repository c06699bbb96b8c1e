// Package harness runs conformance scenarios against the checker.
//
// A scenario is a YAML file naming a model directory and a list of queries,
// each with an optional expectation:
//
//	name: gate_refinement
//	description: The gate refines its specification but not the reverse.
//	model: ../models/gates
//	queries:
//	  - query: "refinement: Gate <= Spec"
//	    expect:
//	      outcome: success
//	  - query: "consistency: Nope"
//	    expect:
//	      error: E110
//
// The model path is resolved relative to the scenario file. Queries run in
// order and save-as results are visible to later queries, exactly as in
// one `tioga check` invocation. Unlike the CLI, a query that is rejected
// does not stop the scenario: its error code is recorded and may be
// expected.
//
// # Determinism
//
// Each run uses a fresh in-memory store, sequential evaluation ids
// (testutil.SequentialIDGenerator) and a logical clock starting from zero
// (testutil.DeterministicClock), so the same scenario always produces the
// same ids and seq values. Every evaluation is written to the store and the
// step is rebuilt from the stored record, so a scenario also exercises the
// evaluation log.
//
// # Golden files
//
// RunWithGolden compares a canonical JSON snapshot of the steps against
// testdata/golden/<scenario>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
