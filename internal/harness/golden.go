package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/tioga/internal/model"
)

// Snapshot captures the stable part of a scenario run: ids, seq values,
// kinds and outcomes or error codes. Witness zones, diagnostics text and
// timings are left out so that golden files survive wording changes.
type Snapshot struct {
	ScenarioName string `json:"scenario_name"`
	Steps        []Step `json:"steps"`
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON
// serialization. model.MarshalCanonical only handles maps, slices and
// primitives.
func (s *Snapshot) toCanonicalMap() map[string]any {
	steps := make([]any, len(s.Steps))
	for i, step := range s.Steps {
		m := map[string]any{"query": step.Query}
		if step.Rejected() {
			m["error"] = step.Error
		} else {
			m["id"] = step.ID
			m["seq"] = step.Seq
			m["kind"] = step.Kind
			m["outcome"] = step.Outcome
		}
		steps[i] = m
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"steps":         steps,
	}
}

// MarshalSnapshot returns the canonical JSON golden files hold.
func MarshalSnapshot(name string, result *Result) ([]byte, error) {
	snapshot := Snapshot{ScenarioName: name, Steps: result.Steps}
	return model.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
