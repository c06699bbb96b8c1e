package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDemoScenarios runs the scenarios shipped in testdata/scenarios at the
// project root and compares them with their golden snapshots.
func TestDemoScenarios(t *testing.T) {
	tests := []struct {
		name         string
		scenarioPath string
	}{
		{
			name:         "gate_refinement",
			scenarioPath: "../../testdata/scenarios/gate_refinement.yaml",
		},
		{
			name:         "gate_reachability",
			scenarioPath: "../../testdata/scenarios/gate_reachability.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			absPath, err := filepath.Abs(tt.scenarioPath)
			require.NoError(t, err, "failed to get absolute path")

			scenario, err := LoadScenario(absPath)
			require.NoError(t, err, "failed to load scenario from %s", tt.scenarioPath)

			assert.Equal(t, tt.name, scenario.Name, "scenario name mismatch")
			assert.NotEmpty(t, scenario.Description, "scenario should have description")

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err, "scenario execution failed")
			assert.True(t, result.Pass, "scenario should pass: %v", result.Errors)
		})
	}
}

func TestExpectMismatchScenario(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/expect_mismatch.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "Expected: success")
	assert.Contains(t, result.Errors[1], "Expected: E110")
	assert.Contains(t, result.Errors[2], "query accepted")
}
