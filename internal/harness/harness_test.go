package harness

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tioga/internal/ctxlog"
)

func tickScenario(t *testing.T, queries ...QueryStep) *Scenario {
	t.Helper()
	return &Scenario{
		Name:        "tick",
		Description: "single location ticker",
		Model:       createTestModel(t, t.TempDir()),
		Queries:     queries,
	}
}

func TestRun_MinimalScenario(t *testing.T) {
	scenario := tickScenario(t,
		QueryStep{Query: "consistency: Tick", Expect: &Expect{Outcome: "success"}},
	)

	result, err := Run(scenario)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Pass, result.Errors)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Steps, 1)

	step := result.Steps[0]
	assert.Equal(t, "eval-0001", step.ID)
	assert.Equal(t, int64(2), step.Seq, "seq 1 stamps the model")
	assert.Equal(t, "consistency", step.Kind)
	assert.Equal(t, "success", step.Outcome)
	assert.False(t, step.Rejected())
}

func TestRun_RejectedQueryDoesNotStop(t *testing.T) {
	scenario := tickScenario(t,
		QueryStep{Query: "consistency: Tock", Expect: &Expect{Error: "E110"}},
		QueryStep{Query: "consistency: ", Expect: &Expect{Error: "E200"}},
		QueryStep{Query: "determinism: Tick", Expect: &Expect{Outcome: "success"}},
	)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	require.Len(t, result.Steps, 3)

	assert.Equal(t, "E110", result.Steps[0].Error)
	assert.Empty(t, result.Steps[0].ID)
	assert.Equal(t, "E200", result.Steps[1].Error)
	assert.Contains(t, result.Steps[1].Message, "[E200]")
	// The rejected evaluation consumed eval-0001; the parse error consumed nothing.
	assert.Equal(t, "eval-0002", result.Steps[2].ID)
}

func TestRun_SaveAsVisibleToLaterQueries(t *testing.T) {
	scenario := tickScenario(t,
		QueryStep{Query: "get-component: Tick save-as Copy", Expect: &Expect{Outcome: "success"}},
		QueryStep{Query: "refinement: Copy <= Tick", Expect: &Expect{Outcome: "success"}},
		QueryStep{Query: "refinement: Tick <= Copy", Expect: &Expect{Outcome: "success"}},
	)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRun_FailedExpectations(t *testing.T) {
	scenario := tickScenario(t,
		QueryStep{Query: "consistency: Tick", Expect: &Expect{Outcome: "failure"}},
		QueryStep{Query: "consistency: Tock"},
	)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "query 1")
	assert.Contains(t, result.Errors[0], "Expected: failure")
	assert.Contains(t, result.Errors[1], "query 2")
}

func TestRun_Options(t *testing.T) {
	off := false
	scenario := tickScenario(t,
		QueryStep{Query: "consistency: Tick", Expect: &Expect{Outcome: "success"}},
	)
	scenario.Options = &Options{MaxStates: 100, MaxFindings: 1, ClockReduction: &off}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRun_ModelLoadFailure(t *testing.T) {
	scenario := &Scenario{
		Name:        "broken",
		Description: "model dir without CUE files",
		Model:       t.TempDir(),
		Queries:     []QueryStep{{Query: "consistency: Tick"}},
	}
	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load model")
	assert.Contains(t, err.Error(), "E301")
}

func TestRunContext_UsesContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	_, err := RunContext(ctx, tickScenario(t, QueryStep{Query: "determinism: Tick"}))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "query evaluated")
	assert.Contains(t, buf.String(), "step recorded")
}
