package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tioga/internal/check"
	"github.com/roach88/tioga/internal/store"
)

func TestCheck_AllSucceed(t *testing.T) {
	out, err := execute(t, NewCheckCommand(&RootOptions{Format: "text"}),
		gatesDir, "refinement: Gate <= Spec; determinism: Gate")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ refinement: Gate <= Spec")
	assert.Contains(t, out, "✓ determinism: Gate")
	assert.Contains(t, out, "2/2 queries succeeded")
}

func TestCheck_FailureExitsOne(t *testing.T) {
	out, err := execute(t, NewCheckCommand(&RootOptions{Format: "text"}),
		gatesDir, "refinement: Gate <= Spec; refinement: Spec <= Gate")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "1 of 2 queries did not succeed")
	assert.Contains(t, out, "✗ refinement: Spec <= Gate")
	assert.Contains(t, out, "witness:")
}

func TestCheck_JSON(t *testing.T) {
	out, err := execute(t, NewCheckCommand(&RootOptions{Format: "json"}),
		gatesDir, "refinement: Spec <= Gate")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status    string      `json:"status"`
		Data      CheckResult `json:"data"`
		ModelHash string      `json:"model_hash"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	assert.Equal(t, "failed", resp.Status)
	assert.NotEmpty(t, resp.ModelHash)
	require.Len(t, resp.Data.Results, 1)
	assert.Equal(t, check.OutcomeFailure, resp.Data.Results[0].Outcome)
	assert.NotEmpty(t, resp.Data.Results[0].Witness)
	assert.Equal(t, 0, resp.Data.Succeeded)
}

func TestCheck_CommandErrors(t *testing.T) {
	tests := []struct {
		name    string
		dir     string
		queries string
		code    string
	}{
		{"missing model", "/nonexistent/model", "determinism: Gate", "E300"},
		{"empty model dir", "", "determinism: Gate", "E301"},
		{"parse error", gatesDir, "refinement: Gate <=", "E200"},
		{"no query", gatesDir, " ; ", "E200"},
		{"unknown automaton", gatesDir, "determinism: Gate; consistency: Nope", "E110"},
		{"unknown location", gatesDir, "reachability: Gate -> Gate.Nowhere", "E121"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := tt.dir
			if dir == "" {
				dir = t.TempDir()
			}
			out, err := execute(t, NewCheckCommand(&RootOptions{Format: "text"}), dir, tt.queries)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "Error ["+tt.code+"]")
		})
	}
}

func TestCheck_ErrorKeepsEarlierResults(t *testing.T) {
	out, err := execute(t, NewCheckCommand(&RootOptions{Format: "json"}),
		gatesDir, "determinism: Gate; consistency: Nope")
	require.Error(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   CheckResult `json:"data"`
		Error  *CLIError   `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E110", resp.Error.Code)
	assert.Len(t, resp.Data.Results, 1)
}

func TestCheck_SaveAs(t *testing.T) {
	out, err := execute(t, NewCheckCommand(&RootOptions{Format: "text"}),
		gatesDir, "get-component: Gate || User save-as Closed; refinement: Closed <= Gate || User")
	require.NoError(t, err, out)
	assert.Contains(t, out, "component Closed")
}

func TestCheck_Record(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "log.db")
	root := &RootOptions{Format: "text"}

	_, err := execute(t, NewCheckCommand(root), gatesDir, "determinism: Gate", "--record", "--db", dbPath)
	require.NoError(t, err)
	_, err = execute(t, NewCheckCommand(root), gatesDir, "determinism: Spec; determinism: User", "--record", "--db", dbPath)
	require.NoError(t, err)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	history, err := st.History(context.Background(), store.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, int64(3), history[0].Seq, "seq continues across runs")
	assert.Equal(t, "determinism: User", history[0].Query)
	assert.Equal(t, int64(1), history[2].Seq)
}

func TestCheck_InvalidEngineFlag(t *testing.T) {
	_, err := execute(t, NewCheckCommand(&RootOptions{Format: "text"}),
		gatesDir, "determinism: Gate", "--max-states=-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
