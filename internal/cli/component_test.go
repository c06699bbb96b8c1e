package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tioga/internal/loader"
	"github.com/roach88/tioga/internal/model"
)

func TestComponent_TextIsLoadable(t *testing.T) {
	out, err := execute(t, NewComponentCommand(&RootOptions{Format: "text"}),
		gatesDir, "Gate || User", "--name", "Closed", "--package", "closed")
	require.NoError(t, err)
	assert.Contains(t, out, "package closed")
	assert.Contains(t, out, "Closed")

	res, err := loader.LoadSource("closed.cue", out)
	require.NoError(t, err, out)
	a, ok := res.Model.Automaton("Closed")
	require.True(t, ok)
	assert.NotEmpty(t, a.Locations)
	assert.NotEmpty(t, a.Edges)
}

func TestComponent_JSON(t *testing.T) {
	out, err := execute(t, NewComponentCommand(&RootOptions{Format: "json"}), gatesDir, "Gate")
	require.NoError(t, err)

	var resp struct {
		Status string          `json:"status"`
		Data   model.Automaton `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "Gate", resp.Data.Name)
	assert.Len(t, resp.Data.Locations, 2)
}

func TestComponent_OutputFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.cue")

	out, err := execute(t, NewComponentCommand(&RootOptions{Format: "text"}),
		gatesDir, "Gate && Spec", "--name", "Both", "-o", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	// The written file is a model directory of its own.
	loaded, err := loader.LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"Both"}, loaded.Model.Names())
}

func TestComponent_Prune(t *testing.T) {
	out, err := execute(t, NewComponentCommand(&RootOptions{Format: "text"}),
		gatesDir, "Gate", "--prune", "--name", "PrunedGate")
	require.NoError(t, err, out)
	assert.Contains(t, out, "PrunedGate")
}

func TestComponent_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code string
	}{
		{"unknown automaton", []string{gatesDir, "Gate || Nope"}, "E110"},
		{"bad expression", []string{gatesDir, "Gate ||"}, "E200"},
		{"missing model", []string{"/nonexistent", "Gate"}, "E300"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, NewComponentCommand(&RootOptions{Format: "text"}), tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "Error ["+tt.code+"]")
		})
	}
}

func TestComponent_OutputDirMissing(t *testing.T) {
	_, err := execute(t, NewComponentCommand(&RootOptions{Format: "text"}),
		gatesDir, "Gate", "-o", filepath.Join(t.TempDir(), "no", "such", "dir.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "writing component")
}
