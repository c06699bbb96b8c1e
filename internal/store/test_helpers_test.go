package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/tioga/internal/check"
	"github.com/roach88/tioga/internal/engine"
	"github.com/roach88/tioga/internal/model"
	"github.com/roach88/tioga/internal/testutil"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testModel() *model.Model {
	return model.MustNew(testutil.Gate("G1", 5), testutil.Gate("G2", 10))
}

// createTestResult creates a result with minimal required fields.
func createTestResult(id string, seq int64, kind string, outcome check.Outcome, m *model.Model) engine.Result {
	return engine.Result{
		ID:             id,
		Seq:            seq,
		Query:          kind + ": G1",
		Kind:           kind,
		Success:        outcome == check.OutcomeSuccess,
		Outcome:        outcome,
		StatesExplored: 3,
		DurationMS:     1,
		ModelHash:      m.Hash(),
	}
}
