package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/tioga/internal/engine"
	"github.com/roach88/tioga/internal/model"
)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// WriteModel records a model fingerprint. Uses ON CONFLICT(hash) DO NOTHING
// for idempotency: a model loaded twice keeps its first seq.
func (s *Store) WriteModel(ctx context.Context, m *model.Model, seq int64) error {
	names, err := marshalJSON(m.Names())
	if err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	return insertModel(ctx, s.db, m.Hash(), names, seq)
}

// WriteEvaluation appends one evaluation. Duplicate ids are silently
// ignored. The model it ran against must have been written first
// (foreign key constraint).
func (s *Store) WriteEvaluation(ctx context.Context, r engine.Result) error {
	return insertEvaluation(ctx, s.db, r)
}

// WriteEvaluations records m and the results evaluated against it in one
// transaction. Results of queries that followed a save-as ran against an
// extended model; its fingerprint is recorded too so that the foreign key
// holds.
func (s *Store) WriteEvaluations(ctx context.Context, m *model.Model, results []engine.Result) error {
	names, err := marshalJSON(m.Names())
	if err != nil {
		return fmt.Errorf("write model: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if len(results) > 0 {
		seq = results[0].Seq
	}
	if err := insertModel(ctx, tx, m.Hash(), names, seq); err != nil {
		return err
	}
	for _, r := range results {
		if r.ModelHash != m.Hash() {
			if err := insertModel(ctx, tx, r.ModelHash, "[]", r.Seq); err != nil {
				return err
			}
		}
		if err := insertEvaluation(ctx, tx, r); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insertModel(ctx context.Context, db execer, hash, names string, seq int64) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO models (hash, automata, seq)
		VALUES (?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, hash, names, seq)
	if err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	return nil
}

func insertEvaluation(ctx context.Context, db execer, r engine.Result) error {
	witness, err := marshalWitness(r.Witness)
	if err != nil {
		return fmt.Errorf("write evaluation: %w", err)
	}
	diagnostics, err := marshalDiagnostics(r.Diagnostics)
	if err != nil {
		return fmt.Errorf("write evaluation: %w", err)
	}
	component, err := marshalComponent(r.Component)
	if err != nil {
		return fmt.Errorf("write evaluation: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO evaluations
		(id, seq, query, kind, outcome, success, witness, diagnostics,
		 states_explored, duration_ms, model_hash, component)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		r.ID,
		r.Seq,
		r.Query,
		r.Kind,
		r.Outcome.String(),
		r.Success,
		witness,
		diagnostics,
		r.StatesExplored,
		r.DurationMS,
		r.ModelHash,
		component,
	)
	if err != nil {
		return fmt.Errorf("write evaluation %s: %w", r.ID, err)
	}
	return nil
}
