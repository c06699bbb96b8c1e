package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/tioga/internal/check"
	"github.com/roach88/tioga/internal/engine"
)

const evaluationColumns = `id, seq, query, kind, outcome, success, witness, diagnostics,
	states_explored, duration_ms, model_hash, component`

// HistoryFilter narrows History. Zero fields match everything.
type HistoryFilter struct {
	Kind      string
	ModelHash string
	Outcome   string
	// Limit caps the number of rows; zero means no cap.
	Limit int
}

// ReadEvaluation returns the evaluation with the given id, or ErrNotFound.
func (s *Store) ReadEvaluation(ctx context.Context, id string) (engine.Result, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+evaluationColumns+`
		FROM evaluations
		WHERE id = ?
	`, id)
	r, err := scanEvaluation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.Result{}, fmt.Errorf("evaluation %s: %w", id, ErrNotFound)
	}
	return r, err
}

// History returns the most recent evaluations first: ORDER BY seq DESC,
// id DESC COLLATE BINARY.
func (s *Store) History(ctx context.Context, f HistoryFilter) ([]engine.Result, error) {
	var where []string
	var args []any
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, f.Kind)
	}
	if f.ModelHash != "" {
		where = append(where, "model_hash = ?")
		args = append(args, f.ModelHash)
	}
	if f.Outcome != "" {
		where = append(where, "outcome = ?")
		args = append(args, f.Outcome)
	}

	q := "SELECT " + evaluationColumns + " FROM evaluations"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY seq DESC, id COLLATE BINARY DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	defer rows.Close()

	results := []engine.Result{}
	for rows.Next() {
		r, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evaluations: %w", err)
	}
	return results, nil
}

// LastSeq returns the highest recorded seq, or 0 for an empty log. The
// engine clock resumes from it.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, "SELECT MAX(seq) FROM evaluations").Scan(&seq); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq.Int64, nil
}

// OutcomeCount is one row of Summary.
type OutcomeCount struct {
	Kind    string `json:"kind"`
	Outcome string `json:"outcome"`
	Count   int    `json:"count"`
}

// Summary counts evaluations by kind and outcome, ordered by kind then
// outcome.
func (s *Store) Summary(ctx context.Context) ([]OutcomeCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, outcome, COUNT(*)
		FROM evaluations
		GROUP BY kind, outcome
		ORDER BY kind COLLATE BINARY, outcome COLLATE BINARY
	`)
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	defer rows.Close()

	out := []OutcomeCount{}
	for rows.Next() {
		var c OutcomeCount
		if err := rows.Scan(&c.Kind, &c.Outcome, &c.Count); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvaluation(row scanner) (engine.Result, error) {
	var (
		r           engine.Result
		outcome     string
		witness     string
		diagnostics string
		component   *string
	)
	err := row.Scan(
		&r.ID,
		&r.Seq,
		&r.Query,
		&r.Kind,
		&outcome,
		&r.Success,
		&witness,
		&diagnostics,
		&r.StatesExplored,
		&r.DurationMS,
		&r.ModelHash,
		&component,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return engine.Result{}, err
		}
		return engine.Result{}, fmt.Errorf("scan evaluation: %w", err)
	}

	var o check.Outcome
	if err := o.UnmarshalText([]byte(outcome)); err != nil {
		return engine.Result{}, fmt.Errorf("evaluation %s: %w", r.ID, err)
	}
	r.Outcome = o
	if r.Witness, err = unmarshalWitness(witness); err != nil {
		return engine.Result{}, err
	}
	if r.Diagnostics, err = unmarshalDiagnostics(diagnostics); err != nil {
		return engine.Result{}, err
	}
	if r.Component, err = unmarshalComponent(component); err != nil {
		return engine.Result{}, err
	}
	return r, nil
}
