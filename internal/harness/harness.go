package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/tioga/internal/ctxlog"
	"github.com/roach88/tioga/internal/engine"
	"github.com/roach88/tioga/internal/loader"
	"github.com/roach88/tioga/internal/model"
	"github.com/roach88/tioga/internal/query"
	"github.com/roach88/tioga/internal/store"
	"github.com/roach88/tioga/internal/testutil"
)

// Harness is the test execution engine.
// It runs scenarios with a deterministic clock and evaluation ids.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	clock  *testutil.DeterministicClock
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Load the model and record its fingerprint
// 3. Evaluate each query, recording accepted ones in the store
// 4. Check every expectation against the stored record
//
// An error is returned only when the scenario cannot run at all, e.g. the
// model fails to load. Failed expectations are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context. A logger in ctx
// receives the engine's records; by default they are discarded.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	loaded, err := loader.LoadDir(scenario.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}

	clock := testutil.NewDeterministicClock()
	if err := st.WriteModel(ctx, loaded.Model, clock.Next()); err != nil {
		return nil, fmt.Errorf("failed to record model: %w", err)
	}

	if ctxlog.FromContext(ctx) == slog.Default() {
		ctx = ctxlog.WithLogger(ctx, slog.New(slog.NewTextHandler(io.Discard, nil))) // Suppress logs in tests
	}
	h := &Harness{
		store:  st,
		engine: engine.New(engineOptions(scenario.Options, clock)...),
		clock:  clock,
		logger: ctxlog.FromContext(ctx),
	}

	result := NewResult()
	m := loaded.Model
	for i, qs := range scenario.Queries {
		step, next, err := h.evaluate(ctx, m, qs.Query)
		if err != nil {
			return nil, fmt.Errorf("query %d: %w", i+1, err)
		}
		m = next
		result.AddStep(step)

		for _, aerr := range CheckStep(i+1, step, qs.Expect) {
			result.AddError(aerr.Error())
		}
	}
	return result, nil
}

func engineOptions(o *Options, clock *testutil.DeterministicClock) []engine.Option {
	opts := []engine.Option{
		engine.WithIDGenerator(testutil.NewSequentialIDGenerator("eval")),
		engine.WithClock(engine.NewClockAt(clock.Current())),
	}
	if o == nil {
		return opts
	}
	if o.MaxStates > 0 {
		opts = append(opts, engine.WithStateLimit(o.MaxStates))
	}
	if o.MaxFindings > 0 {
		opts = append(opts, engine.WithMaxFindings(o.MaxFindings))
	}
	if o.ClockReduction != nil {
		opts = append(opts, engine.WithClockReduction(*o.ClockReduction))
	}
	return opts
}

// evaluate runs one query and returns its step together with the model the
// next query sees. Rejections become steps; only store failures are errors.
func (h *Harness) evaluate(ctx context.Context, m *model.Model, text string) (Step, *model.Model, error) {
	q, err := query.ParseOne(text)
	if err != nil {
		return rejected(text, err), m, nil
	}

	res, err := h.engine.Evaluate(ctx, m, q)
	if err != nil {
		return rejected(text, err), m, nil
	}

	next, err := engine.Extend(m, q, res)
	if err != nil {
		return rejected(text, err), m, nil
	}

	if err := h.store.WriteEvaluations(ctx, m, []engine.Result{res}); err != nil {
		return Step{}, m, err
	}
	rec, err := h.store.ReadEvaluation(ctx, res.ID)
	if err != nil {
		return Step{}, m, err
	}
	h.logger.Debug("step recorded", "id", rec.ID, "seq", rec.Seq, "outcome", rec.Outcome.String())

	return Step{
		Query:       text,
		ID:          rec.ID,
		Seq:         rec.Seq,
		Kind:        rec.Kind,
		Outcome:     rec.Outcome.String(),
		Witness:     rec.Witness,
		Diagnostics: rec.Diagnostics,
	}, next, nil
}

func rejected(text string, err error) Step {
	return Step{Query: text, Error: errorCode(err), Message: err.Error()}
}

// errorCode extracts the code of a parse or query error.
func errorCode(err error) string {
	var qe *engine.QueryError
	if errors.As(err, &qe) {
		return qe.Code
	}
	if query.IsParseError(err) {
		return query.ErrSyntax
	}
	return "E000"
}
