package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/tioga/internal/check"
	"github.com/roach88/tioga/internal/ctxlog"
	"github.com/roach88/tioga/internal/explore"
	"github.com/roach88/tioga/internal/model"
	"github.com/roach88/tioga/internal/query"
	"github.com/roach88/tioga/internal/system"
)

// DefaultMaxStates is the default cap on stored states per query.
// It keeps a runaway exploration from exhausting memory.
const DefaultMaxStates = 1_000_000

// DefaultMaxFindings is the default number of nondeterminism findings
// reported by one determinism query.
const DefaultMaxFindings = 10

// Engine evaluates queries against models.
//
// Thread-safety model:
//   - Evaluate and EvaluateAll are safe from any goroutine
//   - the options are fixed at construction
//   - the id generator and the sequence clock must be safe for concurrent
//     use when the engine is shared (the defaults are)
type Engine struct {
	maxStates      int
	timeout        time.Duration
	clockReduction bool
	maxFindings    int
	ids            IDGenerator
	clock          *Clock
}

// Option configures an Engine.
type Option func(*Engine)

// WithStateLimit sets the maximum number of stored states per query.
// Zero means unlimited.
//
// Default: DefaultMaxStates
func WithStateLimit(n int) Option {
	return func(e *Engine) {
		e.maxStates = n
	}
}

// WithTimeout bounds the wall-clock time of one query. Zero means the
// caller's context alone decides.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithClockReduction turns removal of unused and equivalent clocks on or
// off. It is on by default.
func WithClockReduction(on bool) Option {
	return func(e *Engine) {
		e.clockReduction = on
	}
}

// WithMaxFindings sets how many nondeterminism findings a determinism
// query reports.
func WithMaxFindings(n int) Option {
	return func(e *Engine) {
		e.maxFindings = n
	}
}

// WithIDGenerator replaces the UUIDv7 evaluation ids.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithClock replaces the sequence clock, for example to continue the
// numbering of an existing evaluation log.
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// New creates an engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		maxStates:      DefaultMaxStates,
		clockReduction: true,
		maxFindings:    DefaultMaxFindings,
		ids:            UUIDv7Generator{},
		clock:          NewClock(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs one query against m.
//
// A query that cannot be evaluated returns a *QueryError. A failing or
// inconclusive check is a Result with a nil error.
func (e *Engine) Evaluate(ctx context.Context, m *model.Model, q query.Query) (Result, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	res := Result{
		ID:        e.ids.Generate(),
		Seq:       e.clock.Next(),
		Query:     q.Text(),
		Kind:      string(q.Kind()),
		ModelHash: m.Hash(),
	}
	ctx = ctxlog.With(ctx, "evaluation_id", res.ID, "query", res.Query)
	logger := ctxlog.FromContext(ctx)

	start := time.Now()
	out, component, err := e.dispatch(ctx, m, q)
	res.DurationMS = time.Since(start).Milliseconds()
	if err != nil {
		if out, err = inconclusive(ctx, err); err != nil {
			err = asQueryError(err)
			logger.Warn("query rejected", "error", err)
			return Result{}, err
		}
	}

	res.Outcome = out.Outcome
	res.Success = out.Success()
	res.Witness = out.Witness
	res.Diagnostics = out.Diagnostics
	res.StatesExplored = out.States
	res.Component = component

	logger.Debug("exploration finished", "states", res.StatesExplored, "duration_ms", res.DurationMS)
	logger.Info("query evaluated", "outcome", res.Outcome.String())
	return res, nil
}

// EvaluateAll runs queries in order. A get-component or prune query with
// save-as adds its result to the model seen by the queries after it; m
// itself is never modified.
//
// Evaluation stops at the first error. The results so far are returned
// with it.
func (e *Engine) EvaluateAll(ctx context.Context, m *model.Model, qs []query.Query) ([]Result, error) {
	results := make([]Result, 0, len(qs))
	for i, q := range qs {
		res, err := e.Evaluate(ctx, m, q)
		if err != nil {
			return results, fmt.Errorf("query %d: %w", i+1, err)
		}
		results = append(results, res)

		if m, err = Extend(m, q, res); err != nil {
			return results, fmt.Errorf("query %d: %w", i+1, err)
		}
	}
	return results, nil
}

// Extend returns the model seen by the queries after q. It is m itself
// unless q is a get-component or prune query with save-as that produced
// an automaton.
func Extend(m *model.Model, q query.Query, res Result) (*model.Model, error) {
	name := saveAs(q)
	if name == "" || res.Component == nil {
		return m, nil
	}
	next, err := m.With(res.Component)
	if err != nil {
		return m, queryErrorf(ErrSaveAs, nil, "save-as %s: %v", name, err)
	}
	return next, nil
}

func saveAs(q query.Query) string {
	switch v := q.(type) {
	case *query.GetComponent:
		return v.SaveAs
	case *query.Prune:
		return v.SaveAs
	}
	return ""
}

// inconclusive converts exhausted limits and cancellation into an
// inconclusive result. Other errors pass through.
func inconclusive(ctx context.Context, err error) (check.Result, error) {
	if explore.IsLimitError(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		ctxlog.FromContext(ctx).Debug("query interrupted", "error", err)
		return check.Result{Outcome: check.OutcomeInconclusive, Diagnostics: []string{err.Error()}}, nil
	}
	return check.Result{}, err
}

func (e *Engine) checkOptions() check.Options {
	return check.Options{MaxStates: e.maxStates, MaxFindings: e.maxFindings}
}

func (e *Engine) buildOptions(q query.Query) system.Options {
	return system.Options{
		ClockReduction: e.clockReduction && !mentionsClocks(q),
		Prune:          check.Pruner(e.checkOptions()),
	}
}

func (e *Engine) dispatch(ctx context.Context, m *model.Model, q query.Query) (check.Result, *model.Automaton, error) {
	opts := e.checkOptions()
	switch v := q.(type) {
	case *query.Refinement:
		systems, err := system.BuildAll(ctx, m, e.buildOptions(q), Plan(v.Impl), Plan(v.Spec))
		if err != nil {
			return check.Result{}, nil, err
		}
		res, err := check.Refinement(ctx, systems[0], systems[1], opts)
		return res, nil, err

	case *query.Consistency, *query.Specification, *query.Implementation, *query.Determinism:
		sys, err := system.Build(ctx, m, Plan(query.Operands(q)[0]), e.buildOptions(q))
		if err != nil {
			return check.Result{}, nil, err
		}
		var res check.Result
		switch q.(type) {
		case *query.Implementation:
			res, err = check.Implementation(ctx, sys, opts)
		case *query.Determinism:
			res, err = check.Determinism(ctx, sys, opts)
		case *query.Specification:
			res, err = check.Consistency(ctx, sys, opts)
			if err == nil && res.Success() {
				res, err = check.Determinism(ctx, sys, opts)
			}
		default:
			res, err = check.Consistency(ctx, sys, opts)
		}
		return res, nil, err

	case *query.Reachability:
		sys, err := system.Build(ctx, m, Plan(v.System), e.buildOptions(q))
		if err != nil {
			return check.Result{}, nil, err
		}
		var start *check.Predicate
		if v.Start != nil {
			p, err := ResolvePredicate(sys, v.Start)
			if err != nil {
				return check.Result{}, nil, err
			}
			start = &p
		}
		target, err := ResolvePredicate(sys, v.Target)
		if err != nil {
			return check.Result{}, nil, err
		}
		res, err := check.Reachability(ctx, sys, start, target, opts)
		return res, nil, err

	case *query.GetComponent:
		return e.materialize(ctx, m, q, Plan(v.System), v.System.String(), v.SaveAs)

	case *query.Prune:
		return e.materialize(ctx, m, q, system.PruneOf(Plan(v.System)), v.System.String(), v.SaveAs)

	default:
		return check.Result{}, nil, queryErrorf(ErrUnsupportedQuery, nil, "unsupported query %T", q)
	}
}

// materialize flattens the system of a get-component or prune query. The
// automaton is named after save-as, or after the expression.
func (e *Engine) materialize(ctx context.Context, m *model.Model, q query.Query, plan *system.Plan, expr, name string) (check.Result, *model.Automaton, error) {
	sys, err := system.Build(ctx, m, plan, e.buildOptions(q))
	if err != nil {
		return check.Result{}, nil, err
	}
	if name == "" {
		name = expr
	}
	a, err := system.Materialize(sys, name)
	var ce *system.CompositionError
	if errors.As(err, &ce) && ce.Code == system.ErrNoInitial {
		return check.Result{Outcome: check.OutcomeFailure, Diagnostics: []string{ce.Message}}, nil, nil
	}
	if err != nil {
		return check.Result{}, nil, err
	}
	return check.Result{Outcome: check.OutcomeSuccess, States: len(a.Locations)}, a, nil
}
