package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/xid"
	"github.com/shirou/gopsutil/process"

	"github.com/roach88/tioga/internal/ctxlog"
	"github.com/roach88/tioga/internal/engine"
	"github.com/roach88/tioga/internal/model"
	"github.com/roach88/tioga/internal/query"
	"github.com/roach88/tioga/internal/store"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-Id"

// maxBody caps the size of a query request.
const maxBody = 1 << 20

// Server serves one loaded model.
type Server struct {
	model   *model.Model
	engine  *engine.Engine
	store   *store.Store
	workers chan struct{}
	timeout time.Duration
	logger  *slog.Logger
	router  *mux.Router
}

// Option configures a Server.
type Option func(*Server)

// WithStore records every evaluation in st.
func WithStore(st *store.Store) Option {
	return func(s *Server) {
		s.store = st
	}
}

// WithWorkers bounds the number of requests evaluating at once.
//
// Default: runtime.NumCPU()
func WithWorkers(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.workers = make(chan struct{}, n)
		}
	}
}

// WithRequestTimeout bounds a whole query request, waiting for a worker
// included. Zero means no bound beyond the engine's own timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.timeout = d
	}
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// New creates a server for m.
func New(m *model.Model, eng *engine.Engine, opts ...Option) *Server {
	s := &Server{
		model:   m,
		engine:  eng,
		workers: make(chan struct{}, runtime.NumCPU()),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := mux.NewRouter()
	r.Use(s.requestID)
	r.HandleFunc("/api/query", s.query).Methods(http.MethodPost)
	r.HandleFunc("/api/components", s.components).Methods(http.MethodGet)
	r.HandleFunc("/api/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/api/resource", s.resource).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	s.router = r
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve accepts connections on l until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(l)
	}()
	s.logger.Info("service listening", "addr", l.Addr().String(), "model_hash", s.model.Hash())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, l)
}

// requestID tags the request with an id and a logger carrying it.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = xid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)

		logger := s.logger.With("request_id", id)
		ctx := ctxlog.WithLogger(r.Context(), logger)
		logger.Debug("request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// QueryRequest is the body of POST /api/query.
type QueryRequest struct {
	// Query holds one or more queries separated by ';'.
	Query string `json:"query"`

	// Components optionally names the automata the caller expects the
	// model to hold. Unknown names are rejected; known ones restrict
	// nothing.
	Components []string `json:"components,omitempty"`
}

func (s *Server) query(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	logger := ctxlog.FromContext(ctx)

	var req QueryRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrBadRequest, fmt.Sprintf("invalid request body: %v", err), nil)
		return
	}
	for _, name := range req.Components {
		if _, ok := s.model.Automaton(name); !ok {
			writeError(w, http.StatusBadRequest, engine.ErrUnknownComponent,
				fmt.Sprintf("no automaton %q in the model", name), nil)
			return
		}
	}

	qs, err := query.Parse(req.Query)
	if err != nil {
		queryErrors.WithLabelValues(query.ErrSyntax).Inc()
		writeError(w, http.StatusBadRequest, query.ErrSyntax, err.Error(), nil)
		return
	}
	if len(qs) == 0 {
		writeError(w, http.StatusBadRequest, ErrBadRequest, "no query given", nil)
		return
	}

	select {
	case s.workers <- struct{}{}:
	case <-ctx.Done():
		writeError(w, http.StatusServiceUnavailable, ErrOverloaded, "no worker available", nil)
		return
	}
	inflight.Inc()
	results, err := s.engine.EvaluateAll(ctx, s.model, qs)
	inflight.Dec()
	<-s.workers

	for _, res := range results {
		observe(res)
	}
	s.record(ctx, results)

	if err != nil {
		code := codeOf(err)
		queryErrors.WithLabelValues(code).Inc()
		logger.Warn("query rejected", "error", err)
		writeError(w, http.StatusUnprocessableEntity, code, err.Error(), results)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// record writes results to the store, if there is one. The evaluations
// already happened, so a write failure is logged and not reported.
func (s *Server) record(ctx context.Context, results []engine.Result) {
	if s.store == nil || len(results) == 0 {
		return
	}
	if err := s.store.WriteEvaluations(context.WithoutCancel(ctx), s.model, results); err != nil {
		ctxlog.FromContext(ctx).Error("recording evaluations", "error", err)
	}
}

// ComponentInfo describes one automaton of the model.
type ComponentInfo struct {
	Name      string   `json:"name"`
	Clocks    []string `json:"clocks"`
	Inputs    []string `json:"inputs"`
	Outputs   []string `json:"outputs"`
	Locations int      `json:"locations"`
	Edges     int      `json:"edges"`
}

func (s *Server) components(w http.ResponseWriter, _ *http.Request) {
	out := make([]ComponentInfo, 0, s.model.Len())
	for _, name := range s.model.Names() {
		a, _ := s.model.Automaton(name)
		out = append(out, ComponentInfo{
			Name:      a.Name,
			Clocks:    nonNil(a.Clocks),
			Inputs:    nonNil(a.Inputs),
			Outputs:   nonNil(a.Outputs),
			Locations: len(a.Locations),
			Edges:     len(a.Edges),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

type healthRsp struct {
	Status    string `json:"status"`
	ModelHash string `json:"model_hash"`
	Automata  int    `json:"automata"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthRsp{Status: "ok", ModelHash: s.model.Hash(), Automata: s.model.Len()})
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (s *Server) resource(w http.ResponseWriter, r *http.Request) {
	rsp, err := processResources()
	if err != nil {
		ctxlog.FromContext(r.Context()).Error("reading process resources", "error", err)
		writeError(w, http.StatusInternalServerError, ErrInternal, err.Error(), nil)
		return
	}
	writeJSON(w, http.StatusOK, rsp)
}

func processResources() (resourceRsp, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return resourceRsp{}, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return resourceRsp{}, err
	}
	mem, err := p.MemoryInfo()
	if err != nil {
		return resourceRsp{}, err
	}
	return resourceRsp{CPUPercent: cpuPercent, MemorySize: mem.RSS}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string, results []engine.Result) {
	writeJSON(w, status, errorResponse{Error: APIError{Code: code, Message: message}, Results: results})
}
