package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/tioga/internal/engine"
)

var (
	// queriesTotal counts evaluated queries by kind and outcome
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tioga_queries_total",
		Help: "Total evaluated queries by kind and outcome",
	}, []string{"kind", "outcome"})

	// queryErrors counts rejected queries by error code
	queryErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tioga_query_errors_total",
		Help: "Total rejected queries by error code",
	}, []string{"code"})

	// queryDuration tracks evaluation latency
	queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tioga_query_duration_seconds",
		Help:    "Query evaluation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 16), // 1ms to ~30s
	}, []string{"kind"})

	// statesExplored tracks the size of each exploration
	statesExplored = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tioga_states_explored",
		Help:    "Symbolic states stored per query",
		Buckets: prometheus.ExponentialBuckets(1, 4, 12), // 1 to ~4M
	}, []string{"kind"})

	// inflight tracks requests holding a worker
	inflight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tioga_inflight_requests",
		Help: "Query requests currently holding a worker",
	})
)

func observe(r engine.Result) {
	queriesTotal.WithLabelValues(r.Kind, r.Outcome.String()).Inc()
	queryDuration.WithLabelValues(r.Kind).Observe(float64(r.DurationMS) / 1000)
	statesExplored.WithLabelValues(r.Kind).Observe(float64(r.StatesExplored))
}
