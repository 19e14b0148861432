// Package metrics registers the Prometheus collectors exported on /metrics.
//
// HTTP collectors are driven by the Metrics middleware. The embedding and
// alternative collectors are updated by the embedding, vectorindex and
// alternatives packages.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (IPs seen in last ~5 minutes)",
		},
	)

	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_requests_total",
			Help: "Embedding provider calls by outcome",
		},
		[]string{"provider", "outcome"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "embedding_request_duration_seconds",
			Help:    "Embedding provider latency",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"provider"},
	)

	EmbeddingZeroVectorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "embedding_zero_vectors_total",
			Help: "Catalog entries indexed with a zero vector after a provider failure",
		},
	)

	AlternativeSearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alternative_searches_total",
			Help: "Alternative lookups by strategy and outcome (ok, empty, fallback, error)",
		},
		[]string{"strategy", "outcome"},
	)

	VectorIndexEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vector_index_entries",
			Help: "Entries in the embedding index, 0 when not initialized",
		},
	)
)

// Outcome label values
const (
	OutcomeOK       = "ok"
	OutcomeEmpty    = "empty"
	OutcomeError    = "error"
	OutcomeFallback = "fallback"
)

func init() {
	prometheus.MustRegister(
		HTTPRequestTotals,
		HTTPRequestDuration,
		HTTPRequestInFlight,
		RateLimiterBucketsTotal,
		EmbeddingRequestsTotal,
		EmbeddingRequestDuration,
		EmbeddingZeroVectorsTotal,
		AlternativeSearchesTotal,
		VectorIndexEntries,
	)
}
