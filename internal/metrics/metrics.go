// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// QuoteRequests counts quote requests by endpoint and outcome.
	QuoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoquote_quote_requests_total",
			Help: "Quote requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	// ValidationIssues counts rejected request fields.
	ValidationIssues = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoquote_validation_issues_total",
			Help: "Validation issues by request field",
		},
		[]string{"field"},
	)

	// CacheLookups counts cache lookups by result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoquote_cache_lookups_total",
			Help: "Quote cache lookups by result",
		},
		[]string{"result"},
	)

	// ComputeSeconds observes engine run time.
	ComputeSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "autoquote_compute_seconds",
			Help:    "Time spent computing a quote schedule",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
		},
	)

	// TermMonths observes the requested loan terms.
	TermMonths = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "autoquote_term_months",
			Help:    "Requested loan terms in months",
			Buckets: []float64{6, 12, 24, 36, 48, 60, 72, 84},
		},
	)
)

// Outcome labels.
const (
	OutcomeOK         = "ok"
	OutcomeValidation = "validation"
	OutcomeInternal   = "internal"
)

// Cache lookup labels.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
