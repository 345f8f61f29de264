// Package metrics exposes Prometheus instrumentation for the client.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Reconciliation outcomes.
const (
	OutcomeApplied   = "applied"
	OutcomeDiscarded = "discarded"
	OutcomeFailed    = "failed"
)

var (
	// APIRequests counts every HTTP round trip to the backend by method and
	// response status class ("2xx", "4xx", ..., or "error" for transport failures).
	APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zaman_api_requests_total",
		Help: "Backend HTTP requests by method and status class.",
	}, []string{"method", "status"})

	// APIRequestDuration observes backend round-trip latency per method.
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "zaman_api_request_seconds",
		Help:    "Backend HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	// Reconciliations counts reconcile attempts by outcome.
	Reconciliations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zaman_reconciliations_total",
		Help: "Aim reconciliations by outcome (applied, discarded, failed).",
	}, []string{"outcome"})

	// OptimisticApplies counts optimistic ledger mutations by transaction kind.
	OptimisticApplies = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zaman_optimistic_applies_total",
		Help: "Optimistic store mutations by transaction kind.",
	}, []string{"kind"})
)

// Handler returns an HTTP handler serving the default Prometheus registry,
// for programs embedding this client that want to scrape it.
func Handler() http.Handler {
	return promhttp.Handler()
}
