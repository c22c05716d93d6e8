// Package metrics exposes Prometheus collectors for the marketplace.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// LifecycleOps counts marketplace operations by name and outcome.
	LifecycleOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bounty_lifecycle_operations_total",
		Help: "Marketplace lifecycle operations by operation and outcome.",
	}, []string{"operation", "outcome"})

	// EscrowedVolume totals reward amounts locked into vaults.
	EscrowedVolume = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bounty_escrowed_volume_total",
		Help: "Total reward volume moved into escrow vaults.",
	})

	// ReleasedVolume totals vault amounts paid out on approval, split by
	// destination (agent or platform).
	ReleasedVolume = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bounty_released_volume_total",
		Help: "Total vault volume released on approval, by destination.",
	}, []string{"destination"})

	// HTTPRequests counts API requests by method, path, and status class.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bounty_http_requests_total",
		Help: "HTTP requests by method, route, and status.",
	}, []string{"method", "route", "status"})

	// HTTPDuration observes request latency per route.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bounty_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

// RecordOp increments the lifecycle counter for one operation result.
func RecordOp(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	LifecycleOps.WithLabelValues(operation, outcome).Inc()
}

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
