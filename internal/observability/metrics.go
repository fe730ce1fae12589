// Package observability defines the prometheus collectors shared across the
// server, the store and the background workers.
package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	storeOpDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_op_duration_seconds",
			Help:    "Duration of record store operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"op", "outcome"},
	)

	cleanupJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cleanup_jobs_total",
			Help: "Asset cleanup jobs by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	cleanupAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cleanup_attempts_total",
			Help: "Individual asset cleanup attempts by kind.",
		},
		[]string{"kind"},
	)

	searchCacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_cache_results_total",
			Help: "Search result cache lookups by outcome.",
		},
		[]string{"outcome"},
	)

	listenerUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "listener_up",
			Help: "Whether the catalog listener is currently marked running.",
		},
	)

	buildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)
)

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveStoreOp(op string, err error, durationSeconds float64) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	storeOpDurationSeconds.WithLabelValues(op, outcome).Observe(durationSeconds)
}

func ObserveCleanupJob(kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	cleanupJobsTotal.WithLabelValues(kind, outcome).Inc()
}

func IncCleanupAttempt(kind string) {
	cleanupAttemptsTotal.WithLabelValues(kind).Inc()
}

func IncSearchCacheHit()  { searchCacheResults.WithLabelValues("hit").Inc() }
func IncSearchCacheMiss() { searchCacheResults.WithLabelValues("miss").Inc() }

func SetListenerUp(up bool) {
	if up {
		listenerUp.Set(1)
		return
	}
	listenerUp.Set(0)
}

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}
