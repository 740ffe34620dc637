// Package metrics exposes Prometheus metrics for the map resolution pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripatlas_map_cache_results_total",
			Help: "Map cache lookups by tier and outcome.",
		},
		[]string{"tier", "outcome"},
	)

	providerRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripatlas_map_provider_requests_total",
			Help: "Static map provider requests by outcome.",
		},
		[]string{"outcome"},
	)

	providerDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tripatlas_map_provider_duration_seconds",
			Help:    "Duration of static map provider calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
	)

	breakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tripatlas_map_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 open, 2 half-open).",
		},
	)

	degradationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripatlas_map_degradations_total",
			Help: "Map resolutions that left the normal path, by final level.",
		},
		[]string{"level"},
	)

	warmupEntriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tripatlas_map_warmup_entries_total",
			Help: "Cache entries reloaded from durable storage by the warm-up job.",
		},
	)
)

// IncCacheHit records a lookup served by the given tier ("l1", "l2", "l3").
func IncCacheHit(tier string) {
	cacheResults.WithLabelValues(tier, "hit").Inc()
}

// IncCacheMiss records a miss at the given tier.
func IncCacheMiss(tier string) {
	cacheResults.WithLabelValues(tier, "miss").Inc()
}

// ObserveProvider records one provider call with its duration and result.
func ObserveProvider(durationSeconds float64, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	providerRequestsTotal.WithLabelValues(outcome).Inc()
	providerDurationSeconds.Observe(durationSeconds)
}

// SetBreakerState publishes the breaker state as a numeric gauge.
func SetBreakerState(state int) {
	breakerState.Set(float64(state))
}

// IncDegradation records a resolution that ended at the given level.
func IncDegradation(level string) {
	degradationsTotal.WithLabelValues(level).Inc()
}

// AddWarmupEntries records entries restored by a warm-up run.
func AddWarmupEntries(n int) {
	if n > 0 {
		warmupEntriesTotal.Add(float64(n))
	}
}
