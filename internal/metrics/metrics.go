package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts lookups served from the birthday cache.
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bdaycal_cache_hits_total",
			Help: "Total number of birthday lookups served from cache",
		},
	)

	// CacheMisses counts lookups that had to go upstream.
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bdaycal_cache_misses_total",
			Help: "Total number of birthday lookups that missed the cache",
		},
	)

	// CacheEvictions counts entries evicted for capacity.
	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bdaycal_cache_evictions_total",
			Help: "Total number of cache entries evicted for capacity",
		},
	)

	// FetchesTotal tracks upstream fetch outcomes by result class.
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bdaycal_upstream_fetches_total",
			Help: "Total number of upstream fetch attempts by result",
		},
		[]string{"result"},
	)

	// BreakerState reports the current circuit breaker state
	// (0 = closed, 1 = half-open, 2 = open).
	BreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bdaycal_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// BreakerTransitions counts breaker state transitions.
	BreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bdaycal_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"from", "to"},
	)
)
