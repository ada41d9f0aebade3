package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks query cache hits by cache name
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "magneto_cache_hits_total",
			Help: "Total number of query cache hits",
		},
		[]string{"cache"},
	)

	// CacheMisses tracks query cache misses by cache name
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "magneto_cache_misses_total",
			Help: "Total number of query cache misses",
		},
		[]string{"cache"},
	)

	// CacheWrites tracks entries written by cache name
	CacheWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "magneto_cache_writes_total",
			Help: "Total number of query cache writes",
		},
		[]string{"cache"},
	)

	// CacheEvictions tracks explicit evictions by cache name
	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "magneto_cache_evictions_total",
			Help: "Total number of query cache evictions",
		},
		[]string{"cache"},
	)

	// CacheErrors tracks store errors by cache name and operation
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "magneto_cache_errors_total",
			Help: "Total number of query cache store errors",
		},
		[]string{"cache", "operation"}, // "lookup", "store", "evict"
	)
)
