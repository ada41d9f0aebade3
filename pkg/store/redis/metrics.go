package redisstore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// StoreErrors tracks Redis store errors by operation
var StoreErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "magneto_redis_store_errors_total",
		Help: "Total number of Redis cache store errors",
	},
	[]string{"operation"}, // "get", "set", "remove", "encode", "decode"
)
