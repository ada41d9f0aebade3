package pgstore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// StoreErrors tracks PostgreSQL store errors by operation
var StoreErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "magneto_pg_store_errors_total",
		Help: "Total number of PostgreSQL cache store errors",
	},
	[]string{"operation"}, // "get", "set", "remove", "purge", "encode", "decode"
)
