package breaker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// StateTransitions tracks circuit breaker state changes
var StateTransitions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "magneto_store_breaker_transitions_total",
		Help: "Total number of cache store circuit breaker state transitions",
	},
	[]string{"name", "from", "to"},
)
