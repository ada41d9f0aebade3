// Package metrics documents the Prometheus metrics exported by magneto and
// exposes them over HTTP. Metrics are defined in their own packages (cache,
// mediary, store/...) to keep those packages independent.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer package-level metrics are registered with via promauto.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer Handler serves from.
var Gatherer = prometheus.DefaultGatherer

// Handler returns an HTTP handler serving all registered metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Query Cache Metrics (pkg/cache):
//   - magneto_cache_hits_total{cache} (Counter): Cache hits by query cache
//   - magneto_cache_misses_total{cache} (Counter): Cache misses by query cache
//   - magneto_cache_writes_total{cache} (Counter): Entries written
//   - magneto_cache_evictions_total{cache} (Counter): Explicit evictions
//   - magneto_cache_errors_total{cache, operation} (Counter): Store errors (lookup, store, evict)
//
// Operation Metrics (pkg/mediary, MetricsDecorator):
//   - magneto_operations_total{operation, kind, status} (Counter): Executions by status (success, error, cancelled)
//   - magneto_operation_duration_seconds{operation, kind} (Histogram): Execution duration
//
// Store Metrics (pkg/store/...):
//   - magneto_redis_store_errors_total{operation} (Counter): Redis store errors
//   - magneto_pg_store_errors_total{operation} (Counter): PostgreSQL store errors
//   - magneto_store_breaker_transitions_total{name, from, to} (Counter): Circuit breaker state changes
//
// Upstream Metrics (internal/jsonplaceholder):
//   - magneto_upstream_requests_total{method, status} (Counter): Upstream HTTP requests
//   - magneto_upstream_request_duration_seconds{method} (Histogram): Upstream request duration, retries included
//   - magneto_upstream_retries_total{error_class} (Counter): Upstream retry attempts
//   - magneto_upstream_retry_exhausted_total{error_class} (Counter): Requests that failed after all attempts
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate per query cache
//   sum by (cache) (rate(magneto_cache_hits_total[5m])) /
//   (sum by (cache) (rate(magneto_cache_hits_total[5m])) + sum by (cache) (rate(magneto_cache_misses_total[5m])))
//
//   # Operation Error Rate
//   sum by (operation) (rate(magneto_operations_total{status="error"}[5m]))
//
//   # P95 Operation Latency
//   histogram_quantile(0.95, sum by (le, operation) (rate(magneto_operation_duration_seconds_bucket[5m])))
//
//   # Store Errors
//   rate(magneto_cache_errors_total[5m]) > 0
