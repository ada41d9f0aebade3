// Package cache provides the caching contract used by the mediary dispatcher.
//
// It defines how cached query results are keyed, wrapped and read or written
// through an externally supplied store, without implementing a storage engine
// itself:
//
// - Deterministic cache keys from a prefix and ordered vary-by values
// - Entry wrapper so nil results can be cached explicitly
// - Store contract for external stores, parameterised by an entry options type
// - Get-or-populate choreography with Default and Refresh options
// - Evict and Update for cache maintenance after commands
// - Registry mapping entry options types to query caches, with a no-op fallback
// - Prometheus metrics for observability
//
// # Basic Usage
//
//	// Adapt a store (see pkg/store/...) and register it for its options type
//	qc := cache.NewQueryCache[memory.EntryOptions](memory.New(memory.DefaultConfig()))
//	registry, err := cache.NewRegistry(cache.Bind[memory.EntryOptions](qc))
//	if err != nil {
//		return err
//	}
//
//	// Resolve the cache for an options type; unregistered types get cache.Nop
//	qc := cache.Resolve[memory.EntryOptions](registry)
//
//	info := cache.NewInfo(query)
//	info.VaryBy = []any{query.PostID}
//
//	comments, err := cache.GetOrPopulate(ctx, qc, fetchComments, info,
//		func() memory.EntryOptions { return memory.EntryOptions{TTL: time.Minute} },
//		cache.Default)
//
// # Cache Keys
//
// Keys are built by a process-wide KeyBuilder. DefaultKeyBuilder hashes the
// vary-by values; UseKeyBuilder replaces it once, at startup:
//
//	if err := cache.UseKeyBuilder(cache.JoinKeyBuilder(".")); err != nil {
//		return err
//	}
//
// # Metrics
//
// Query caches created by NewQueryCache export Prometheus metrics:
//
//   - magneto_cache_hits_total{cache} - Cache hits
//   - magneto_cache_misses_total{cache} - Cache misses
//   - magneto_cache_writes_total{cache} - Entries written
//   - magneto_cache_evictions_total{cache} - Explicit evictions
//   - magneto_cache_errors_total{cache,operation} - Store errors
//
// # Concurrency
//
// Concurrent misses for the same key are not coalesced: each caller executes
// the query and writes its result, and the last write wins.
package cache
