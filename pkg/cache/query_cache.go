package cache

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// QueryCache reads and writes cached query results for one entry options
// type O. Use NewQueryCache to adapt a Store, or Nop when caching is disabled.
type QueryCache[O any] interface {
	// Lookup decodes the entry cached under key into dst (a *Entry[T]).
	Lookup(ctx context.Context, key string, dst any) (bool, error)

	// Store writes value (an Entry[T]) under key. getOptions is only called
	// when a write actually happens.
	Store(ctx context.Context, key string, value any, getOptions func() O) error

	// Evict removes any entry cached under key.
	Evict(ctx context.Context, key string) error
}

// QueryCacheOption configures a StoreCache.
type QueryCacheOption func(*queryCacheConfig)

type queryCacheConfig struct {
	name   string
	logger zerolog.Logger
}

// WithName sets the cache name used in metrics and logs.
// Defaults to the entry options type name.
func WithName(name string) QueryCacheOption {
	return func(c *queryCacheConfig) { c.name = name }
}

// WithLogger sets the logger. Defaults to the global zerolog logger.
func WithLogger(logger zerolog.Logger) QueryCacheOption {
	return func(c *queryCacheConfig) { c.logger = logger }
}

// StoreCache is a QueryCache backed by a Store.
type StoreCache[O any] struct {
	store  Store[O]
	name   string
	logger zerolog.Logger
}

var _ QueryCache[struct{}] = (*StoreCache[struct{}])(nil)

// NewQueryCache creates a query cache on top of store.
func NewQueryCache[O any](store Store[O], opts ...QueryCacheOption) *StoreCache[O] {
	if store == nil {
		panic(ErrNilStore.Error())
	}

	var zero O
	cfg := queryCacheConfig{
		name:   TypeName(zero),
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &StoreCache[O]{
		store:  store,
		name:   cfg.name,
		logger: cfg.logger.With().Str("component", "query-cache").Str("cache", cfg.name).Logger(),
	}
}

// Name returns the cache name.
func (c *StoreCache[O]) Name() string {
	return c.name
}

// Lookup reads an entry from the store.
func (c *StoreCache[O]) Lookup(ctx context.Context, key string, dst any) (bool, error) {
	found, err := c.store.Get(ctx, key, dst)
	if err != nil {
		CacheErrors.WithLabelValues(c.name, "lookup").Inc()
		c.logger.Warn().Err(err).Str("key", key).Msg("Cache lookup failed")
		return false, fmt.Errorf("cache lookup %q: %w", key, err)
	}

	if !found {
		CacheMisses.WithLabelValues(c.name).Inc()
		c.logger.Debug().Str("key", key).Msg("Cache miss")
		return false, nil
	}

	CacheHits.WithLabelValues(c.name).Inc()
	c.logger.Debug().Str("key", key).Msg("Cache hit")
	return true, nil
}

// Store writes an entry to the store.
func (c *StoreCache[O]) Store(ctx context.Context, key string, value any, getOptions func() O) error {
	var opts O
	if getOptions != nil {
		opts = getOptions()
	}

	if err := c.store.Set(ctx, key, value, opts); err != nil {
		CacheErrors.WithLabelValues(c.name, "store").Inc()
		c.logger.Warn().Err(err).Str("key", key).Msg("Cache write failed")
		return fmt.Errorf("cache store %q: %w", key, err)
	}

	CacheWrites.WithLabelValues(c.name).Inc()
	c.logger.Debug().Str("key", key).Msg("Cached result")
	return nil
}

// Evict removes an entry from the store.
func (c *StoreCache[O]) Evict(ctx context.Context, key string) error {
	if err := c.store.Remove(ctx, key); err != nil {
		CacheErrors.WithLabelValues(c.name, "evict").Inc()
		c.logger.Warn().Err(err).Str("key", key).Msg("Cache eviction failed")
		return fmt.Errorf("cache evict %q: %w", key, err)
	}

	CacheEvictions.WithLabelValues(c.name).Inc()
	c.logger.Debug().Str("key", key).Msg("Evicted cached result")
	return nil
}

// GetOrPopulate returns the result cached under info's key or, on a miss,
// runs execute and caches its result.
//
// With Default the cache is read first. With Refresh the read is skipped and
// execute always runs. In both cases the result is written only when it is
// non-nil or info.CacheNullResults is set. Errors from execute are returned
// unchanged and nothing is written. If ctx is done once execute returns, the
// result is discarded and ctx.Err() is returned.
func GetOrPopulate[T, O any](
	ctx context.Context,
	qc QueryCache[O],
	execute func(ctx context.Context) (T, error),
	info Info,
	getOptions func() O,
	option Option,
) (T, error) {
	var zero T
	if qc == nil {
		qc = Nop[O]{}
	}

	key := info.Key()

	if option != Refresh {
		var entry Entry[T]
		found, err := qc.Lookup(ctx, key, &entry)
		if err != nil {
			return zero, err
		}
		if found {
			return entry.Value, nil
		}
	}

	result, err := execute(ctx)
	if err != nil {
		return zero, err
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	if IsNil(result) && !info.CacheNullResults {
		return result, nil
	}

	if err := qc.Store(ctx, key, NewEntry(result), getOptions); err != nil {
		return zero, err
	}

	return result, nil
}

// Evict removes the result cached under key. Evicting an absent key is a no-op.
func Evict[O any](ctx context.Context, qc QueryCache[O], key string) error {
	if qc == nil {
		return nil
	}
	return qc.Evict(ctx, key)
}

// Update overwrites the result cached under key with a value that is already
// known, for example after a command changed it. It never executes the query.
func Update[T, O any](ctx context.Context, qc QueryCache[O], key string, value T, getOptions func() O) error {
	if qc == nil {
		return nil
	}
	return qc.Store(ctx, key, NewEntry(value), getOptions)
}
