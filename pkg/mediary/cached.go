package mediary

import (
	"context"

	"github.com/Sternrassler/magneto/pkg/cache"
)

// cacheInfo returns the cache configuration of query: cache.NewInfo defaults,
// adjusted by ConfigureCache when query implements CacheConfigurer.
func cacheInfo(query any) cache.Info {
	info := cache.NewInfo(query)
	if c, ok := query.(CacheConfigurer); ok {
		c.ConfigureCache(&info)
	}
	return info
}

// executeCached runs the get-or-populate cycle shared by every cached query
// shape. compute is already decorated; transform runs after every lookup,
// hit or miss, and its output is never cached.
func executeCached[C, O, I, R any](
	ctx context.Context,
	m *Mediary,
	query Cacheable[C, O],
	c C,
	compute func(ctx context.Context) (I, error),
	transform func(ctx context.Context, intermediate I) (R, error),
	option cache.Option,
) (R, error) {
	qc := cache.Resolve[O](m.registry)
	getOptions := func() O { return query.CacheEntryOptions(c) }

	intermediate, err := cache.GetOrPopulate(ctx, qc, compute, cacheInfo(query), getOptions, option)
	if err != nil {
		var zero R
		return zero, err
	}
	return transform(ctx, intermediate)
}

func identity[T any](_ context.Context, v T) (T, error) {
	return v, nil
}

// syncCompute decorates a synchronous execution with Decorate.
func syncCompute[R any](m *Mediary, op Operation, execute func() (R, error)) func(context.Context) (R, error) {
	return func(context.Context) (R, error) {
		return unwrap[R](m.decorator.Decorate(op, func() (any, error) {
			return execute()
		}))
	}
}

// asyncCompute decorates an asynchronous execution with DecorateAsync.
func asyncCompute[R any](m *Mediary, op Operation, execute func(ctx context.Context) (R, error)) func(context.Context) (R, error) {
	return func(ctx context.Context) (R, error) {
		return unwrap[R](m.decorator.DecorateAsync(ctx, op, func(ctx context.Context) (any, error) {
			return execute(ctx)
		}))
	}
}

func evictCached[C, O any](ctx context.Context, m *Mediary, query Cacheable[C, O]) error {
	return cache.Evict(ctx, cache.Resolve[O](m.registry), cacheInfo(query).Key())
}

func updateCached[C, O, R any](ctx context.Context, m *Mediary, query Cacheable[C, O], c C, value R) error {
	getOptions := func() O { return query.CacheEntryOptions(c) }
	return cache.Update(ctx, cache.Resolve[O](m.registry), cacheInfo(query).Key(), value, getOptions)
}
