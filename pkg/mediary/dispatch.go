package mediary

import (
	"context"

	"github.com/Sternrassler/magneto/pkg/cache"
)

func validate(m *Mediary, arg string, operation, c any) error {
	if m == nil {
		return &ArgumentError{Arg: "mediary"}
	}
	if cache.IsNil(operation) {
		return &ArgumentError{Arg: arg}
	}
	if cache.IsNil(c) {
		return &ArgumentError{Arg: "context"}
	}
	return nil
}

func validateAsync(ctx context.Context, m *Mediary, arg string, operation, c any) error {
	if ctx == nil {
		return &ArgumentError{Arg: "ctx"}
	}
	return validate(m, arg, operation, c)
}

// Query executes an uncached query.
func Query[C, R any](m *Mediary, query SyncQuery[C, R], c C) (R, error) {
	if err := validate(m, "query", query, c); err != nil {
		var zero R
		return zero, err
	}
	op := newOperation(KindQuery, query, c)
	return unwrap[R](m.decorator.Decorate(op, func() (any, error) {
		return query.Query(c)
	}))
}

// QueryAsync executes an uncached query.
func QueryAsync[C, R any](ctx context.Context, m *Mediary, query AsyncQuery[C, R], c C) (R, error) {
	if err := validateAsync(ctx, m, "query", query, c); err != nil {
		var zero R
		return zero, err
	}
	op := newOperation(KindQuery, query, c)
	return unwrap[R](m.decorator.DecorateAsync(ctx, op, func(ctx context.Context) (any, error) {
		return query.QueryAsync(ctx, c)
	}))
}

// QueryCached executes a cached query. With cache.Default a cached result is
// returned without executing the query; with cache.Refresh the query always
// executes and its result replaces the cached one.
func QueryCached[C, O, R any](m *Mediary, query SyncCachedQuery[C, O, R], c C, option cache.Option) (R, error) {
	if err := validate(m, "query", query, c); err != nil {
		var zero R
		return zero, err
	}
	op := newOperation(KindCachedQuery, query, c)
	compute := syncCompute(m, op, func() (R, error) { return query.Query(c) })
	return executeCached(context.Background(), m, Cacheable[C, O](query), c, compute, identity[R], option)
}

// QueryCachedAsync executes a cached query. See QueryCached.
func QueryCachedAsync[C, O, R any](ctx context.Context, m *Mediary, query AsyncCachedQuery[C, O, R], c C, option cache.Option) (R, error) {
	if err := validateAsync(ctx, m, "query", query, c); err != nil {
		var zero R
		return zero, err
	}
	op := newOperation(KindCachedQuery, query, c)
	compute := asyncCompute(m, op, func(ctx context.Context) (R, error) { return query.QueryAsync(ctx, c) })
	return executeCached(ctx, m, Cacheable[C, O](query), c, compute, identity[R], option)
}

// QueryTransformed executes a cached query and transforms the cached
// intermediate result. Transform runs on every call.
func QueryTransformed[C, O, I, R any](m *Mediary, query SyncTransformedQuery[C, O, I, R], c C, option cache.Option) (R, error) {
	if err := validate(m, "query", query, c); err != nil {
		var zero R
		return zero, err
	}
	op := newOperation(KindTransformedQuery, query, c)
	compute := syncCompute(m, op, func() (I, error) { return query.Query(c) })
	transform := func(_ context.Context, intermediate I) (R, error) { return query.Transform(intermediate) }
	return executeCached(context.Background(), m, Cacheable[C, O](query), c, compute, transform, option)
}

// QueryTransformedAsync executes a cached query and transforms the cached
// intermediate result. TransformAsync runs on every call.
func QueryTransformedAsync[C, O, I, R any](ctx context.Context, m *Mediary, query AsyncTransformedQuery[C, O, I, R], c C, option cache.Option) (R, error) {
	if err := validateAsync(ctx, m, "query", query, c); err != nil {
		var zero R
		return zero, err
	}
	op := newOperation(KindTransformedQuery, query, c)
	compute := asyncCompute(m, op, func(ctx context.Context) (I, error) { return query.QueryAsync(ctx, c) })
	return executeCached(ctx, m, Cacheable[C, O](query), c, compute, query.TransformAsync, option)
}

// Command executes a command.
func Command[C any](m *Mediary, command SyncCommand[C], c C) error {
	if err := validate(m, "command", command, c); err != nil {
		return err
	}
	op := newOperation(KindCommand, command, c)
	_, err := m.decorator.Decorate(op, func() (any, error) {
		return nil, command.Command(c)
	})
	return err
}

// CommandAsync executes a command.
func CommandAsync[C any](ctx context.Context, m *Mediary, command AsyncCommand[C], c C) error {
	if err := validateAsync(ctx, m, "command", command, c); err != nil {
		return err
	}
	op := newOperation(KindCommand, command, c)
	_, err := m.decorator.DecorateAsync(ctx, op, func(ctx context.Context) (any, error) {
		return nil, command.CommandAsync(ctx, c)
	})
	return err
}

// CommandResult executes a command that returns a result.
func CommandResult[C, R any](m *Mediary, command SyncResultCommand[C, R], c C) (R, error) {
	if err := validate(m, "command", command, c); err != nil {
		var zero R
		return zero, err
	}
	op := newOperation(KindResultCommand, command, c)
	return unwrap[R](m.decorator.Decorate(op, func() (any, error) {
		return command.Command(c)
	}))
}

// CommandResultAsync executes a command that returns a result.
func CommandResultAsync[C, R any](ctx context.Context, m *Mediary, command AsyncResultCommand[C, R], c C) (R, error) {
	if err := validateAsync(ctx, m, "command", command, c); err != nil {
		var zero R
		return zero, err
	}
	op := newOperation(KindResultCommand, command, c)
	return unwrap[R](m.decorator.DecorateAsync(ctx, op, func(ctx context.Context) (any, error) {
		return command.CommandAsync(ctx, c)
	}))
}

// EvictCachedResult removes the result cached for query. The query does not
// execute; only its cache key is computed. Evicting an uncached result is a no-op.
func EvictCachedResult[C, O, R any](m *Mediary, query SyncCachedQuery[C, O, R]) error {
	if m == nil {
		return &ArgumentError{Arg: "mediary"}
	}
	if cache.IsNil(query) {
		return &ArgumentError{Arg: "query"}
	}
	return evictCached(context.Background(), m, Cacheable[C, O](query))
}

// EvictCachedResultAsync removes the result cached for query. See EvictCachedResult.
func EvictCachedResultAsync[C, O, R any](ctx context.Context, m *Mediary, query AsyncCachedQuery[C, O, R]) error {
	if ctx == nil {
		return &ArgumentError{Arg: "ctx"}
	}
	if m == nil {
		return &ArgumentError{Arg: "mediary"}
	}
	if cache.IsNil(query) {
		return &ArgumentError{Arg: "query"}
	}
	return evictCached(ctx, m, Cacheable[C, O](query))
}

// UpdateCachedResult replaces the result cached for query with value, using
// the entry options the query reports for c. The query does not execute.
func UpdateCachedResult[C, O, R any](m *Mediary, query SyncCachedQuery[C, O, R], c C, value R) error {
	if err := validate(m, "query", query, c); err != nil {
		return err
	}
	return updateCached(context.Background(), m, Cacheable[C, O](query), c, value)
}

// UpdateCachedResultAsync replaces the result cached for query with value.
// See UpdateCachedResult.
func UpdateCachedResultAsync[C, O, R any](ctx context.Context, m *Mediary, query AsyncCachedQuery[C, O, R], c C, value R) error {
	if err := validateAsync(ctx, m, "query", query, c); err != nil {
		return err
	}
	return updateCached(ctx, m, Cacheable[C, O](query), c, value)
}
