package mediary

import (
	"context"

	"github.com/Sternrassler/magneto/pkg/cache"
)

// SyncQuery reads data from a context of type C.
type SyncQuery[C, R any] interface {
	Query(c C) (R, error)
}

// AsyncQuery reads data from a context of type C. Implementations must honour ctx.
type AsyncQuery[C, R any] interface {
	QueryAsync(ctx context.Context, c C) (R, error)
}

// SyncCommand performs a side effect against a context of type C.
type SyncCommand[C any] interface {
	Command(c C) error
}

// AsyncCommand performs a side effect against a context of type C.
type AsyncCommand[C any] interface {
	CommandAsync(ctx context.Context, c C) error
}

// SyncResultCommand performs a side effect and returns a result.
type SyncResultCommand[C, R any] interface {
	Command(c C) (R, error)
}

// AsyncResultCommand performs a side effect and returns a result.
type AsyncResultCommand[C, R any] interface {
	CommandAsync(ctx context.Context, c C) (R, error)
}

// Cacheable supplies the store-specific entry options for a cached result.
// O selects the query cache the result is read from and written to.
type Cacheable[C, O any] interface {
	CacheEntryOptions(c C) O
}

// SyncCachedQuery is a SyncQuery whose result is cached.
type SyncCachedQuery[C, O, R any] interface {
	SyncQuery[C, R]
	Cacheable[C, O]
}

// AsyncCachedQuery is an AsyncQuery whose result is cached.
type AsyncCachedQuery[C, O, R any] interface {
	AsyncQuery[C, R]
	Cacheable[C, O]
}

// SyncTransformedQuery caches an intermediate result I and transforms it into
// R on every call. The transformed value is never cached.
type SyncTransformedQuery[C, O, I, R any] interface {
	SyncCachedQuery[C, O, I]
	Transform(intermediate I) (R, error)
}

// AsyncTransformedQuery caches an intermediate result I and transforms it into
// R on every call. The transformed value is never cached.
type AsyncTransformedQuery[C, O, I, R any] interface {
	AsyncCachedQuery[C, O, I]
	TransformAsync(ctx context.Context, intermediate I) (R, error)
}

// CacheConfigurer is implemented by cached queries that customise their cache
// key or null caching. Queries without it use cache.NewInfo defaults.
type CacheConfigurer interface {
	ConfigureCache(info *cache.Info)
}

// Named is implemented by operations that report a custom name to decorators.
type Named interface {
	OperationName() string
}
