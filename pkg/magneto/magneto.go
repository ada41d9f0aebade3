// Package magneto is a facade over mediary that resolves the context of each
// query or command from a Locator, so callers only pass the operation.
//
//	locator := magneto.NewLocator()
//	magneto.Provide(locator, client)
//	mg := magneto.New(mediary.New(mediary.WithRegistry(registry)), locator)
//
//	post, err := magneto.QueryCached(mg, &posts.PostByID{ID: 1}, cache.Default)
package magneto

import (
	"context"

	"github.com/Sternrassler/magneto/pkg/cache"
	"github.com/Sternrassler/magneto/pkg/mediary"
)

// Magneto dispatches operations through a Mediary with contexts taken from a
// Locator. It is safe for concurrent use.
type Magneto struct {
	mediary *mediary.Mediary
	locator *Locator
}

// New creates a facade. A nil m uses mediary.New(); a nil l uses an empty locator.
func New(m *mediary.Mediary, l *Locator) *Magneto {
	if m == nil {
		m = mediary.New()
	}
	if l == nil {
		l = NewLocator()
	}
	return &Magneto{mediary: m, locator: l}
}

// Mediary returns the underlying mediary.
func (mg *Magneto) Mediary() *mediary.Mediary {
	return mg.mediary
}

// Locator returns the context locator.
func (mg *Magneto) Locator() *Locator {
	return mg.locator
}

// facade checks the arguments the mediary cannot check before a context is
// resolved.
func facade(mg *Magneto, arg string, operation any) (*mediary.Mediary, *Locator, error) {
	if mg == nil {
		return nil, nil, &mediary.ArgumentError{Arg: "magneto"}
	}
	if cache.IsNil(operation) {
		return nil, nil, &mediary.ArgumentError{Arg: arg}
	}
	return mg.mediary, mg.locator, nil
}

// Query executes an uncached query.
func Query[C, R any](mg *Magneto, query mediary.SyncQuery[C, R]) (R, error) {
	var zero R
	m, l, err := facade(mg, "query", query)
	if err != nil {
		return zero, err
	}
	c, err := Resolve[C](l)
	if err != nil {
		return zero, err
	}
	return mediary.Query(m, query, c)
}

// QueryAsync executes an uncached query.
func QueryAsync[C, R any](ctx context.Context, mg *Magneto, query mediary.AsyncQuery[C, R]) (R, error) {
	var zero R
	m, l, err := facade(mg, "query", query)
	if err != nil {
		return zero, err
	}
	c, err := Resolve[C](l)
	if err != nil {
		return zero, err
	}
	return mediary.QueryAsync(ctx, m, query, c)
}

// QueryCached executes a cached query.
func QueryCached[C, O, R any](mg *Magneto, query mediary.SyncCachedQuery[C, O, R], option cache.Option) (R, error) {
	var zero R
	m, l, err := facade(mg, "query", query)
	if err != nil {
		return zero, err
	}
	c, err := Resolve[C](l)
	if err != nil {
		return zero, err
	}
	return mediary.QueryCached(m, query, c, option)
}

// QueryCachedAsync executes a cached query.
func QueryCachedAsync[C, O, R any](ctx context.Context, mg *Magneto, query mediary.AsyncCachedQuery[C, O, R], option cache.Option) (R, error) {
	var zero R
	m, l, err := facade(mg, "query", query)
	if err != nil {
		return zero, err
	}
	c, err := Resolve[C](l)
	if err != nil {
		return zero, err
	}
	return mediary.QueryCachedAsync(ctx, m, query, c, option)
}

// QueryTransformed executes a cached query and transforms its result.
func QueryTransformed[C, O, I, R any](mg *Magneto, query mediary.SyncTransformedQuery[C, O, I, R], option cache.Option) (R, error) {
	var zero R
	m, l, err := facade(mg, "query", query)
	if err != nil {
		return zero, err
	}
	c, err := Resolve[C](l)
	if err != nil {
		return zero, err
	}
	return mediary.QueryTransformed(m, query, c, option)
}

// QueryTransformedAsync executes a cached query and transforms its result.
func QueryTransformedAsync[C, O, I, R any](ctx context.Context, mg *Magneto, query mediary.AsyncTransformedQuery[C, O, I, R], option cache.Option) (R, error) {
	var zero R
	m, l, err := facade(mg, "query", query)
	if err != nil {
		return zero, err
	}
	c, err := Resolve[C](l)
	if err != nil {
		return zero, err
	}
	return mediary.QueryTransformedAsync(ctx, m, query, c, option)
}

// Command executes a command.
func Command[C any](mg *Magneto, command mediary.SyncCommand[C]) error {
	m, l, err := facade(mg, "command", command)
	if err != nil {
		return err
	}
	c, err := Resolve[C](l)
	if err != nil {
		return err
	}
	return mediary.Command(m, command, c)
}

// CommandAsync executes a command.
func CommandAsync[C any](ctx context.Context, mg *Magneto, command mediary.AsyncCommand[C]) error {
	m, l, err := facade(mg, "command", command)
	if err != nil {
		return err
	}
	c, err := Resolve[C](l)
	if err != nil {
		return err
	}
	return mediary.CommandAsync(ctx, m, command, c)
}

// CommandResult executes a command that returns a result.
func CommandResult[C, R any](mg *Magneto, command mediary.SyncResultCommand[C, R]) (R, error) {
	var zero R
	m, l, err := facade(mg, "command", command)
	if err != nil {
		return zero, err
	}
	c, err := Resolve[C](l)
	if err != nil {
		return zero, err
	}
	return mediary.CommandResult(m, command, c)
}

// CommandResultAsync executes a command that returns a result.
func CommandResultAsync[C, R any](ctx context.Context, mg *Magneto, command mediary.AsyncResultCommand[C, R]) (R, error) {
	var zero R
	m, l, err := facade(mg, "command", command)
	if err != nil {
		return zero, err
	}
	c, err := Resolve[C](l)
	if err != nil {
		return zero, err
	}
	return mediary.CommandResultAsync(ctx, m, command, c)
}

// EvictCachedResult removes the result cached for query.
func EvictCachedResult[C, O, R any](mg *Magneto, query mediary.SyncCachedQuery[C, O, R]) error {
	m, _, err := facade(mg, "query", query)
	if err != nil {
		return err
	}
	return mediary.EvictCachedResult(m, query)
}

// EvictCachedResultAsync removes the result cached for query.
func EvictCachedResultAsync[C, O, R any](ctx context.Context, mg *Magneto, query mediary.AsyncCachedQuery[C, O, R]) error {
	m, _, err := facade(mg, "query", query)
	if err != nil {
		return err
	}
	return mediary.EvictCachedResultAsync(ctx, m, query)
}

// UpdateCachedResult replaces the result cached for query with value.
func UpdateCachedResult[C, O, R any](mg *Magneto, query mediary.SyncCachedQuery[C, O, R], value R) error {
	m, l, err := facade(mg, "query", query)
	if err != nil {
		return err
	}
	c, err := Resolve[C](l)
	if err != nil {
		return err
	}
	return mediary.UpdateCachedResult(m, query, c, value)
}

// UpdateCachedResultAsync replaces the result cached for query with value.
func UpdateCachedResultAsync[C, O, R any](ctx context.Context, mg *Magneto, query mediary.AsyncCachedQuery[C, O, R], value R) error {
	m, l, err := facade(mg, "query", query)
	if err != nil {
		return err
	}
	c, err := Resolve[C](l)
	if err != nil {
		return err
	}
	return mediary.UpdateCachedResultAsync(ctx, m, query, c, value)
}
