package cache

import "context"

// Nop is the query cache used when no store is registered for an entry
// options type. It never reads, writes or evicts, so every GetOrPopulate
// executes the query. The zero value is ready to use and carries no state.
type Nop[O any] struct{}

var _ QueryCache[struct{}] = Nop[struct{}]{}

// Lookup always misses.
func (Nop[O]) Lookup(context.Context, string, any) (bool, error) {
	return false, nil
}

// Store discards the value without calling getOptions.
func (Nop[O]) Store(context.Context, string, any, func() O) error {
	return nil
}

// Evict does nothing.
func (Nop[O]) Evict(context.Context, string) error {
	return nil
}
