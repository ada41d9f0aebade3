package mediary

import (
	"github.com/Sternrassler/magneto/pkg/cache"
)

// Mediary dispatches queries and commands to their contexts. It threads one
// decorator through every execution and resolves query caches from a
// registry by entry options type.
//
// A Mediary holds no per-call state and is safe for concurrent use.
type Mediary struct {
	decorator Decorator
	registry  *cache.Registry
}

// Option configures a Mediary.
type Option func(*Mediary)

// WithDecorator sets the decorator applied to every execution.
// Use Chain to apply several.
func WithDecorator(d Decorator) Option {
	return func(m *Mediary) {
		if d != nil {
			m.decorator = d
		}
	}
}

// WithRegistry sets the query cache registry. Without one every cached query
// uses cache.Nop and always executes.
func WithRegistry(r *cache.Registry) Option {
	return func(m *Mediary) {
		m.registry = r
	}
}

// New creates a Mediary.
//
// Example:
//
//	registry, err := cache.NewRegistry(
//		cache.Bind[memory.EntryOptions](cache.NewQueryCache[memory.EntryOptions](memStore)),
//	)
//	if err != nil {
//		return err
//	}
//	m := mediary.New(
//		mediary.WithRegistry(registry),
//		mediary.WithDecorator(mediary.NewLoggingDecorator(logger)),
//	)
func New(opts ...Option) *Mediary {
	m := &Mediary{decorator: NopDecorator{}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Decorator returns the decorator applied to every execution.
func (m *Mediary) Decorator() Decorator {
	return m.decorator
}

// Registry returns the query cache registry, possibly nil.
func (m *Mediary) Registry() *cache.Registry {
	return m.registry
}
