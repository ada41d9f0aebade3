package magneto

import (
	"errors"
	"fmt"
	"sync"

	"github.com/goccy/go-reflect"
)

// ErrContextNotFound indicates no context was provided for a context type.
var ErrContextNotFound = errors.New("context not found")

// Locator maps context types to the contexts operations execute against.
// Contexts are provided explicitly at startup, either as values or as
// factories called on every resolution.
type Locator struct {
	mu        sync.RWMutex
	providers map[reflect.Type]func() (any, error)
}

// NewLocator creates an empty locator.
func NewLocator() *Locator {
	return &Locator{providers: make(map[reflect.Type]func() (any, error))}
}

// Provide registers c as the context for type C, replacing any earlier one.
func Provide[C any](l *Locator, c C) {
	l.set(contextKey[C](), func() (any, error) { return c, nil })
}

// ProvideFunc registers a factory for contexts of type C. The factory is
// called on every resolution, e.g. to hand out request-scoped clients.
func ProvideFunc[C any](l *Locator, factory func() (C, error)) {
	l.set(contextKey[C](), func() (any, error) { return factory() })
}

// Resolve returns the context provided for type C. A provider that yields a
// nil interface resolves to ErrContextNotFound rather than a zero context.
func Resolve[C any](l *Locator) (C, error) {
	var zero C
	if l == nil {
		return zero, fmt.Errorf("%w: %s", ErrContextNotFound, contextKey[C]().Elem())
	}

	l.mu.RLock()
	provider, ok := l.providers[contextKey[C]()]
	l.mu.RUnlock()
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrContextNotFound, contextKey[C]().Elem())
	}

	v, err := provider()
	if err != nil {
		return zero, fmt.Errorf("resolve %s: %w", contextKey[C]().Elem(), err)
	}
	c, ok := v.(C)
	if !ok {
		return zero, fmt.Errorf("%w: %s provider returned %T", ErrContextNotFound, contextKey[C]().Elem(), v)
	}
	return c, nil
}

func (l *Locator) set(key reflect.Type, provider func() (any, error)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.providers[key] = provider
}

func contextKey[C any]() reflect.Type {
	return reflect.TypeOf((*C)(nil))
}
