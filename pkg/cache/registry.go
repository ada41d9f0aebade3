package cache

import (
	"errors"
	"fmt"

	"github.com/goccy/go-reflect"
)

var (
	// ErrDuplicateBinding indicates two query caches were bound to the same entry options type.
	ErrDuplicateBinding = errors.New("query cache already bound for entry options type")

	// ErrNilQueryCache indicates a binding without a query cache.
	ErrNilQueryCache = errors.New("query cache cannot be nil")
)

// Binding pairs a query cache with its entry options type. Create one with Bind.
type Binding struct {
	key   reflect.Type
	name  string
	cache any
}

// Bind binds qc to the entry options type O. A nil qc, typed or not, is
// rejected by NewRegistry.
func Bind[O any](qc QueryCache[O]) Binding {
	b := Binding{
		key:  optionsKey[O](),
		name: optionsName[O](),
	}
	if !IsNil(qc) {
		b.cache = qc
	}
	return b
}

// Registry maps entry options types to query caches. It is built once by
// NewRegistry and read-only afterwards, so it is safe for concurrent use.
type Registry struct {
	caches map[reflect.Type]any
}

// NewRegistry builds a registry from bindings. Binding the same entry options
// type twice returns ErrDuplicateBinding.
func NewRegistry(bindings ...Binding) (*Registry, error) {
	r := &Registry{caches: make(map[reflect.Type]any, len(bindings))}

	for _, b := range bindings {
		if b.cache == nil {
			return nil, fmt.Errorf("%w: %s", ErrNilQueryCache, b.name)
		}
		if _, exists := r.caches[b.key]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateBinding, b.name)
		}
		r.caches[b.key] = b.cache
	}

	return r, nil
}

// Len returns the number of bound options types.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.caches)
}

// Resolve returns the query cache bound to O, or Nop[O] when none is bound.
func Resolve[O any](r *Registry) QueryCache[O] {
	if r == nil {
		return Nop[O]{}
	}
	if qc, ok := r.caches[optionsKey[O]()]; ok {
		return qc.(QueryCache[O])
	}
	return Nop[O]{}
}

// optionsKey identifies O by the type of *O, which also works for interface types.
func optionsKey[O any]() reflect.Type {
	return reflect.TypeOf((*O)(nil))
}

func optionsName[O any]() string {
	return optionsKey[O]().Elem().String()
}
