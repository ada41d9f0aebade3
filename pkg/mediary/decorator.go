package mediary

import (
	"context"

	"github.com/goccy/go-reflect"
)

// Kind classifies a dispatched operation.
type Kind string

const (
	KindQuery            Kind = "query"
	KindCachedQuery      Kind = "cached_query"
	KindTransformedQuery Kind = "transformed_query"
	KindCommand          Kind = "command"
	KindResultCommand    Kind = "result_command"
)

// Operation describes one dispatched execution.
type Operation struct {
	// Name identifies the operation type, e.g. "posts.PostByID".
	Name string

	Kind Kind

	// Value is the query or command instance.
	Value any

	// Context is the context the operation executes against.
	Context any
}

// Decorator wraps every execution the mediary dispatches. Cached queries are
// only decorated when they actually execute, never on a cache hit.
//
// Implementations must call next at most once and should return its error
// unchanged. DecorateAsync must pass ctx (or a context derived from it) to
// next and must not turn cancellation into another error or the reverse.
type Decorator interface {
	Decorate(op Operation, next func() (any, error)) (any, error)
	DecorateAsync(ctx context.Context, op Operation, next func(ctx context.Context) (any, error)) (any, error)
}

// NopDecorator calls next and returns its result unchanged.
type NopDecorator struct{}

// Decorate calls next.
func (NopDecorator) Decorate(_ Operation, next func() (any, error)) (any, error) {
	return next()
}

// DecorateAsync calls next with ctx.
func (NopDecorator) DecorateAsync(ctx context.Context, _ Operation, next func(ctx context.Context) (any, error)) (any, error) {
	return next(ctx)
}

type chain []Decorator

// Chain composes decorators. The first decorator is the outermost one.
func Chain(decorators ...Decorator) Decorator {
	c := make(chain, 0, len(decorators))
	for _, d := range decorators {
		if d != nil {
			c = append(c, d)
		}
	}
	switch len(c) {
	case 0:
		return NopDecorator{}
	case 1:
		return c[0]
	}
	return c
}

func (c chain) Decorate(op Operation, next func() (any, error)) (any, error) {
	for i := len(c) - 1; i >= 0; i-- {
		d, inner := c[i], next
		next = func() (any, error) { return d.Decorate(op, inner) }
	}
	return next()
}

func (c chain) DecorateAsync(ctx context.Context, op Operation, next func(ctx context.Context) (any, error)) (any, error) {
	for i := len(c) - 1; i >= 0; i-- {
		d, inner := c[i], next
		next = func(ctx context.Context) (any, error) { return d.DecorateAsync(ctx, op, inner) }
	}
	return next(ctx)
}

func newOperation(kind Kind, value, c any) Operation {
	return Operation{
		Name:    operationName(value),
		Kind:    kind,
		Value:   value,
		Context: c,
	}
}

// operationName returns the short type name of v ("posts.PostByID") unless v
// implements Named.
func operationName(v any) string {
	if n, ok := v.(Named); ok {
		return n.OperationName()
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.String()
}

// unwrap converts a decorated result back to R. A nil result becomes the zero R.
func unwrap[R any](out any, err error) (R, error) {
	var zero R
	if err != nil {
		return zero, err
	}
	if out == nil {
		return zero, nil
	}
	r, ok := out.(R)
	if !ok {
		return zero, ErrUnexpectedResult
	}
	return r, nil
}
