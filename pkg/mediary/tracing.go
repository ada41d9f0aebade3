package mediary

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/Sternrassler/magneto/pkg/mediary"

// TracingDecorator starts an OpenTelemetry span for every execution.
type TracingDecorator struct {
	tracer trace.Tracer
}

// NewTracingDecorator creates a tracing decorator. A nil tp uses the global
// tracer provider.
func NewTracingDecorator(tp trace.TracerProvider) *TracingDecorator {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &TracingDecorator{tracer: tp.Tracer(tracerName)}
}

// Decorate traces next in a root span. Synchronous dispatch carries no context.
func (d *TracingDecorator) Decorate(op Operation, next func() (any, error)) (any, error) {
	_, span := d.startSpan(context.Background(), op)
	defer span.End()

	out, err := next()
	record(span, err)
	return out, err
}

// DecorateAsync traces next in a child span of ctx and passes the span
// context on.
func (d *TracingDecorator) DecorateAsync(ctx context.Context, op Operation, next func(ctx context.Context) (any, error)) (any, error) {
	ctx, span := d.startSpan(ctx, op)
	defer span.End()

	out, err := next(ctx)
	record(span, err)
	return out, err
}

func (d *TracingDecorator) startSpan(ctx context.Context, op Operation) (context.Context, trace.Span) {
	return d.tracer.Start(ctx, op.Name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("magneto.operation", op.Name),
			attribute.String("magneto.kind", string(op.Kind)),
		),
	)
}

func record(span trace.Span, err error) {
	if err != nil {
		span.SetAttributes(attribute.String("magneto.status", status(err)))
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		return
	}
	span.SetStatus(codes.Ok, "")
}

var _ Decorator = (*TracingDecorator)(nil)
