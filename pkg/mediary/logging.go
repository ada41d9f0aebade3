package mediary

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LoggingDecorator logs every execution with zerolog. Each execution gets an
// operation id so start and end lines can be correlated.
type LoggingDecorator struct {
	logger zerolog.Logger
}

// NewLoggingDecorator creates a logging decorator.
func NewLoggingDecorator(logger zerolog.Logger) *LoggingDecorator {
	return &LoggingDecorator{
		logger: logger.With().Str("component", "mediary").Logger(),
	}
}

// Decorate logs around next.
func (d *LoggingDecorator) Decorate(op Operation, next func() (any, error)) (any, error) {
	done := d.start(op)
	out, err := next()
	done(err)
	return out, err
}

// DecorateAsync logs around next.
func (d *LoggingDecorator) DecorateAsync(ctx context.Context, op Operation, next func(ctx context.Context) (any, error)) (any, error) {
	done := d.start(op)
	out, err := next(ctx)
	done(err)
	return out, err
}

func (d *LoggingDecorator) start(op Operation) func(err error) {
	logger := d.logger.With().
		Str("operation_id", uuid.NewString()).
		Str("operation", op.Name).
		Str("kind", string(op.Kind)).
		Logger()

	logger.Debug().Msg("Executing operation")
	start := time.Now()

	return func(err error) {
		duration := time.Since(start)
		switch {
		case err == nil:
			logger.Info().Dur("duration", duration).Msg("Operation completed")
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			logger.Warn().Err(err).Dur("duration", duration).Msg("Operation cancelled")
		default:
			logger.Error().Err(err).Dur("duration", duration).Msg("Operation failed")
		}
	}
}

var _ Decorator = (*LoggingDecorator)(nil)
