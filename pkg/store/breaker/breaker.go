// Package breaker wraps a cache.Store with a circuit breaker so an unhealthy
// store fails fast instead of adding its timeout to every query.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/Sternrassler/magneto/pkg/cache"
)

// ErrStoreUnavailable is returned while the circuit is open.
var ErrStoreUnavailable = errors.New("cache store unavailable")

// Config holds circuit breaker configuration.
type Config struct {
	// Name identifies the breaker in logs and metrics.
	Name string

	// FailureThreshold is the number of consecutive failures that opens the circuit.
	FailureThreshold uint32

	// Timeout is how long the circuit stays open before probing again.
	Timeout time.Duration

	// MaxRequests is the number of probes allowed while half-open.
	MaxRequests uint32

	// Interval resets the failure counts while closed. Zero never resets.
	Interval time.Duration
}

// DefaultConfig returns a default breaker configuration.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		FailureThreshold: 5,
		Timeout:          30 * time.Second,
		MaxRequests:      1,
	}
}

// Store forwards to another store through a circuit breaker.
type Store[O any] struct {
	next   cache.Store[O]
	cb     *gobreaker.CircuitBreaker
	logger zerolog.Logger
}

// New wraps next.
func New[O any](next cache.Store[O], cfg Config) *Store[O] {
	if next == nil {
		panic(cache.ErrNilStore.Error())
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}

	s := &Store[O]{
		next:   next,
		logger: log.With().Str("component", "store-breaker").Str("breaker", cfg.Name).Logger(),
	}

	s.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			// A caller giving up says nothing about the store's health
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.logger.Warn().
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state change")
			StateTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return s
}

// State returns the current circuit state.
func (s *Store[O]) State() gobreaker.State {
	return s.cb.State()
}

// Get forwards to the wrapped store.
func (s *Store[O]) Get(ctx context.Context, key string, dst any) (bool, error) {
	found, err := s.cb.Execute(func() (interface{}, error) {
		return s.next.Get(ctx, key, dst)
	})
	if err != nil {
		return false, s.wrap(err)
	}
	return found.(bool), nil
}

// Set forwards to the wrapped store.
func (s *Store[O]) Set(ctx context.Context, key string, value any, opts O) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.next.Set(ctx, key, value, opts)
	})
	return s.wrap(err)
}

// Remove forwards to the wrapped store.
func (s *Store[O]) Remove(ctx context.Context, key string) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.next.Remove(ctx, key)
	})
	return s.wrap(err)
}

func (s *Store[O]) wrap(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return err
}
