// Package redisstore provides a cache.Store backed by Redis. Entries are
// encoded with msgpack, so cached types must be msgpack-serialisable.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/Sternrassler/magneto/pkg/cache"
)

// ErrNilClient indicates the store was created without a Redis client.
var ErrNilClient = errors.New("redis client cannot be nil")

// EntryOptions configures how long a cached result lives in Redis.
type EntryOptions struct {
	// Expiration is the key TTL. Zero uses the store default; if that is
	// zero too, the key does not expire.
	Expiration time.Duration
}

// Store is a cache.Store backed by Redis. The caller owns the client.
type Store struct {
	client            redis.UniversalClient
	prefix            string
	defaultExpiration time.Duration
	queryTimeout      time.Duration
	logger            zerolog.Logger
}

var _ cache.Store[EntryOptions] = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithPrefix prepends prefix and ":" to every key.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// WithDefaultExpiration sets the TTL for entries written without one.
func WithDefaultExpiration(d time.Duration) Option {
	return func(s *Store) { s.defaultExpiration = d }
}

// WithQueryTimeout bounds each Redis round trip (default: 2 seconds).
func WithQueryTimeout(d time.Duration) Option {
	return func(s *Store) { s.queryTimeout = d }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New creates a Redis-backed store.
func New(client redis.UniversalClient, opts ...Option) *Store {
	if client == nil {
		panic(ErrNilClient.Error())
	}

	s := &Store{
		client:       client,
		queryTimeout: 2 * time.Second,
		logger:       log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "redis-store").Logger()
	return s
}

func (s *Store) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

func (s *Store) queryCtx(parent context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, s.queryTimeout)
}

// Get decodes the entry stored under key into dst.
func (s *Store) Get(ctx context.Context, key string, dst any) (bool, error) {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()

	data, err := s.client.Get(qctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		StoreErrors.WithLabelValues("get").Inc()
		s.logger.Warn().Err(err).Str("key", key).Msg("Redis get failed")
		return false, fmt.Errorf("redis get: %w", err)
	}

	if err := msgpack.Unmarshal(data, dst); err != nil {
		StoreErrors.WithLabelValues("decode").Inc()
		return false, fmt.Errorf("decode entry %q: %w", key, err)
	}
	return true, nil
}

// Set encodes value and stores it under key.
func (s *Store) Set(ctx context.Context, key string, value any, opts EntryOptions) error {
	data, err := msgpack.Marshal(value)
	if err != nil {
		StoreErrors.WithLabelValues("encode").Inc()
		return fmt.Errorf("encode entry %q: %w", key, err)
	}

	expiration := opts.Expiration
	if expiration <= 0 {
		expiration = s.defaultExpiration
	}

	qctx, cancel := s.queryCtx(ctx)
	defer cancel()

	if err := s.client.Set(qctx, s.key(key), data, expiration).Err(); err != nil {
		StoreErrors.WithLabelValues("set").Inc()
		s.logger.Warn().Err(err).Str("key", key).Msg("Redis set failed")
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Remove deletes the entry stored under key.
func (s *Store) Remove(ctx context.Context, key string) error {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()

	if err := s.client.Del(qctx, s.key(key)).Err(); err != nil {
		StoreErrors.WithLabelValues("remove").Inc()
		s.logger.Warn().Err(err).Str("key", key).Msg("Redis delete failed")
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}
