// Package pgstore provides a cache.Store backed by a PostgreSQL table.
// Entries are encoded with msgpack and expire by timestamp.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/Sternrassler/magneto/pkg/cache"
)

const (
	createTableQuery = `
CREATE TABLE IF NOT EXISTS magneto_cache (
    key TEXT PRIMARY KEY,
    value BYTEA NOT NULL,
    expires_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_magneto_cache_expires_at ON magneto_cache (expires_at);
`

	getQuery = `
SELECT value FROM magneto_cache
WHERE key = $1 AND (expires_at IS NULL OR expires_at > $2);
`

	setQuery = `
INSERT INTO magneto_cache (key, value, expires_at)
VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at;
`

	removeQuery = `DELETE FROM magneto_cache WHERE key = $1;`

	purgeQuery = `DELETE FROM magneto_cache WHERE expires_at IS NOT NULL AND expires_at <= $1;`
)

// ErrNilQuerier indicates the store was created without a database handle.
var ErrNilQuerier = errors.New("postgres querier cannot be nil")

// EntryOptions configures how long a cached result lives.
type EntryOptions struct {
	// TTL is the entry lifetime. Zero means the entry does not expire.
	TTL time.Duration
}

// Store is a cache.Store backed by the magneto_cache table.
type Store struct {
	db     Querier
	now    func() time.Time
	logger zerolog.Logger
}

var _ cache.Store[EntryOptions] = (*Store)(nil)

// New creates a store on db. Run Migrate once before first use.
func New(db Querier) *Store {
	if db == nil {
		panic(ErrNilQuerier.Error())
	}
	return &Store{
		db:     db,
		now:    time.Now,
		logger: log.With().Str("component", "pg-store").Logger(),
	}
}

// Migrate creates the cache table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createTableQuery); err != nil {
		return fmt.Errorf("create magneto_cache table: %w", err)
	}
	return nil
}

// Get decodes the unexpired entry stored under key into dst.
func (s *Store) Get(ctx context.Context, key string, dst any) (bool, error) {
	var data []byte
	err := s.db.QueryRow(ctx, getQuery, key, s.now().UTC()).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		StoreErrors.WithLabelValues("get").Inc()
		s.logger.Warn().Err(err).Str("key", key).Msg("Postgres get failed")
		return false, fmt.Errorf("postgres get: %w", err)
	}

	if err := msgpack.Unmarshal(data, dst); err != nil {
		StoreErrors.WithLabelValues("decode").Inc()
		return false, fmt.Errorf("decode entry %q: %w", key, err)
	}
	return true, nil
}

// Set encodes value and upserts it under key.
func (s *Store) Set(ctx context.Context, key string, value any, opts EntryOptions) error {
	data, err := msgpack.Marshal(value)
	if err != nil {
		StoreErrors.WithLabelValues("encode").Inc()
		return fmt.Errorf("encode entry %q: %w", key, err)
	}

	var expiresAt *time.Time
	if opts.TTL > 0 {
		t := s.now().UTC().Add(opts.TTL)
		expiresAt = &t
	}

	if _, err := s.db.Exec(ctx, setQuery, key, data, expiresAt); err != nil {
		StoreErrors.WithLabelValues("set").Inc()
		s.logger.Warn().Err(err).Str("key", key).Msg("Postgres set failed")
		return fmt.Errorf("postgres set: %w", err)
	}
	return nil
}

// Remove deletes the entry stored under key.
func (s *Store) Remove(ctx context.Context, key string) error {
	if _, err := s.db.Exec(ctx, removeQuery, key); err != nil {
		StoreErrors.WithLabelValues("remove").Inc()
		s.logger.Warn().Err(err).Str("key", key).Msg("Postgres delete failed")
		return fmt.Errorf("postgres delete: %w", err)
	}
	return nil
}

// Purge deletes expired entries and returns how many were removed.
// Expired entries are never returned by Get, so purging only reclaims space.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, purgeQuery, s.now().UTC())
	if err != nil {
		StoreErrors.WithLabelValues("purge").Inc()
		return 0, fmt.Errorf("postgres purge: %w", err)
	}
	return tag.RowsAffected(), nil
}
