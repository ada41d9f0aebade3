// Package memory provides an in-process cache.Store with per-entry expiry.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Sternrassler/magneto/pkg/cache"
)

// EntryOptions configures how long a cached result lives.
type EntryOptions struct {
	// TTL is the entry lifetime. Zero uses Config.DefaultTTL.
	TTL time.Duration
}

// Config holds store configuration.
type Config struct {
	// DefaultTTL applies to entries written without a TTL. Zero means no expiry.
	DefaultTTL time.Duration

	// CleanupInterval is how often expired entries are purged (default: 1 minute).
	CleanupInterval time.Duration
}

// DefaultConfig returns a default store configuration.
func DefaultConfig() Config {
	return Config{
		DefaultTTL:      5 * time.Minute,
		CleanupInterval: time.Minute,
	}
}

type item struct {
	value   any
	expires time.Time
}

func (i item) expired(now time.Time) bool {
	return !i.expires.IsZero() && !now.Before(i.expires)
}

// Store keeps cache entries in a map. Entries are handed out without
// serialisation, so cached pointers are shared between callers.
type Store struct {
	mu      sync.Mutex
	entries map[string]item
	cfg     Config
	now     func() time.Time

	cancel    context.CancelFunc
	waitGroup sync.WaitGroup
	once      sync.Once
}

var _ cache.Store[EntryOptions] = (*Store)(nil)

// New creates a store and starts its cleanup goroutine. Call Close to stop it.
func New(cfg Config) *Store {
	return newStore(cfg, time.Now)
}

func newStore(cfg Config, now func() time.Time) *Store {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		entries: make(map[string]item),
		cfg:     cfg,
		now:     now,
		cancel:  cancel,
	}

	s.waitGroup.Add(1)
	go s.run(ctx)
	return s
}

// Get copies the entry stored under key into dst.
func (s *Store) Get(_ context.Context, key string, dst any) (bool, error) {
	s.mu.Lock()
	it, ok := s.entries[key]
	if ok && it.expired(s.now()) {
		delete(s.entries, key)
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		return false, nil
	}
	if err := cache.Assign(dst, it.value); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores value under key.
func (s *Store) Set(_ context.Context, key string, value any, opts EntryOptions) error {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = s.cfg.DefaultTTL
	}

	var expires time.Time
	if ttl > 0 {
		expires = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = item{value: value, expires: expires}
	s.mu.Unlock()
	return nil
}

// Remove deletes the entry stored under key.
func (s *Store) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, including expired ones not yet purged.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (s *Store) Close() error {
	s.once.Do(func() {
		s.cancel()
		s.waitGroup.Wait()
	})
	return nil
}

func (s *Store) run(ctx context.Context) {
	defer s.waitGroup.Done()
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.purge()
		}
	}
}

func (s *Store) purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for key, it := range s.entries {
		if it.expired(now) {
			delete(s.entries, key)
		}
	}
}
