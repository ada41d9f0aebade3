package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/magneto/internal/jsonplaceholder"
	"github.com/Sternrassler/magneto/internal/posts"
	"github.com/Sternrassler/magneto/pkg/cache"
	"github.com/Sternrassler/magneto/pkg/magneto"
	"github.com/Sternrassler/magneto/pkg/mediary"
	"github.com/Sternrassler/magneto/pkg/store/breaker"
	"github.com/Sternrassler/magneto/pkg/store/memory"
	pgstore "github.com/Sternrassler/magneto/pkg/store/postgres"
	redisstore "github.com/Sternrassler/magneto/pkg/store/redis"
)

// purgeInterval is how often expired PostgreSQL entries are deleted.
const purgeInterval = 10 * time.Minute

// app holds the wired service and everything that must be released on shutdown.
type app struct {
	service *posts.Service
	closers []func() error
}

// Close releases resources in reverse order of creation.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// newApp wires stores, the mediary and the posts service. Redis and
// PostgreSQL are optional: without them their entry options types stay
// unbound and those queries run uncached.
func newApp(ctx context.Context, cfg config, reg prometheus.Registerer, logger zerolog.Logger) (*app, error) {
	a := &app{}

	client, err := jsonplaceholder.New(jsonplaceholder.DefaultConfig(cfg.APIBaseURL))
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}

	mem := memory.New(memory.Config{DefaultTTL: cfg.CacheTTL, CleanupInterval: time.Minute})
	a.closers = append(a.closers, mem.Close)

	bindings := []cache.Binding{
		cache.Bind[memory.EntryOptions](cache.NewQueryCache[memory.EntryOptions](mem, cache.WithName("memory"))),
	}

	if cfg.RedisURL != "" {
		rdb, err := newRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, rdb.Close)
		logger.Info().Str("redis", cfg.RedisURL).Msg("Connected to Redis")

		store := breaker.New[redisstore.EntryOptions](
			redisstore.New(rdb, redisstore.WithPrefix("magneto"), redisstore.WithDefaultExpiration(cfg.CacheTTL)),
			breaker.DefaultConfig("redis"),
		)
		bindings = append(bindings, cache.Bind[redisstore.EntryOptions](
			cache.NewQueryCache[redisstore.EntryOptions](store, cache.WithName("redis"))))
	} else {
		logger.Warn().Msg("REDIS_URL not set, comments are not cached")
	}

	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })

		store := pgstore.New(pool)
		if err := store.Migrate(ctx); err != nil {
			a.Close()
			return nil, err
		}
		logger.Info().Msg("Connected to PostgreSQL")

		stopPurge := startPurge(store, purgeInterval, logger)
		a.closers = append(a.closers, func() error { stopPurge(); return nil })

		bindings = append(bindings, cache.Bind[pgstore.EntryOptions](
			cache.NewQueryCache[pgstore.EntryOptions](
				breaker.New[pgstore.EntryOptions](store, breaker.DefaultConfig("postgres")),
				cache.WithName("postgres"))))
	} else {
		logger.Warn().Msg("DATABASE_URL not set, post counts are not cached")
	}

	registry, err := cache.NewRegistry(bindings...)
	if err != nil {
		a.Close()
		return nil, err
	}

	m := mediary.New(
		mediary.WithRegistry(registry),
		mediary.WithDecorator(mediary.Chain(
			mediary.NewTracingDecorator(nil),
			mediary.NewMetricsDecorator(reg),
			mediary.NewLoggingDecorator(logger),
		)),
	)

	locator := magneto.NewLocator()
	magneto.Provide(locator, client)

	a.service = posts.NewService(magneto.New(m, locator), posts.TTLs{
		Post:     cfg.CacheTTL,
		Comments: cfg.CacheTTL,
		Count:    cfg.CacheTTL,
	})
	return a, nil
}

// newRedisClient accepts either host:port or a redis:// URL.
func newRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts := &redis.Options{Addr: redisURL}
	if strings.Contains(redisURL, "://") {
		parsed, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// startPurge deletes expired PostgreSQL entries every interval until the
// returned stop function is called.
func startPurge(store *pgstore.Store, interval time.Duration, logger zerolog.Logger) func() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := store.Purge(ctx)
				if err != nil {
					logger.Warn().Err(err).Msg("Purging expired cache entries failed")
					continue
				}
				logger.Debug().Int64("removed", n).Msg("Purged expired cache entries")
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
