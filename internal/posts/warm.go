package posts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/magneto/pkg/cache"
)

// WarmConfig holds cache warming configuration.
type WarmConfig struct {
	// MaxConcurrency is the number of parallel workers.
	MaxConcurrency int

	// Timeout bounds the work for a single post.
	Timeout time.Duration
}

// DefaultWarmConfig returns a default warming configuration.
func DefaultWarmConfig() WarmConfig {
	return WarmConfig{
		MaxConcurrency: 4,
		Timeout:        15 * time.Second,
	}
}

// WarmResult reports the outcome of Warm.
type WarmResult struct {
	Warmed int
	Failed map[int]error
}

// Warm refreshes the cached post and comments of every id using a pool of
// workers. Failures for single posts do not stop the others; they are
// reported in WarmResult.Failed and joined into the returned error.
func (s *Service) Warm(ctx context.Context, ids []int, cfg WarmConfig) (WarmResult, error) {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultWarmConfig().MaxConcurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultWarmConfig().Timeout
	}

	start := time.Now()
	result := WarmResult{Failed: make(map[int]error)}
	if len(ids) == 0 {
		return result, nil
	}

	queue := make(chan int, len(ids))
	for _, id := range ids {
		queue <- id
	}
	close(queue)

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for i := 0; i < min(cfg.MaxConcurrency, len(ids)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range queue {
				if ctx.Err() != nil {
					return
				}
				err := s.warmOne(ctx, id, cfg.Timeout)

				mu.Lock()
				if err != nil {
					result.Failed[id] = err
				} else {
					result.Warmed++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.logger.Info().
		Int("warmed", result.Warmed).
		Int("failed", len(result.Failed)).
		Int("total", len(ids)).
		Dur("duration", time.Since(start)).
		Msg("Cache warm complete")

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("warm cancelled after %d/%d posts: %w", result.Warmed, len(ids), err)
	}

	errs := make([]error, 0, len(result.Failed))
	for id, err := range result.Failed {
		errs = append(errs, fmt.Errorf("post %d: %w", id, err))
	}
	return result, errors.Join(errs...)
}

func (s *Service) warmOne(ctx context.Context, id int, timeout time.Duration) error {
	if _, err := s.Get(id, cache.Refresh); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	_, err := s.Comments(ctx, id, cache.Refresh)
	return err
}
