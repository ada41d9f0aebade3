package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/magneto/internal/posts"
	"github.com/Sternrassler/magneto/pkg/logging"
	"github.com/Sternrassler/magneto/pkg/metrics"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the posts API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	addConfigFlags(cmd)
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := logging.Setup(logging.Config{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Pretty,
		Output:  cmd.ErrOrStderr(),
		Service: "magneto-demo",
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, metrics.Registry, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn().Err(err).Msg("Closing resources failed")
		}
	}()

	if cfg.WarmPosts > 0 {
		go warm(ctx, a.service, cfg.WarmPosts, logger)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(a.service, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Str("api", cfg.APIBaseURL).
			Dur("cache_ttl", cfg.CacheTTL).
			Msg("Starting magneto demo server")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// warm fills the caches of posts 1..n in the background.
func warm(ctx context.Context, service *posts.Service, n int, logger zerolog.Logger) {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i + 1
	}
	if _, err := service.Warm(ctx, ids, posts.DefaultWarmConfig()); err != nil {
		logger.Warn().Err(err).Msg("Cache warm incomplete")
	}
}
