package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/xhit/go-str2duration/v2"

	"github.com/Sternrassler/magneto/internal/jsonplaceholder"
	"github.com/Sternrassler/magneto/pkg/logging"
)

// config is the serve command configuration. Each value comes from its flag,
// then its environment variable, then the default.
type config struct {
	Port        string
	RedisURL    string
	DatabaseURL string
	APIBaseURL  string
	CacheTTL    time.Duration
	LogLevel    logging.LogLevel
	Pretty      bool
	WarmPosts   int
}

func addConfigFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("port", "", "HTTP listen port (env PORT, default 8080)")
	flags.String("redis-url", "", "Redis address or redis:// URL for comment caching (env REDIS_URL)")
	flags.String("database-url", "", "PostgreSQL URL for post count caching (env DATABASE_URL)")
	flags.String("api-base-url", "", "Upstream API base URL (env API_BASE_URL)")
	flags.String("cache-ttl", "", "Entry lifetime such as 90s, 5m or 1d (env CACHE_TTL, default 5m)")
	flags.String("log-level", "", "debug, info, warn or error (env LOG_LEVEL, default info)")
	flags.Bool("pretty", false, "Human-readable console logs")
	flags.String("warm", "", "Warm the caches of posts 1..N at startup (env WARM_POSTS)")
}

func loadConfig(cmd *cobra.Command) (config, error) {
	cfg := config{
		Port:        flagOrEnv(cmd, "port", "PORT", "8080"),
		RedisURL:    flagOrEnv(cmd, "redis-url", "REDIS_URL", ""),
		DatabaseURL: flagOrEnv(cmd, "database-url", "DATABASE_URL", ""),
		APIBaseURL:  flagOrEnv(cmd, "api-base-url", "API_BASE_URL", jsonplaceholder.DefaultBaseURL),
	}

	ttl, err := str2duration.ParseDuration(flagOrEnv(cmd, "cache-ttl", "CACHE_TTL", "5m"))
	if err != nil {
		return config{}, fmt.Errorf("parse cache ttl: %w", err)
	}
	if ttl <= 0 {
		return config{}, fmt.Errorf("cache ttl must be > 0 (got %s)", ttl)
	}
	cfg.CacheTTL = ttl

	level, err := logging.ParseLevel(flagOrEnv(cmd, "log-level", "LOG_LEVEL", "info"))
	if err != nil {
		return config{}, err
	}
	cfg.LogLevel = level

	warm, err := strconv.Atoi(flagOrEnv(cmd, "warm", "WARM_POSTS", "0"))
	if err != nil || warm < 0 {
		return config{}, fmt.Errorf("warm must be a non-negative integer")
	}
	cfg.WarmPosts = warm

	cfg.Pretty, _ = cmd.Flags().GetBool("pretty")
	return cfg, nil
}

// flagOrEnv returns the flag value if set, else the environment variable,
// else defaultValue.
func flagOrEnv(cmd *cobra.Command, flagName, envName, defaultValue string) string {
	if value, _ := cmd.Flags().GetString(flagName); value != "" {
		return value
	}
	return getEnv(envName, defaultValue)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
