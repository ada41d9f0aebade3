package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/magneto/internal/jsonplaceholder"
	"github.com/Sternrassler/magneto/internal/posts"
	"github.com/Sternrassler/magneto/internal/testutil"
	"github.com/Sternrassler/magneto/pkg/logging"
	"github.com/Sternrassler/magneto/pkg/mediary"
)

func newTestServer(t *testing.T, redisURL string) (*testutil.MockAPI, *httptest.Server) {
	t.Helper()

	api := testutil.NewMockAPI()
	t.Cleanup(api.Close)

	cfg := config{
		Port:       "0",
		RedisURL:   redisURL,
		APIBaseURL: api.URL(),
		CacheTTL:   time.Minute,
		LogLevel:   logging.LevelError,
	}

	a, err := newApp(context.Background(), cfg, prometheus.NewRegistry(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	srv := httptest.NewServer(newRouter(a.service, zerolog.Nop()))
	t.Cleanup(srv.Close)
	return api, srv
}

func do(t *testing.T, method, url, body string) (*http.Response, string) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func TestHealthEndpoint(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	healthHandler(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if string(body) != "OK" {
		t.Errorf("Expected body 'OK', got %s", string(body))
	}
}

func TestGetPost(t *testing.T) {
	api, srv := newTestServer(t, "")

	for i := 0; i < 2; i++ {
		resp, body := do(t, http.MethodGet, srv.URL+"/posts/1", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var post jsonplaceholder.Post
		require.NoError(t, json.Unmarshal([]byte(body), &post))
		assert.Equal(t, "post 1", post.Title)
	}
	assert.Equal(t, 1, api.Requests(http.MethodGet, "/posts/1"))

	resp, _ := do(t, http.MethodGet, srv.URL+"/posts/1?refresh=true", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, api.Requests(http.MethodGet, "/posts/1"))
}

func TestGetPost_NotFound(t *testing.T) {
	_, srv := newTestServer(t, "")

	resp, _ := do(t, http.MethodGet, srv.URL+"/posts/42", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetPost_InvalidID(t *testing.T) {
	_, srv := newTestServer(t, "")

	for _, path := range []string{"/posts/abc", "/posts/0", "/posts/-1"} {
		resp, _ := do(t, http.MethodGet, srv.URL+path, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
	}
}

func TestListAndCount(t *testing.T) {
	_, srv := newTestServer(t, "")

	resp, body := do(t, http.MethodGet, srv.URL+"/posts", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []jsonplaceholder.Post
	require.NoError(t, json.Unmarshal([]byte(body), &list))
	assert.Len(t, list, 3)

	resp, body = do(t, http.MethodGet, srv.URL+"/posts/count", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"count":3}`, body)
}

func TestComments_CachedInRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	api, srv := newTestServer(t, mr.Addr())

	for i := 0; i < 2; i++ {
		resp, body := do(t, http.MethodGet, srv.URL+"/posts/2/comments", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var comments []jsonplaceholder.Comment
		require.NoError(t, json.Unmarshal([]byte(body), &comments))
		assert.Len(t, comments, 2)
	}
	assert.Equal(t, 1, api.Requests(http.MethodGet, "/posts/2/comments"))

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "magneto:"), keys[0])
}

func TestComments_WithoutRedis(t *testing.T) {
	api, srv := newTestServer(t, "")

	for i := 0; i < 2; i++ {
		resp, _ := do(t, http.MethodGet, srv.URL+"/posts/2/comments", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	assert.Equal(t, 2, api.Requests(http.MethodGet, "/posts/2/comments"))
}

func TestCreateUpdateDelete(t *testing.T) {
	api, srv := newTestServer(t, "")

	resp, body := do(t, http.MethodPost, srv.URL+"/posts", `{"userId":1,"title":"hello"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created jsonplaceholder.Post
	require.NoError(t, json.Unmarshal([]byte(body), &created))
	assert.Equal(t, 101, created.ID)

	resp, _ = do(t, http.MethodPut, srv.URL+"/posts/101", `{"userId":1,"title":"edited"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = do(t, http.MethodGet, srv.URL+"/posts/101", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "edited")
	assert.Zero(t, api.Requests(http.MethodGet, "/posts/101"))

	resp, _ = do(t, http.MethodDelete, srv.URL+"/posts/101", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, srv.URL+"/posts/101", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreatePost_Invalid(t *testing.T) {
	_, srv := newTestServer(t, "")

	resp, _ := do(t, http.MethodPost, srv.URL+"/posts", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, srv.URL+"/posts", `{"userId":1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpstreamFailure(t *testing.T) {
	api, srv := newTestServer(t, "")
	api.SetResponse("/posts", testutil.NewServerErrorResponse())

	resp, body := do(t, http.MethodGet, srv.URL+"/posts", "")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, body, "error")
}

func TestMetricsEndpoint(t *testing.T) {
	_, srv := newTestServer(t, "")

	do(t, http.MethodGet, srv.URL+"/posts/1", "")

	resp, body := do(t, http.MethodGet, srv.URL+"/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "magneto_cache_misses_total")
	assert.Contains(t, body, "magneto_upstream_requests_total")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "invalid post", err: fmt.Errorf("save: %w", posts.ErrInvalidPost), want: http.StatusBadRequest},
		{name: "invalid argument", err: &mediary.ArgumentError{Arg: "query"}, want: http.StatusBadRequest},
		{name: "deadline", err: context.DeadlineExceeded, want: http.StatusGatewayTimeout},
		{name: "upstream 404", err: &jsonplaceholder.APIError{StatusCode: http.StatusNotFound}, want: http.StatusNotFound},
		{name: "other", err: errors.New("boom"), want: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		for _, key := range []string{"PORT", "REDIS_URL", "DATABASE_URL", "API_BASE_URL", "CACHE_TTL", "LOG_LEVEL"} {
			t.Setenv(key, "")
		}
		cmd := newServeCmd()

		cfg, err := loadConfig(cmd)
		require.NoError(t, err)
		assert.Equal(t, "8080", cfg.Port)
		assert.Empty(t, cfg.RedisURL)
		assert.Equal(t, jsonplaceholder.DefaultBaseURL, cfg.APIBaseURL)
		assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
		assert.Equal(t, logging.LevelInfo, cfg.LogLevel)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("REDIS_URL", "redis:6379")
		t.Setenv("CACHE_TTL", "1d")
		t.Setenv("LOG_LEVEL", "debug")
		cmd := newServeCmd()

		cfg, err := loadConfig(cmd)
		require.NoError(t, err)
		assert.Equal(t, "9090", cfg.Port)
		assert.Equal(t, "redis:6379", cfg.RedisURL)
		assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
		assert.Equal(t, logging.LevelDebug, cfg.LogLevel)
	})

	t.Run("flags override environment", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("CACHE_TTL", "1d")
		cmd := newServeCmd()
		require.NoError(t, cmd.Flags().Set("port", "7070"))
		require.NoError(t, cmd.Flags().Set("cache-ttl", "90s"))

		cfg, err := loadConfig(cmd)
		require.NoError(t, err)
		assert.Equal(t, "7070", cfg.Port)
		assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	})

	t.Run("invalid ttl", func(t *testing.T) {
		t.Setenv("CACHE_TTL", "soon")
		_, err := loadConfig(newServeCmd())
		assert.Error(t, err)
	})

	t.Run("invalid level", func(t *testing.T) {
		t.Setenv("CACHE_TTL", "")
		t.Setenv("LOG_LEVEL", "loud")
		_, err := loadConfig(newServeCmd())
		assert.ErrorIs(t, err, logging.ErrUnknownLevel)
	})
}

func TestNewApp_RedisUnavailable(t *testing.T) {
	cfg := config{
		RedisURL:   "127.0.0.1:1",
		APIBaseURL: "http://localhost",
		CacheTTL:   time.Minute,
	}

	_, err := newApp(context.Background(), cfg, prometheus.NewRegistry(), zerolog.Nop())
	assert.Error(t, err)
}

func TestLoadConfig_Warm(t *testing.T) {
	t.Setenv("WARM_POSTS", "25")
	cfg, err := loadConfig(newServeCmd())
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.WarmPosts)

	t.Setenv("WARM_POSTS", "-1")
	_, err = loadConfig(newServeCmd())
	assert.Error(t, err)
}
