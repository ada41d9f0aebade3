package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/magneto/internal/jsonplaceholder"
	"github.com/Sternrassler/magneto/internal/posts"
	"github.com/Sternrassler/magneto/pkg/cache"
	"github.com/Sternrassler/magneto/pkg/mediary"
	"github.com/Sternrassler/magneto/pkg/metrics"
)

// requestTimeout bounds each API request, including upstream retries.
const requestTimeout = 30 * time.Second

type server struct {
	service *posts.Service
	logger  zerolog.Logger
}

func newRouter(service *posts.Service, logger zerolog.Logger) http.Handler {
	s := &server{service: service, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /posts", s.listPosts)
	mux.HandleFunc("POST /posts", s.createPost)
	mux.HandleFunc("GET /posts/count", s.countPosts)
	mux.HandleFunc("GET /posts/{id}", s.getPost)
	mux.HandleFunc("PUT /posts/{id}", s.updatePost)
	mux.HandleFunc("DELETE /posts/{id}", s.deletePost)
	mux.HandleFunc("GET /posts/{id}/comments", s.listComments)
	return mux
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (s *server) listPosts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	list, err := s.service.List(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) countPosts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	n, err := s.service.Count(ctx, cacheOption(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (s *server) getPost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	post, err := s.service.Get(id, cacheOption(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if post == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "post not found"})
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *server) listComments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	comments, err := s.service.Comments(ctx, id, cacheOption(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (s *server) createPost(w http.ResponseWriter, r *http.Request) {
	var post jsonplaceholder.Post
	if err := json.NewDecoder(r.Body).Decode(&post); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	post.ID = 0

	s.save(w, r, post, http.StatusCreated)
}

func (s *server) updatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var post jsonplaceholder.Post
	if err := json.NewDecoder(r.Body).Decode(&post); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	post.ID = id

	s.save(w, r, post, http.StatusOK)
}

func (s *server) save(w http.ResponseWriter, r *http.Request, post jsonplaceholder.Post, status int) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	saved, err := s.service.Save(ctx, post)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, status, saved)
}

func (s *server) deletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := s.service.Delete(ctx, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// cacheOption maps ?refresh=true to cache.Refresh.
func cacheOption(r *http.Request) cache.Option {
	if refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh")); refresh {
		return cache.Refresh
	}
	return cache.Default
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid post id"})
		return 0, false
	}
	return id, true
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var apiErr *jsonplaceholder.APIError
	switch {
	case errors.Is(err, posts.ErrInvalidPost), errors.Is(err, mediary.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	s.logger.Warn().
		Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Msg("Request failed")
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
