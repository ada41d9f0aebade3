// Package testutil provides testing utilities for magneto.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/Sternrassler/magneto/internal/jsonplaceholder"
)

// MockResponse defines a canned response for a mock endpoint.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockAPI is an in-memory JSONPlaceholder server for testing. Posts and
// comments live in maps; writes change what later reads return.
type MockAPI struct {
	server *httptest.Server

	mu        sync.RWMutex
	posts     map[int]jsonplaceholder.Post
	comments  map[int][]jsonplaceholder.Comment
	nextID    int
	overrides map[string]MockResponse
	failures  int
	requests  map[string]int

	// RequestCount is the total number of requests served.
	RequestCount int
}

// NewMockAPI starts a mock server seeded with posts 1..3, each with two comments.
func NewMockAPI() *MockAPI {
	m := &MockAPI{
		posts:     make(map[int]jsonplaceholder.Post),
		comments:  make(map[int][]jsonplaceholder.Comment),
		overrides: make(map[string]MockResponse),
		requests:  make(map[string]int),
	}

	for id := 1; id <= 3; id++ {
		m.posts[id] = jsonplaceholder.Post{
			ID:     id,
			UserID: 1,
			Title:  fmt.Sprintf("post %d", id),
			Body:   fmt.Sprintf("body of post %d", id),
		}
		for n := 1; n <= 2; n++ {
			m.comments[id] = append(m.comments[id], jsonplaceholder.Comment{
				ID:     (id-1)*2 + n,
				PostID: id,
				Name:   fmt.Sprintf("comment %d on post %d", n, id),
				Email:  "reader@example.com",
				Body:   "nice",
			})
		}
	}
	m.nextID = 101

	mux := http.NewServeMux()
	mux.HandleFunc("GET /posts", m.listPosts)
	mux.HandleFunc("POST /posts", m.createPost)
	mux.HandleFunc("GET /posts/{id}", m.getPost)
	mux.HandleFunc("PUT /posts/{id}", m.updatePost)
	mux.HandleFunc("DELETE /posts/{id}", m.deletePost)
	mux.HandleFunc("GET /posts/{id}/comments", m.listComments)

	m.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.RequestCount++
		m.requests[r.Method+" "+r.URL.Path]++
		override, hasOverride := m.overrides[r.URL.Path]
		fail := m.failures > 0
		if fail {
			m.failures--
		}
		m.mu.Unlock()

		if fail {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "unavailable"})
			return
		}
		if hasOverride {
			writeOverride(w, override)
			return
		}
		mux.ServeHTTP(w, r)
	}))

	return m
}

// URL returns the mock server URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.requests = make(map[string]int)
}

// SetResponse overrides every request to path with resp.
func (m *MockAPI) SetResponse(path string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[path] = resp
}

// FailNext makes the next n requests fail with 503.
func (m *MockAPI) FailNext(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = n
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// Requests returns how often "METHOD /path" was requested.
func (m *MockAPI) Requests(method, path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requests[method+" "+path]
}

// Post returns the stored post with id.
func (m *MockAPI) Post(id int) (jsonplaceholder.Post, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.posts[id]
	return p, ok
}

func (m *MockAPI) listPosts(w http.ResponseWriter, _ *http.Request) {
	m.mu.RLock()
	posts := make([]jsonplaceholder.Post, 0, len(m.posts))
	for _, p := range m.posts {
		posts = append(posts, p)
	}
	m.mu.RUnlock()

	sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })
	writeJSON(w, http.StatusOK, posts)
}

func (m *MockAPI) getPost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	m.mu.RLock()
	p, found := m.posts[id]
	m.mu.RUnlock()

	if !found {
		writeJSON(w, http.StatusNotFound, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (m *MockAPI) createPost(w http.ResponseWriter, r *http.Request) {
	var p jsonplaceholder.Post
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	m.mu.Lock()
	p.ID = m.nextID
	m.nextID++
	m.posts[p.ID] = p
	m.mu.Unlock()

	writeJSON(w, http.StatusCreated, p)
}

func (m *MockAPI) updatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var p jsonplaceholder.Post
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	p.ID = id

	m.mu.Lock()
	_, found := m.posts[id]
	if found {
		m.posts[id] = p
	}
	m.mu.Unlock()

	if !found {
		writeJSON(w, http.StatusNotFound, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (m *MockAPI) deletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	m.mu.Lock()
	delete(m.posts, id)
	delete(m.comments, id)
	m.mu.Unlock()

	writeJSON(w, http.StatusOK, struct{}{})
}

func (m *MockAPI) listComments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	m.mu.RLock()
	comments := append([]jsonplaceholder.Comment{}, m.comments[id]...)
	m.mu.RUnlock()

	writeJSON(w, http.StatusOK, comments)
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeOverride(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": "Rate limit exceeded"}`,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}
