package mediary

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Sternrassler/magneto/pkg/cache"
)

type entryOptions struct {
	TTL int
}

// memStore is a minimal cache.Store for dispatch tests.
type memStore struct {
	mu      sync.Mutex
	entries map[string]any
	reads   int
	writes  int
	removes int
}

func newMemStore() *memStore {
	return &memStore{entries: map[string]any{}}
}

func (s *memStore) Get(_ context.Context, key string, dst any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	v, ok := s.entries[key]
	if !ok {
		return false, nil
	}
	return true, cache.Assign(dst, v)
}

func (s *memStore) Set(_ context.Context, key string, value any, _ entryOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	s.entries[key] = value
	return nil
}

func (s *memStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removes++
	delete(s.entries, key)
	return nil
}

func (s *memStore) touched() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads + s.writes + s.removes
}

// newCachingMediary returns a mediary with a memStore bound to entryOptions.
func newCachingMediary(opts ...Option) (*Mediary, *memStore) {
	store := newMemStore()
	registry, err := cache.NewRegistry(cache.Bind[entryOptions](cache.NewQueryCache[entryOptions](store)))
	if err != nil {
		panic(err)
	}
	return New(append([]Option{WithRegistry(registry)}, opts...)...), store
}

type post struct {
	ID    int
	Title string
}

// blog is the context queries and commands execute against.
type blog struct {
	mu       sync.Mutex
	posts    map[int]*post
	comments map[int][]string
	calls    int
}

func newBlog() *blog {
	return &blog{
		posts: map[int]*post{
			1: {ID: 1, Title: "first"},
			2: {ID: 2, Title: "second"},
		},
		comments: map[int][]string{
			7: {"a", "b"},
			8: {"c"},
		},
	}
}

func (b *blog) call() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
}

func (b *blog) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

var errBoom = errors.New("boom")

type allPosts struct{}

func (allPosts) Query(b *blog) ([]*post, error) {
	b.call()
	out := make([]*post, 0, len(b.posts))
	for i := 1; i <= len(b.posts); i++ {
		out = append(out, b.posts[i])
	}
	return out, nil
}

func (q allPosts) QueryAsync(ctx context.Context, b *blog) ([]*post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return q.Query(b)
}

type postByID struct {
	ID         int
	CacheNulls bool
}

func (q *postByID) ConfigureCache(info *cache.Info) {
	info.VaryBy = []any{q.ID}
	info.CacheNullResults = q.CacheNulls
}

func (q *postByID) CacheEntryOptions(*blog) entryOptions {
	return entryOptions{TTL: 60}
}

func (q *postByID) Query(b *blog) (*post, error) {
	b.call()
	return b.posts[q.ID], nil
}

type commentsByPostID struct {
	PostID int
}

func (q *commentsByPostID) ConfigureCache(info *cache.Info) {
	info.VaryBy = []any{q.PostID}
}

func (q *commentsByPostID) CacheEntryOptions(*blog) entryOptions {
	return entryOptions{TTL: 30}
}

func (q *commentsByPostID) QueryAsync(ctx context.Context, b *blog) ([]string, error) {
	b.call()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.comments[q.PostID], nil
}

// failingQuery always fails with errBoom.
type failingQuery struct{}

func (failingQuery) CacheEntryOptions(*blog) entryOptions { return entryOptions{} }

func (failingQuery) Query(b *blog) (string, error) {
	b.call()
	return "", errBoom
}

// postCount caches all posts and transforms them into a count.
type postCount struct {
	transforms int
}

func (q *postCount) CacheEntryOptions(*blog) entryOptions { return entryOptions{TTL: 10} }

func (q *postCount) Query(b *blog) ([]*post, error) {
	return allPosts{}.Query(b)
}

func (q *postCount) QueryAsync(ctx context.Context, b *blog) ([]*post, error) {
	return allPosts{}.QueryAsync(ctx, b)
}

func (q *postCount) Transform(posts []*post) (int, error) {
	q.transforms++
	return len(posts), nil
}

func (q *postCount) TransformAsync(ctx context.Context, posts []*post) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return q.Transform(posts)
}

// badTransform caches a value but its transform fails.
type badTransform struct{}

func (badTransform) CacheEntryOptions(*blog) entryOptions { return entryOptions{} }

func (badTransform) Query(b *blog) (int, error) {
	b.call()
	return 1, nil
}

func (badTransform) Transform(int) (string, error) {
	return "", errBoom
}

type deletePost struct {
	ID int
}

func (c deletePost) Command(b *blog) error {
	b.call()
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.posts[c.ID]; !ok {
		return fmt.Errorf("post %d: %w", c.ID, errBoom)
	}
	delete(b.posts, c.ID)
	return nil
}

func (c deletePost) CommandAsync(ctx context.Context, b *blog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.Command(b)
}

type savePost struct {
	Post post
}

func (c savePost) Command(b *blog) (*post, error) {
	b.call()
	b.mu.Lock()
	defer b.mu.Unlock()
	p := c.Post
	b.posts[p.ID] = &p
	return &p, nil
}

func (c savePost) CommandAsync(ctx context.Context, b *blog) (*post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.Command(b)
}

// recorder is a decorator recording the operations it sees.
type recorder struct {
	mu  sync.Mutex
	ops []Operation
}

func (r *recorder) add(op Operation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}

func (r *recorder) Decorate(op Operation, next func() (any, error)) (any, error) {
	r.add(op)
	return next()
}

func (r *recorder) DecorateAsync(ctx context.Context, op Operation, next func(ctx context.Context) (any, error)) (any, error) {
	r.add(op)
	return next(ctx)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ops)
}
