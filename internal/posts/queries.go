// Package posts holds the sample queries and commands dispatched through
// magneto against a jsonplaceholder.Client.
package posts

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/magneto/internal/jsonplaceholder"
	"github.com/Sternrassler/magneto/pkg/cache"
	"github.com/Sternrassler/magneto/pkg/store/memory"
	pgstore "github.com/Sternrassler/magneto/pkg/store/postgres"
	redisstore "github.com/Sternrassler/magneto/pkg/store/redis"
)

// Default entry lifetimes.
const (
	DefaultPostTTL     = 5 * time.Minute
	DefaultCommentsTTL = 10 * time.Minute
	DefaultCountTTL    = time.Minute
)

// AllPosts lists every post. It is not cached.
type AllPosts struct{}

// QueryAsync fetches /posts.
func (AllPosts) QueryAsync(ctx context.Context, c *jsonplaceholder.Client) ([]jsonplaceholder.Post, error) {
	var posts []jsonplaceholder.Post
	if err := c.GetJSON(ctx, "/posts", &posts); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// PostByID reads one post, cached in process. A missing post yields nil, and
// that nil is cached too.
type PostByID struct {
	ID int

	// TTL overrides DefaultPostTTL.
	TTL time.Duration
}

// ConfigureCache keys the result by post id.
func (q PostByID) ConfigureCache(info *cache.Info) {
	info.VaryBy = []any{q.ID}
	info.CacheNullResults = true
}

// CacheEntryOptions implements mediary.Cacheable.
func (q PostByID) CacheEntryOptions(*jsonplaceholder.Client) memory.EntryOptions {
	ttl := q.TTL
	if ttl <= 0 {
		ttl = DefaultPostTTL
	}
	return memory.EntryOptions{TTL: ttl}
}

// Query fetches /posts/{id}.
func (q PostByID) Query(c *jsonplaceholder.Client) (*jsonplaceholder.Post, error) {
	var post jsonplaceholder.Post
	err := c.GetJSON(context.Background(), fmt.Sprintf("/posts/%d", q.ID), &post)
	if jsonplaceholder.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get post %d: %w", q.ID, err)
	}
	return &post, nil
}

// OperationName implements mediary.Named.
func (PostByID) OperationName() string {
	return "posts.PostByID"
}

// CommentsByPostID lists the comments of a post, cached in Redis.
type CommentsByPostID struct {
	PostID int

	// Expiration overrides DefaultCommentsTTL.
	Expiration time.Duration
}

// ConfigureCache keys the result by post id.
func (q CommentsByPostID) ConfigureCache(info *cache.Info) {
	info.VaryBy = []any{q.PostID}
}

// CacheEntryOptions implements mediary.Cacheable.
func (q CommentsByPostID) CacheEntryOptions(*jsonplaceholder.Client) redisstore.EntryOptions {
	expiration := q.Expiration
	if expiration <= 0 {
		expiration = DefaultCommentsTTL
	}
	return redisstore.EntryOptions{Expiration: expiration}
}

// QueryAsync fetches /posts/{id}/comments.
func (q CommentsByPostID) QueryAsync(ctx context.Context, c *jsonplaceholder.Client) ([]jsonplaceholder.Comment, error) {
	var comments []jsonplaceholder.Comment
	if err := c.GetJSON(ctx, fmt.Sprintf("/posts/%d/comments", q.PostID), &comments); err != nil {
		return nil, fmt.Errorf("list comments of post %d: %w", q.PostID, err)
	}
	return comments, nil
}

// PostCount counts posts. The post list is cached in PostgreSQL and counted
// on every call.
type PostCount struct {
	// TTL overrides DefaultCountTTL.
	TTL time.Duration
}

// CacheEntryOptions implements mediary.Cacheable.
func (q PostCount) CacheEntryOptions(*jsonplaceholder.Client) pgstore.EntryOptions {
	ttl := q.TTL
	if ttl <= 0 {
		ttl = DefaultCountTTL
	}
	return pgstore.EntryOptions{TTL: ttl}
}

// QueryAsync fetches /posts.
func (PostCount) QueryAsync(ctx context.Context, c *jsonplaceholder.Client) ([]jsonplaceholder.Post, error) {
	return AllPosts{}.QueryAsync(ctx, c)
}

// TransformAsync counts the cached posts.
func (PostCount) TransformAsync(_ context.Context, posts []jsonplaceholder.Post) (int, error) {
	return len(posts), nil
}
