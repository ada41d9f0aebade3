package posts

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/magneto/internal/jsonplaceholder"
	"github.com/Sternrassler/magneto/pkg/cache"
	"github.com/Sternrassler/magneto/pkg/logging"
	"github.com/Sternrassler/magneto/pkg/magneto"
)

// Service runs the posts operations through magneto and keeps cached results
// consistent after commands.
type Service struct {
	mg     *magneto.Magneto
	ttls   TTLs
	logger zerolog.Logger
}

// TTLs overrides the default entry lifetimes. Zero fields keep the defaults.
type TTLs struct {
	Post     time.Duration
	Comments time.Duration
	Count    time.Duration
}

// NewService creates a Service on top of mg, whose locator must provide a
// *jsonplaceholder.Client.
func NewService(mg *magneto.Magneto, ttls TTLs) *Service {
	return &Service{
		mg:     mg,
		ttls:   ttls,
		logger: logging.NewLogger("posts"),
	}
}

// List returns all posts, uncached.
func (s *Service) List(ctx context.Context) ([]jsonplaceholder.Post, error) {
	return magneto.QueryAsync(ctx, s.mg, AllPosts{})
}

// Get returns the post with id, or nil if it does not exist.
func (s *Service) Get(id int, option cache.Option) (*jsonplaceholder.Post, error) {
	return magneto.QueryCached(s.mg, s.postByID(id), option)
}

// Comments returns the comments of a post.
func (s *Service) Comments(ctx context.Context, postID int, option cache.Option) ([]jsonplaceholder.Comment, error) {
	return magneto.QueryCachedAsync(ctx, s.mg, s.commentsByPostID(postID), option)
}

// Count returns the number of posts.
func (s *Service) Count(ctx context.Context, option cache.Option) (int, error) {
	return magneto.QueryTransformedAsync(ctx, s.mg, PostCount{TTL: s.ttls.Count}, option)
}

// Save creates or replaces a post, writes the saved post to the PostByID cache
// and evicts the cached post list behind Count.
func (s *Service) Save(ctx context.Context, post jsonplaceholder.Post) (*jsonplaceholder.Post, error) {
	saved, err := magneto.CommandResultAsync(ctx, s.mg, SavePost{Post: post})
	if err != nil {
		return nil, err
	}

	// Cache maintenance failures never undo a successful command.
	var errs []error
	if saved != nil {
		errs = append(errs, magneto.UpdateCachedResult(s.mg, s.postByID(saved.ID), saved))
	}
	errs = append(errs, magneto.EvictCachedResultAsync(ctx, s.mg, PostCount{}))
	s.logMaintenance("save", errors.Join(errs...))

	return saved, nil
}

// Delete deletes a post and evicts every cached result derived from it.
func (s *Service) Delete(ctx context.Context, id int) error {
	if err := magneto.Command(s.mg, DeletePost{ID: id}); err != nil {
		return err
	}

	s.logMaintenance("delete", errors.Join(
		magneto.EvictCachedResult(s.mg, s.postByID(id)),
		magneto.EvictCachedResultAsync(ctx, s.mg, s.commentsByPostID(id)),
		magneto.EvictCachedResultAsync(ctx, s.mg, PostCount{}),
	))
	return nil
}

func (s *Service) postByID(id int) PostByID {
	return PostByID{ID: id, TTL: s.ttls.Post}
}

func (s *Service) commentsByPostID(postID int) CommentsByPostID {
	return CommentsByPostID{PostID: postID, Expiration: s.ttls.Comments}
}

func (s *Service) logMaintenance(command string, err error) {
	if err == nil {
		return
	}
	s.logger.Warn().Err(err).Str("command", command).Msg("Cache maintenance failed")
}
