package posts

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sternrassler/magneto/internal/jsonplaceholder"
)

// ErrInvalidPost indicates a post that cannot be saved.
var ErrInvalidPost = errors.New("invalid post")

// SavePost creates the post when its ID is zero and replaces it otherwise.
// It returns the post as stored upstream.
type SavePost struct {
	Post jsonplaceholder.Post
}

// CommandAsync implements mediary.AsyncResultCommand.
func (cmd SavePost) CommandAsync(ctx context.Context, c *jsonplaceholder.Client) (*jsonplaceholder.Post, error) {
	if cmd.Post.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidPost)
	}

	var saved jsonplaceholder.Post
	if cmd.Post.ID == 0 {
		if err := c.PostJSON(ctx, "/posts", cmd.Post, &saved); err != nil {
			return nil, fmt.Errorf("create post: %w", err)
		}
		return &saved, nil
	}

	if err := c.PutJSON(ctx, fmt.Sprintf("/posts/%d", cmd.Post.ID), cmd.Post, &saved); err != nil {
		return nil, fmt.Errorf("update post %d: %w", cmd.Post.ID, err)
	}
	return &saved, nil
}

// DeletePost deletes a post.
type DeletePost struct {
	ID int
}

// Command implements mediary.SyncCommand.
func (cmd DeletePost) Command(c *jsonplaceholder.Client) error {
	if err := c.Delete(context.Background(), fmt.Sprintf("/posts/%d", cmd.ID)); err != nil {
		return fmt.Errorf("delete post %d: %w", cmd.ID, err)
	}
	return nil
}
