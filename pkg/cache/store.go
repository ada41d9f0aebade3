package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-reflect"
)

var (
	// ErrNilStore indicates a query cache was created without a store.
	ErrNilStore = errors.New("cache store cannot be nil")

	// ErrInvalidTarget indicates a decode target is not a non-nil pointer.
	ErrInvalidTarget = errors.New("invalid cache target")
)

// Store is the contract an external cache store satisfies. O is the
// store-specific per-write configuration, such as an expiration policy.
//
// Values written with Set are Entry[T] values; Get decodes the entry stored
// under key into dst, which is a *Entry[T] of the same T.
// Implementations must be safe for concurrent use.
type Store[O any] interface {
	// Get decodes the entry stored under key into dst.
	// It returns false, nil when no entry exists.
	Get(ctx context.Context, key string, dst any) (bool, error)

	// Set stores value under key using opts.
	Set(ctx context.Context, key string, value any, opts O) error

	// Remove deletes the entry stored under key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

// Assign copies src into the value dst points to. In-process stores use it to
// hand out stored entries without a serialisation round trip.
func Assign(dst, src any) error {
	dv := reflect.ValueOf(dst)
	if dst == nil || dv.Kind() != reflect.Ptr || dv.IsNil() {
		return fmt.Errorf("%w: %T", ErrInvalidTarget, dst)
	}
	sv := reflect.ValueOf(src)
	if src == nil || !sv.Type().AssignableTo(dv.Elem().Type()) {
		return fmt.Errorf("%w: cannot assign %T to %T", ErrInvalidTarget, src, dst)
	}
	dv.Elem().Set(sv)
	return nil
}
