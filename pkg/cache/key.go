package cache

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	// ErrKeyBuilderConfigured indicates the process-wide key builder was already
	// installed or already used.
	ErrKeyBuilderConfigured = errors.New("cache key builder already configured")

	// ErrNilKeyBuilder indicates UseKeyBuilder was called with a nil builder.
	ErrNilKeyBuilder = errors.New("cache key builder cannot be nil")
)

// KeyBuilder turns a key prefix and an ordered list of vary-by values into a
// cache key. Implementations must be pure: equal inputs always give equal keys.
type KeyBuilder func(prefix string, varyBy []any) string

// keyBuilder holds the process-wide builder. It is written at most once.
var keyBuilder atomic.Pointer[KeyBuilder]

// UseKeyBuilder installs the process-wide key builder. It must be called at
// startup, before the first BuildKey; afterwards the builder is fixed and
// ErrKeyBuilderConfigured is returned.
func UseKeyBuilder(b KeyBuilder) error {
	if b == nil {
		return ErrNilKeyBuilder
	}
	if !keyBuilder.CompareAndSwap(nil, &b) {
		return ErrKeyBuilderConfigured
	}
	return nil
}

// BuildKey builds a cache key with the process-wide key builder.
// The first call freezes DefaultKeyBuilder if nothing was installed.
func BuildKey(prefix string, varyBy []any) string {
	b := keyBuilder.Load()
	if b == nil {
		def := KeyBuilder(DefaultKeyBuilder)
		keyBuilder.CompareAndSwap(nil, &def)
		b = keyBuilder.Load()
	}
	return (*b)(prefix, varyBy)
}

// DefaultKeyBuilder renders prefix:hash where hash is the hex xxhash64 of the
// msgpack encoding of varyBy. Maps of any type are encoded with their entries
// sorted, so equal inputs give equal keys in every process. Funcs, channels
// and unsafe pointers carry no value across processes and are keyed by their
// type name only.
//
// Example:
//
//	DefaultKeyBuilder("posts.CommentsByPostID", []any{7}) // posts.CommentsByPostID:3c5b...
func DefaultKeyBuilder(prefix string, varyBy []any) string {
	if len(varyBy) == 0 {
		return prefix
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(canonicalize(varyBy)); err != nil {
		// A custom encoder failed; fall back to the value types.
		buf.Reset()
		for _, v := range varyBy {
			fmt.Fprintf(&buf, "%T;", v)
		}
	}

	return prefix + ":" + strconv.FormatUint(xxhash.Sum64(buf.Bytes()), 16)
}

// JoinKeyBuilder returns a builder producing readable keys such as
// "posts.PostByID.7". Values are rendered with fmt, so distinct values with
// the same string form collide; prefer DefaultKeyBuilder unless keys are read
// by humans.
func JoinKeyBuilder(sep string) KeyBuilder {
	return func(prefix string, varyBy []any) string {
		if len(varyBy) == 0 {
			return prefix
		}
		parts := make([]string, 0, len(varyBy)+1)
		parts = append(parts, prefix)
		for _, v := range varyBy {
			parts = append(parts, fmt.Sprint(v))
		}
		return strings.Join(parts, sep)
	}
}
