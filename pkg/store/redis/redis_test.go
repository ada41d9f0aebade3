package redisstore

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"

	"github.com/Sternrassler/magneto/pkg/cache"
)

type comment struct {
	ID   int
	Body string
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestStore_SetGetRemove(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	s := New(client)

	var dst cache.Entry[[]comment]
	found, err := s.Get(ctx, "comments:7", &dst)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Errorf("Get() on empty store found an entry")
	}

	want := []comment{{ID: 1, Body: "first"}, {ID: 2, Body: "second"}}
	if err := s.Set(ctx, "comments:7", cache.NewEntry(want), EntryOptions{Expiration: time.Minute}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	found, err = s.Get(ctx, "comments:7", &dst)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found {
		t.Fatalf("Get() found = false, want true")
	}
	if !reflect.DeepEqual(dst.Value, want) {
		t.Errorf("Get() value = %+v, want %+v", dst.Value, want)
	}

	for i := 0; i < 2; i++ {
		if err := s.Remove(ctx, "comments:7"); err != nil {
			t.Fatalf("Remove() #%d error = %v", i+1, err)
		}
	}

	found, err = s.Get(ctx, "comments:7", &dst)
	if err != nil {
		t.Fatalf("Get() after Remove error = %v", err)
	}
	if found {
		t.Errorf("Get() after Remove found an entry")
	}
}

func TestStore_NilEntry(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	s := New(client)

	if err := s.Set(ctx, "post:404", cache.NewEntry[*comment](nil), EntryOptions{}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	dst := cache.NewEntry(&comment{ID: 9})
	found, err := s.Get(ctx, "post:404", &dst)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	// A cached nil is still a hit
	if !found {
		t.Errorf("Get() found = false, want true")
	}
	if dst.Value != nil {
		t.Errorf("Get() value = %+v, want nil", dst.Value)
	}
}

func TestStore_Expiration(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		entry   EntryOptions
		wantTTL time.Duration
	}{
		{name: "explicit expiration", entry: EntryOptions{Expiration: 30 * time.Second}, wantTTL: 30 * time.Second},
		{name: "default expiration", opts: []Option{WithDefaultExpiration(time.Minute)}, wantTTL: time.Minute},
		{name: "no expiration", wantTTL: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mr, client := newTestRedis(t)
			s := New(client, tt.opts...)

			if err := s.Set(context.Background(), "k", cache.NewEntry("v"), tt.entry); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			if got := mr.TTL("k"); got != tt.wantTTL {
				t.Errorf("TTL = %v, want %v", got, tt.wantTTL)
			}
		})
	}
}

func TestStore_ExpiryFastForward(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	s := New(client)

	if err := s.Set(ctx, "k", cache.NewEntry(1), EntryOptions{Expiration: time.Second}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	mr.FastForward(2 * time.Second)

	var dst cache.Entry[int]
	found, err := s.Get(ctx, "k", &dst)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Errorf("Get() found an expired entry")
	}
}

func TestStore_Prefix(t *testing.T) {
	mr, client := newTestRedis(t)
	s := New(client, WithPrefix("magneto"))

	if err := s.Set(context.Background(), "k", cache.NewEntry(1), EntryOptions{}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if !mr.Exists("magneto:k") {
		t.Errorf("key %q not written", "magneto:k")
	}
	if mr.Exists("k") {
		t.Errorf("unprefixed key %q written", "k")
	}
}

func TestStore_DecodeError(t *testing.T) {
	mr, client := newTestRedis(t)
	s := New(client)
	if err := mr.Set("k", "not msgpack"); err != nil {
		t.Fatalf("miniredis Set() error = %v", err)
	}

	before := testutil.ToFloat64(StoreErrors.WithLabelValues("decode"))
	var dst cache.Entry[[]comment]
	if _, err := s.Get(context.Background(), "k", &dst); err == nil {
		t.Errorf("Get() error = nil, want decode error")
	}
	if got := testutil.ToFloat64(StoreErrors.WithLabelValues("decode")); got != before+1 {
		t.Errorf("decode errors = %v, want %v", got, before+1)
	}
}

func TestStore_ConnectionError(t *testing.T) {
	mr, client := newTestRedis(t)
	s := New(client, WithQueryTimeout(100*time.Millisecond))
	mr.Close()

	ctx := context.Background()
	var dst cache.Entry[int]
	if _, err := s.Get(ctx, "k", &dst); err == nil {
		t.Errorf("Get() error = nil, want connection error")
	}
	if err := s.Set(ctx, "k", cache.NewEntry(1), EntryOptions{}); err == nil {
		t.Errorf("Set() error = nil, want connection error")
	}
	if err := s.Remove(ctx, "k"); err == nil {
		t.Errorf("Remove() error = nil, want connection error")
	}
}

func TestNew_NilClientPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("New(nil) did not panic")
		}
	}()
	New(nil)
}

func TestStore_WithQueryCache(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	qc := cache.NewQueryCache[EntryOptions](New(client), cache.WithName("redis-test"))

	calls := 0
	execute := func(context.Context) ([]comment, error) {
		calls++
		return []comment{{ID: 1, Body: "hi"}}, nil
	}
	getOptions := func() EntryOptions { return EntryOptions{Expiration: time.Minute} }

	for _, postID := range []int{7, 7, 8, 8} {
		info := cache.Info{KeyPrefix: "posts.CommentsByPostID", VaryBy: []any{postID}}
		got, err := cache.GetOrPopulate(ctx, qc, execute, info, getOptions, cache.Default)
		if err != nil {
			t.Fatalf("GetOrPopulate(%d) error = %v", postID, err)
		}
		if len(got) != 1 {
			t.Errorf("GetOrPopulate(%d) returned %d comments, want 1", postID, len(got))
		}
	}
	if calls != 2 {
		t.Errorf("executions = %d, want 2", calls)
	}
}
