package magneto

import (
	"context"
	"errors"
	"sync/atomic"
	"fmt"
	"testing"

	"github.com/Sternrassler/magneto/pkg/cache"
	"github.com/Sternrassler/magneto/pkg/mediary"
	"github.com/Sternrassler/magneto/pkg/store/memory"
)

type greeter struct {
	greeting string
	calls    atomic.Int32
}

type greet struct {
	Name string
}

func (q *greet) ConfigureCache(info *cache.Info) {
	info.VaryBy = []any{q.Name}
}

func (q *greet) CacheEntryOptions(*greeter) memory.EntryOptions {
	return memory.EntryOptions{}
}

func (q *greet) Query(g *greeter) (string, error) {
	g.calls.Add(1)
	return g.greeting + " " + q.Name, nil
}

func (q *greet) QueryAsync(ctx context.Context, g *greeter) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return q.Query(g)
}

func (q *greet) Transform(s string) (int, error) {
	return len(s), nil
}

func (q *greet) TransformAsync(_ context.Context, s string) (int, error) {
	return q.Transform(s)
}

type setGreeting struct {
	Greeting string
}

func (c setGreeting) Command(g *greeter) error {
	g.greeting = c.Greeting
	return nil
}

func (c setGreeting) CommandAsync(_ context.Context, g *greeter) error {
	return c.Command(g)
}

type swapGreeting struct {
	Greeting string
}

func (c swapGreeting) Command(g *greeter) (string, error) {
	old := g.greeting
	g.greeting = c.Greeting
	return old, nil
}

func (c swapGreeting) CommandAsync(_ context.Context, g *greeter) (string, error) {
	return c.Command(g)
}

func newTestMagneto(t *testing.T) (*Magneto, *greeter) {
	t.Helper()

	store := memory.New(memory.Config{})
	t.Cleanup(func() { _ = store.Close() })

	registry, err := cache.NewRegistry(
		cache.Bind[memory.EntryOptions](cache.NewQueryCache[memory.EntryOptions](store)),
	)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	g := &greeter{greeting: "hello"}
	locator := NewLocator()
	Provide(locator, g)

	return New(mediary.New(mediary.WithRegistry(registry)), locator), g
}

func TestLocator(t *testing.T) {
	l := NewLocator()
	g := &greeter{greeting: "hi"}
	Provide(l, g)

	got, err := Resolve[*greeter](l)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != g {
		t.Errorf("Resolve() = %p, want %p", got, g)
	}

	if _, err := Resolve[string](l); !errors.Is(err, ErrContextNotFound) {
		t.Errorf("Resolve[string]() error = %v, want %v", err, ErrContextNotFound)
	}
	if _, err := Resolve[*greeter](nil); !errors.Is(err, ErrContextNotFound) {
		t.Errorf("Resolve() on nil locator error = %v, want %v", err, ErrContextNotFound)
	}
}

func TestLocator_NilInterfaceContext(t *testing.T) {
	tests := []struct {
		name    string
		provide func(l *Locator)
	}{
		{
			name:    "nil value",
			provide: func(l *Locator) { Provide[fmt.Stringer](l, nil) },
		},
		{
			name: "factory returning nil",
			provide: func(l *Locator) {
				ProvideFunc(l, func() (fmt.Stringer, error) { return nil, nil })
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLocator()
			tt.provide(l)

			got, err := Resolve[fmt.Stringer](l)
			if !errors.Is(err, ErrContextNotFound) {
				t.Errorf("Resolve() error = %v, want %v", err, ErrContextNotFound)
			}
			if got != nil {
				t.Errorf("Resolve() = %v, want nil", got)
			}
		})
	}
}

func TestLocator_ProvideFunc(t *testing.T) {
	l := NewLocator()
	var created int
	ProvideFunc(l, func() (*greeter, error) {
		created++
		return &greeter{greeting: "hey"}, nil
	})

	a, err := Resolve[*greeter](l)
	if err != nil {
		t.Fatalf("first Resolve() error = %v", err)
	}
	b, err := Resolve[*greeter](l)
	if err != nil {
		t.Fatalf("second Resolve() error = %v", err)
	}

	if a == b {
		t.Errorf("factory contexts are the same instance, want one per resolution")
	}
	if created != 2 {
		t.Errorf("factory calls = %d, want 2", created)
	}

	boom := errors.New("boom")
	ProvideFunc(l, func() (*greeter, error) { return nil, boom })
	if _, err := Resolve[*greeter](l); !errors.Is(err, boom) {
		t.Errorf("Resolve() error = %v, want %v", err, boom)
	}
}

func TestQueryCached(t *testing.T) {
	mg, g := newTestMagneto(t)

	for i := 0; i < 2; i++ {
		got, err := QueryCached(mg, &greet{Name: "ada"}, cache.Default)
		if err != nil {
			t.Fatalf("QueryCached() error = %v", err)
		}
		if got != "hello ada" {
			t.Errorf("QueryCached() = %q, want %q", got, "hello ada")
		}
	}
	if calls := g.calls.Load(); calls != 1 {
		t.Errorf("executions = %d, want 1", calls)
	}

	got, err := QueryCachedAsync(context.Background(), mg, &greet{Name: "ada"}, cache.Refresh)
	if err != nil {
		t.Fatalf("QueryCachedAsync() error = %v", err)
	}
	if got != "hello ada" {
		t.Errorf("QueryCachedAsync() = %q, want %q", got, "hello ada")
	}
	if calls := g.calls.Load(); calls != 2 {
		t.Errorf("executions after refresh = %d, want 2", calls)
	}
}

func TestQueryTransformed(t *testing.T) {
	mg, g := newTestMagneto(t)
	want := len("hello bob")

	n, err := QueryTransformed(mg, &greet{Name: "bob"}, cache.Default)
	if err != nil {
		t.Fatalf("QueryTransformed() error = %v", err)
	}
	if n != want {
		t.Errorf("QueryTransformed() = %d, want %d", n, want)
	}

	n, err = QueryTransformedAsync(context.Background(), mg, &greet{Name: "bob"}, cache.Default)
	if err != nil {
		t.Fatalf("QueryTransformedAsync() error = %v", err)
	}
	if n != want {
		t.Errorf("QueryTransformedAsync() = %d, want %d", n, want)
	}
	if calls := g.calls.Load(); calls != 1 {
		t.Errorf("executions = %d, want 1", calls)
	}
}

func TestQuery_Uncached(t *testing.T) {
	mg, g := newTestMagneto(t)

	if _, err := Query(mg, mediary.SyncQuery[*greeter, string](&greet{Name: "x"})); err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if _, err := QueryAsync(context.Background(), mg, mediary.AsyncQuery[*greeter, string](&greet{Name: "x"})); err != nil {
		t.Fatalf("QueryAsync() error = %v", err)
	}
	if calls := g.calls.Load(); calls != 2 {
		t.Errorf("executions = %d, want 2", calls)
	}
}

func TestCommandsAndMaintenance(t *testing.T) {
	ctx := context.Background()
	mg, g := newTestMagneto(t)
	q := &greet{Name: "cy"}

	mustGreet := func(want string) {
		t.Helper()
		got, err := QueryCached(mg, q, cache.Default)
		if err != nil {
			t.Fatalf("QueryCached() error = %v", err)
		}
		if got != want {
			t.Errorf("QueryCached() = %q, want %q", got, want)
		}
	}

	mustGreet("hello cy")

	if err := Command(mg, setGreeting{Greeting: "hi"}); err != nil {
		t.Fatalf("Command() error = %v", err)
	}
	if err := EvictCachedResult(mg, q); err != nil {
		t.Fatalf("EvictCachedResult() error = %v", err)
	}
	mustGreet("hi cy")

	old, err := CommandResult(mg, swapGreeting{Greeting: "yo"})
	if err != nil {
		t.Fatalf("CommandResult() error = %v", err)
	}
	if old != "hi" {
		t.Errorf("CommandResult() = %q, want %q", old, "hi")
	}

	if err := UpdateCachedResult(mg, q, "yo cy"); err != nil {
		t.Fatalf("UpdateCachedResult() error = %v", err)
	}
	mustGreet("yo cy")

	if err := CommandAsync(ctx, mg, setGreeting{Greeting: "hey"}); err != nil {
		t.Fatalf("CommandAsync() error = %v", err)
	}
	old, err = CommandResultAsync(ctx, mg, swapGreeting{Greeting: "hello"})
	if err != nil {
		t.Fatalf("CommandResultAsync() error = %v", err)
	}
	if old != "hey" {
		t.Errorf("CommandResultAsync() = %q, want %q", old, "hey")
	}

	if err := UpdateCachedResultAsync(ctx, mg, q, "hello cy"); err != nil {
		t.Fatalf("UpdateCachedResultAsync() error = %v", err)
	}
	if err := EvictCachedResultAsync(ctx, mg, q); err != nil {
		t.Fatalf("EvictCachedResultAsync() error = %v", err)
	}
	if g.greeting != "hello" {
		t.Errorf("greeting = %q, want %q", g.greeting, "hello")
	}
}

func TestFacade_Errors(t *testing.T) {
	var nilMagneto *Magneto
	if _, err := QueryCached(nilMagneto, &greet{}, cache.Default); !errors.Is(err, mediary.ErrInvalidArgument) {
		t.Errorf("QueryCached() on nil facade error = %v, want %v", err, mediary.ErrInvalidArgument)
	}

	mg, g := newTestMagneto(t)
	var nilQuery *greet
	if _, err := QueryCached(mg, nilQuery, cache.Default); !errors.Is(err, mediary.ErrInvalidArgument) {
		t.Errorf("QueryCached(nil) error = %v, want %v", err, mediary.ErrInvalidArgument)
	}

	// No context provided for the command's context type
	empty := New(nil, nil)
	if err := Command(empty, setGreeting{}); !errors.Is(err, ErrContextNotFound) {
		t.Errorf("Command() error = %v, want %v", err, ErrContextNotFound)
	}
	if calls := g.calls.Load(); calls != 0 {
		t.Errorf("executions = %d, want 0", calls)
	}
}
