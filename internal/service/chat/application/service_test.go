package application

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
)

type stubGenerator struct {
	reply string
	err   error
	calls int
}

func (g *stubGenerator) Generate(ctx context.Context, message string) (string, error) {
	g.calls++
	return g.reply, g.err
}

type mapCache struct {
	entries map[string]string
	setErr  error
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]string)}
}

func (c *mapCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *mapCache) Set(ctx context.Context, key, value string) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[key] = value
	return nil
}

type stubLimiter struct {
	allowed bool
	err     error
}

func (l *stubLimiter) Allow(ctx context.Context, clientID string) (bool, error) {
	return l.allowed, l.err
}

func TestAskReturnsUpstreamReply(t *testing.T) {
	gen := &stubGenerator{reply: "halo!"}
	svc := NewChatService(gen, newMapCache(), &stubLimiter{allowed: true}, otel.Tracer("test"))

	text, err := svc.Ask(context.Background(), "1.2.3.4", "hai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "halo!" {
		t.Fatalf("expected upstream reply, got %q", text)
	}
}

func TestAskEmptyMessage(t *testing.T) {
	svc := NewChatService(&stubGenerator{}, nil, nil, otel.Tracer("test"))
	if _, err := svc.Ask(context.Background(), "c", "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestAskRateLimited(t *testing.T) {
	gen := &stubGenerator{reply: "x"}
	svc := NewChatService(gen, nil, &stubLimiter{allowed: false}, otel.Tracer("test"))

	if _, err := svc.Ask(context.Background(), "c", "hai"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if gen.calls != 0 {
		t.Fatalf("limited request must not hit upstream, got %d calls", gen.calls)
	}
}

func TestAskLimiterFailureAllowsRequest(t *testing.T) {
	gen := &stubGenerator{reply: "x"}
	svc := NewChatService(gen, nil, &stubLimiter{err: errors.New("redis down")}, otel.Tracer("test"))

	if _, err := svc.Ask(context.Background(), "c", "hai"); err != nil {
		t.Fatalf("limiter failure must not reject, got %v", err)
	}
}

func TestAskServesFromCache(t *testing.T) {
	gen := &stubGenerator{reply: "fresh"}
	cache := newMapCache()
	svc := NewChatService(gen, cache, nil, otel.Tracer("test"))
	ctx := context.Background()

	first, err := svc.Ask(ctx, "c", "hai")
	if err != nil {
		t.Fatalf("first ask: %v", err)
	}
	second, err := svc.Ask(ctx, "c", "hai")
	if err != nil {
		t.Fatalf("second ask: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical replies, got %q / %q", first, second)
	}
	if gen.calls != 1 {
		t.Fatalf("expected a single upstream call, got %d", gen.calls)
	}
}

func TestAskUpstreamError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("upstream 500")}
	svc := NewChatService(gen, nil, nil, otel.Tracer("test"))

	if _, err := svc.Ask(context.Background(), "c", "hai"); err == nil {
		t.Fatal("expected upstream error to surface")
	}
}
