package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/studyhub/materials-portal/internal/core/domain"
)

func TestMaterialCache_NilIsAlwaysMiss(t *testing.T) {
	var c *MaterialCache
	ctx := context.Background()

	c.Set(ctx, "CSE", 0, []domain.Material{{ID: 1}})
	c.Invalidate(ctx, "CSE")
	if _, gen, ok := c.Get(ctx, "CSE"); ok || gen != -1 {
		t.Fatalf("nil cache must miss with an unknown generation, got ok=%v gen=%d", ok, gen)
	}
	if err := c.Ping(ctx); err == nil {
		t.Fatal("nil cache must not report healthy")
	}
}

func TestMaterialCache_UnreachableRedisFailsSafe(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	c := NewMaterialCache(client, 0, zerolog.Nop())
	ctx := context.Background()

	c.Set(ctx, "CSE", 0, []domain.Material{{ID: 1}})
	c.Invalidate(ctx, "CSE")
	if _, gen, ok := c.Get(ctx, "CSE"); ok || gen != -1 {
		t.Fatalf("unreachable redis must miss with an unknown generation, got ok=%v gen=%d", ok, gen)
	}
	if c.ttl != defaultCacheTTL {
		t.Fatalf("expected default ttl %v, got %v", defaultCacheTTL, c.ttl)
	}
}

func TestKeys(t *testing.T) {
	if got := genKey("CSE"); got != "materials:branch:CSE:gen" {
		t.Fatalf("unexpected generation key %q", got)
	}
	if got := listKey("CSE", 3); got != "materials:branch:CSE:v3" {
		t.Fatalf("unexpected listing key %q", got)
	}
	if listKey("CSE", 0) == listKey("CSE", 1) {
		t.Fatal("generations must not share a listing key")
	}
}
