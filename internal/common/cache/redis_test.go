package cache_test

import (
	"context"
	"testing"
	"time"

	"evdemo/internal/common/cache"

	"github.com/alicebob/miniredis/v2"
)

func newTestRedis(t *testing.T) cache.Cache {
	t.Helper()
	server := miniredis.RunT(t)
	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{Addr: server.Addr()})
	if err != nil {
		t.Fatalf("NewRedisCache returned error: %v", err)
	}
	t.Cleanup(func() {
		_ = redisCache.Close()
	})
	return redisCache
}

func TestRedisCacheSetGet(t *testing.T) {
	redisCache := newTestRedis(t)
	ctx := context.Background()

	if err := redisCache.Set(ctx, "demo:run:x", "value", time.Minute); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	got, err := redisCache.Get(ctx, "demo:run:x")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got != "value" {
		t.Fatalf("Get = %q, want %q", got, "value")
	}
}

func TestRedisCacheMissingKey(t *testing.T) {
	redisCache := newTestRedis(t)

	if _, err := redisCache.Get(context.Background(), "missing"); err != cache.ErrNotFound {
		t.Fatalf("Get error = %v, want ErrNotFound", err)
	}
}

func TestRedisCacheDelAndExists(t *testing.T) {
	redisCache := newTestRedis(t)
	ctx := context.Background()

	if err := redisCache.Set(ctx, "a", "1", 0); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	count, err := redisCache.Exists(ctx, "a", "b")
	if err != nil {
		t.Fatalf("Exists returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("Exists = %d, want 1", count)
	}
	if err := redisCache.Del(ctx, "a"); err != nil {
		t.Fatalf("Del returned error: %v", err)
	}
	if _, err := redisCache.Get(ctx, "a"); err != cache.ErrNotFound {
		t.Fatalf("Get after Del error = %v, want ErrNotFound", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	memory := cache.NewMemoryCache()
	ctx := context.Background()

	if err := memory.Set(ctx, "k", "v", time.Millisecond); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := memory.Get(ctx, "k"); err != cache.ErrNotFound {
		t.Fatalf("expired Get error = %v, want ErrNotFound", err)
	}
}
