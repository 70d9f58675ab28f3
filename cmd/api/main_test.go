package main

import (
	"context"
	"testing"
	"time"

	"github.com/taskvault/taskvault/internal/infrastructure/http/handlers"
	"github.com/taskvault/taskvault/internal/pkg/config"
)

func TestOpenCache_DisabledSkipsRedis(t *testing.T) {
	checks := map[string]handlers.Checker{}

	// Nothing listens on port 1; dialing would fail.
	cache, closeCache, err := openCache(context.Background(), config.RedisConfig{Addr: "127.0.0.1:1", CacheTTL: 0}, checks)
	if err != nil {
		t.Fatalf("expected no error with the cache disabled, got %v", err)
	}
	defer closeCache()

	if cache != nil {
		t.Fatal("expected a nil cache")
	}
	if _, ok := checks["redis"]; ok {
		t.Fatal("redis readiness check registered with the cache disabled")
	}
}

func TestOpenCache_EnabledRequiresRedis(t *testing.T) {
	checks := map[string]handlers.Checker{}

	_, _, err := openCache(context.Background(), config.RedisConfig{Addr: "127.0.0.1:1", CacheTTL: time.Minute}, checks)
	if err == nil {
		t.Fatal("expected an error when the cache is enabled and Redis is unreachable")
	}
	if _, ok := checks["redis"]; ok {
		t.Fatal("redis readiness check registered after a failed connect")
	}
}
