package statestore

import (
	"context"
	"os"
	"testing"

	"github.com/Zhima-Mochi/vending-machine/internal/domain/snapshot"
	"github.com/redis/go-redis/v9"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestRedisStore(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	key := "vending:test:state"
	client.Del(ctx, key)
	defer client.Del(ctx, key)

	store := NewRedisStore(client, key)
	if _, err := store.Load(ctx); err != snapshot.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.Save(ctx, sampleState()); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	assertSameState(t, sampleState(), got)
}
