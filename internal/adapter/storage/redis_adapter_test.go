package storage

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
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

func TestRedisSetIdempotency(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)
	key := "order:" + uuid.NewString()
	defer client.Del(ctx, idempotencyKeyPrefix+key)

	ok, err := adapter.SetIdempotency(ctx, key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected first set to succeed")
	}

	ok, err = adapter.SetIdempotency(ctx, key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected second set to be rejected")
	}

	ttl, _ := client.TTL(ctx, idempotencyKeyPrefix+key).Result()
	if ttl <= 0 || ttl > idempotencyKeyTTL {
		t.Errorf("unexpected ttl %v", ttl)
	}
}

func TestRedisReleaseIdempotency(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)
	key := "order:" + uuid.NewString()
	defer client.Del(ctx, idempotencyKeyPrefix+key)

	if _, err := adapter.SetIdempotency(ctx, key); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := adapter.ReleaseIdempotency(ctx, key); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	ok, err := adapter.SetIdempotency(ctx, key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected key to be free after release")
	}
}

func TestRedisSetIdempotency_Concurrent(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)
	key := "order:" + uuid.NewString()
	defer client.Del(ctx, idempotencyKeyPrefix+key)

	var successCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := adapter.SetIdempotency(ctx, key); ok {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	if successCount.Load() != 1 {
		t.Errorf("expected 1 success, got %d", successCount.Load())
	}
}
