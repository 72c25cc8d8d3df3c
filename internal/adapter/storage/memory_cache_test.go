package storage

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetIdempotency(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	ok, err := c.SetIdempotency(ctx, "req-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetIdempotency(ctx, "req-1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.SetIdempotency(ctx, "req-2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryCache_Release(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	_, _ = c.SetIdempotency(ctx, "req-1")
	require.NoError(t, c.ReleaseIdempotency(ctx, "req-1"))

	ok, err := c.SetIdempotency(ctx, "req-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, _ = c.SetIdempotency(ctx, "req-1")

	now = now.Add(idempotencyKeyTTL + time.Second)
	ok, err := c.SetIdempotency(ctx, "req-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryCache_ConcurrentSet(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	var won atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := c.SetIdempotency(ctx, "same"); ok {
				won.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), won.Load())
}
