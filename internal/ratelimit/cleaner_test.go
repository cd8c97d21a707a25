package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleaner_RemovesStaleKeys(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	old := float64(time.Now().Add(-time.Hour).UnixMilli())
	fresh := float64(time.Now().UnixMilli())
	require.NoError(t, client.ZAdd(ctx, "ratelimit:user:1", redis.Z{Score: old, Member: "a"}).Err())
	require.NoError(t, client.ZAdd(ctx, "ratelimit:user:2", redis.Z{Score: old, Member: "a"}, redis.Z{Score: fresh, Member: "b"}).Err())

	memory := NewMemoryLimiter(testLogger())
	cleaner := NewCleaner(client, memory, testLogger(), time.Minute, 5*time.Minute)

	assert.Equal(t, 1, cleaner.Cleanup(ctx))

	exists, err := client.Exists(ctx, "ratelimit:user:1").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)

	count, err := client.ZCard(ctx, "ratelimit:user:2").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCleaner_RunStopsOnCancel(t *testing.T) {
	cleaner := NewCleaner(nil, NewMemoryLimiter(testLogger()), testLogger(), 10*time.Millisecond, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		cleaner.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleaner did not stop")
	}
}
