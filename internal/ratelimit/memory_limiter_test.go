package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_Check(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewMemoryLimiter(testLogger())
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := limiter.Check(ctx, "user:1", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, 1-i, result.Remaining)
	}

	result, err := limiter.Check(ctx, "user:1", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)
	assert.Equal(t, now.Add(time.Minute), result.ResetAt)

	other, err := limiter.Check(ctx, "user:2", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, other.Allowed, "keys are isolated")

	now = now.Add(61 * time.Second)
	result, err = limiter.Check(ctx, "user:1", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed, "window slides")
}

func TestMemoryLimiter_ZeroLimitRejects(t *testing.T) {
	limiter := NewMemoryLimiter(testLogger())

	result, err := limiter.Check(context.Background(), "user:1", 0, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
}

func TestMemoryLimiter_Cleanup(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewMemoryLimiter(testLogger())
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := limiter.Check(ctx, "stale", 5, time.Minute)
	require.NoError(t, err)
	now = now.Add(10 * time.Minute)
	_, err = limiter.Check(ctx, "fresh", 5, time.Minute)
	require.NoError(t, err)

	assert.Equal(t, 1, limiter.Cleanup(5*time.Minute))
	assert.Equal(t, 1, limiter.Len())
	assert.Equal(t, 0, limiter.Cleanup(0))
}

func TestMemoryLimiter_CleanupDuringChecksKeepsCounts(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewMemoryLimiter(testLogger())
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	const limit = 5
	var allowed atomic.Int32
	var wg sync.WaitGroup

	stop := make(chan struct{})
	cleaned := make(chan struct{})
	go func() {
		defer close(cleaned)
		for {
			select {
			case <-stop:
				return
			default:
				limiter.Cleanup(time.Minute)
			}
		}
	}()

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := limiter.Check(ctx, "user:1", limit, time.Minute)
			if err == nil && result.Allowed {
				allowed.Add(1)
			}
		}()
	}

	wg.Wait()
	close(stop)
	<-cleaned

	assert.Equal(t, int32(limit), allowed.Load())
	assert.Equal(t, 1, limiter.Len())
}

func TestResult_RetryAfter(t *testing.T) {
	now := time.Now()

	assert.Equal(t, time.Second, (*Result)(nil).RetryAfter(now))
	assert.Equal(t, time.Second, (&Result{ResetAt: now}).RetryAfter(now))
	assert.Equal(t, 30*time.Second, (&Result{ResetAt: now.Add(30 * time.Second)}).RetryAfter(now))
}
