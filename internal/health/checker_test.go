package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestChecker_Check(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	checker := NewChecker(testLogger(), time.Second)
	checker.AddCheck("redis", NewRedisChecker(client))
	checker.AddCheck("api", NewAPIChecker(pingFunc(func(context.Context) error {
		return errors.New("api returned 502")
	})))
	checker.AddCheck("telegram", NewTelegramChecker(&telebot.Bot{Me: &telebot.User{ID: 1}}))
	checker.AddCheck("", CheckFunc(func(context.Context) error { return nil }))
	checker.AddCheck("nil", nil)

	assert.Equal(t, []string{"api", "redis", "telegram"}, checker.Names())

	results := checker.Check(context.Background())
	assert.Equal(t, map[string]string{
		"api":      "api returned 502",
		"redis":    StatusOK,
		"telegram": StatusOK,
	}, results)
	assert.False(t, Healthy(results))
}

func TestChecker_Timeout(t *testing.T) {
	checker := NewChecker(testLogger(), 20*time.Millisecond)
	checker.AddCheck("slow", CheckFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	results := checker.Check(context.Background())
	assert.Equal(t, context.DeadlineExceeded.Error(), results["slow"])
}

func TestCheckers_Unconfigured(t *testing.T) {
	ctx := context.Background()

	assert.Error(t, NewAPIChecker(nil).HealthCheck(ctx))
	assert.ErrorIs(t, NewRedisChecker(nil).HealthCheck(ctx), redis.ErrClosed)
	assert.Error(t, NewTelegramChecker(nil).HealthCheck(ctx))
	assert.Error(t, NewTelegramChecker(&telebot.Bot{}).HealthCheck(ctx))
}

func TestRedisChecker_Down(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	require.Error(t, NewRedisChecker(client).HealthCheck(context.Background()))
}

func TestHealthy(t *testing.T) {
	assert.True(t, Healthy(map[string]string{}))
	assert.True(t, Healthy(map[string]string{"a": StatusOK}))
	assert.False(t, Healthy(map[string]string{"a": StatusOK, "b": "down"}))
}
