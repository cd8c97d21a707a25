package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces every sliding-window set in Redis.
const KeyPrefix = "ratelimit:"

// slidingWindow trims the window, records the request only when it fits and returns
// {allowed, count, oldest score}. Scores are unix milliseconds.
var slidingWindow = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
local count = redis.call('ZCARD', KEYS[1])
local allowed = 0
if count < tonumber(ARGV[3]) then
  redis.call('ZADD', KEYS[1], ARGV[2], ARGV[4])
  count = count + 1
  allowed = 1
end
redis.call('PEXPIRE', KEYS[1], ARGV[5])
local oldest = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
return {allowed, count, oldest[2] or ''}
`)

// RedisLimiter implements Limiter with one sorted set per key, shared by every bot replica.
type RedisLimiter struct {
	client *redis.Client
	log    *slog.Logger
	now    func() time.Time
}

var _ Limiter = (*RedisLimiter)(nil)

func NewRedisLimiter(client *redis.Client, log *slog.Logger) *RedisLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &RedisLimiter{
		client: client,
		log:    log,
		now:    time.Now,
	}
}

// Check evaluates the sliding window atomically. Rejected requests are not recorded.
func (l *RedisLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	if l.client == nil {
		return nil, errors.New("redis client is not configured for rate limiting")
	}

	now := l.now()
	if limit <= 0 {
		return &Result{Allowed: false, ResetAt: now.Add(window)}, nil
	}

	nowMs := now.UnixMilli()
	cutoff := nowMs - window.Milliseconds()

	reply, err := slidingWindow.Run(ctx, l.client, []string{KeyPrefix + key},
		cutoff, nowMs, limit, uuid.NewString(), (2 * window).Milliseconds(),
	).Slice()
	if err != nil {
		l.log.Error("rate limiter script failed", slog.String("key", key), slog.Any("error", err))
		return nil, err
	}

	result, err := parseWindowReply(reply, limit, now.Add(window), window)
	if err != nil {
		l.log.Error("rate limiter returned an unexpected reply", slog.String("key", key), slog.Any("error", err))
		return nil, err
	}

	return result, nil
}

func parseWindowReply(reply []interface{}, limit int, defaultReset time.Time, window time.Duration) (*Result, error) {
	if len(reply) != 3 {
		return nil, fmt.Errorf("sliding window reply has %d elements", len(reply))
	}

	allowed, ok := reply[0].(int64)
	if !ok {
		return nil, fmt.Errorf("sliding window allowed flag is %T", reply[0])
	}
	count, ok := reply[1].(int64)
	if !ok {
		return nil, fmt.Errorf("sliding window count is %T", reply[1])
	}

	resetAt := defaultReset
	if raw, _ := reply[2].(string); raw != "" {
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("parse oldest score: %w", err)
		}
		resetAt = time.UnixMilli(int64(score)).Add(window)
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return &Result{
		Allowed:   allowed == 1,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}
