package ratelimit

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 100

// Cleaner periodically trims rate-limit windows in Redis and drops idle in-memory buckets.
type Cleaner struct {
	redisClient *redis.Client
	memory      *MemoryLimiter
	log         *slog.Logger
	interval    time.Duration
	maxAge      time.Duration
}

// NewCleaner constructs a Cleaner instance. Entries older than maxAge are removed; either backend may be nil.
func NewCleaner(client *redis.Client, memory *MemoryLimiter, log *slog.Logger, interval, maxAge time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}
	if maxAge <= 0 {
		maxAge = 5 * time.Minute
	}

	return &Cleaner{
		redisClient: client,
		memory:      memory,
		log:         log,
		interval:    interval,
		maxAge:      maxAge,
	}
}

// Run starts the cleaner loop until the context is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	if (c.redisClient == nil && c.memory == nil) || c.interval <= 0 {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("rate limit cleaner stopped", slog.String("reason", ctx.Err().Error()))
			return
		case <-ticker.C:
			c.Cleanup(ctx)
		}
	}
}

// Cleanup runs a single pass over both backends and returns the number of Redis keys removed.
func (c *Cleaner) Cleanup(ctx context.Context) int {
	if ctx.Err() != nil {
		return 0
	}

	if c.memory != nil {
		c.memory.Cleanup(c.maxAge)
	}
	if c.redisClient == nil {
		return 0
	}

	// Scores are unix milliseconds, see RedisLimiter.
	cutoff := strconv.FormatInt(time.Now().Add(-c.maxAge).UnixMilli(), 10)

	var cursor uint64
	cleaned := 0
	for {
		keys, nextCursor, err := c.redisClient.Scan(ctx, cursor, KeyPrefix+"*", scanBatch).Result()
		if err != nil {
			c.log.Error("rate limit scan failed", slog.Any("error", err))
			return cleaned
		}

		if len(keys) > 0 {
			cleaned += c.trimPage(ctx, keys, cutoff)
		}

		if nextCursor == 0 {
			break
		}
		cursor = nextCursor
	}

	if cleaned > 0 {
		c.log.Info("rate limit keys cleaned", slog.Int("keys_removed", cleaned))
	}
	return cleaned
}

// trimPage drops expired members of one scan page in a single round trip and deletes the sets
// left empty.
func (c *Cleaner) trimPage(ctx context.Context, keys []string, cutoff string) int {
	pipe := c.redisClient.Pipeline()
	cards := make([]*redis.IntCmd, len(keys))
	for i, key := range keys {
		pipe.ZRemRangeByScore(ctx, key, "-inf", "("+cutoff)
		cards[i] = pipe.ZCard(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Warn("rate limit cleanup pipeline failed", slog.Int("keys", len(keys)), slog.Any("error", err))
		return 0
	}

	var empty []string
	for i, card := range cards {
		if card.Val() == 0 {
			empty = append(empty, keys[i])
		}
	}
	if len(empty) == 0 {
		return 0
	}

	removed, err := c.redisClient.Del(ctx, empty...).Result()
	if err != nil {
		c.log.Warn("failed to delete empty rate limit keys", slog.Int("keys", len(empty)), slog.Any("error", err))
		return 0
	}
	return int(removed)
}
