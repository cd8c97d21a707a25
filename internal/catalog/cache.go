// Package catalog caches the offerings list and aggregate stats in Redis.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/Proton-105/agro-presale/internal/domain"
)

const (
	offeringsKey = "catalog:offerings"
	statsKey     = "catalog:stats"

	DefaultTTL = 30 * time.Second
)

// ErrOfferingNotFound is returned by Offering for an unknown identifier.
var ErrOfferingNotFound = errors.New("offering not found")

// Source is the upstream the catalog reads through to.
type Source interface {
	ListOfferings(ctx context.Context) ([]domain.Offering, error)
	Stats(ctx context.Context) (domain.Stats, error)
}

// Catalog reads through Redis to the Source. With a nil Redis client it is a pass-through.
type Catalog struct {
	source Source
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

func New(source Source, client *redis.Client, ttl time.Duration, log *slog.Logger) *Catalog {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = slog.Default()
	}

	return &Catalog{
		source: source,
		client: client,
		ttl:    ttl,
		log:    log.With(slog.String("component", "catalog")),
	}
}

// Offerings returns the current offerings. Upstream errors are returned as-is and never cached.
func (c *Catalog) Offerings(ctx context.Context) ([]domain.Offering, error) {
	var offerings []domain.Offering
	if c.get(ctx, offeringsKey, &offerings) {
		return offerings, nil
	}

	offerings, err := c.source.ListOfferings(ctx)
	if err != nil {
		return nil, err
	}

	c.set(ctx, offeringsKey, offerings)
	return offerings, nil
}

// Stats returns the aggregate totals.
func (c *Catalog) Stats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	if c.get(ctx, statsKey, &stats) {
		return stats, nil
	}

	stats, err := c.source.Stats(ctx)
	if err != nil {
		return domain.Stats{}, err
	}

	c.set(ctx, statsKey, stats)
	return stats, nil
}

// Offering looks up a single offering by id.
func (c *Catalog) Offering(ctx context.Context, id int64) (domain.Offering, error) {
	offerings, err := c.Offerings(ctx)
	if err != nil {
		return domain.Offering{}, err
	}

	for _, offering := range offerings {
		if offering.ID == id {
			return offering, nil
		}
	}

	return domain.Offering{}, fmt.Errorf("offering %d: %w", id, ErrOfferingNotFound)
}

// Invalidate drops cached data so the next read hits the API.
func (c *Catalog) Invalidate(ctx context.Context) error {
	if c.client == nil {
		return nil
	}

	if err := c.client.Del(ctx, offeringsKey, statsKey).Err(); err != nil {
		return fmt.Errorf("delete cached catalog: %w", err)
	}

	return nil
}

// get reports whether dst was filled from cache. Cache failures are logged and treated as misses.
func (c *Catalog) get(ctx context.Context, key string, dst any) bool {
	if c.client == nil {
		return false
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WarnContext(ctx, "catalog cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		c.log.WarnContext(ctx, "catalog cache entry corrupt", slog.String("key", key), slog.String("error", err.Error()))
		return false
	}

	return true
}

func (c *Catalog) set(ctx context.Context, key string, value any) {
	if c.client == nil {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		c.log.WarnContext(ctx, "encode catalog entry", slog.String("key", key), slog.String("error", err.Error()))
		return
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "catalog cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}
