package state

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner drops dialogs that have not been touched for longer than the TTL.
// Redis expires keys on its own; the cleaner also covers MemoryStorage.
type Cleaner struct {
	storage  Storage
	log      *slog.Logger
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
}

// NewCleaner constructs a Cleaner instance.
func NewCleaner(storage Storage, log *slog.Logger, ttl, interval time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	return &Cleaner{
		storage:  storage,
		log:      log,
		ttl:      ttl,
		interval: interval,
		now:      time.Now,
	}
}

// Run starts the cleanup loop until the context is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	if c == nil || c.storage == nil {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("state cleaner stopped", slog.String("reason", ctx.Err().Error()))
			return
		case <-ticker.C:
			c.Cleanup(ctx)
		}
	}
}

// Cleanup runs a single pass and returns how many dialogs were cleared.
func (c *Cleaner) Cleanup(ctx context.Context) int {
	if ctx.Err() != nil {
		return 0
	}

	states, err := c.storage.GetAllStates(ctx)
	if err != nil {
		c.log.Error("state cleaner failed to list states", slog.Any("error", err))
		return 0
	}

	cleared := 0
	for _, state := range states {
		if state == nil || c.now().Sub(state.UpdatedAt) <= c.ttl {
			continue
		}

		if err := c.storage.ClearState(ctx, state.UserID); err != nil {
			c.log.Error("state cleaner failed to clear state", slog.Int64("user_id", state.UserID), slog.Any("error", err))
			continue
		}

		cleared++
		c.log.Info("stale dialog cleared",
			slog.Int64("user_id", state.UserID),
			slog.String("state", string(state.CurrentState)),
		)
	}

	return cleared
}
