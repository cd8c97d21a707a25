package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/Proton-105/agro-presale/internal/domain"
	"github.com/Proton-105/agro-presale/internal/jobs"
)

// Catalog is the cache rebuilt by the refresh task.
type Catalog interface {
	Invalidate(ctx context.Context) error
	Offerings(ctx context.Context) ([]domain.Offering, error)
	Stats(ctx context.Context) (domain.Stats, error)
}

type CatalogRefreshHandler struct {
	catalog Catalog
	log     *slog.Logger
}

func NewCatalogRefreshHandler(catalog Catalog, log *slog.Logger) *CatalogRefreshHandler {
	if log == nil {
		log = slog.Default()
	}
	return &CatalogRefreshHandler{catalog: catalog, log: log}
}

// ProcessTask drops the cached offerings and stats and loads them again from the API.
// A failed reload is returned so asynq retries the task.
func (h *CatalogRefreshHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.CatalogRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.log.ErrorContext(ctx, "catalog refresh: failed to decode payload", slog.String("task_type", t.Type()), slog.String("error", err.Error()))
		return fmt.Errorf("decode payload: %w: %w", err, asynq.SkipRetry)
	}

	if err := h.catalog.Invalidate(ctx); err != nil {
		h.log.WarnContext(ctx, "catalog refresh: invalidate failed", slog.Any("error", err))
	}

	offerings, err := h.catalog.Offerings(ctx)
	if err != nil {
		return fmt.Errorf("reload offerings: %w", err)
	}

	if _, err := h.catalog.Stats(ctx); err != nil {
		return fmt.Errorf("reload stats: %w", err)
	}

	h.log.InfoContext(ctx, "catalog refreshed",
		slog.String("reason", payload.Reason),
		slog.Int("offerings", len(offerings)),
	)

	return nil
}
