package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TaskTypeCatalogRefresh = "catalog:refresh"
)

const (
	// catalogRefreshUnique collapses the refreshes that several replicas enqueue for the same tick.
	catalogRefreshUnique  = 30 * time.Second
	catalogRefreshTimeout = 20 * time.Second
)

const (
	QueueDefault = "default"
	QueueLow     = "low"
)

// Queues are the worker queue priorities.
var Queues = map[string]int{
	QueueDefault: 6,
	QueueLow:     1,
}

// CatalogRefreshPayload says why the offerings and stats cache is being rebuilt.
type CatalogRefreshPayload struct {
	Reason string `json:"reason"`
}

func NewCatalogRefreshTask(reason string) (*asynq.Task, error) {
	payload, err := json.Marshal(CatalogRefreshPayload{Reason: reason})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeCatalogRefresh, payload,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(3),
		asynq.Timeout(catalogRefreshTimeout),
		asynq.Unique(catalogRefreshUnique),
	), nil
}
