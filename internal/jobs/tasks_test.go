package jobs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalogRefreshTask(t *testing.T) {
	task, err := NewCatalogRefreshTask("startup")
	require.NoError(t, err)

	assert.Equal(t, TaskTypeCatalogRefresh, task.Type())

	var payload CatalogRefreshPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "startup", payload.Reason)
}
