package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/agro-presale/pkg/config"
)

func TestNew_RecordsCommands(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	client, err := New(ctx, config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	before := counterValue(t, redisRequestsTotal.WithLabelValues("get"))
	errorsBefore := counterValue(t, redisErrorsTotal.WithLabelValues("get"))

	require.NoError(t, client.Set(ctx, "k", "v", 0).Err())
	assert.Equal(t, "v", client.Get(ctx, "k").Val())
	_ = client.Get(ctx, "missing").Err()

	assert.Equal(t, before+2, counterValue(t, redisRequestsTotal.WithLabelValues("get")))
	assert.Equal(t, errorsBefore, counterValue(t, redisErrorsTotal.WithLabelValues("get")))
	assert.NoError(t, client.Ping(ctx))
	assert.NotNil(t, client.Raw())
}

func TestNew_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	client, err := New(context.Background(), config.RedisConfig{Addr: addr, MaxRetries: -1})

	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestClient_NilSafe(t *testing.T) {
	var client *Client

	assert.Nil(t, client.Raw())
	assert.NoError(t, client.Close())
}

func counterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()

	var metric dto.Metric
	require.NoError(t, counter.Write(&metric))
	return metric.GetCounter().GetValue()
}
