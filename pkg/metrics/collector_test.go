package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/agro-presale/internal/state"
)

type stubDialogs int

func (s stubDialogs) OpenDialogs() int { return int(s) }

func gaugeValue(t *testing.T, gauge prometheus.Gauge) float64 {
	t.Helper()

	var metric dto.Metric
	require.NoError(t, gauge.Write(&metric))
	return metric.GetGauge().GetValue()
}

func counterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()

	var metric dto.Metric
	require.NoError(t, counter.Write(&metric))
	return metric.GetCounter().GetValue()
}

func TestStateCollector_Collect(t *testing.T) {
	ctx := context.Background()
	storage := state.NewMemoryStorage()
	fsm := state.NewStateMachine(storage, nil, nil)

	require.NoError(t, fsm.SetState(ctx, 1, state.StateConfirming, nil))
	require.NoError(t, fsm.SetState(ctx, 2, state.StateConfirming, nil))
	require.NoError(t, fsm.SetState(ctx, 3, state.StateEnteringAmount, nil))

	collector := NewStateCollector(fsm, stubDialogs(2))
	require.NoError(t, collector.collect(ctx))

	assert.Equal(t, float64(3), gaugeValue(t, activeUsers))
	assert.Equal(t, float64(2), gaugeValue(t, usersByState.WithLabelValues("confirming")))
	assert.Equal(t, float64(0), gaugeValue(t, usersByState.WithLabelValues("idle")))
	assert.Equal(t, float64(2), gaugeValue(t, openDialogs))
}

func TestRecorders(t *testing.T) {
	before := counterValue(t, workflowTransitionsTotal.WithLabelValues("editing", "submitting"))
	RecordWorkflowTransition("editing", "submitting")
	assert.Equal(t, before+1, counterValue(t, workflowTransitionsTotal.WithLabelValues("editing", "submitting")))

	before = counterValue(t, apiRequestsTotal.WithLabelValues("unknown", "200"))
	RecordAPIRequest("", StatusLabel(200), time.Millisecond)
	assert.Equal(t, before+1, counterValue(t, apiRequestsTotal.WithLabelValues("unknown", "200")))
}
