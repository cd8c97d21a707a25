package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/agro-presale/internal/health"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestShutdown_RunsPhasesInOrder(t *testing.T) {
	shutdown := NewShutdown(testLogger())

	var (
		mu    sync.Mutex
		order []string
	)
	record := func(name string) func(context.Context) error {
		return func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	shutdown.RegisterPhase(PhaseClose, "redis", record("redis"))
	shutdown.RegisterPhase(PhaseFlush, "submissions", record("submissions"))
	shutdown.Register("bot", record("bot"))
	shutdown.Register("nil", nil)

	require.NoError(t, shutdown.Execute(context.Background()))
	assert.Equal(t, []string{"bot", "submissions", "redis"}, order)
}

func TestShutdown_JoinsErrors(t *testing.T) {
	shutdown := NewShutdown(testLogger())
	errBot := errors.New("poller stuck")
	errRedis := errors.New("close failed")
	ran := false

	shutdown.Register("bot", func(context.Context) error { return errBot })
	shutdown.RegisterPhase(PhaseFlush, "submissions", func(context.Context) error {
		ran = true
		return nil
	})
	shutdown.RegisterPhase(PhaseClose, "redis", func(context.Context) error { return errRedis })

	err := shutdown.Execute(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errBot)
	assert.ErrorIs(t, err, errRedis)
	assert.Contains(t, err.Error(), "bot: poller stuck")
	assert.True(t, ran, "later phases run after a failure")
}

func TestProbes_Readiness(t *testing.T) {
	checker := health.NewChecker(testLogger(), 0)
	healthy := true
	checker.AddCheck("api", health.CheckFunc(func(context.Context) error {
		if healthy {
			return nil
		}
		return errors.New("unreachable")
	}))
	probes := NewProbes(checker, testLogger())
	ctx := context.Background()

	assert.NoError(t, probes.Liveness(ctx))
	assert.NoError(t, probes.Readiness(ctx))

	healthy = false
	assert.ErrorIs(t, probes.Readiness(ctx), ErrNotReady)

	healthy = true
	probes.Drain()
	probes.Drain()
	assert.ErrorIs(t, probes.Readiness(ctx), ErrDraining)
	assert.NoError(t, probes.Liveness(ctx))
}

func TestProbes_Handlers(t *testing.T) {
	checker := health.NewChecker(testLogger(), 0)
	checker.AddCheck("redis", health.CheckFunc(func(context.Context) error { return errors.New("connection refused") }))
	probes := NewProbes(checker, testLogger())

	rec := httptest.NewRecorder()
	probes.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	probes.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body probeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "fail", body.Status)
	assert.Equal(t, "connection refused", body.Components["redis"])
}

func TestProbes_NilChecker(t *testing.T) {
	probes := NewProbes(nil, nil)

	rec := httptest.NewRecorder()
	probes.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
