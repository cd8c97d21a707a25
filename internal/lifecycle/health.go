package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/Proton-105/agro-presale/internal/health"
)

// ErrDraining is returned by Readiness once shutdown has begun.
var ErrDraining = errors.New("service is shutting down")

// ErrNotReady is returned by Readiness when a component check fails.
var ErrNotReady = errors.New("one or more components are unhealthy")

// HealthChecker exposes liveness and readiness probes.
type HealthChecker interface {
	Liveness(ctx context.Context) error
	Readiness(ctx context.Context) error
}

// Probes implements HealthChecker on top of a component checker.
type Probes struct {
	checker  *health.Checker
	log      *slog.Logger
	draining atomic.Bool
}

var _ HealthChecker = (*Probes)(nil)

// NewProbes creates a new Probes instance. A nil checker makes readiness depend on draining only.
func NewProbes(checker *health.Checker, log *slog.Logger) *Probes {
	if log == nil {
		log = slog.Default()
	}
	return &Probes{checker: checker, log: log}
}

// Drain marks the service as shutting down; readiness fails from now on.
func (p *Probes) Drain() {
	if !p.draining.Swap(true) {
		p.log.Info("readiness probe switched to draining")
	}
}

// Liveness reports success while the process serves requests.
func (p *Probes) Liveness(ctx context.Context) error {
	p.log.DebugContext(ctx, "liveness probe called")
	return nil
}

// Readiness fails while draining or when any component check fails.
func (p *Probes) Readiness(ctx context.Context) error {
	_, err := p.readiness(ctx)
	return err
}

func (p *Probes) readiness(ctx context.Context) (map[string]string, error) {
	if p.draining.Load() {
		return nil, ErrDraining
	}
	if p.checker == nil {
		return map[string]string{}, nil
	}

	results := p.checker.Check(ctx)
	if !health.Healthy(results) {
		return results, ErrNotReady
	}
	return results, nil
}

type probeResponse struct {
	Status     string            `json:"status"`
	Error      string            `json:"error,omitempty"`
	Components map[string]string `json:"components,omitempty"`
}

// LivenessHandler serves the liveness probe.
func (p *Probes) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := p.Liveness(r.Context()); err != nil {
			writeProbe(w, http.StatusServiceUnavailable, probeResponse{Status: "fail", Error: err.Error()})
			return
		}
		writeProbe(w, http.StatusOK, probeResponse{Status: "ok"})
	})
}

// ReadinessHandler serves the readiness probe with per-component statuses; failures answer 503.
func (p *Probes) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		results, err := p.readiness(r.Context())
		if err != nil {
			writeProbe(w, http.StatusServiceUnavailable, probeResponse{Status: "fail", Error: err.Error(), Components: results})
			return
		}
		writeProbe(w, http.StatusOK, probeResponse{Status: "ok", Components: results})
	})
}

func writeProbe(w http.ResponseWriter, status int, body probeResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
