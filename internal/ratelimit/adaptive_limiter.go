package ratelimit

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	backendPrimary  = "redis"
	backendFallback = "memory"
)

var (
	rateLimitChecksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "presale_ratelimit_checks_total",
		Help: "Rate limit checks by backend and result.",
	}, []string{"backend", "result"})

	rateLimitBackendErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "presale_ratelimit_backend_errors_total",
		Help: "Primary limiter failures that were answered by the in-memory fallback.",
	})

	rateLimitDegraded = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "presale_ratelimit_degraded",
		Help: "1 while rate limiting runs on the in-memory fallback.",
	})
)

func init() {
	prometheus.MustRegister(rateLimitChecksTotal, rateLimitBackendErrorsTotal, rateLimitDegraded)
}

// AdaptiveLimiter delegates to a shared primary limiter and switches to a local one at half the
// limit while the primary fails. The switch back happens on the first successful primary check.
type AdaptiveLimiter struct {
	primary  Limiter
	fallback Limiter
	degraded atomic.Bool
	log      *slog.Logger
}

// NewAdaptiveLimiter pairs a shared limiter with a local fallback.
func NewAdaptiveLimiter(primary, fallback Limiter, log *slog.Logger) *AdaptiveLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &AdaptiveLimiter{
		primary:  primary,
		fallback: fallback,
		log:      log,
	}
}

// Degraded reports whether the last check was answered by the fallback.
func (a *AdaptiveLimiter) Degraded() bool {
	return a.degraded.Load()
}

func (a *AdaptiveLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	result, err := a.primary.Check(ctx, key, limit, window)
	if err == nil && result != nil {
		if a.degraded.CompareAndSwap(true, false) {
			rateLimitDegraded.Set(0)
			a.log.Info("rate limiter recovered, using shared backend again")
		}
		observe(backendPrimary, result)
		return result, nil
	}

	rateLimitBackendErrorsTotal.Inc()
	if a.degraded.CompareAndSwap(false, true) {
		rateLimitDegraded.Set(1)
		a.log.Warn("rate limiter backend failed, falling back to in-memory limits",
			slog.String("key", key),
			slog.Any("error", err),
		)
	}

	result, err = a.fallback.Check(ctx, key, fallbackLimit(limit), window)
	if err != nil {
		return nil, err
	}
	observe(backendFallback, result)

	return result, nil
}

// fallbackLimit is enforced per replica, so it is half the shared limit.
func fallbackLimit(limit int) int {
	if half := limit / 2; half > 0 {
		return half
	}
	return 1
}

func observe(backend string, result *Result) {
	label := "allowed"
	if !result.Allowed {
		label = "rejected"
	}
	rateLimitChecksTotal.WithLabelValues(backend, label).Inc()
}
