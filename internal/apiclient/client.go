// Package apiclient talks to the remote presale API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/Proton-105/agro-presale/internal/domain"
	apperrors "github.com/Proton-105/agro-presale/internal/errors"
	"github.com/Proton-105/agro-presale/pkg/config"
)

const (
	pathOfferings = "/api/tokens"
	pathStats     = "/api/tokens/stats"
	pathInvest    = "/api/presale/invest"

	maxBodyBytes = 4 << 20
)

var errMalformedBody = errors.New("malformed response body")

var requestRecorder = func(string, string, time.Duration) {}

// RegisterRequestRecorder allows external packages to observe API calls.
func RegisterRequestRecorder(recorder func(endpoint, status string, duration time.Duration)) {
	if recorder == nil {
		requestRecorder = func(string, string, time.Duration) {}
		return
	}

	requestRecorder = recorder
}

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *apperrors.CircuitBreaker
	retry      apperrors.RetryPolicy
	log        *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func WithRetryPolicy(policy apperrors.RetryPolicy) Option {
	return func(c *Client) {
		c.retry = policy
	}
}

func WithCircuitBreaker(breaker *apperrors.CircuitBreaker) Option {
	return func(c *Client) {
		if breaker != nil {
			c.breaker = breaker
		}
	}
}

func New(cfg config.APIConfig, log *slog.Logger, opts ...Option) *Client {
	if log == nil {
		log = slog.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		retry:      apperrors.DefaultRetryPolicy,
		log:        log.With(slog.String("component", "apiclient")),
		breaker: apperrors.NewCircuitBreaker(apperrors.BreakerConfig{
			IsFailure: countsAgainstBreaker,
		}),
	}

	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ListOfferings returns the offerings served by GET /api/tokens. Offerings that break the
// model invariants are logged and skipped.
func (c *Client) ListOfferings(ctx context.Context) ([]domain.Offering, error) {
	body, err := c.get(ctx, "tokens", pathOfferings)
	if err != nil {
		return nil, err
	}

	data := gjson.GetBytes(body, "data")
	if !data.IsArray() {
		return nil, apperrors.NewExternalAPIError("tokens", false, errMalformedBody)
	}

	var raw []domain.Offering
	if err := json.Unmarshal([]byte(data.Raw), &raw); err != nil {
		return nil, apperrors.NewExternalAPIError("tokens", false, fmt.Errorf("decode offerings: %w", err))
	}

	offerings := make([]domain.Offering, 0, len(raw))
	for _, offering := range raw {
		if err := offering.Validate(); err != nil {
			c.log.WarnContext(ctx, "skipping invalid offering",
				slog.Int64("offering_id", offering.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		offerings = append(offerings, offering)
	}

	return offerings, nil
}

// Stats returns the aggregate totals served by GET /api/tokens/stats.
func (c *Client) Stats(ctx context.Context) (domain.Stats, error) {
	body, err := c.get(ctx, "stats", pathStats)
	if err != nil {
		return domain.Stats{}, err
	}

	data := gjson.GetBytes(body, "data")
	if !data.IsObject() {
		return domain.Stats{}, apperrors.NewExternalAPIError("stats", false, errMalformedBody)
	}

	var stats domain.Stats
	data.ForEach(func(key, value gjson.Result) bool {
		amount, ok := parseNumber(value)
		if !ok {
			return true
		}

		switch key.String() {
		case "total_raised":
			stats.TotalRaised = amount
		case "total_goal":
			stats.TotalGoal = amount
		default:
			if stats.Extra == nil {
				stats.Extra = make(map[string]decimal.Decimal)
			}
			stats.Extra[key.String()] = amount
		}
		return true
	})

	return stats, nil
}

// CreateInvestment submits req with POST /api/presale/invest. It is never retried.
func (c *Client) CreateInvestment(ctx context.Context, req domain.InvestmentRequest) (*domain.Confirmation, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, apperrors.NewSubmissionError("", fmt.Errorf("marshal request: %w", err))
	}

	body, err := c.do(ctx, "invest", http.MethodPost, pathInvest, payload)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			return nil, apperrors.NewSubmissionError(serverReason(statusErr.Body), err)
		}
		return nil, apperrors.NewSubmissionError("", err)
	}

	if !gjson.ValidBytes(body) {
		return nil, apperrors.NewSubmissionError("", errMalformedBody)
	}

	data := gjson.GetBytes(body, "data")
	if !data.Exists() {
		return nil, apperrors.NewSubmissionError("", errMalformedBody)
	}

	return &domain.Confirmation{
		Raw:    json.RawMessage(data.Raw),
		Amount: req.AmountUSD,
	}, nil
}

// Ping performs a single stats read, used by readiness checks.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, "stats", http.MethodGet, pathStats, nil)
	return err
}

func (c *Client) get(ctx context.Context, endpoint, path string) ([]byte, error) {
	var body []byte

	err := c.retry.Do(ctx, func() error {
		var callErr error
		body, callErr = c.do(ctx, endpoint, http.MethodGet, path, nil)
		if callErr != nil {
			return apperrors.NewExternalAPIError(endpoint, isTransient(callErr), callErr)
		}
		return nil
	})
	if err != nil {
		c.log.ErrorContext(ctx, "api read failed",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	return body, nil
}

func (c *Client) do(ctx context.Context, endpoint, method, path string, payload []byte) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for rate limiter: %w", err)
		}
	}

	var body []byte
	start := time.Now()
	status := "error"

	err := c.breaker.Call(func() error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("send request: %w", err)
		}
		defer resp.Body.Close()

		status = strconv.Itoa(resp.StatusCode)

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			return &StatusError{StatusCode: resp.StatusCode, Body: body}
		}
		return nil
	})

	if errors.Is(err, apperrors.ErrCircuitOpen) || errors.Is(err, apperrors.ErrHalfOpenTooManyRequests) {
		status = "circuit_open"
	}
	requestRecorder(endpoint, status, time.Since(start))

	if err != nil {
		return nil, err
	}

	return body, nil
}

// serverReason extracts the "error" message of a failure body, or "" when there is none.
func serverReason(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}

	reason := gjson.GetBytes(body, "error")
	if reason.Type != gjson.String {
		return ""
	}

	return strings.TrimSpace(reason.String())
}

func parseNumber(value gjson.Result) (decimal.Decimal, bool) {
	switch value.Type {
	case gjson.Number:
		d, err := decimal.NewFromString(value.Raw)
		return d, err == nil
	case gjson.String:
		d, err := decimal.NewFromString(value.String())
		return d, err == nil
	default:
		return decimal.Zero, false
	}
}

// isTransient reports whether a failed call may succeed if repeated.
func isTransient(err error) bool {
	if errors.Is(err, apperrors.ErrCircuitOpen) || errors.Is(err, apperrors.ErrHalfOpenTooManyRequests) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= http.StatusInternalServerError
	}

	return true
}

func countsAgainstBreaker(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= http.StatusInternalServerError
	}

	return true
}
