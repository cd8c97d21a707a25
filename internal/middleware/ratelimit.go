package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"gopkg.in/telebot.v3"

	apperrors "github.com/Proton-105/agro-presale/internal/errors"
	"github.com/Proton-105/agro-presale/internal/i18n"
	"github.com/Proton-105/agro-presale/internal/ratelimit"
	"github.com/Proton-105/agro-presale/pkg/metrics"
)

// RateLimitMiddleware enforces global, per-user and per-command rate limits for incoming Telegram updates.
type RateLimitMiddleware struct {
	limiter  ratelimit.Limiter
	rules    *ratelimit.Rules
	catalogs *i18n.Manager
	log      *slog.Logger
	now      func() time.Time
}

type limitCheck struct {
	rule   string
	key    string
	limit  int
	window time.Duration
	err    error
}

// NewRateLimitMiddleware constructs a rate-limit middleware component.
func NewRateLimitMiddleware(limiter ratelimit.Limiter, rules *ratelimit.Rules, catalogs *i18n.Manager, log *slog.Logger) *RateLimitMiddleware {
	if log == nil {
		log = slog.Default()
	}

	return &RateLimitMiddleware{
		limiter:  limiter,
		rules:    rules,
		catalogs: catalogs,
		log:      log,
		now:      time.Now,
	}
}

// Handle returns a telebot middleware that rejects updates over any configured limit.
func (m *RateLimitMiddleware) Handle(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		if m.limiter == nil || m.rules == nil {
			return next(c)
		}

		sender := c.Sender()
		if sender == nil {
			return next(c)
		}

		userID := sender.ID
		if m.rules.IsWhitelisted(userID) {
			return next(c)
		}

		ctx := context.Background()
		for _, check := range m.checks(c, userID) {
			if check.err != nil {
				if !errors.Is(check.err, ratelimit.ErrRuleNotSet) {
					m.log.Error("invalid rate limit rule", slog.String("rule", check.rule), slog.Any("error", check.err))
				}
				continue
			}

			result, err := m.limiter.Check(ctx, check.key, check.limit, check.window)
			if errors.Is(err, ratelimit.ErrLimitExceeded) && result == nil {
				result = &ratelimit.Result{Allowed: false, ResetAt: m.now().Add(check.window)}
				err = nil
			}
			if err != nil {
				m.log.Warn("rate limiter error", slog.Int64("user_id", userID), slog.String("rule", check.rule), slog.Any("error", err))
				continue
			}

			if !result.Allowed {
				m.log.Warn("rate limit exceeded", slog.Int64("user_id", userID), slog.String("rule", check.rule))
				metrics.RecordRateLimited(check.rule)
				return m.reject(c, sender, result)
			}
		}

		return next(c)
	}
}

func (m *RateLimitMiddleware) checks(c telebot.Context, userID int64) []limitCheck {
	limit, window, err := m.rules.GetGlobalLimit()
	checks := []limitCheck{{rule: "global", key: "global", limit: limit, window: window, err: err}}

	limit, window, err = m.rules.GetPerUserLimit()
	checks = append(checks, limitCheck{rule: "per_user", key: fmt.Sprintf("user:%d", userID), limit: limit, window: window, err: err})

	if group, ok := m.rules.GroupFor(CommandName(c)); ok {
		limit, window, err = m.rules.GetCommandLimit(group)
		checks = append(checks, limitCheck{
			rule:   group,
			key:    fmt.Sprintf("cmd:%s:%d", group, userID),
			limit:  limit,
			window: window,
			err:    err,
		})
	}

	return checks
}

func (m *RateLimitMiddleware) reject(c telebot.Context, sender *telebot.User, result *ratelimit.Result) error {
	retryAfter := int(math.Ceil(result.RetryAfter(m.now()).Seconds()))
	text := apperrors.UserMessage(m.catalogs.Translator(sender.LanguageCode), apperrors.NewRateLimitError(retryAfter))

	if c.Callback() != nil {
		return c.Respond(&telebot.CallbackResponse{Text: text, ShowAlert: true})
	}
	return c.Send(text)
}
