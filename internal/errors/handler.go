package errors

import (
	"context"
	"errors"
	"log/slog"

	"github.com/getsentry/sentry-go"

	"github.com/Proton-105/agro-presale/internal/i18n"
)

const genericUserKey = "errors.generic"

// Recorder receives one call per handled error, typically a metrics counter.
type Recorder func(kind, severity string)

type Handler struct {
	log           *slog.Logger
	sentryEnabled bool
	record        Recorder
}

func NewHandler(log *slog.Logger, sentryEnabled bool, record Recorder) *Handler {
	if record == nil {
		record = func(string, string) {}
	}

	return &Handler{
		log:           log,
		sentryEnabled: sentryEnabled,
		record:        record,
	}
}

// Handle logs err, reports severe ones to Sentry and returns the localized message for the user
// together with whether repeating the action may succeed.
func (h *Handler) Handle(ctx context.Context, t i18n.Translator, err error) (string, bool) {
	if err == nil {
		return "", false
	}

	if ctx == nil {
		ctx = context.Background()
	}

	log := h.log
	if log == nil {
		log = slog.Default()
	}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		level := slog.LevelError
		if appErr.Severity == SeverityLow {
			level = slog.LevelWarn
		}

		log.LogAttrs(ctx, level, "application error",
			slog.String("code", appErr.Code),
			slog.String("kind", string(appErr.Kind)),
			slog.String("message", err.Error()),
			slog.String("severity", string(appErr.Severity)),
			slog.Bool("retryable", appErr.Retryable),
		)
		h.record(string(appErr.Kind), string(appErr.Severity))

		if h.sentryEnabled && (appErr.Severity == SeverityCritical || appErr.Severity == SeverityHigh) {
			h.sendToSentry(ctx, err)
		}

		return UserMessage(t, appErr), appErr.Retryable
	}

	log.LogAttrs(ctx, slog.LevelError, "unknown error",
		slog.String("message", err.Error()),
		slog.String("severity", string(SeverityHigh)),
		slog.Bool("retryable", false),
	)
	h.record("unknown", string(SeverityHigh))

	if h.sentryEnabled {
		h.sendToSentry(ctx, err)
	}

	return translate(t, genericUserKey, nil), false
}

// UserMessage renders the localized message for appErr.
func UserMessage(t i18n.Translator, appErr *AppError) string {
	if appErr == nil {
		return ""
	}

	key := appErr.UserKey
	if key == "" {
		key = genericUserKey
	}

	return translate(t, key, appErr.Params)
}

func translate(t i18n.Translator, key string, params map[string]string) string {
	if t == nil {
		return i18n.Render(key, params)
	}
	return t.Format(key, params)
}

func (h *Handler) sendToSentry(ctx context.Context, err error) {
	if err == nil {
		return
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}

	hub.WithScope(func(scope *sentry.Scope) {
		var appErr *AppError
		if errors.As(err, &appErr) && appErr != nil {
			if appErr.Code != "" {
				scope.SetTag("code", appErr.Code)
			}

			if appErr.Severity != "" {
				scope.SetTag("severity", string(appErr.Severity))
			}
		}

		hub.CaptureException(err)
	})
}
