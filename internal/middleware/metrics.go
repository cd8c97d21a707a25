package middleware

import (
	"strings"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/agro-presale/internal/bot/handlers"
	"github.com/Proton-105/agro-presale/internal/bot/keyboard"
	"github.com/Proton-105/agro-presale/pkg/metrics"
)

// Metrics measures execution time and status for bot handlers, reporting them to Prometheus.
func Metrics(next handlers.Handler) handlers.Handler {
	if next == nil {
		return nil
	}

	return func(c telebot.Context) error {
		start := time.Now()
		err := next(c)

		status := "ok"
		if err != nil {
			status = "error"
		}

		metrics.RecordCommand(CommandName(c), status, time.Since(start))

		return err
	}
}

// CommandName is a low-cardinality label for the update: the command ("/tokens"), the callback
// unique ("buy") or "text" for free text.
func CommandName(c telebot.Context) string {
	if c == nil {
		return "unknown"
	}

	if cb := c.Callback(); cb != nil {
		if unique, _, err := keyboard.DecodeCallback(cb.Data); err == nil {
			return unique
		}
		return "unknown"
	}

	text := strings.TrimSpace(c.Text())
	if strings.HasPrefix(text, "/") {
		if i := strings.IndexAny(text, " @\n"); i >= 0 {
			text = text[:i]
		}
		return strings.ToLower(text)
	}

	if text != "" {
		return "text"
	}

	return "unknown"
}
