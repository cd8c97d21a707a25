package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/agro-presale/internal/bot/handlers"
	"github.com/Proton-105/agro-presale/internal/idempotency"
)

// UpdateTTL is how long a processed update key is remembered.
const UpdateTTL = 24 * time.Hour

// Idempotency ensures handlers execute at most once per Telegram update key.
func Idempotency(manager idempotency.Manager, log *slog.Logger) handlers.Middleware {
	if manager == nil {
		return func(next handlers.Handler) handlers.Handler {
			return next
		}
	}
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			key := UpdateKey(c)
			if key == "" {
				return next(c)
			}

			ctx := handlers.RequestContext(c)

			result, err := manager.Execute(ctx, key, UpdateTTL, func(context.Context) (interface{}, error) {
				return nil, next(c)
			})
			if err != nil {
				if errors.Is(err, idempotency.ErrRequestInProgress) {
					log.DebugContext(ctx, "duplicate update in progress", slog.String("key", key))
					return acknowledge(c)
				}

				log.ErrorContext(ctx, "idempotent handler failed", slog.String("key", key), slog.Any("error", err))
				return err
			}

			if result != nil && result.FromCache {
				log.DebugContext(ctx, "duplicate update skipped", slog.String("key", key))
				return acknowledge(c)
			}

			return nil
		}
	}
}

// acknowledge stops the button spinner of a skipped callback. Messages need no answer.
func acknowledge(c telebot.Context) error {
	if c.Callback() == nil {
		return nil
	}
	return c.Respond()
}

// UpdateKey derives the de-duplication key of an update: the callback id for button presses,
// chat and message id for messages.
func UpdateKey(c telebot.Context) string {
	if c == nil {
		return ""
	}

	if cb := c.Callback(); cb != nil {
		if cb.ID != "" {
			return idempotency.GenerateKey("cb", cb.ID)
		}

		if cb.Message != nil {
			chatID := int64(0)
			if cb.Message.Chat != nil {
				chatID = cb.Message.Chat.ID
			}
			return idempotency.GenerateKey("cb-msg", chatID, cb.Message.ID, cb.Data)
		}
	}

	if msg := c.Message(); msg != nil && msg.ID != 0 {
		chatID := int64(0)
		if msg.Chat != nil {
			chatID = msg.Chat.ID
		}
		return idempotency.GenerateKey("msg", chatID, msg.ID)
	}

	return ""
}
