package bot

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/agro-presale/internal/bot/handlers"
	errors "github.com/Proton-105/agro-presale/internal/errors"
	"github.com/Proton-105/agro-presale/internal/i18n"
	"github.com/Proton-105/agro-presale/internal/state"
	"github.com/Proton-105/agro-presale/pkg/logger"
)

// LanguageResolver returns the preferred language of a Telegram user.
type LanguageResolver interface {
	Language(ctx context.Context, sender *telebot.User) string
}

// ActivityTracker records that a user interacted with the bot.
type ActivityTracker interface {
	UpdateLastActive(ctx context.Context, userID int64) error
}

// RecoveryMiddleware catches panics, reports them via the centralized handler and notifies the user.
// The user's dialog is moved to StateError so the dispatcher resets it on the next update.
func RecoveryMiddleware(log *slog.Logger, errHandler *errors.Handler, fsm state.StateMachine) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		return func(c telebot.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					ctx := handlers.RequestContext(c)
					t := handlers.Translator(c)
					log.ErrorContext(ctx, "panic recovered in handler", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))

					userMsg := t.T("errors.generic")
					if errHandler != nil {
						appErr := errors.NewStateError(fmt.Sprintf("panic recovered: %v", r))
						if msg, _ := errHandler.Handle(ctx, t, appErr); msg != "" {
							userMsg = msg
						}
					}

					if fsm != nil && c.Sender() != nil {
						if stateErr := fsm.TransitionTo(ctx, c.Sender().ID, state.StateError, nil); stateErr != nil {
							log.WarnContext(ctx, "failed to mark dialog as failed", slog.Any("error", stateErr))
						}
					}

					if sendErr := c.Send(userMsg); sendErr != nil {
						log.ErrorContext(ctx, "failed to notify user about panic", slog.Any("error", sendErr))
					}

					err = nil
				}
			}()

			return next(c)
		}
	}
}

// ErrorHandlingMiddleware centralizes error reporting and user messaging for handler failures.
func ErrorHandlingMiddleware(errHandler *errors.Handler) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		return func(c telebot.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			t := handlers.Translator(c)
			userMsg := t.T("errors.generic")
			if errHandler != nil {
				if msg, _ := errHandler.Handle(handlers.RequestContext(c), t, err); msg != "" {
					userMsg = msg
				}
			}

			if c.Callback() != nil {
				_ = c.Respond(&telebot.CallbackResponse{})
			}
			_ = c.Send(userMsg)

			return nil
		}
	}
}

// LoggingMiddleware attaches a correlation id to the update and logs basic telemetry about it.
func LoggingMiddleware(log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		return func(c telebot.Context) error {
			start := time.Now()
			ctx := logger.WithCorrelationID(handlers.RequestContext(c), "")
			c.Set(handlers.KeyContext, ctx)

			userID := int64(0)
			if c.Sender() != nil {
				userID = c.Sender().ID
			}

			action := updateAction(c)

			log.InfoContext(ctx, "handling update", slog.Int64("user_id", userID), slog.String("action", action))
			err := next(c)
			log.InfoContext(ctx, "handled update",
				slog.Int64("user_id", userID),
				slog.String("action", action),
				slog.Duration("duration", time.Since(start)),
				slog.Any("error", err),
			)

			return err
		}
	}
}

// LanguageMiddleware resolves the translator of the sender and attaches it to the update.
func LanguageMiddleware(catalogs *i18n.Manager, users LanguageResolver) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		return func(c telebot.Context) error {
			lang := ""
			if sender := c.Sender(); sender != nil {
				lang = sender.LanguageCode
				if users != nil {
					lang = users.Language(handlers.RequestContext(c), sender)
				}
			}

			c.Set(handlers.KeyTranslator, catalogs.Translator(lang))
			return next(c)
		}
	}
}

// LastActiveMiddleware records user activity timestamps without blocking request flow.
func LastActiveMiddleware(tracker ActivityTracker, log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		return func(c telebot.Context) error {
			if tracker != nil && c.Sender() != nil {
				ctx := context.WithoutCancel(handlers.RequestContext(c))
				go func(id int64) {
					if err := tracker.UpdateLastActive(ctx, id); err != nil {
						log.DebugContext(ctx, "failed to record user activity", slog.Int64("user_id", id), slog.Any("error", err))
					}
				}(c.Sender().ID)
			}

			return next(c)
		}
	}
}

func updateAction(c telebot.Context) string {
	if cb := c.Callback(); cb != nil {
		return cb.Data
	}
	return c.Text()
}
