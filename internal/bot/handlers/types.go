package handlers

import (
	"context"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/agro-presale/internal/i18n"
)

// Handler processes bot commands.
type Handler func(c telebot.Context) error

// CallbackHandler processes inline callback events.
type CallbackHandler func(c telebot.Context) error

// Middleware wraps handlers with additional behavior.
type Middleware func(Handler) Handler

// Keys of the values middlewares attach to telebot.Context.
const (
	KeyContext    = "request_ctx"
	KeyTranslator = "translator"
)

var fallbackTranslator = (*i18n.Manager)(nil).Translator("")

// RequestContext returns the context attached by the logging middleware, carrying the correlation id.
func RequestContext(c telebot.Context) context.Context {
	if c != nil {
		if ctx, ok := c.Get(KeyContext).(context.Context); ok && ctx != nil {
			return ctx
		}
	}
	return context.Background()
}

// Translator returns the translator resolved for the sender by the language middleware.
func Translator(c telebot.Context) i18n.Translator {
	if c != nil {
		if t, ok := c.Get(KeyTranslator).(i18n.Translator); ok && t != nil {
			return t
		}
	}
	return fallbackTranslator
}

func senderID(c telebot.Context) (int64, bool) {
	if c == nil || c.Sender() == nil {
		return 0, false
	}
	return c.Sender().ID, true
}

func respondCallback(c telebot.Context, text string, alert bool) error {
	if c == nil || c.Callback() == nil {
		return nil
	}
	return c.Respond(&telebot.CallbackResponse{
		Text:      text,
		ShowAlert: alert,
	})
}
