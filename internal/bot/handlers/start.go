package handlers

import (
	"errors"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/agro-presale/internal/bot/keyboard"
	"github.com/Proton-105/agro-presale/internal/state"
)

// NewStartHandler greets the user and initializes the dialog state on the first visit.
func NewStartHandler(fsm state.StateMachine, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		userID, ok := senderID(c)
		if !ok {
			log.Warn("start handler invoked without sender")
			return nil
		}

		ctx := RequestContext(c)
		t := Translator(c)

		_, err := fsm.GetState(ctx, userID)
		switch {
		case err == nil:
			return c.Send(t.T("start.welcome_back"), keyboard.MainMenu(t))
		case errors.Is(err, state.ErrStateNotFound):
			if setErr := fsm.SetState(ctx, userID, state.StateIdle, nil); setErr != nil {
				log.ErrorContext(ctx, "failed to set initial user state", slog.Int64("telegram_id", userID), slog.Any("error", setErr))
				return setErr
			}
			return c.Send(t.T("start.welcome"), keyboard.MainMenu(t))
		default:
			log.ErrorContext(ctx, "failed to fetch user state", slog.Int64("telegram_id", userID), slog.Any("error", err))
			return err
		}
	}
}

// NewHelpHandler answers free text that no dialog is waiting for.
func NewHelpHandler() Handler {
	return func(c telebot.Context) error {
		t := Translator(c)
		return c.Send(t.T("start.help"), keyboard.MainMenu(t))
	}
}

// HandleNoop acknowledges inert buttons such as the page indicator.
func HandleNoop() CallbackHandler {
	return func(c telebot.Context) error {
		return respondCallback(c, "", false)
	}
}
