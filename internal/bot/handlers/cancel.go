package handlers

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/agro-presale/internal/bot/keyboard"
	"github.com/Proton-105/agro-presale/internal/state"
)

// DialogCloser discards an open investment dialog.
type DialogCloser interface {
	Close(userID int64) bool
}

// NewCancelHandler closes the investment dialog, resets user state and returns the user to the
// main menu. It serves both /cancel and the Cancel button.
func NewCancelHandler(fsm state.StateMachine, dialogs DialogCloser, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		userID, ok := senderID(c)
		if !ok {
			log.Warn("cancel handler invoked without sender context")
			return nil
		}

		ctx := RequestContext(c)
		t := Translator(c)

		if dialogs != nil && dialogs.Close(userID) {
			log.InfoContext(ctx, "investment dialog cancelled", slog.Int64("user_id", userID))
		}

		if err := fsm.ClearState(ctx, userID); err != nil {
			log.ErrorContext(ctx, "failed to clear user state", slog.Int64("user_id", userID), slog.Any("error", err))
			return err
		}

		if err := respondCallback(c, "", false); err != nil {
			log.WarnContext(ctx, "failed to answer cancel callback", slog.Int64("user_id", userID), slog.Any("error", err))
		}

		if err := c.Send(t.T("cancel.done"), keyboard.MainMenu(t)); err != nil {
			log.ErrorContext(ctx, "failed to notify user about cancellation", slog.Int64("user_id", userID), slog.Any("error", err))
			return err
		}

		return nil
	}
}
