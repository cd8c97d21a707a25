package handlers

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/agro-presale/internal/bot/keyboard"
	apperrors "github.com/Proton-105/agro-presale/internal/errors"
	"github.com/Proton-105/agro-presale/internal/i18n"
	"github.com/Proton-105/agro-presale/internal/wallet"
)

// Wallet serves /wallet and the connect/disconnect buttons.
type Wallet struct {
	presale Presale
	kb      *keyboard.Builder
	errs    ErrorReporter
	log     *slog.Logger
}

func NewWallet(presale Presale, kb *keyboard.Builder, errs ErrorReporter, log *slog.Logger) *Wallet {
	if log == nil {
		log = slog.Default()
	}
	if kb == nil {
		kb = keyboard.NewBuilder(log)
	}

	return &Wallet{presale: presale, kb: kb, errs: errs, log: log}
}

// Command shows the wallet status with the matching button.
func (h *Wallet) Command() Handler {
	return func(c telebot.Context) error {
		userID, ok := senderID(c)
		if !ok {
			return nil
		}

		t := Translator(c)
		account, connected := h.presale.Wallet(RequestContext(c), userID).Account()

		text := t.T("wallet.status_disconnected")
		if connected {
			text = t.Format("wallet.status_connected", map[string]string{"Address": wallet.FormatAddress(account)})
		}

		return c.Send(text, h.kb.WalletButtons(t, connected))
	}
}

// Connect asks the provider for accounts and reports the outcome.
func (h *Wallet) Connect() CallbackHandler {
	return func(c telebot.Context) error {
		userID, ok := senderID(c)
		if !ok {
			return nil
		}

		ctx := RequestContext(c)
		t := Translator(c)
		outcome := h.presale.ConnectWallet(ctx, userID)

		text := ConnectOutcomeText(c, h.errs, outcome)
		if err := respondCallback(c, "", false); err != nil {
			h.log.WarnContext(ctx, "failed to answer wallet callback", slog.Any("error", err))
		}

		return c.Send(text, h.kb.WalletButtons(t, outcome.Status == wallet.Connected))
	}
}

// Disconnect forgets the connected account.
func (h *Wallet) Disconnect() CallbackHandler {
	return func(c telebot.Context) error {
		userID, ok := senderID(c)
		if !ok {
			return nil
		}

		ctx := RequestContext(c)
		t := Translator(c)
		h.presale.DisconnectWallet(ctx, userID)

		if err := respondCallback(c, "", false); err != nil {
			h.log.WarnContext(ctx, "failed to answer wallet callback", slog.Any("error", err))
		}

		return c.Send(t.T("wallet.disconnected"), h.kb.WalletButtons(t, false))
	}
}

// ConnectOutcomeText renders the message for a connect attempt. Failures go through errs so they
// are logged and counted.
func ConnectOutcomeText(c telebot.Context, errs ErrorReporter, outcome wallet.ConnectOutcome) string {
	t := Translator(c)

	if outcome.Status == wallet.Connected {
		return t.Format("wallet.connected", map[string]string{"Address": wallet.FormatAddress(outcome.Account)})
	}

	if outcome.Err == nil {
		return t.T("errors.generic")
	}

	return errorText(c, errs, t, outcome.Err)
}

func errorText(c telebot.Context, errs ErrorReporter, t i18n.Translator, appErr *apperrors.AppError) string {
	if errs != nil {
		if msg, _ := errs.Handle(RequestContext(c), t, appErr); msg != "" {
			return msg
		}
	}
	return apperrors.UserMessage(t, appErr)
}
