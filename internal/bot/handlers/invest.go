package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/agro-presale/internal/bot/keyboard"
	"github.com/Proton-105/agro-presale/internal/domain"
	"github.com/Proton-105/agro-presale/internal/i18n"
	"github.com/Proton-105/agro-presale/internal/investment"
	"github.com/Proton-105/agro-presale/internal/presale"
	"github.com/Proton-105/agro-presale/internal/state"
	"github.com/Proton-105/agro-presale/internal/wallet"
)

// Invest drives the investment dialog: Buy, amount entry, Confirm and the completion notice.
type Invest struct {
	presale Presale
	fsm     state.StateMachine
	kb      *keyboard.Builder
	errs    ErrorReporter
	log     *slog.Logger
}

func NewInvest(presale Presale, fsm state.StateMachine, kb *keyboard.Builder, errs ErrorReporter, log *slog.Logger) *Invest {
	if log == nil {
		log = slog.Default()
	}
	if kb == nil {
		kb = keyboard.NewBuilder(log)
	}

	return &Invest{presale: presale, fsm: fsm, kb: kb, errs: errs, log: log}
}

// Buy opens a dialog for the offering on the button and prompts for the amount.
func (h *Invest) Buy() CallbackHandler {
	return func(c telebot.Context) error {
		userID, ok := senderID(c)
		if !ok || c.Callback() == nil {
			return nil
		}

		ctx := RequestContext(c)
		t := Translator(c)

		_, data, err := keyboard.DecodeCallback(c.Callback().Data)
		if err != nil {
			return respondCallback(c, t.T("errors.offering_unavailable"), true)
		}
		offeringID, err := keyboard.DecodeID(data)
		if err != nil {
			return respondCallback(c, t.T("errors.offering_unavailable"), true)
		}

		offering, err := h.presale.Open(ctx, userID, offeringID)
		switch {
		case errors.Is(err, presale.ErrOfferingClosed):
			return respondCallback(c, t.T("invest.goal_reached"), true)
		case errors.Is(err, presale.ErrOfferingUnavailable):
			return respondCallback(c, t.T("errors.offering_unavailable"), true)
		case err != nil:
			return err
		}

		if err := h.fsm.TransitionTo(ctx, userID, state.StateEnteringAmount, map[string]interface{}{
			state.ContextOfferingID: offeringID,
			state.ContextAmount:     "",
		}); err != nil {
			h.presale.Close(userID)
			return err
		}

		if err := respondCallback(c, "", false); err != nil {
			h.log.WarnContext(ctx, "failed to answer buy callback", slog.Any("error", err))
		}

		return c.Send(PromptText(t, offering), h.kb.CancelButton(t))
	}
}

// Amount handles the text typed while the dialog waits for an amount or a confirmation. A
// disconnected wallet is asked for before the amount is checked. A valid amount moves the
// dialog to confirming and shows the estimate.
func (h *Invest) Amount() Handler {
	return func(c telebot.Context) error {
		userID, ok := senderID(c)
		if !ok {
			return nil
		}

		ctx := RequestContext(c)
		t := Translator(c)
		raw := strings.TrimSpace(c.Text())

		preview, err := h.presale.Preview(userID, raw)
		if errors.Is(err, presale.ErrNoDialog) {
			return h.noDialog(ctx, c, userID)
		}
		if err != nil {
			return err
		}

		if _, connected := h.presale.Wallet(ctx, userID).Account(); !connected {
			if err := h.fsm.TransitionTo(ctx, userID, state.StateEnteringAmount, map[string]interface{}{state.ContextAmount: raw}); err != nil {
				h.log.WarnContext(ctx, "failed to keep dialog in amount entry", slog.Int64("user_id", userID), slog.Any("error", err))
			}
			return c.Send(t.T("invest.connect_first"), h.kb.WalletButtons(t, false))
		}

		amount, appErr := investment.ParseAmount(raw)
		if appErr == nil {
			appErr = investment.Validate(preview.Offering, amount)
		}
		if appErr != nil {
			if err := h.fsm.TransitionTo(ctx, userID, state.StateEnteringAmount, map[string]interface{}{state.ContextAmount: raw}); err != nil {
				h.log.WarnContext(ctx, "failed to keep dialog in amount entry", slog.Int64("user_id", userID), slog.Any("error", err))
			}
			return c.Send(errorText(c, h.errs, t, appErr), h.kb.CancelButton(t))
		}

		if err := h.fsm.TransitionTo(ctx, userID, state.StateConfirming, map[string]interface{}{state.ContextAmount: raw}); err != nil {
			return err
		}

		text := t.Format("invest.estimate", map[string]string{
			"Units":  preview.Units.StringFixed(2),
			"Symbol": preview.Offering.Symbol,
			"Amount": domain.FormatMoney(amount),
		})

		return c.Send(text+"\n\n"+t.T("invest.info"), h.kb.ConfirmButtons(t))
	}
}

// Confirm submits the amount stored in the dialog.
func (h *Invest) Confirm() CallbackHandler {
	return func(c telebot.Context) error {
		userID, ok := senderID(c)
		if !ok {
			return nil
		}

		ctx := RequestContext(c)
		t := Translator(c)

		userState, err := h.fsm.GetState(ctx, userID)
		if err != nil && !errors.Is(err, state.ErrStateNotFound) {
			return err
		}

		raw := ""
		if userState != nil {
			raw = userState.Amount()
		}

		if err := respondCallback(c, t.T("invest.processing"), false); err != nil {
			h.log.WarnContext(ctx, "failed to answer confirm callback", slog.Any("error", err))
		}

		result, err := h.presale.Submit(ctx, userID, raw)
		if errors.Is(err, presale.ErrNoDialog) {
			return h.noDialog(ctx, c, userID)
		}
		if err != nil {
			return err
		}

		switch result.Kind {
		case investment.ConnectRequired:
			return h.connectRequired(c, result)
		case investment.Ignored:
			return c.Send(t.T("invest.in_progress"))
		case investment.Failed:
			if err := h.fsm.TransitionTo(ctx, userID, state.StateEnteringAmount, nil); err != nil {
				h.log.WarnContext(ctx, "failed to return dialog to amount entry", slog.Int64("user_id", userID), slog.Any("error", err))
			}
			return c.Send(errorText(c, h.errs, t, result.Err), h.kb.CancelButton(t))
		case investment.Succeeded:
			return c.Send(SuccessText(t, result.Result))
		default:
			return nil
		}
	}
}

func (h *Invest) connectRequired(c telebot.Context, result presale.SubmitResult) error {
	t := Translator(c)

	if result.Connect == nil {
		return c.Send(t.T("invest.connect_first"), h.kb.WalletButtons(t, false))
	}

	text := ConnectOutcomeText(c, h.errs, *result.Connect)
	if result.Connect.Status == wallet.Connected {
		return c.Send(text, h.kb.ConfirmButtons(t))
	}

	return c.Send(text+"\n"+t.T("invest.connect_first"), h.kb.WalletButtons(t, false))
}

func (h *Invest) noDialog(ctx context.Context, c telebot.Context, userID int64) error {
	if err := h.fsm.TransitionTo(ctx, userID, state.StateIdle, nil); err != nil {
		h.log.WarnContext(ctx, "failed to reset dialog state", slog.Int64("user_id", userID), slog.Any("error", err))
	}
	t := Translator(c)
	return c.Send(t.T("invest.no_dialog"), keyboard.MainMenu(t))
}

// PromptText renders the amount prompt of an offering.
func PromptText(t i18n.Translator, offering domain.Offering) string {
	return t.Format("invest.prompt", map[string]string{
		"Name":      offering.Name,
		"Symbol":    offering.Symbol,
		"Price":     domain.FormatMoney(offering.Price),
		"Min":       domain.FormatMoney(investment.MinimumAmount),
		"Available": domain.FormatMoney(offering.Available()),
	})
}

// SuccessText renders the confirmation of an accepted investment.
func SuccessText(t i18n.Translator, result investment.Result) string {
	amount := result.Amount
	symbol := ""
	if result.Confirmation != nil {
		symbol = result.Confirmation.Symbol
		if amount.IsZero() {
			amount = result.Confirmation.Amount
		}
	}

	return t.Format("invest.success", map[string]string{
		"Amount": domain.FormatMoney(amount),
		"Symbol": symbol,
	})
}

// NewCompletionNotifier returns the callback run once a successful dialog closes: the user gets the
// closing notice with the refreshed stats and the dialog state returns to idle.
func NewCompletionNotifier(
	notifier Notifier,
	fsm state.StateMachine,
	catalog Catalog,
	users Languages,
	catalogs *i18n.Manager,
	log *slog.Logger,
) presale.CompletionFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(ctx context.Context, userID int64, result investment.Result) {
		lang := ""
		if users != nil {
			lang = users.LanguageOf(ctx, userID)
		}
		t := catalogs.Translator(lang)

		if err := fsm.TransitionTo(ctx, userID, state.StateIdle, nil); err != nil {
			log.WarnContext(ctx, "failed to reset dialog after investment", slog.Int64("user_id", userID), slog.Any("error", err))
		}

		recipient := telebot.ChatID(userID)
		if _, err := notifier.Send(recipient, t.T("invest.closed"), keyboard.MainMenu(t)); err != nil {
			log.ErrorContext(ctx, "failed to send dialog closed notice", slog.Int64("user_id", userID), slog.Any("error", err))
			return
		}

		stats, err := catalog.Stats(ctx)
		if err != nil {
			log.WarnContext(ctx, "failed to refresh stats after investment", slog.Int64("user_id", userID), slog.Any("error", err))
			return
		}

		if _, err := notifier.Send(recipient, StatsText(t, stats)); err != nil {
			log.ErrorContext(ctx, "failed to send refreshed stats", slog.Int64("user_id", userID), slog.Any("error", err))
		}
	}
}
