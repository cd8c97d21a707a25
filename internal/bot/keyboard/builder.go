package keyboard

import (
	"log/slog"
	"strconv"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/agro-presale/internal/domain"
	"github.com/Proton-105/agro-presale/internal/i18n"
)

// LanguageOption is a selectable interface language.
type LanguageOption struct {
	Code string
	Name string
}

// Builder creates the inline keyboards used by the presale dialogs.
type Builder struct {
	log *slog.Logger
}

// NewBuilder returns a new Builder instance.
func NewBuilder(log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{log: log}
}

// Offerings builds one Buy button per offering plus the pagination row. Offerings that reached
// their goal get an inert "goal reached" button instead.
func (b *Builder) Offerings(t i18n.Translator, offerings []domain.Offering, page, totalPages int) *telebot.ReplyMarkup {
	kb := NewInlineKeyboard()

	for _, offering := range offerings {
		if offering.Completed() {
			kb.AddRow(InlineButton{
				Text:   translated(t, "tokens.completed", "Goal Reached"),
				Unique: CallbackNoop,
			})
			continue
		}

		kb.AddRow(InlineButton{
			Text:   format(t, "tokens.buy", map[string]string{"Symbol": offering.Symbol}),
			Unique: CallbackBuy,
			Data:   strconv.FormatInt(offering.ID, 10),
		})
	}

	if totalPages > 1 {
		kb.AddRow(PaginationButtons(t, CallbackTokensPage, page, totalPages)...)
	}

	return b.build(kb, "offerings")
}

// ConfirmButtons builds the Confirm/Cancel row shown under an investment estimate.
func (b *Builder) ConfirmButtons(t i18n.Translator) *telebot.ReplyMarkup {
	kb := NewInlineKeyboard().AddRow(
		InlineButton{Text: translated(t, "invest.confirm", "Confirm ✅"), Unique: CallbackInvestConfirm},
		InlineButton{Text: translated(t, "invest.cancel", "Cancel ❌"), Unique: CallbackInvestCancel},
	)
	return b.build(kb, "confirm")
}

// CancelButton builds a single cancel button for the amount prompt.
func (b *Builder) CancelButton(t i18n.Translator) *telebot.ReplyMarkup {
	kb := NewInlineKeyboard().AddRow(
		InlineButton{Text: translated(t, "invest.cancel", "Cancel ❌"), Unique: CallbackInvestCancel},
	)
	return b.build(kb, "cancel")
}

// WalletButtons offers Disconnect for a connected wallet and Connect otherwise.
func (b *Builder) WalletButtons(t i18n.Translator, connected bool) *telebot.ReplyMarkup {
	btn := InlineButton{Text: translated(t, "wallet.connect_button", "Connect MetaMask"), Unique: CallbackWalletConnect}
	if connected {
		btn = InlineButton{Text: translated(t, "wallet.disconnect_button", "Disconnect"), Unique: CallbackWalletDisconnect}
	}
	return b.build(NewInlineKeyboard().AddRow(btn), "wallet")
}

// LanguageButtons lays out one button per language, two per row.
func (b *Builder) LanguageButtons(options []LanguageOption) *telebot.ReplyMarkup {
	kb := NewInlineKeyboard()

	row := make([]InlineButton, 0, 2)
	for _, opt := range options {
		row = append(row, InlineButton{Text: opt.Name, Unique: CallbackLanguage, Data: opt.Code})
		if len(row) == 2 {
			kb.AddRow(row...)
			row = row[:0]
		}
	}
	kb.AddRow(row...)

	return b.build(kb, "language")
}

func (b *Builder) build(kb *InlineKeyboardBuilder, name string) *telebot.ReplyMarkup {
	markup, err := kb.Build()
	if err != nil {
		b.log.Error("failed to build keyboard", slog.String("keyboard", name), slog.Any("error", err))
		return nil
	}
	return markup
}

func format(t i18n.Translator, key string, params map[string]string) string {
	if t == nil {
		return i18n.Render(key, params)
	}
	return t.Format(key, params)
}
