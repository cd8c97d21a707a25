package keyboard

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/agro-presale/internal/i18n"
)

// MenuKeys are the translation keys of the main menu buttons, in display order.
var MenuKeys = []string{"menu.tokens", "menu.stats", "menu.wallet", "menu.language"}

// MainMenu builds a localized reply keyboard for the bot main menu.
func MainMenu(t i18n.Translator) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{
		ResizeKeyboard:  true,
		OneTimeKeyboard: false,
	}

	lookup := func(key string) string {
		if t == nil {
			return key
		}
		return t.T(key)
	}

	tokensBtn := markup.Text(lookup("menu.tokens"))
	statsBtn := markup.Text(lookup("menu.stats"))
	walletBtn := markup.Text(lookup("menu.wallet"))
	languageBtn := markup.Text(lookup("menu.language"))

	markup.Reply(
		markup.Row(tokensBtn, statsBtn),
		markup.Row(walletBtn, languageBtn),
	)

	return markup
}
