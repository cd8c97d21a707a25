package handlers

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/agro-presale/internal/bot/keyboard"
	"github.com/Proton-105/agro-presale/internal/i18n"
)

// Language serves /language and the language buttons.
type Language struct {
	catalogs *i18n.Manager
	users    Languages
	kb       *keyboard.Builder
	log      *slog.Logger
}

func NewLanguage(catalogs *i18n.Manager, users Languages, kb *keyboard.Builder, log *slog.Logger) *Language {
	if log == nil {
		log = slog.Default()
	}
	if kb == nil {
		kb = keyboard.NewBuilder(log)
	}

	return &Language{catalogs: catalogs, users: users, kb: kb, log: log}
}

// Command lists the loaded languages, each named in its own language.
func (h *Language) Command() Handler {
	return func(c telebot.Context) error {
		languages := h.catalogs.Languages()
		options := make([]keyboard.LanguageOption, 0, len(languages))
		for _, lang := range languages {
			options = append(options, keyboard.LanguageOption{
				Code: lang,
				Name: h.catalogs.Translator(lang).T("language.name"),
			})
		}

		return c.Send(Translator(c).T("language.choose"), h.kb.LanguageButtons(options))
	}
}

// Select stores the chosen language and answers in it.
func (h *Language) Select() CallbackHandler {
	return func(c telebot.Context) error {
		userID, ok := senderID(c)
		if !ok {
			return nil
		}

		ctx := RequestContext(c)

		lang := ""
		if cb := c.Callback(); cb != nil {
			_, lang, _ = keyboard.DecodeCallback(cb.Data)
		}

		if !h.catalogs.Has(lang) {
			return respondCallback(c, Translator(c).T("errors.generic"), true)
		}

		if err := h.users.SetLanguage(ctx, userID, lang); err != nil {
			h.log.ErrorContext(ctx, "set language: failed to save settings", slog.Int64("telegram_id", userID), slog.Any("error", err))
			return err
		}

		t := h.catalogs.Translator(lang)
		text := t.Format("language.set", map[string]string{"Lang": t.T("language.name")})

		if err := respondCallback(c, text, false); err != nil {
			h.log.WarnContext(ctx, "failed to answer language callback", slog.Any("error", err))
		}

		c.Set(KeyTranslator, t)
		return c.Send(text, keyboard.MainMenu(t))
	}
}
