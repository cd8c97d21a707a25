package handlers

import (
	"context"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/agro-presale/internal/domain"
	"github.com/Proton-105/agro-presale/internal/i18n"
	"github.com/Proton-105/agro-presale/internal/presale"
	"github.com/Proton-105/agro-presale/internal/wallet"
)

// Catalog serves the offering list and the aggregate stats.
type Catalog interface {
	Offerings(ctx context.Context) ([]domain.Offering, error)
	Stats(ctx context.Context) (domain.Stats, error)
}

// Presale is the dialog and wallet API of presale.Service used by the handlers.
type Presale interface {
	Open(ctx context.Context, userID, offeringID int64) (domain.Offering, error)
	Preview(userID int64, raw string) (presale.Preview, error)
	Submit(ctx context.Context, userID int64, raw string) (presale.SubmitResult, error)
	Close(userID int64) bool
	ConnectWallet(ctx context.Context, userID int64) wallet.ConnectOutcome
	DisconnectWallet(ctx context.Context, userID int64)
	Wallet(ctx context.Context, userID int64) *wallet.Session
}

// Languages stores the interface language chosen by each user.
type Languages interface {
	LanguageOf(ctx context.Context, userID int64) string
	SetLanguage(ctx context.Context, userID int64, lang string) error
}

// ErrorReporter logs an error and returns the localized message to show; *errors.Handler implements it.
type ErrorReporter interface {
	Handle(ctx context.Context, t i18n.Translator, err error) (string, bool)
}

// Notifier sends messages outside of an update, e.g. *telebot.Bot.
type Notifier interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}
