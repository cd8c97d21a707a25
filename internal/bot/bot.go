package bot

import (
	stdErrors "errors"
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/agro-presale/internal/bot/handlers"
	"github.com/Proton-105/agro-presale/internal/bot/keyboard"
	errors "github.com/Proton-105/agro-presale/internal/errors"
	"github.com/Proton-105/agro-presale/internal/i18n"
	"github.com/Proton-105/agro-presale/internal/idempotency"
	"github.com/Proton-105/agro-presale/internal/middleware"
	"github.com/Proton-105/agro-presale/internal/presale"
	"github.com/Proton-105/agro-presale/internal/state"
	"github.com/Proton-105/agro-presale/internal/user"
	"github.com/Proton-105/agro-presale/pkg/config"
)

// Deps are the application services the bot front-end drives.
type Deps struct {
	FSM         state.StateMachine
	Presale     *presale.Service
	Catalog     handlers.Catalog
	Users       *user.Service
	I18n        *i18n.Manager
	ErrHandler  *errors.Handler
	Idempotency idempotency.Manager
	RateLimit   *middleware.RateLimitMiddleware
}

// Bot wraps telebot.Bot with application dependencies required for handling updates.
type Bot struct {
	telebot    *telebot.Bot
	log        *slog.Logger
	cfg        config.Config
	deps       Deps
	router     *Router
	dispatcher *Dispatcher
	keyboard   *keyboard.Builder
}

// New builds a telegram bot instance configured according to the application settings.
func New(cfg config.Config, log *slog.Logger, deps Deps) (*Bot, error) {
	settings := telebot.Settings{
		Token: cfg.Bot.Token,
	}

	if cfg.Bot.Mode == "webhook" {
		if cfg.Bot.WebhookURL == "" {
			return nil, stdErrors.New("bot.webhook_url is required in webhook mode")
		}
		settings.Poller = &telebot.Webhook{
			Listen:   cfg.Server.WebhookPort,
			Endpoint: &telebot.WebhookEndpoint{PublicURL: cfg.Bot.WebhookURL},
		}
	} else {
		settings.Poller = &telebot.LongPoller{
			Timeout: cfg.Bot.Timeout,
		}
	}

	return newBot(settings, cfg, log, deps)
}

func newBot(settings telebot.Settings, cfg config.Config, log *slog.Logger, deps Deps) (*Bot, error) {
	if log == nil {
		log = slog.Default()
	}
	if deps.FSM == nil || deps.Presale == nil || deps.Catalog == nil {
		return nil, stdErrors.New("bot requires state machine, presale service and catalog")
	}

	settings.OnError = func(err error, c telebot.Context) {
		log.Error("telebot error", slog.Any("error", err))
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	dispatcher := NewDispatcher(deps.FSM, log)
	b := &Bot{
		telebot:    tb,
		log:        log,
		cfg:        cfg,
		deps:       deps,
		router:     NewRouter(dispatcher, log),
		dispatcher: dispatcher,
		keyboard:   keyboard.NewBuilder(log),
	}

	b.setupRouter()

	if deps.RateLimit != nil {
		b.telebot.Use(deps.RateLimit.Handle)
	}

	b.registerTelebotHandlers()

	deps.Presale.OnComplete(handlers.NewCompletionNotifier(tb, deps.FSM, deps.Catalog, b.languages(), deps.I18n, log))

	return b, nil
}

// Start runs the telegram bot event loop. It blocks until Stop is called.
func (b *Bot) Start() {
	if b.telebot != nil {
		b.log.Info("starting telegram bot", slog.String("mode", b.cfg.Bot.Mode))
		b.telebot.Start()
	}
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	b.log.Info("stopping telegram bot...")
	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such as health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

func (b *Bot) setupRouter() {
	d := b.deps

	var tracker ActivityTracker
	var resolver LanguageResolver
	if d.Users != nil {
		tracker = d.Users
		resolver = d.Users
	}

	b.router.Use(RecoveryMiddleware(b.log, d.ErrHandler, d.FSM))
	b.router.Use(middleware.Idempotency(d.Idempotency, b.log))
	b.router.Use(LoggingMiddleware(b.log))
	b.router.Use(LanguageMiddleware(d.I18n, resolver))
	b.router.Use(ErrorHandlingMiddleware(d.ErrHandler))
	b.router.Use(LastActiveMiddleware(tracker, b.log))
	b.router.Use(middleware.Metrics)

	var reporter handlers.ErrorReporter
	if d.ErrHandler != nil {
		reporter = d.ErrHandler
	}

	tokens := handlers.NewTokens(d.Catalog, d.FSM, b.keyboard, b.cfg.Catalog.PageSize, b.log)
	invest := handlers.NewInvest(d.Presale, d.FSM, b.keyboard, reporter, b.log)
	wallet := handlers.NewWallet(d.Presale, b.keyboard, reporter, b.log)
	language := handlers.NewLanguage(d.I18n, b.languages(), b.keyboard, b.log)
	help := handlers.NewHelpHandler()

	b.router.RegisterCommand(CommandStart, handlers.NewStartHandler(d.FSM, b.log))
	b.router.RegisterCommand(CommandHelp, help)
	b.router.RegisterCommand(CommandTokens, tokens.Command())
	b.router.RegisterCommand(CommandStats, handlers.NewStatsHandler(d.Catalog))
	b.router.RegisterCommand(CommandWallet, wallet.Command())
	b.router.RegisterCommand(CommandLanguage, language.Command())
	b.router.RegisterCommand(CommandCancel, handlers.NewCancelHandler(d.FSM, d.Presale, b.log))

	for _, lang := range d.I18n.Languages() {
		t := d.I18n.Translator(lang)
		for key, cmd := range menuCommands {
			b.router.RegisterAlias(t.T(key), cmd)
		}
	}

	b.router.RegisterCallback(keyboard.CallbackTokensPage, tokens.Page())
	b.router.RegisterCallback(keyboard.CallbackBuy, invest.Buy())
	b.router.RegisterCallback(keyboard.CallbackInvestConfirm, invest.Confirm())
	b.router.RegisterCallback(keyboard.CallbackInvestCancel, handlers.CallbackHandler(handlers.NewCancelHandler(d.FSM, d.Presale, b.log)))
	b.router.RegisterCallback(keyboard.CallbackWalletConnect, wallet.Connect())
	b.router.RegisterCallback(keyboard.CallbackWalletDisconnect, wallet.Disconnect())
	b.router.RegisterCallback(keyboard.CallbackLanguage, language.Select())
	b.router.RegisterCallback(keyboard.CallbackNoop, handlers.HandleNoop())

	b.dispatcher.RegisterStateHandler(state.StateEnteringAmount, invest.Amount())
	b.dispatcher.RegisterStateHandler(state.StateConfirming, invest.Amount())

	b.router.SetDefault(help)
}

func (b *Bot) languages() handlers.Languages {
	if b.deps.Users == nil {
		return nil
	}
	return b.deps.Users
}

func (b *Bot) registerTelebotHandlers() {
	if b.telebot == nil || b.router == nil {
		return
	}

	b.telebot.Handle(telebot.OnText, b.router.Route)
	b.telebot.Handle(telebot.OnCallback, b.router.Route)
}
