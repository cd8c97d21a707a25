package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Proton-105/agro-presale/internal/apiclient"
	"github.com/Proton-105/agro-presale/internal/bot"
	"github.com/Proton-105/agro-presale/internal/catalog"
	apperrors "github.com/Proton-105/agro-presale/internal/errors"
	"github.com/Proton-105/agro-presale/internal/health"
	"github.com/Proton-105/agro-presale/internal/i18n"
	"github.com/Proton-105/agro-presale/internal/idempotency"
	"github.com/Proton-105/agro-presale/internal/jobs"
	jobhandlers "github.com/Proton-105/agro-presale/internal/jobs/handlers"
	"github.com/Proton-105/agro-presale/internal/lifecycle"
	"github.com/Proton-105/agro-presale/internal/middleware"
	"github.com/Proton-105/agro-presale/internal/presale"
	"github.com/Proton-105/agro-presale/internal/ratelimit"
	"github.com/Proton-105/agro-presale/internal/state"
	"github.com/Proton-105/agro-presale/internal/user"
	"github.com/Proton-105/agro-presale/internal/wallet"
	"github.com/Proton-105/agro-presale/pkg/config"
	"github.com/Proton-105/agro-presale/pkg/graceful"
	"github.com/Proton-105/agro-presale/pkg/logger"
	"github.com/Proton-105/agro-presale/pkg/metrics"
	"github.com/Proton-105/agro-presale/pkg/redis"
)

const (
	healthCheckTimeout  = 3 * time.Second
	rateLimitMaxAge     = 10 * time.Minute
	idempotencyMaxTTL   = middleware.UpdateTTL + time.Hour
	userSettingsTTL     = 90 * 24 * time.Hour
	sentryFlushTimeout  = 2 * time.Second
	memoryCleanupPeriod = time.Minute
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "agro-presale: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			SampleRate:  cfg.Sentry.SampleRate,
			Environment: sentryEnvironment(cfg),
		}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
	}

	appLog := logger.New(cfg.Log, cfg.Sentry.Enabled)
	log := appLog.Logger
	slog.SetDefault(log)

	log.Info("starting agro presale bot",
		slog.String("env", cfg.AppEnv),
		slog.String("bot_mode", cfg.Bot.Mode),
		slog.String("api", cfg.API.BaseURL),
	)

	config.Watch(v, cfg.AppEnv, func(updated *config.Config) {
		appLog.SetLevel(updated.Log.Level)
		log.Info("log level reloaded", slog.String("level", updated.Log.Level))
	}, func(err error) {
		log.Warn("ignoring invalid config change", slog.Any("error", err))
	})

	shutdown := lifecycle.NewShutdown(log)
	shutdown.RegisterPhase(lifecycle.PhaseClose, "logger", func(context.Context) error {
		return appLog.Close()
	})
	if cfg.Sentry.Enabled {
		shutdown.RegisterPhase(lifecycle.PhaseClose, "sentry", func(context.Context) error {
			if !sentry.Flush(sentryFlushTimeout) {
				return errors.New("sentry flush timed out")
			}
			return nil
		})
	}

	var rdb *goredis.Client
	if cfg.Redis.Addr != "" {
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		rdb = client.Raw()
		shutdown.RegisterPhase(lifecycle.PhaseClose, "redis", func(context.Context) error {
			return client.Close()
		})
	} else {
		log.Warn("redis address is empty; dialog state, caches and limits stay in memory")
	}

	catalogs, err := loadCatalogs(cfg.I18n)
	if err != nil {
		return err
	}

	api := apiclient.New(cfg.API, log)
	cat := catalog.New(api, rdb, cfg.Catalog.TTL, log)

	bridge := wallet.NewBridge(cfg.Wallet, nil)
	if bridge == nil {
		log.Warn("wallet bridge is not configured; users cannot connect a wallet")
	}

	service := presale.NewService(cat, api, wallet.NewRegistry(bridge.ForUser, log), cfg.Invest, log)
	shutdown.RegisterPhase(lifecycle.PhaseFlush, "investment completions", service.Wait)

	var stateStorage state.Storage
	var userStore user.Store
	var idempotencyStore idempotency.Store
	if rdb != nil {
		stateStorage = state.NewRedisStorage(rdb, cfg.Redis.StateTTL, log)
		userStore = user.NewRedisStore(rdb, userSettingsTTL)
		idempotencyStore = idempotency.NewRedisStore(rdb, log)
	} else {
		stateStorage = state.NewMemoryStorage()
		userStore = user.NewMemoryStore()
		memoryStore := idempotency.NewMemoryStore()
		go runEvery(ctx, memoryCleanupPeriod, func() { memoryStore.Cleanup() })
		idempotencyStore = memoryStore
	}

	fsm := state.NewStateMachine(stateStorage, log, rdb)
	go state.NewCleaner(stateStorage, log, cfg.Redis.StateTTL, cfg.Redis.CleanupInterval).Run(ctx)
	go metrics.NewStateCollector(fsm, service).Run(ctx)

	if rdb != nil {
		go idempotency.NewCleaner(rdb, log, cfg.Redis.CleanupInterval, idempotencyMaxTTL).Run(ctx)
	}

	if rdb != nil && cfg.Jobs.Enabled {
		if err := startJobs(ctx, cfg, cat, shutdown, log); err != nil {
			return err
		}
	}

	b, err := bot.New(*cfg, log, bot.Deps{
		FSM:         fsm,
		Presale:     service,
		Catalog:     cat,
		Users:       user.NewService(userStore, log),
		I18n:        catalogs,
		ErrHandler:  apperrors.NewHandler(log, cfg.Sentry.Enabled, metrics.RecordError),
		Idempotency: idempotency.NewManager(idempotencyStore, log),
		RateLimit:   newRateLimit(ctx, cfg.RateLimit, rdb, cfg.Redis.CleanupInterval, catalogs, log),
	})
	if err != nil {
		return err
	}

	checker := health.NewChecker(log, healthCheckTimeout)
	checker.AddCheck("api", health.NewAPIChecker(api))
	checker.AddCheck("telegram", health.NewTelegramChecker(b.Telebot()))
	if rdb != nil {
		checker.AddCheck("redis", health.NewRedisChecker(rdb))
	}
	probes := lifecycle.NewProbes(checker, log)

	shutdown.RegisterPhase(lifecycle.PhaseDrain, "readiness", func(context.Context) error {
		probes.Drain()
		return nil
	})
	shutdown.RegisterPhase(lifecycle.PhaseDrain, "telegram", func(context.Context) error {
		b.Stop()
		return nil
	})

	var wg sync.WaitGroup
	serverErr := make(chan error, 1)

	serverCtx, stopServer := context.WithCancel(context.WithoutCancel(ctx))
	defer stopServer()

	wg.Add(1)
	go func() {
		defer wg.Done()
		ops := graceful.NewServer(log, &http.Server{
			Addr:    cfg.Server.Port,
			Handler: opsHandler(probes, log),
		}, cfg.Server.ShutdownTimeout)
		if err := ops.ListenAndServe(serverCtx); err != nil {
			serverErr <- fmt.Errorf("ops server: %w", err)
		}
	}()
	shutdown.RegisterPhase(lifecycle.PhaseClose, "ops server", func(context.Context) error {
		stopServer()
		return nil
	})

	go b.Start()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		log.Error("ops server failed", slog.Any("error", err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	err = shutdown.Execute(shutdownCtx)
	wg.Wait()

	return err
}

func sentryEnvironment(cfg *config.Config) string {
	if cfg.Sentry.Environment != "" {
		return cfg.Sentry.Environment
	}
	return cfg.AppEnv
}

func loadCatalogs(cfg config.I18nConfig) (*i18n.Manager, error) {
	if cfg.Dir == "" {
		return i18n.Load(cfg.DefaultLang)
	}

	catalogs, err := i18n.LoadFromDir(cfg.Dir, cfg.DefaultLang)
	if err != nil {
		slog.Warn("falling back to embedded translations", slog.String("dir", cfg.Dir), slog.Any("error", err))
		return i18n.Load(cfg.DefaultLang)
	}
	return catalogs, nil
}

func newRateLimit(
	ctx context.Context,
	cfg config.RateLimitConfig,
	rdb *goredis.Client,
	cleanupInterval time.Duration,
	catalogs *i18n.Manager,
	log *slog.Logger,
) *middleware.RateLimitMiddleware {
	if !cfg.Enabled {
		return nil
	}

	memory := ratelimit.NewMemoryLimiter(log)
	var limiter ratelimit.Limiter = memory
	var cleanerClient *goredis.Client
	if cfg.Backend == "redis" && rdb != nil {
		limiter = ratelimit.NewAdaptiveLimiter(ratelimit.NewRedisLimiter(rdb, log), memory, log)
		cleanerClient = rdb
	}

	go ratelimit.NewCleaner(cleanerClient, memory, log, cleanupInterval, rateLimitMaxAge).Run(ctx)

	return middleware.NewRateLimitMiddleware(limiter, ratelimit.NewRules(cfg), catalogs, log)
}

func startJobs(ctx context.Context, cfg *config.Config, cat *catalog.Catalog, shutdown *lifecycle.Shutdown, log *slog.Logger) error {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	worker := jobs.NewWorker(redisOpt, jobs.Queues, cfg.Jobs.Concurrency, log)
	worker.RegisterHandler(jobs.TaskTypeCatalogRefresh, jobhandlers.NewCatalogRefreshHandler(cat, log))
	if err := worker.Run(); err != nil {
		return fmt.Errorf("start jobs worker: %w", err)
	}

	scheduler := jobs.NewScheduler(redisOpt, log)
	if err := scheduler.RegisterTasks(cfg.Jobs.CatalogRefresh); err != nil {
		worker.Shutdown()
		return fmt.Errorf("register scheduled jobs: %w", err)
	}
	if err := scheduler.Run(); err != nil {
		worker.Shutdown()
		return fmt.Errorf("start jobs scheduler: %w", err)
	}

	manager := jobs.NewManager(redisOpt, log)
	if task, err := jobs.NewCatalogRefreshTask("startup"); err == nil {
		if _, err := manager.Enqueue(ctx, task); err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
			log.Warn("initial catalog refresh was not queued", slog.Any("error", err))
		}
	}

	shutdown.RegisterPhase(lifecycle.PhaseDrain, "jobs scheduler", func(context.Context) error {
		scheduler.Shutdown()
		return nil
	})
	shutdown.RegisterPhase(lifecycle.PhaseDrain, "jobs worker", func(context.Context) error {
		worker.Shutdown()
		return nil
	})
	shutdown.RegisterPhase(lifecycle.PhaseClose, "jobs client", func(context.Context) error {
		return manager.Close()
	})

	return nil
}

func opsHandler(probes *lifecycle.Probes, log *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", probes.LivenessHandler())
	mux.Handle("/readyz", probes.ReadinessHandler())

	return logger.Middleware(middleware.AccessLog(log)(mux))
}

func runEvery(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
