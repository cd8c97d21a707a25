package config

import "time"

// Config holds runtime configuration for the presale bot.
type Config struct {
	AppEnv    string          `mapstructure:"-"`
	Log       LogConfig       `mapstructure:"log"`
	Bot       BotConfig       `mapstructure:"bot" validate:"required"`
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	API       APIConfig       `mapstructure:"api" validate:"required"`
	Wallet    WalletConfig    `mapstructure:"wallet"`
	Invest    InvestConfig    `mapstructure:"invest"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	I18n      I18nConfig      `mapstructure:"i18n"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
}

// LogConfig controls slog output.
type LogConfig struct {
	Level      string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"omitempty,oneof=json text"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
}

// BotConfig configures the Telegram transport. WebhookURL is the public endpoint Telegram posts
// updates to and is required in webhook mode.
type BotConfig struct {
	Token      string        `mapstructure:"token" validate:"required"`
	Mode       string        `mapstructure:"mode" validate:"omitempty,oneof=polling webhook"`
	Timeout    time.Duration `mapstructure:"timeout"`
	WebhookURL string        `mapstructure:"webhook_url" validate:"omitempty,url"`
}

// ServerConfig configures the ops HTTP server (metrics and probes) and the webhook listener.
type ServerConfig struct {
	Port            string        `mapstructure:"port" validate:"required"`
	WebhookPort     string        `mapstructure:"webhook_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// APIConfig points at the remote presale API.
type APIConfig struct {
	BaseURL           string        `mapstructure:"base_url" validate:"required,url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" validate:"gte=0"`
	Burst             int           `mapstructure:"burst" validate:"gte=0"`
}

// WalletConfig points at the wallet bridge. An empty BridgeURL means no wallet provider is installed.
type WalletConfig struct {
	BridgeURL string        `mapstructure:"bridge_url" validate:"omitempty,url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// InvestConfig tunes the investment dialog.
type InvestConfig struct {
	DisplayDelay time.Duration `mapstructure:"display_delay"`
}

// CatalogConfig tunes caching of offerings and stats.
type CatalogConfig struct {
	TTL      time.Duration `mapstructure:"ttl"`
	PageSize int           `mapstructure:"page_size" validate:"gte=0"`
}

// RedisConfig is the connection block consumed by pkg/redis.
type RedisConfig struct {
	Addr            string        `mapstructure:"addr"`
	Password        string        `mapstructure:"password"`
	DB              int           `mapstructure:"db"`
	PoolSize        int           `mapstructure:"pool_size"`
	MinIdleConns    int           `mapstructure:"min_idle_conns"`
	PoolTimeout     time.Duration `mapstructure:"pool_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	MinRetryBackoff time.Duration `mapstructure:"min_retry_backoff"`
	MaxRetryBackoff time.Duration `mapstructure:"max_retry_backoff"`
	StateTTL        time.Duration `mapstructure:"state_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// SentryConfig toggles error reporting.
type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn" validate:"required_if=Enabled true"`
	SampleRate  float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	Environment string  `mapstructure:"environment"`
}

// RateLimitRule is a single "limit per window" rule, window in time.ParseDuration format.
type RateLimitRule struct {
	Limit  int    `mapstructure:"limit" validate:"gte=0"`
	Window string `mapstructure:"window"`
}

// RateLimitCommands holds per-command rules.
type RateLimitCommands struct {
	Tokens RateLimitRule `mapstructure:"tokens"`
	Invest RateLimitRule `mapstructure:"invest"`
	Wallet RateLimitRule `mapstructure:"wallet"`
}

// RateLimitConfig holds inbound update limits.
type RateLimitConfig struct {
	Enabled   bool              `mapstructure:"enabled"`
	Backend   string            `mapstructure:"backend" validate:"omitempty,oneof=memory redis"`
	Global    RateLimitRule     `mapstructure:"global"`
	PerUser   RateLimitRule     `mapstructure:"per_user"`
	Commands  RateLimitCommands `mapstructure:"commands"`
	Whitelist []int64           `mapstructure:"whitelist"`
}

// I18nConfig selects the translations directory and default language.
type I18nConfig struct {
	Dir         string `mapstructure:"dir"`
	DefaultLang string `mapstructure:"default_lang" validate:"omitempty,len=2"`
}

// JobsConfig controls the Redis-backed background jobs. They only run when Redis is configured.
type JobsConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	CatalogRefresh string `mapstructure:"catalog_refresh"`
	Concurrency    int    `mapstructure:"concurrency" validate:"gte=0"`
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Bot.Mode == "" {
		c.Bot.Mode = "polling"
	}
	if c.Bot.Timeout == 0 {
		c.Bot.Timeout = 10 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = 15 * time.Second
	}
	if c.Wallet.Timeout == 0 {
		c.Wallet.Timeout = 60 * time.Second
	}
	if c.Invest.DisplayDelay == 0 {
		c.Invest.DisplayDelay = 2 * time.Second
	}
	if c.Catalog.TTL == 0 {
		c.Catalog.TTL = 30 * time.Second
	}
	if c.Catalog.PageSize == 0 {
		c.Catalog.PageSize = 5
	}
	if c.Redis.StateTTL == 0 {
		c.Redis.StateTTL = time.Hour
	}
	if c.Redis.CleanupInterval == 0 {
		c.Redis.CleanupInterval = 10 * time.Minute
	}
	if c.RateLimit.Backend == "" {
		c.RateLimit.Backend = "memory"
	}
	if c.I18n.DefaultLang == "" {
		c.I18n.DefaultLang = "pt"
	}
	if c.Sentry.Environment == "" {
		c.Sentry.Environment = c.AppEnv
	}
	if c.Jobs.CatalogRefresh == "" {
		c.Jobs.CatalogRefresh = "@every 1m"
	}
	if c.Jobs.Concurrency == 0 {
		c.Jobs.Concurrency = 2
	}
}
