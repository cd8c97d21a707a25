// Package logger builds the application's slog pipeline.
package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	slogsentry "github.com/samber/slog-sentry/v2"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Proton-105/agro-presale/pkg/config"
)

// Logger bundles the structured logger with its adjustable level and any file sink that must be closed.
type Logger struct {
	*slog.Logger
	level *slog.LevelVar
	sink  io.Closer
}

// New creates a Logger writing to stdout and, when cfg.File is set, to a rotating file.
// Error records are additionally forwarded to Sentry when sentryEnabled is true.
func New(cfg config.LogConfig, sentryEnabled bool) *Logger {
	level := &slog.LevelVar{}
	level.Set(ParseLevel(cfg.Level))

	var (
		out  io.Writer = os.Stdout
		sink io.Closer
	)
	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, rotator)
		sink = rotator
	}

	opts := &slog.HandlerOptions{Level: level, AddSource: level.Level() == slog.LevelDebug}

	var base slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		base = slog.NewTextHandler(out, opts)
	} else {
		base = slog.NewJSONHandler(out, opts)
	}

	handler := slog.Handler(NewMaskingHandler(base))
	if sentryEnabled {
		sentryHandler := slogsentry.Option{Level: slog.LevelError}.NewSentryHandler()
		handler = fanout{handler, NewMaskingHandler(sentryHandler)}
	}

	return &Logger{
		Logger: slog.New(handler).With(slog.String("service", "agro-presale")),
		level:  level,
		sink:   sink,
	}
}

// SetLevel changes the minimum level at runtime.
func (l *Logger) SetLevel(name string) {
	if l == nil || l.level == nil {
		return
	}
	l.level.Set(ParseLevel(name))
}

// Close releases the file sink, if any.
func (l *Logger) Close() error {
	if l == nil || l.sink == nil {
		return nil
	}
	return l.sink.Close()
}

// ParseLevel maps a config level name to a slog.Level, defaulting to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// fanout duplicates records to every handler that accepts the level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, h := range f {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make(fanout, len(f))
	for i, h := range f {
		next[i] = h.WithAttrs(attrs)
	}
	return next
}

func (f fanout) WithGroup(name string) slog.Handler {
	next := make(fanout, len(f))
	for i, h := range f {
		next[i] = h.WithGroup(name)
	}
	return next
}
