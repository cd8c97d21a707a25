package user

import (
	"context"
	"log/slog"
	"strings"
	"time"

	telebot "gopkg.in/telebot.v3"
)

// Service provides business operations over user settings.
type Service struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

// NewService constructs a new Service instance. A nil store keeps settings in memory.
func NewService(store Store, log *slog.Logger) *Service {
	if store == nil {
		store = NewMemoryStore()
	}
	if log == nil {
		log = slog.Default()
	}

	return &Service{store: store, log: log, now: time.Now}
}

// GetSettings returns the stored settings, or zero settings for unknown users.
func (s *Service) GetSettings(ctx context.Context, userID int64) (*Settings, error) {
	settings, err := s.store.Get(ctx, userID)
	if err != nil {
		s.logError("get_settings", userID, err)
		return nil, err
	}

	if settings == nil {
		settings = &Settings{}
	}

	return settings, nil
}

// Language returns the language chosen by the user, falling back to the Telegram client language.
func (s *Service) Language(ctx context.Context, sender *telebot.User) string {
	if sender == nil {
		return ""
	}

	if lang := s.LanguageOf(ctx, sender.ID); lang != "" {
		return lang
	}

	return sender.LanguageCode
}

// LanguageOf returns the stored language of userID or "" when none was chosen.
func (s *Service) LanguageOf(ctx context.Context, userID int64) string {
	settings, err := s.store.Get(ctx, userID)
	if err != nil {
		s.logError("language_of", userID, err)
		return ""
	}

	if settings == nil {
		return ""
	}

	return settings.Language
}

// SetLanguage saves the interface language of the user.
func (s *Service) SetLanguage(ctx context.Context, userID int64, lang string) error {
	return s.update(ctx, userID, "set_language", func(settings *Settings) {
		settings.Language = strings.ToLower(strings.TrimSpace(lang))
	})
}

// UpdateLastActive refreshes the last activity timestamp of the user.
func (s *Service) UpdateLastActive(ctx context.Context, userID int64) error {
	return s.update(ctx, userID, "update_last_active", func(settings *Settings) {
		settings.LastActiveAt = s.now().UTC()
	})
}

func (s *Service) update(ctx context.Context, userID int64, operation string, apply func(*Settings)) error {
	settings, err := s.GetSettings(ctx, userID)
	if err != nil {
		return err
	}

	apply(settings)

	if err := s.store.Set(ctx, userID, settings); err != nil {
		s.logError(operation, userID, err)
		return err
	}

	return nil
}

func (s *Service) logError(operation string, telegramID int64, err error) {
	if s == nil || s.log == nil || err == nil {
		return
	}

	s.log.Error("user service operation failed",
		slog.String("operation", operation),
		slog.Int64("telegram_id", telegramID),
		slog.Any("error", err),
	)
}
