package user

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

func TestService_Language(t *testing.T) {
	stores := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"redis": func(t *testing.T) Store {
			client, _ := setupTestRedis(t)
			return NewRedisStore(client, 0)
		},
	}

	for name, newStore := range stores {
		newStore := newStore
		t.Run(name, func(t *testing.T) {
			svc := NewService(newStore(t), testLogger())
			ctx := context.Background()
			sender := &telebot.User{ID: 7, LanguageCode: "es"}

			assert.Equal(t, "es", svc.Language(ctx, sender))
			assert.Empty(t, svc.LanguageOf(ctx, 7))

			require.NoError(t, svc.SetLanguage(ctx, 7, " EN "))
			assert.Equal(t, "en", svc.Language(ctx, sender))
			assert.Equal(t, "en", svc.LanguageOf(ctx, 7))
			assert.Empty(t, svc.Language(ctx, nil))
		})
	}
}

func TestService_UpdateLastActiveKeepsLanguage(t *testing.T) {
	svc := NewService(nil, testLogger())
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	ctx := context.Background()

	require.NoError(t, svc.SetLanguage(ctx, 1, "pt"))
	require.NoError(t, svc.UpdateLastActive(ctx, 1))

	settings, err := svc.GetSettings(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "pt", settings.Language)
	assert.True(t, fixed.Equal(settings.LastActiveAt))
}

func TestRedisStore_TTLAndCorruptEntry(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisStore(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, 3, &Settings{Language: "en"}))
	assert.Equal(t, time.Hour, mr.TTL(settingsKey(3)))

	mr.FastForward(2 * time.Hour)
	settings, err := store.Get(ctx, 3)
	require.NoError(t, err)
	assert.Nil(t, settings)

	require.NoError(t, mr.Set(settingsKey(4), "{not json"))
	_, err = store.Get(ctx, 4)
	assert.Error(t, err)
}

func TestService_StoreErrorFallsBackToClientLanguage(t *testing.T) {
	client, mr := setupTestRedis(t)
	svc := NewService(NewRedisStore(client, 0), testLogger())
	mr.Close()

	lang := svc.Language(context.Background(), &telebot.User{ID: 9, LanguageCode: "pt-BR"})
	assert.Equal(t, "pt-BR", lang)
	assert.Error(t, svc.SetLanguage(context.Background(), 9, "en"))
}
