package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Settings are the per-user preferences kept between dialogs.
type Settings struct {
	Language     string    `json:"language,omitempty"`
	LastActiveAt time.Time `json:"last_active_at"`
}

// Store persists user settings. Get returns nil, nil for unknown users.
type Store interface {
	Get(ctx context.Context, userID int64) (*Settings, error)
	Set(ctx context.Context, userID int64, settings *Settings) error
}

// RedisStore keeps settings as JSON documents in Redis.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore constructs a settings store backed by the provided Redis client. A zero ttl keeps
// entries forever.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Get fetches the stored settings if they exist.
func (s *RedisStore) Get(ctx context.Context, userID int64) (*Settings, error) {
	if s == nil || s.client == nil {
		return nil, nil
	}

	data, err := s.client.Get(ctx, settingsKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user settings: %w", err)
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("decode user settings: %w", err)
	}

	return &settings, nil
}

// Set stores the settings, refreshing the TTL.
func (s *RedisStore) Set(ctx context.Context, userID int64, settings *Settings) error {
	if s == nil || s.client == nil || settings == nil {
		return nil
	}

	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode user settings: %w", err)
	}

	if err := s.client.Set(ctx, settingsKey(userID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("set user settings: %w", err)
	}

	return nil
}

// MemoryStore keeps settings in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	settings map[int64]Settings
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{settings: make(map[int64]Settings)}
}

func (s *MemoryStore) Get(_ context.Context, userID int64) (*Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settings, ok := s.settings[userID]
	if !ok {
		return nil, nil
	}
	return &settings, nil
}

func (s *MemoryStore) Set(_ context.Context, userID int64, settings *Settings) error {
	if settings == nil {
		return nil
	}

	s.mu.Lock()
	s.settings[userID] = *settings
	s.mu.Unlock()

	return nil
}

func settingsKey(userID int64) string {
	return fmt.Sprintf("user:settings:%d", userID)
}
