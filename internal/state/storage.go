// Package state keeps each user's conversation state for the bot.
package state

import (
	"context"
	"sync"
	"time"
)

// Storage defines the persistence contract for user FSM state.
type Storage interface {
	// GetState returns the current state for the specified user.
	GetState(ctx context.Context, userID int64) (*UserState, error)
	// SetState saves the provided state for the specified user.
	SetState(ctx context.Context, userID int64, state *UserState) error
	// ClearState removes the state for the specified user.
	ClearState(ctx context.Context, userID int64) error
	// GetAllStates returns every stored state.
	GetAllStates(ctx context.Context) ([]*UserState, error)
}

// MemoryStorage keeps states in process memory, for running without Redis.
type MemoryStorage struct {
	mu     sync.RWMutex
	states map[int64]*UserState
	now    func() time.Time
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		states: make(map[int64]*UserState),
		now:    time.Now,
	}
}

func (s *MemoryStorage) GetState(_ context.Context, userID int64) (*UserState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[userID]
	if !ok {
		return nil, ErrStateNotFound
	}

	return cloneState(state), nil
}

func (s *MemoryStorage) SetState(_ context.Context, userID int64, state *UserState) error {
	state.UpdatedAt = s.now().UTC()

	s.mu.Lock()
	s.states[userID] = cloneState(state)
	s.mu.Unlock()

	return nil
}

func (s *MemoryStorage) ClearState(_ context.Context, userID int64) error {
	s.mu.Lock()
	delete(s.states, userID)
	s.mu.Unlock()

	return nil
}

func (s *MemoryStorage) GetAllStates(_ context.Context) ([]*UserState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*UserState, 0, len(s.states))
	for _, state := range s.states {
		result = append(result, cloneState(state))
	}

	return result, nil
}

func cloneState(state *UserState) *UserState {
	if state == nil {
		return nil
	}

	copied := *state
	if state.Context != nil {
		copied.Context = make(map[string]interface{}, len(state.Context))
		for k, v := range state.Context {
			copied.Context[k] = v
		}
	}

	return &copied
}
