package wallet

import (
	"context"
	"log/slog"
	"sync"
)

// ProviderFactory builds the provider for a user; it may return nil.
type ProviderFactory func(userID int64) Provider

// Registry keeps one Session per user for the lifetime of the process.
type Registry struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	factory  ProviderFactory
	log      *slog.Logger
}

func NewRegistry(factory ProviderFactory, log *slog.Logger) *Registry {
	if factory == nil {
		factory = func(int64) Provider { return nil }
	}
	if log == nil {
		log = slog.Default()
	}

	return &Registry{
		sessions: make(map[int64]*Session),
		factory:  factory,
		log:      log,
	}
}

// Session returns the user's session, creating and probing it on first use.
func (r *Registry) Session(ctx context.Context, userID int64) *Session {
	r.mu.Lock()
	session, ok := r.sessions[userID]
	if !ok {
		session = NewSession(r.factory(userID), r.log.With(slog.Int64("user_id", userID)))
		r.sessions[userID] = session
	}
	r.mu.Unlock()

	if !ok {
		session.CheckExisting(ctx)
	}

	return session
}

// Len returns the number of known sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}
