package wallet

import (
	"context"
	"log/slog"
	"sync"

	apperrors "github.com/Proton-105/agro-presale/internal/errors"
)

// ConnectStatus is the tag of a ConnectOutcome.
type ConnectStatus int

const (
	Connected ConnectStatus = iota
	NotInstalled
	Rejected
	Failed
)

func (s ConnectStatus) String() string {
	switch s {
	case Connected:
		return "connected"
	case NotInstalled:
		return "not_installed"
	case Rejected:
		return "rejected"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// ConnectOutcome is the result of an interactive connect attempt.
// Err is nil only for Connected.
type ConnectOutcome struct {
	Status  ConnectStatus
	Account string
	Err     *apperrors.AppError
}

var connectRecorder = func(string) {}

// RegisterConnectRecorder allows external packages to observe connect outcomes.
func RegisterConnectRecorder(recorder func(status string)) {
	if recorder == nil {
		connectRecorder = func(string) {}
		return
	}

	connectRecorder = recorder
}

// Session tracks one user's connection to their wallet provider.
type Session struct {
	mu        sync.RWMutex
	provider  Provider
	account   string
	connected bool
	log       *slog.Logger
}

// NewSession creates a disconnected session. A nil provider means no wallet is installed.
func NewSession(provider Provider, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}

	return &Session{provider: provider, log: log}
}

// CheckExisting adopts the first already-authorized account. Failures leave the session
// disconnected and are only logged.
func (s *Session) CheckExisting(ctx context.Context) {
	if s.provider == nil {
		return
	}

	accounts, err := s.provider.Accounts(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "wallet probe failed", slog.String("error", err.Error()))
		return
	}

	if len(accounts) == 0 || accounts[0] == "" {
		return
	}

	s.mu.Lock()
	s.account = accounts[0]
	s.connected = true
	s.mu.Unlock()
}

// Connect requests interactive authorization from the provider.
func (s *Session) Connect(ctx context.Context) ConnectOutcome {
	outcome := s.connect(ctx)
	connectRecorder(outcome.Status.String())

	if outcome.Err != nil {
		s.log.InfoContext(ctx, "wallet connect did not succeed",
			slog.String("status", outcome.Status.String()),
			slog.String("error", outcome.Err.Error()),
		)
	}

	return outcome
}

func (s *Session) connect(ctx context.Context) ConnectOutcome {
	if s.provider == nil {
		return ConnectOutcome{Status: NotInstalled, Err: apperrors.NewWalletNotInstalledError()}
	}

	accounts, err := s.provider.RequestAccounts(ctx)
	if err != nil {
		if IsUserRejected(err) {
			return ConnectOutcome{Status: Rejected, Err: apperrors.NewWalletRejectedError(err)}
		}
		return ConnectOutcome{Status: Failed, Err: apperrors.NewWalletConnectError(err)}
	}

	if len(accounts) == 0 || accounts[0] == "" {
		return ConnectOutcome{Status: Failed, Err: apperrors.NewWalletConnectError(nil)}
	}

	s.mu.Lock()
	s.account = accounts[0]
	s.connected = true
	s.mu.Unlock()

	return ConnectOutcome{Status: Connected, Account: accounts[0]}
}

// Disconnect clears local state only; the provider keeps its authorization.
func (s *Session) Disconnect() {
	s.mu.Lock()
	s.account = ""
	s.connected = false
	s.mu.Unlock()
}

// Account returns the active account and whether the session is connected.
func (s *Session) Account() (string, bool) {
	if s == nil {
		return "", false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.account, s.connected
}

// Installed reports whether a provider is available at all.
func (s *Session) Installed() bool {
	return s.provider != nil
}
