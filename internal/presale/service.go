// Package presale owns the open investment dialogs and the users' wallet sessions.
package presale

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Proton-105/agro-presale/internal/catalog"
	"github.com/Proton-105/agro-presale/internal/domain"
	"github.com/Proton-105/agro-presale/internal/investment"
	"github.com/Proton-105/agro-presale/internal/wallet"
	"github.com/Proton-105/agro-presale/pkg/config"
)

var (
	ErrNoDialog            = errors.New("no open investment dialog")
	ErrOfferingUnavailable = errors.New("offering unavailable")
	ErrOfferingClosed      = errors.New("offering reached its goal")
)

// Catalog is the offering lookup used when a dialog opens.
type Catalog interface {
	Offering(ctx context.Context, id int64) (domain.Offering, error)
	Invalidate(ctx context.Context) error
}

// CompletionFunc is called once a successful dialog has been closed and the catalog refreshed.
type CompletionFunc func(ctx context.Context, userID int64, result investment.Result)

// Preview is what the user sees while typing an amount.
type Preview struct {
	Offering domain.Offering
	Units    decimal.Decimal
	State    investment.State
}

// SubmitResult pairs a workflow result with the connect outcome when a connect was attempted.
type SubmitResult struct {
	investment.Result
	Connect *wallet.ConnectOutcome
}

type Service struct {
	catalog    Catalog
	client     investment.Client
	wallets    *wallet.Registry
	delay      time.Duration
	log        *slog.Logger
	onComplete CompletionFunc

	mu      sync.Mutex
	dialogs map[int64]*investment.Workflow
	pending sync.WaitGroup
}

func NewService(cat Catalog, client investment.Client, wallets *wallet.Registry, cfg config.InvestConfig, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	if wallets == nil {
		wallets = wallet.NewRegistry(nil, log)
	}

	delay := cfg.DisplayDelay
	if delay <= 0 {
		delay = investment.DefaultDisplayDelay
	}

	return &Service{
		catalog:    cat,
		client:     client,
		wallets:    wallets,
		delay:      delay,
		log:        log.With(slog.String("component", "presale")),
		onComplete: func(context.Context, int64, investment.Result) {},
		dialogs:    make(map[int64]*investment.Workflow),
	}
}

// OnComplete registers the callback run after a successful dialog closes.
func (s *Service) OnComplete(fn CompletionFunc) {
	if fn == nil {
		return
	}

	s.mu.Lock()
	s.onComplete = fn
	s.mu.Unlock()
}

// Open starts a fresh dialog for the offering, replacing any previous one of the user.
func (s *Service) Open(ctx context.Context, userID, offeringID int64) (domain.Offering, error) {
	offering, err := s.catalog.Offering(ctx, offeringID)
	if err != nil {
		if errors.Is(err, catalog.ErrOfferingNotFound) {
			return domain.Offering{}, fmt.Errorf("%w: %v", ErrOfferingUnavailable, err)
		}
		return domain.Offering{}, err
	}

	if offering.Completed() || !offering.Available().IsPositive() {
		return domain.Offering{}, ErrOfferingClosed
	}

	workflow := investment.New(offering, s.client,
		s.log.With(slog.Int64("user_id", userID)),
		investment.WithDisplayDelay(s.delay),
	)

	s.mu.Lock()
	s.dialogs[userID] = workflow
	s.mu.Unlock()

	return offering, nil
}

// Preview records raw as the current input and estimates the units it buys.
func (s *Service) Preview(userID int64, raw string) (Preview, error) {
	workflow, ok := s.Dialog(userID)
	if !ok {
		return Preview{}, ErrNoDialog
	}

	state := workflow.Edit(raw)

	return Preview{
		Offering: workflow.Offering(),
		Units:    workflow.Estimate(raw),
		State:    state,
	}, nil
}

// Submit forwards raw to the user's dialog. A disconnected wallet triggers a connect attempt
// whose outcome is returned alongside; the amount is not submitted in that case.
func (s *Service) Submit(ctx context.Context, userID int64, raw string) (SubmitResult, error) {
	workflow, ok := s.Dialog(userID)
	if !ok {
		return SubmitResult{}, ErrNoDialog
	}

	session := s.wallets.Session(ctx, userID)
	result := SubmitResult{Result: workflow.Submit(ctx, session, raw)}

	switch result.Kind {
	case investment.ConnectRequired:
		outcome := session.Connect(ctx)
		result.Connect = &outcome
	case investment.Succeeded:
		s.pending.Add(1)
		go s.complete(context.WithoutCancel(ctx), userID, workflow, result.Result)
	}

	return result, nil
}

// Close discards the user's dialog and reports whether one was open.
func (s *Service) Close(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.dialogs[userID]
	delete(s.dialogs, userID)

	return ok
}

// Dialog returns the user's open workflow.
func (s *Service) Dialog(userID int64) (*investment.Workflow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	workflow, ok := s.dialogs[userID]
	return workflow, ok
}

// OpenDialogs returns the number of open dialogs.
func (s *Service) OpenDialogs() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.dialogs)
}

func (s *Service) ConnectWallet(ctx context.Context, userID int64) wallet.ConnectOutcome {
	return s.wallets.Session(ctx, userID).Connect(ctx)
}

func (s *Service) DisconnectWallet(ctx context.Context, userID int64) {
	s.wallets.Session(ctx, userID).Disconnect()
}

// Wallet returns the user's session, probing the provider the first time the user is seen.
func (s *Service) Wallet(ctx context.Context, userID int64) *wallet.Session {
	return s.wallets.Session(ctx, userID)
}

// Wait blocks until pending completions have run or ctx is done.
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) complete(ctx context.Context, userID int64, workflow *investment.Workflow, result investment.Result) {
	defer s.pending.Done()

	<-result.Done

	s.mu.Lock()
	if current, ok := s.dialogs[userID]; ok && current == workflow {
		delete(s.dialogs, userID)
	}
	onComplete := s.onComplete
	s.mu.Unlock()

	if err := s.catalog.Invalidate(ctx); err != nil {
		s.log.WarnContext(ctx, "catalog invalidation failed", slog.String("error", err.Error()))
	}

	onComplete(ctx, userID, result)
}
