// Package investment validates and submits a single investment against a single offering.
package investment

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Proton-105/agro-presale/internal/domain"
	apperrors "github.com/Proton-105/agro-presale/internal/errors"
)

// DefaultDisplayDelay is how long a confirmation stays up before the dialog closes.
const DefaultDisplayDelay = 2 * time.Second

// Wallet is the read side of a wallet session.
type Wallet interface {
	Account() (string, bool)
}

// Client creates investments on the remote API.
type Client interface {
	CreateInvestment(ctx context.Context, req domain.InvestmentRequest) (*domain.Confirmation, error)
}

// ResultKind tags the outcome of Submit.
type ResultKind int

const (
	// ConnectRequired means the wallet is not connected; nothing was validated or sent.
	ConnectRequired ResultKind = iota
	// Ignored means a submission is in flight or has already succeeded.
	Ignored
	// Failed means validation or the API call failed; see Result.Err.
	Failed
	// Succeeded means the API accepted the investment.
	Succeeded
)

func (k ResultKind) String() string {
	switch k {
	case ConnectRequired:
		return "connect_required"
	case Ignored:
		return "ignored"
	case Failed:
		return "failed"
	case Succeeded:
		return "succeeded"
	default:
		return "unknown"
	}
}

// Result is returned by Submit.
type Result struct {
	Kind         ResultKind
	Err          *apperrors.AppError
	Amount       decimal.Decimal
	Confirmation *domain.Confirmation
	// Done is closed once the confirmation display delay has elapsed. Set only for Succeeded.
	Done <-chan struct{}
}

var outcomeRecorder = func(string) {}

// RegisterOutcomeRecorder allows external packages to observe submission outcomes.
func RegisterOutcomeRecorder(recorder func(outcome string)) {
	if recorder == nil {
		outcomeRecorder = func(string) {}
		return
	}

	outcomeRecorder = recorder
}

// Workflow is safe for concurrent use; only one submission can be in flight.
type Workflow struct {
	mu       sync.Mutex
	offering domain.Offering
	client   Client
	state    State
	reason   *apperrors.AppError
	input    string
	delay    time.Duration
	after    func(time.Duration) <-chan time.Time
	log      *slog.Logger
}

type Option func(*Workflow)

func WithDisplayDelay(delay time.Duration) Option {
	return func(w *Workflow) {
		if delay >= 0 {
			w.delay = delay
		}
	}
}

// WithTimer replaces time.After, mainly for tests.
func WithTimer(after func(time.Duration) <-chan time.Time) Option {
	return func(w *Workflow) {
		if after != nil {
			w.after = after
		}
	}
}

func New(offering domain.Offering, client Client, log *slog.Logger, opts ...Option) *Workflow {
	if log == nil {
		log = slog.Default()
	}

	w := &Workflow{
		offering: offering,
		client:   client,
		state:    StateEditing,
		delay:    DefaultDisplayDelay,
		after:    time.After,
		log:      log.With(slog.Int64("offering_id", offering.ID)),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Submit validates raw and, when it passes, creates the investment exactly once.
// A disconnected wallet short-circuits before any validation.
func (w *Workflow) Submit(ctx context.Context, wallet Wallet, raw string) Result {
	if ctx == nil {
		ctx = context.Background()
	}

	w.mu.Lock()
	if w.state == StateSubmitting || w.state == StateSucceeded {
		w.mu.Unlock()
		outcomeRecorder(Ignored.String())
		return Result{Kind: Ignored}
	}

	account, connected := "", false
	if wallet != nil {
		account, connected = wallet.Account()
	}
	if !connected || account == "" {
		w.mu.Unlock()
		outcomeRecorder(ConnectRequired.String())
		return Result{Kind: ConnectRequired}
	}

	w.input = raw
	amount, appErr := ParseAmount(raw)
	if appErr == nil {
		appErr = Validate(w.offering, amount)
	}
	if appErr != nil {
		w.failLocked(appErr)
		w.mu.Unlock()
		outcomeRecorder("rejected")
		return Result{Kind: Failed, Err: appErr, Amount: amount}
	}

	w.transitionLocked(StateSubmitting)
	offering := w.offering
	w.mu.Unlock()

	req := domain.NewInvestmentRequest(offering.ID, account, amount)
	confirmation, err := w.client.CreateInvestment(context.WithoutCancel(ctx), req)

	w.mu.Lock()
	defer w.mu.Unlock()

	if err != nil {
		appErr := submissionError(err)
		w.failLocked(appErr)
		w.log.WarnContext(ctx, "investment submission failed",
			slog.String("amount", amount.String()),
			slog.String("error", err.Error()),
		)
		outcomeRecorder(Failed.String())
		return Result{Kind: Failed, Err: appErr, Amount: amount}
	}

	if confirmation == nil {
		confirmation = &domain.Confirmation{}
	}
	if confirmation.Amount.IsZero() {
		confirmation.Amount = amount
	}
	confirmation.Symbol = offering.Symbol

	w.transitionLocked(StateSucceeded)
	w.log.InfoContext(ctx, "investment submitted",
		slog.String("amount", amount.String()),
		slog.String("symbol", offering.Symbol),
	)
	outcomeRecorder(Succeeded.String())

	return Result{
		Kind:         Succeeded,
		Amount:       amount,
		Confirmation: confirmation,
		Done:         w.signalAfter(w.delay),
	}
}

// Edit records new input. A failed workflow returns to Editing.
func (w *Workflow) Edit(raw string) State {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.state {
	case StateFailed:
		w.input = raw
		w.reason = nil
		w.transitionLocked(StateEditing)
	case StateEditing:
		w.input = raw
	}

	return w.state
}

// Estimate returns the number of units raw would buy.
func (w *Workflow) Estimate(raw string) decimal.Decimal {
	return Estimate(w.offering, raw)
}

// State returns the current state and, for Failed, the reason.
func (w *Workflow) State() (State, *apperrors.AppError) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.state, w.reason
}

// Input returns the last recorded raw amount.
func (w *Workflow) Input() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.input
}

func (w *Workflow) Offering() domain.Offering {
	return w.offering
}

func (w *Workflow) failLocked(reason *apperrors.AppError) {
	w.reason = reason
	w.transitionLocked(StateFailed)
}

func (w *Workflow) transitionLocked(next State) {
	if !IsTransitionAllowed(w.state, next) {
		w.log.Error("invalid workflow transition",
			slog.String("from", w.state.String()),
			slog.String("to", next.String()),
		)
		return
	}

	transitionRecorder(w.state.String(), next.String())
	w.state = next
}

func (w *Workflow) signalAfter(delay time.Duration) <-chan struct{} {
	done := make(chan struct{})
	timer := w.after(delay)

	go func() {
		<-timer
		close(done)
	}()

	return done
}

func submissionError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr != nil {
		return appErr
	}

	return apperrors.NewSubmissionError("", err)
}
