package investment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/agro-presale/internal/domain"
	apperrors "github.com/Proton-105/agro-presale/internal/errors"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) CreateInvestment(ctx context.Context, req domain.InvestmentRequest) (*domain.Confirmation, error) {
	args := m.Called(ctx, req)
	confirmation, _ := args.Get(0).(*domain.Confirmation)
	return confirmation, args.Error(1)
}

type stubWallet struct {
	account   string
	connected bool
}

func (s stubWallet) Account() (string, bool) {
	return s.account, s.connected
}

var connectedWallet = stubWallet{account: "0xABCDEF1234567890", connected: true}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func agroOffering() domain.Offering {
	return domain.Offering{
		ID:     1,
		Symbol: "AGRO1",
		Price:  decimal.RequireFromString("2.0"),
		Raised: decimal.NewFromInt(500000),
		Goal:   decimal.NewFromInt(1000000),
	}
}

func nearlyFullOffering() domain.Offering {
	return domain.Offering{
		ID:     2,
		Symbol: "AGRO2",
		Price:  decimal.NewFromInt(1),
		Raised: decimal.NewFromInt(950),
		Goal:   decimal.NewFromInt(1000),
	}
}

func TestWorkflow_SubmitValidation(t *testing.T) {
	testCases := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{name: "not a number", raw: "abc", wantErr: apperrors.ErrInvalidAmount},
		{name: "empty", raw: "  ", wantErr: apperrors.ErrInvalidAmount},
		{name: "zero", raw: "0", wantErr: apperrors.ErrInvalidAmount},
		{name: "negative", raw: "-5", wantErr: apperrors.ErrInvalidAmount},
		{name: "two separators", raw: "1,000.00.1", wantErr: apperrors.ErrInvalidAmount},
		{name: "just above zero", raw: "0.01", wantErr: apperrors.ErrBelowMinimum},
		{name: "below minimum", raw: "9.99", wantErr: apperrors.ErrBelowMinimum},
		{name: "comma below minimum", raw: "9,5", wantErr: apperrors.ErrBelowMinimum},
		{name: "exceeds available", raw: "60", wantErr: apperrors.ErrExceedsAvailable},
		{name: "huge exponent", raw: "1e40000000", wantErr: apperrors.ErrInvalidAmount},
		{name: "too many digits", raw: "12345678901234567890", wantErr: apperrors.ErrInvalidAmount},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			client := new(mockClient)
			w := New(nearlyFullOffering(), client, testLogger())

			result := w.Submit(context.Background(), connectedWallet, tc.raw)

			assert.Equal(t, Failed, result.Kind)
			require.NotNil(t, result.Err)
			assert.ErrorIs(t, result.Err, tc.wantErr)
			state, reason := w.State()
			assert.Equal(t, StateFailed, state)
			assert.Same(t, result.Err, reason)
			client.AssertNotCalled(t, "CreateInvestment", mock.Anything, mock.Anything)
		})
	}
}

func TestWorkflow_ExceedsAvailableCarriesLimit(t *testing.T) {
	w := New(nearlyFullOffering(), new(mockClient), testLogger())

	result := w.Submit(context.Background(), connectedWallet, "60")

	require.NotNil(t, result.Err)
	assert.True(t, result.Err.Limit.Equal(decimal.NewFromInt(50)))
}

func TestWorkflow_SubmitAtBoundary(t *testing.T) {
	for _, raw := range []string{"50", "49.99", "10"} {
		raw := raw
		t.Run(raw, func(t *testing.T) {
			client := new(mockClient)
			client.On("CreateInvestment", mock.Anything, mock.MatchedBy(func(req domain.InvestmentRequest) bool {
				return req.AmountUSD.Equal(decimal.RequireFromString(raw)) && req.TokenID == 2
			})).Return(&domain.Confirmation{}, nil).Once()

			w := New(nearlyFullOffering(), client, testLogger(), WithDisplayDelay(0))
			result := w.Submit(context.Background(), connectedWallet, raw)

			assert.Equal(t, Succeeded, result.Kind)
			client.AssertExpectations(t)
		})
	}
}

func TestWorkflow_DisconnectedWallet(t *testing.T) {
	for _, raw := range []string{"abc", "5", "100", "1000000000"} {
		raw := raw
		t.Run(raw, func(t *testing.T) {
			client := new(mockClient)
			w := New(nearlyFullOffering(), client, testLogger())

			result := w.Submit(context.Background(), stubWallet{}, raw)

			assert.Equal(t, ConnectRequired, result.Kind)
			assert.Nil(t, result.Err)
			state, _ := w.State()
			assert.Equal(t, StateEditing, state)
			assert.Empty(t, w.Input())
			client.AssertNotCalled(t, "CreateInvestment", mock.Anything, mock.Anything)
		})
	}

	w := New(nearlyFullOffering(), new(mockClient), testLogger())
	assert.Equal(t, ConnectRequired, w.Submit(context.Background(), nil, "100").Kind)
}

func TestWorkflow_SuccessScenario(t *testing.T) {
	var transitions []string
	RegisterTransitionRecorder(func(from, to string) {
		transitions = append(transitions, from+"->"+to)
	})
	t.Cleanup(func() { RegisterTransitionRecorder(nil) })

	client := new(mockClient)
	client.On("CreateInvestment", mock.Anything, mock.MatchedBy(func(req domain.InvestmentRequest) bool {
		return req.TokenID == 1 &&
			req.WalletAddress == "0xABCDEF1234567890" &&
			req.AmountUSD.Equal(decimal.NewFromInt(100)) &&
			req.PaymentMethod == "metamask"
	})).Return(&domain.Confirmation{Raw: []byte(`{"id":7}`)}, nil).Once()

	timer := make(chan time.Time)
	var gotDelay time.Duration
	w := New(agroOffering(), client, testLogger(), WithTimer(func(d time.Duration) <-chan time.Time {
		gotDelay = d
		return timer
	}))

	assert.Equal(t, "50.00", w.Estimate("100").StringFixed(2))

	result := w.Submit(context.Background(), connectedWallet, "100")

	require.Equal(t, Succeeded, result.Kind)
	require.NotNil(t, result.Confirmation)
	assert.Equal(t, "AGRO1", result.Confirmation.Symbol)
	assert.True(t, result.Confirmation.Amount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, DefaultDisplayDelay, gotDelay)
	assert.Equal(t, []string{"editing->submitting", "submitting->succeeded"}, transitions)

	select {
	case <-result.Done:
		t.Fatal("done closed before the display delay")
	default:
	}

	timer <- time.Now()
	select {
	case <-result.Done:
	case <-time.After(time.Second):
		t.Fatal("done not closed after the display delay")
	}

	assert.Equal(t, Ignored, w.Submit(context.Background(), connectedWallet, "100").Kind)
	client.AssertExpectations(t)
}

func TestWorkflow_SubmitFailureAllowsRetry(t *testing.T) {
	client := new(mockClient)
	client.On("CreateInvestment", mock.Anything, mock.Anything).
		Return(nil, apperrors.NewSubmissionError("Offering closed", nil)).Once()
	client.On("CreateInvestment", mock.Anything, mock.Anything).
		Return(nil, errors.New("connection reset")).Once()
	client.On("CreateInvestment", mock.Anything, mock.Anything).
		Return(&domain.Confirmation{}, nil).Once()

	w := New(agroOffering(), client, testLogger(), WithDisplayDelay(0))

	first := w.Submit(context.Background(), connectedWallet, "100")
	require.Equal(t, Failed, first.Kind)
	assert.Equal(t, "Offering closed", first.Err.Param("Reason"))

	second := w.Submit(context.Background(), connectedWallet, "100")
	require.Equal(t, Failed, second.Kind)
	assert.ErrorIs(t, second.Err, apperrors.ErrSubmissionFailed)
	assert.Equal(t, "errors.submission_failed", second.Err.UserKey)

	assert.Equal(t, StateEditing, w.Edit("200"))
	assert.Equal(t, "200", w.Input())

	third := w.Submit(context.Background(), connectedWallet, "200")
	assert.Equal(t, Succeeded, third.Kind)
	client.AssertNumberOfCalls(t, "CreateInvestment", 3)
}

func TestWorkflow_ConcurrentSubmitIsIgnored(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})

	client := new(mockClient)
	client.On("CreateInvestment", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(&domain.Confirmation{}, nil).Once()

	w := New(agroOffering(), client, testLogger(), WithDisplayDelay(0))

	var wg sync.WaitGroup
	var first Result
	wg.Add(1)
	go func() {
		defer wg.Done()
		first = w.Submit(context.Background(), connectedWallet, "100")
	}()

	<-entered
	state, _ := w.State()
	assert.Equal(t, StateSubmitting, state)

	second := w.Submit(context.Background(), connectedWallet, "100")
	assert.Equal(t, Ignored, second.Kind)
	assert.Equal(t, StateSubmitting, w.Edit("300"))

	close(release)
	wg.Wait()

	assert.Equal(t, Succeeded, first.Kind)
	client.AssertNumberOfCalls(t, "CreateInvestment", 1)
}

func TestWorkflow_SubmitIgnoresCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := new(mockClient)
	client.On("CreateInvestment", mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Err() == nil
	}), mock.Anything).Return(&domain.Confirmation{}, nil).Once()

	w := New(agroOffering(), client, testLogger(), WithDisplayDelay(0))

	assert.Equal(t, Succeeded, w.Submit(ctx, connectedWallet, "100").Kind)
	client.AssertExpectations(t)
}

func TestWorkflow_EditOutsideFailed(t *testing.T) {
	w := New(agroOffering(), new(mockClient), testLogger())

	assert.Equal(t, StateEditing, w.Edit("15"))
	assert.Equal(t, "15", w.Input())
}
