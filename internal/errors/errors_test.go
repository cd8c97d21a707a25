package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_IsMatchesKind(t *testing.T) {
	testCases := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{name: "invalid amount", err: NewInvalidAmountError("abc"), target: ErrInvalidAmount, want: true},
		{name: "wrapped below minimum", err: fmt.Errorf("validate: %w", NewBelowMinimumError(decimal.NewFromInt(5), decimal.NewFromInt(10))), target: ErrBelowMinimum, want: true},
		{name: "different kind", err: NewWalletRejectedError(nil), target: ErrWalletNotInstalled, want: false},
		{name: "plain error", err: errors.New("boom"), target: ErrExternalAPI, want: false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, errors.Is(tc.err, tc.target))
		})
	}
}

func TestNewExceedsAvailableError(t *testing.T) {
	err := NewExceedsAvailableError(decimal.NewFromInt(60), decimal.NewFromInt(50))

	assert.Equal(t, "E102", err.Code)
	assert.True(t, err.Limit.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, "50.00", err.Param("Available"))
	assert.Equal(t, SeverityLow, err.Severity)
	assert.False(t, err.Retryable)
}

func TestNewBelowMinimumError(t *testing.T) {
	err := NewBelowMinimumError(decimal.RequireFromString("9.99"), decimal.NewFromInt(10))

	assert.Equal(t, "10", err.Param("Min"))
	assert.True(t, err.Limit.Equal(decimal.NewFromInt(10)))
	assert.Contains(t, err.Error(), "9.99")
}

func TestNewSubmissionError(t *testing.T) {
	withReason := NewSubmissionError("Offering closed", nil)
	assert.Equal(t, "errors.submission_failed_reason", withReason.UserKey)
	assert.Equal(t, "Offering closed", withReason.Param("Reason"))

	cause := errors.New("timeout")
	generic := NewSubmissionError("", cause)
	assert.Equal(t, "errors.submission_failed", generic.UserKey)
	assert.Empty(t, generic.Param("Reason"))
	require.ErrorIs(t, generic, cause)
}

func TestNewWalletConnectError(t *testing.T) {
	err := NewWalletConnectError(errors.New("bridge down"))

	assert.True(t, err.Retryable)
	assert.Equal(t, "bridge down", err.Param("Reason"))

	unknown := NewWalletConnectError(nil)
	assert.Equal(t, "unknown error", unknown.Param("Reason"))
	assert.Nil(t, unknown.Unwrap())
}

func TestAppError_NilSafe(t *testing.T) {
	var err *AppError

	assert.Empty(t, err.Error())
	assert.Nil(t, err.Unwrap())
	assert.Empty(t, err.Param("Min"))
}
