package errors

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/agro-presale/internal/i18n"
)

func TestHandler_Handle(t *testing.T) {
	manager, err := i18n.Load("en")
	require.NoError(t, err)
	tr := manager.Translator("en")

	testCases := []struct {
		name          string
		err           error
		wantMessage   string
		wantRetryable bool
		wantKind      string
		wantLevel     string
	}{
		{
			name:        "exceeds available",
			err:         NewExceedsAvailableError(decimal.NewFromInt(60), decimal.NewFromInt(50)),
			wantMessage: "Maximum available amount: $50.00",
			wantKind:    string(KindExceedsAvailable),
			wantLevel:   "WARN",
		},
		{
			name:        "server reason",
			err:         NewSubmissionError("Offering closed", nil),
			wantMessage: "Offering closed",
			wantKind:    string(KindSubmissionFailed),
			wantLevel:   "ERROR",
		},
		{
			name:          "retryable external api",
			err:           NewExternalAPIError("tokens", true, errors.New("502")),
			wantMessage:   "Service temporarily unavailable. Please try again later.",
			wantRetryable: true,
			wantKind:      string(KindExternalAPI),
			wantLevel:     "ERROR",
		},
		{
			name:        "unknown error",
			err:         errors.New("boom"),
			wantMessage: "An error occurred. Please try again later",
			wantKind:    "unknown",
			wantLevel:   "ERROR",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := slog.New(slog.NewTextHandler(&buf, nil))

			var recorded []string
			h := NewHandler(log, false, func(kind, _ string) {
				recorded = append(recorded, kind)
			})

			msg, retryable := h.Handle(context.Background(), tr, tc.err)

			assert.Equal(t, tc.wantMessage, msg)
			assert.Equal(t, tc.wantRetryable, retryable)
			assert.Equal(t, []string{tc.wantKind}, recorded)
			assert.Contains(t, buf.String(), "level="+tc.wantLevel)
		})
	}
}

func TestHandler_HandleNil(t *testing.T) {
	h := NewHandler(nil, false, nil)

	msg, retryable := h.Handle(context.Background(), nil, nil)

	assert.Empty(t, msg)
	assert.False(t, retryable)
}

func TestUserMessage_WithoutTranslator(t *testing.T) {
	msg := UserMessage(nil, NewRateLimitError(3))

	assert.Equal(t, "errors.rate_limit", msg)
}
