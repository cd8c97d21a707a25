package errors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastPolicy = RetryPolicy{
	MaxRetries:     3,
	InitialBackoff: time.Millisecond,
	MaxBackoff:     5 * time.Millisecond,
	Multiplier:     2,
}

func TestRetryPolicy_Do(t *testing.T) {
	retryable := NewExternalAPIError("tokens", true, nil)
	permanent := NewExternalAPIError("tokens", false, nil)
	plain := errors.New("boom")

	testCases := []struct {
		name      string
		failures  []error
		wantCalls int
		wantErr   error
	}{
		{name: "first attempt succeeds", wantCalls: 1},
		{name: "recovers after retryable failures", failures: []error{retryable, retryable}, wantCalls: 3},
		{name: "stops on permanent error", failures: []error{permanent, retryable}, wantCalls: 1, wantErr: permanent},
		{name: "gives up after max retries", failures: []error{retryable, retryable, retryable, retryable, retryable}, wantCalls: 4, wantErr: retryable},
		{name: "plain errors are not retried", failures: []error{plain}, wantCalls: 1, wantErr: plain},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			err := fastPolicy.Do(context.Background(), func() error {
				calls++
				if calls <= len(tc.failures) {
					return tc.failures[calls-1]
				}
				return nil
			})

			assert.Equal(t, tc.wantCalls, calls)
			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}
			assert.Same(t, tc.wantErr, err)
		})
	}
}

func TestRetryPolicy_DoStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := RetryPolicy{MaxRetries: 5, InitialBackoff: time.Hour, MaxBackoff: time.Hour}
	failure := NewExternalAPIError("tokens", true, nil)

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- policy.Do(ctx, func() error {
			calls++
			return failure
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.Same(t, failure, err)
		assert.Equal(t, 1, calls)
	case <-time.After(time.Second):
		t.Fatal("retry did not stop after cancel")
	}
}

func TestRetryPolicy_Backoff(t *testing.T) {
	policy := RetryPolicy{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second, Multiplier: 2}

	assert.Equal(t, 200*time.Millisecond, policy.backoff(1))
	assert.Equal(t, 400*time.Millisecond, policy.backoff(2))
	assert.Equal(t, time.Second, policy.backoff(5))
}
