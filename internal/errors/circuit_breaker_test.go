package errors

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream failed")

func TestCircuitBreaker_TripsAndRecovers(t *testing.T) {
	var transitions []string
	cb := NewCircuitBreaker(BreakerConfig{
		MinRequests:         4,
		ErrorThreshold:      0.5,
		OpenTimeout:         time.Minute,
		HalfOpenMaxRequests: 2,
		OnStateChange: func(from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return now }

	fail := func() error { return errUpstream }
	ok := func() error { return nil }

	require.NoError(t, cb.Call(ok))
	require.NoError(t, cb.Call(ok))
	require.ErrorIs(t, cb.Call(fail), errUpstream)
	assert.Equal(t, StateClosed, cb.State())
	require.ErrorIs(t, cb.Call(fail), errUpstream)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Call(func() error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	now = now.Add(time.Minute)
	require.NoError(t, cb.Call(ok))
	assert.Equal(t, StateHalfOpen, cb.State())
	require.NoError(t, cb.Call(ok))
	assert.Equal(t, StateClosed, cb.State())

	assert.Equal(t, []string{"closed->open", "open->half_open", "half_open->closed"}, transitions)
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(BreakerConfig{MinRequests: 1, OpenTimeout: time.Second})
	now := time.Now()
	cb.now = func() time.Time { return now }

	require.Error(t, cb.Call(func() error { return errUpstream }))
	assert.Equal(t, StateOpen, cb.State())

	now = now.Add(time.Second)
	require.Error(t, cb.Call(func() error { return errUpstream }))
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_IsFailureFilter(t *testing.T) {
	clientErr := NewSubmissionError("bad request", nil)
	cb := NewCircuitBreaker(BreakerConfig{
		MinRequests: 1,
		IsFailure: func(err error) bool {
			return err != nil && !errors.Is(err, ErrSubmissionFailed)
		},
	})

	for i := 0; i < 5; i++ {
		require.ErrorIs(t, cb.Call(func() error { return clientErr }), ErrSubmissionFailed)
	}

	assert.Equal(t, StateClosed, cb.State())
}
