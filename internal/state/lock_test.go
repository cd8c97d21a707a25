package state

import (
	"context"
	"errors"
	"testing"
)

func TestLocalLocker_DropsReleasedUsers(t *testing.T) {
	l := newLocalLocker()
	ctx := context.Background()

	for userID := int64(1); userID <= 100; userID++ {
		release, err := l.lock(ctx, userID)
		if err != nil {
			t.Fatalf("lock user %d: %v", userID, err)
		}
		release()
	}

	if n := l.len(); n != 0 {
		t.Fatalf("expected no lock entries after release, got %d", n)
	}
}

func TestLocalLocker_HeldLockSurvivesFailedAttempt(t *testing.T) {
	l := newLocalLocker()
	ctx := context.Background()

	release, err := l.lock(ctx, 7)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	if _, err := l.lock(ctx, 7); !errors.Is(err, ErrStateLocked) {
		t.Fatalf("expected ErrStateLocked, got %v", err)
	}
	if n := l.len(); n != 1 {
		t.Fatalf("expected the held entry to remain, got %d entries", n)
	}

	other, err := l.lock(ctx, 8)
	if err != nil {
		t.Fatalf("other user blocked: %v", err)
	}
	other()

	release()
	if n := l.len(); n != 0 {
		t.Fatalf("expected no lock entries after release, got %d", n)
	}

	again, err := l.lock(ctx, 7)
	if err != nil {
		t.Fatalf("relock after release: %v", err)
	}
	again()
}

func TestLocalLocker_CanceledContext(t *testing.T) {
	l := newLocalLocker()

	release, err := l.lock(context.Background(), 3)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := l.lock(ctx, 3); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if n := l.len(); n != 1 {
		t.Fatalf("expected only the holder's entry, got %d", n)
	}
}
