package state

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	userLockKeyPattern = "dialog:lock:%d"
	lockTTL            = 5 * time.Second
	lockAttempts       = 3
	lockRetryDelay     = 10 * time.Millisecond
)

// locker serialises writes to one user's dialog. release must be called exactly once.
type locker interface {
	lock(ctx context.Context, userID int64) (release func(), err error)
}

var unlockScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

// redisLocker holds a token-owned SETNX key shared by every bot replica.
type redisLocker struct {
	client *redis.Client
	log    *slog.Logger
}

func (l *redisLocker) lock(ctx context.Context, userID int64) (func(), error) {
	key := fmt.Sprintf(userLockKeyPattern, userID)
	token := uuid.NewString()

	acquired, err := retryLock(ctx, func() (bool, error) {
		return l.client.SetNX(ctx, key, token, lockTTL).Result()
	})
	if err != nil {
		l.log.Error("failed to acquire user state lock", "user_id", userID, "error", err)
		return nil, err
	}
	if !acquired {
		l.log.Warn("user state lock already held", "user_id", userID)
		return nil, ErrStateLocked
	}

	return func() {
		if err := unlockScript.Run(context.WithoutCancel(ctx), l.client, []string{key}, token).Err(); err != nil {
			l.log.Error("failed to release user state lock", "user_id", userID, "error", err)
		}
	}, nil
}

// localLocker is used without Redis; it only guards this process. An entry lives while someone
// holds or waits for the user's lock and is dropped on the last release.
type localLocker struct {
	mu    sync.Mutex
	users map[int64]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func newLocalLocker() *localLocker {
	return &localLocker{users: make(map[int64]*userLock)}
}

func (l *localLocker) lock(ctx context.Context, userID int64) (func(), error) {
	l.mu.Lock()
	ul, ok := l.users[userID]
	if !ok {
		ul = &userLock{}
		l.users[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	acquired, err := retryLock(ctx, func() (bool, error) {
		return ul.mu.TryLock(), nil
	})
	if err != nil || !acquired {
		l.release(userID, ul)
		if err != nil {
			return nil, err
		}
		return nil, ErrStateLocked
	}

	return func() {
		ul.mu.Unlock()
		l.release(userID, ul)
	}, nil
}

func (l *localLocker) release(userID int64, ul *userLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ul.refs--
	if ul.refs == 0 {
		delete(l.users, userID)
	}
}

// len reports how many users currently have a lock entry.
func (l *localLocker) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.users)
}

func retryLock(ctx context.Context, try func() (bool, error)) (bool, error) {
	for attempt := 1; ; attempt++ {
		acquired, err := try()
		if err != nil || acquired || attempt == lockAttempts {
			return acquired, err
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
}
