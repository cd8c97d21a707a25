package state

import (
	"context"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrInvalidTransition indicates that a requested FSM transition is not allowed.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrStateNotFound indicates that a user state record does not exist.
	ErrStateNotFound = errors.New("user state not found")
	// ErrStateLocked indicates that a concurrent operation already holds the lock.
	ErrStateLocked = errors.New("state is locked, try again later")
)

var transitionRecorder = func(from, to string) {}

// RegisterTransitionRecorder allows external packages to observe FSM transitions.
func RegisterTransitionRecorder(recorder func(from, to string)) {
	if recorder == nil {
		transitionRecorder = func(string, string) {}
		return
	}

	transitionRecorder = recorder
}

// StateMachine describes the operations supported by the FSM controller.
type StateMachine interface {
	GetState(ctx context.Context, userID int64) (*UserState, error)
	SetState(ctx context.Context, userID int64, state State, contextData map[string]interface{}) error
	TransitionTo(ctx context.Context, userID int64, newState State, contextData map[string]interface{}) error
	ClearState(ctx context.Context, userID int64) error
	GetAllStates(ctx context.Context) ([]*UserState, error)
}

type machine struct {
	storage Storage
	locks   locker
	log     *slog.Logger
}

// NewStateMachine creates the dialog FSM. Writes are serialised per user through a Redis lock
// when redisClient is set and through an in-process mutex otherwise.
func NewStateMachine(storage Storage, log *slog.Logger, redisClient *redis.Client) StateMachine {
	if log == nil {
		log = slog.Default()
	}

	var locks locker = newLocalLocker()
	if redisClient != nil {
		locks = &redisLocker{client: redisClient, log: log}
	}

	return &machine{
		storage: storage,
		locks:   locks,
		log:     log,
	}
}

// GetState proxies to the underlying storage implementation.
func (m *machine) GetState(ctx context.Context, userID int64) (*UserState, error) {
	return m.storage.GetState(ctx, userID)
}

// GetAllStates returns every persisted user state.
func (m *machine) GetAllStates(ctx context.Context) ([]*UserState, error) {
	return m.storage.GetAllStates(ctx)
}

// SetState stores state without checking the transition table.
func (m *machine) SetState(ctx context.Context, userID int64, state State, contextData map[string]interface{}) error {
	release, err := m.locks.lock(ctx, userID)
	if err != nil {
		return err
	}
	defer release()

	return m.saveState(ctx, userID, state, contextData)
}

// TransitionTo changes the state if the transition is allowed, guarded by a lock.
// contextData is merged into the stored dialog context; moving to Idle drops the context.
func (m *machine) TransitionTo(ctx context.Context, userID int64, newState State, contextData map[string]interface{}) error {
	release, err := m.locks.lock(ctx, userID)
	if err != nil {
		return err
	}
	defer release()

	current := StateIdle
	var merged map[string]interface{}

	storedState, err := m.storage.GetState(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrStateNotFound) {
			return err
		}
	} else if storedState != nil {
		current = storedState.CurrentState
		merged = storedState.Context
	}

	if !IsTransitionAllowed(current, newState) {
		m.log.Warn("invalid state transition", "user_id", userID, "from", current, "to", newState)
		return ErrInvalidTransition
	}

	if newState == StateIdle {
		merged = nil
	} else if len(contextData) > 0 {
		if merged == nil {
			merged = make(map[string]interface{}, len(contextData))
		}
		for k, v := range contextData {
			merged[k] = v
		}
	}

	if err := m.saveState(ctx, userID, newState, merged); err != nil {
		return err
	}
	transitionRecorder(string(current), string(newState))

	return nil
}

// ClearState removes the stored state via the backing storage while holding the lock.
func (m *machine) ClearState(ctx context.Context, userID int64) error {
	release, err := m.locks.lock(ctx, userID)
	if err != nil {
		return err
	}
	defer release()

	return m.storage.ClearState(ctx, userID)
}

func (m *machine) saveState(ctx context.Context, userID int64, state State, contextData map[string]interface{}) error {
	userState := &UserState{
		UserID:       userID,
		CurrentState: state,
		Context:      contextData,
	}

	return m.storage.SetState(ctx, userID, userState)
}
