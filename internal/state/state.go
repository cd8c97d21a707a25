package state

import (
	"strconv"
	"time"
)

// State is a step of a user's conversation with the bot.
type State string

const (
	// StateIdle means no dialog is open.
	StateIdle State = "idle"
	// StateSelectingOffering means the offering list is shown and the user may pick one.
	StateSelectingOffering State = "selecting_offering"
	// StateEnteringAmount means the bot waits for the amount to invest.
	StateEnteringAmount State = "entering_amount"
	// StateConfirming means the estimate is shown and the bot waits for Confirm or Cancel.
	StateConfirming State = "confirming"
	// StateError means the conversation needs recovery.
	StateError State = "error"
)

// Dialog context keys.
const (
	ContextOfferingID = "offering_id"
	ContextAmount     = "amount"
)

// UserState captures the current FSM state for a Telegram user.
type UserState struct {
	UserID       int64                  `json:"user_id"`
	CurrentState State                  `json:"current_state"`
	Context      map[string]interface{} `json:"context"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// OfferingID returns the offering of the open dialog. JSON round trips turn numbers into
// float64, so every numeric representation is accepted.
func (s *UserState) OfferingID() (int64, bool) {
	if s == nil || s.Context == nil {
		return 0, false
	}

	switch v := s.Context[ContextOfferingID].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		return id, err == nil
	default:
		return 0, false
	}
}

// Amount returns the raw amount the user entered, or "".
func (s *UserState) Amount() string {
	if s == nil || s.Context == nil {
		return ""
	}

	amount, _ := s.Context[ContextAmount].(string)
	return amount
}
