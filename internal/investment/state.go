package investment

// State is the lifecycle of one investment dialog.
type State int

const (
	StateEditing State = iota
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateEditing:
		return "editing"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// validTransitions lists the permitted workflow transitions. Succeeded is terminal.
var validTransitions = map[State][]State{
	StateEditing: {
		StateSubmitting,
		StateFailed,
	},
	StateFailed: {
		StateEditing,
		StateSubmitting,
		StateFailed,
	},
	StateSubmitting: {
		StateSucceeded,
		StateFailed,
	},
}

// IsTransitionAllowed reports whether moving from one state to another is valid.
func IsTransitionAllowed(from, to State) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}

	return false
}

var transitionRecorder = func(string, string) {}

// RegisterTransitionRecorder allows external packages to observe workflow transitions.
func RegisterTransitionRecorder(recorder func(from, to string)) {
	if recorder == nil {
		transitionRecorder = func(string, string) {}
		return
	}

	transitionRecorder = recorder
}
