package state

import "testing"

func TestIsTransitionAllowed(t *testing.T) {
	testCases := []struct {
		name     string
		from     State
		to       State
		expected bool
	}{
		{name: "idle to selecting offering", from: StateIdle, to: StateSelectingOffering, expected: true},
		{name: "idle to entering amount", from: StateIdle, to: StateEnteringAmount, expected: true},
		{name: "selecting offering to entering amount", from: StateSelectingOffering, to: StateEnteringAmount, expected: true},
		{name: "paging stays in selecting offering", from: StateSelectingOffering, to: StateSelectingOffering, expected: true},
		{name: "entering amount to confirming", from: StateEnteringAmount, to: StateConfirming, expected: true},
		{name: "re-entering amount", from: StateEnteringAmount, to: StateEnteringAmount, expected: true},
		{name: "confirming back to entering amount", from: StateConfirming, to: StateEnteringAmount, expected: true},
		{name: "confirming stays while wallet connects", from: StateConfirming, to: StateConfirming, expected: true},
		{name: "idle to confirming invalid", from: StateIdle, to: StateConfirming, expected: false},
		{name: "selecting offering to confirming invalid", from: StateSelectingOffering, to: StateConfirming, expected: false},
		{name: "error to entering amount invalid", from: StateError, to: StateEnteringAmount, expected: false},
		{name: "unknown state to selecting offering invalid", from: State("unknown"), to: StateSelectingOffering, expected: false},
		{name: "any state to idle emergency", from: State("whatever"), to: StateIdle, expected: true},
		{name: "any state to error emergency", from: StateConfirming, to: StateError, expected: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if actual := IsTransitionAllowed(tc.from, tc.to); actual != tc.expected {
				t.Errorf("IsTransitionAllowed(%s -> %s) = %t, expected %t", tc.from, tc.to, actual, tc.expected)
			}
		})
	}
}
