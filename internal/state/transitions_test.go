package state

import "testing"

func TestIsTransitionAllowed(t *testing.T) {
	testCases := []struct {
		name     string
		from     Phase
		to       Phase
		expected bool
	}{
		{name: "no schedule to kind chosen", from: PhaseNoSchedule, to: PhaseKindChosen, expected: true},
		{name: "kind chosen stays on toggles", from: PhaseKindChosen, to: PhaseKindChosen, expected: true},
		{name: "kind chosen to time pending", from: PhaseKindChosen, to: PhaseTimePending, expected: true},
		{name: "time pending to committed", from: PhaseTimePending, to: PhaseCommitted, expected: true},
		{name: "committed to new draft", from: PhaseCommitted, to: PhaseKindChosen, expected: true},
		{name: "kind chosen to committed invalid", from: PhaseKindChosen, to: PhaseCommitted, expected: false},
		{name: "no schedule to committed invalid", from: PhaseNoSchedule, to: PhaseCommitted, expected: false},
		{name: "no schedule to time pending invalid", from: PhaseNoSchedule, to: PhaseTimePending, expected: false},
		{name: "any phase to no schedule", from: Phase("whatever"), to: PhaseNoSchedule, expected: true},
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
