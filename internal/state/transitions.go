package state

// validTransitions contains the permitted schedule dialog transitions.
// Moving to PhaseNoSchedule is always allowed.
var validTransitions = map[Phase][]Phase{
	PhaseNoSchedule: {
		PhaseKindChosen,
	},
	PhaseKindChosen: {
		PhaseKindChosen,
		PhaseTimePending,
	},
	PhaseTimePending: {
		PhaseKindChosen,
		PhaseCommitted,
	},
	PhaseCommitted: {
		PhaseKindChosen,
	},
}

// IsTransitionAllowed reports whether moving from one phase to another is valid.
func IsTransitionAllowed(from, to Phase) bool {
	if to == PhaseNoSchedule {
		return true
	}

	for _, phase := range validTransitions[from] {
		if phase == to {
			return true
		}
	}

	return false
}

func transition(st *ChatState, to Phase) error {
	if !IsTransitionAllowed(st.Phase, to) {
		return ErrInvalidTransition
	}

	transitionRecorder(string(st.Phase), string(to))
	st.Phase = to
	return nil
}
