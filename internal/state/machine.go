package state

import (
	"errors"

	"github.com/Proton-105/coinpulse-bot/internal/domain"
)

var (
	// ErrInvalidTransition indicates that a schedule dialog step is not allowed in the current phase.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrNothingToConfirm indicates that no selection dialog is open.
	ErrNothingToConfirm = errors.New("no selection in progress")
	// ErrEmptySelection indicates an attempt to confirm zero coins.
	ErrEmptySelection = errors.New("selection is empty")
	// ErrNoDraft indicates that no schedule draft exists.
	ErrNoDraft = errors.New("no schedule draft")
	// ErrNoDays indicates a specific-days draft without any weekday.
	ErrNoDays = errors.New("no weekdays selected")
	// ErrTimeRequired indicates a draft without a time of day.
	ErrTimeRequired = errors.New("schedule time is not set")
)

var transitionRecorder = func(from, to string) {}

// RegisterTransitionRecorder allows external packages to observe schedule phase transitions.
func RegisterTransitionRecorder(recorder func(from, to string)) {
	if recorder == nil {
		transitionRecorder = func(string, string) {}
		return
	}

	transitionRecorder = recorder
}

// StateMachine describes the per-chat operations used by the conversation handlers.
type StateMachine interface {
	GetState(chatID int64) ChatState
	GetAllStates() []ChatState

	Input(chatID int64) State
	SetInput(chatID int64, s State)
	ResetInput(chatID int64)
	Cancel(chatID int64)

	BeginSelection(chatID int64) []string
	ToggleCoin(chatID int64, coinID string) bool
	ConfirmSelection(chatID int64) ([]string, error)
	CurrentView(chatID int64) *CoinSet
	Confirmed(chatID int64) []string

	ChooseScheduleKind(chatID int64, kind domain.ScheduleKind) (Phase, error)
	ToggleScheduleDay(chatID int64, day domain.Weekday) (bool, error)
	DraftDays(chatID int64) map[domain.Weekday]bool
	FinishScheduleDays(chatID int64) error
	SubmitScheduleTime(chatID int64, t domain.TimeOfDay) (domain.ScheduleSpec, error)
	ClearSchedule(chatID int64) bool
	Schedule(chatID int64) (domain.ScheduleSpec, bool)
}

var _ StateMachine = (*Store)(nil)

// GetState returns a copy of the chat state.
func (s *Store) GetState(chatID int64) ChatState {
	return s.Get(chatID)
}

// Input returns the active input mode of the chat.
func (s *Store) Input(chatID int64) State {
	return s.Get(chatID).Input
}

// SetInput replaces the active input mode.
func (s *Store) SetInput(chatID int64, mode State) {
	_ = s.Update(chatID, func(st *ChatState) error {
		st.Input = mode
		return nil
	})
}

// ResetInput returns the chat to StateIdle.
func (s *Store) ResetInput(chatID int64) {
	s.SetInput(chatID, StateIdle)
}

// Cancel clears the input mode and discards any open selection or schedule draft.
func (s *Store) Cancel(chatID int64) {
	_ = s.Update(chatID, func(st *ChatState) error {
		st.Input = StateIdle
		st.Pending = nil
		if st.Draft != nil {
			st.Draft = nil
			to := st.restPhase()
			transitionRecorder(string(st.Phase), string(to))
			st.Phase = to
		}
		return nil
	})
}
