package state

import (
	"fmt"

	"github.com/Proton-105/coinpulse-bot/internal/domain"
)

// ChooseScheduleKind starts a new draft of the given kind. An every-day draft
// moves straight to waiting for the time of day.
func (s *Store) ChooseScheduleKind(chatID int64, kind domain.ScheduleKind) (Phase, error) {
	if kind != domain.ScheduleEveryDay && kind != domain.ScheduleSpecificDays {
		return "", fmt.Errorf("unknown schedule kind %q", kind)
	}

	var phase Phase
	err := s.Update(chatID, func(st *ChatState) error {
		if err := transition(st, PhaseKindChosen); err != nil {
			return err
		}
		st.Draft = &ScheduleDraft{Kind: kind, Days: make(map[domain.Weekday]bool)}
		st.Input = StateIdle

		if kind == domain.ScheduleEveryDay {
			if err := transition(st, PhaseTimePending); err != nil {
				return err
			}
			st.Input = StateSettingScheduleTime
		}

		phase = st.Phase
		return nil
	})
	return phase, err
}

// ToggleScheduleDay flips day in a specific-days draft and reports whether it is now chosen.
// Toggling after the day list was finished reopens it.
func (s *Store) ToggleScheduleDay(chatID int64, day domain.Weekday) (bool, error) {
	if !day.Valid() {
		return false, fmt.Errorf("invalid weekday %d", day)
	}

	var chosen bool
	err := s.Update(chatID, func(st *ChatState) error {
		if st.Draft == nil || st.Draft.Kind != domain.ScheduleSpecificDays {
			return ErrNoDraft
		}
		if err := transition(st, PhaseKindChosen); err != nil {
			return err
		}
		if st.Input == StateSettingScheduleTime {
			st.Input = StateIdle
		}

		chosen = !st.Draft.Days[day]
		if chosen {
			st.Draft.Days[day] = true
		} else {
			delete(st.Draft.Days, day)
		}
		return nil
	})
	return chosen, err
}

// DraftDays returns the weekdays chosen in the current draft.
func (s *Store) DraftDays(chatID int64) map[domain.Weekday]bool {
	st := s.Get(chatID)
	days := make(map[domain.Weekday]bool)
	if st.Draft != nil {
		for day, on := range st.Draft.Days {
			days[day] = on
		}
	}
	return days
}

// FinishScheduleDays closes the day picker and waits for the time of day.
func (s *Store) FinishScheduleDays(chatID int64) error {
	return s.Update(chatID, func(st *ChatState) error {
		if st.Draft == nil || st.Draft.Kind != domain.ScheduleSpecificDays {
			return ErrNoDraft
		}
		if len(st.Draft.Weekdays()) == 0 {
			return ErrNoDays
		}
		if err := transition(st, PhaseTimePending); err != nil {
			return err
		}
		st.Input = StateSettingScheduleTime
		return nil
	})
}

// SubmitScheduleTime sets the draft time and promotes the draft to the chat's schedule.
// The returned spec must be armed by the caller.
func (s *Store) SubmitScheduleTime(chatID int64, t domain.TimeOfDay) (domain.ScheduleSpec, error) {
	if !t.Valid() {
		return domain.ScheduleSpec{}, domain.ErrInvalidTime
	}

	var spec domain.ScheduleSpec
	err := s.Update(chatID, func(st *ChatState) error {
		if st.Draft == nil {
			if st.Input == StateSettingScheduleTime {
				st.Input = StateIdle
			}
			return ErrNoDraft
		}
		if st.Phase != PhaseTimePending {
			return ErrInvalidTransition
		}

		draft := st.Draft.clone()
		draft.Time = &t
		promoted, err := draft.Promote()
		if err != nil {
			return err
		}
		if err := transition(st, PhaseCommitted); err != nil {
			return err
		}

		st.Schedule = &promoted
		st.Draft = nil
		st.Input = StateIdle
		spec = promoted
		return nil
	})
	return spec, err
}

// ClearSchedule discards the confirmed schedule and any draft. It reports
// whether there was anything to clear.
func (s *Store) ClearSchedule(chatID int64) bool {
	var had bool
	_ = s.Update(chatID, func(st *ChatState) error {
		had = st.Schedule != nil || st.Draft != nil
		st.Schedule = nil
		st.Draft = nil
		if st.Input == StateSettingScheduleTime {
			st.Input = StateIdle
		}
		return transition(st, PhaseNoSchedule)
	})
	return had
}

// Schedule returns the confirmed schedule of the chat, if any.
func (s *Store) Schedule(chatID int64) (domain.ScheduleSpec, bool) {
	st := s.Get(chatID)
	if st.Schedule == nil {
		return domain.ScheduleSpec{}, false
	}
	return *st.Schedule, true
}
