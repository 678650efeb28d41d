package state

import (
	"time"

	"github.com/Proton-105/coinpulse-bot/internal/domain"
)

// State tags what the next free-text message from a chat means.
type State string

const (
	// StateIdle indicates that free text is matched against menu labels only.
	StateIdle State = "idle"
	// StateSettingInterval indicates that the chat is entering a delivery interval.
	StateSettingInterval State = "setting_interval"
	// StateSettingScheduleTime indicates that the chat is entering the schedule time of day.
	StateSettingScheduleTime State = "setting_schedule_time"
	// StateSearching indicates that the next message is a coin search query.
	StateSearching State = "searching"
)

// Phase is the position of a chat in the schedule dialog.
type Phase string

const (
	PhaseNoSchedule  Phase = "no_schedule"
	PhaseKindChosen  Phase = "draft_kind_chosen"
	PhaseTimePending Phase = "draft_time_pending"
	PhaseCommitted   Phase = "committed"
)

// ScheduleDraft is a schedule being assembled across several interactions.
type ScheduleDraft struct {
	Kind domain.ScheduleKind
	Days map[domain.Weekday]bool
	Time *domain.TimeOfDay
}

// Weekdays returns the chosen days in cron order.
func (d *ScheduleDraft) Weekdays() []domain.Weekday {
	if d == nil {
		return nil
	}

	days := make([]domain.Weekday, 0, len(d.Days))
	for day, on := range d.Days {
		if on {
			days = append(days, day)
		}
	}
	return domain.SortedDays(days)
}

// Promote converts the draft into a ScheduleSpec when every required part is present.
func (d *ScheduleDraft) Promote() (domain.ScheduleSpec, error) {
	if d == nil || d.Kind == "" {
		return domain.ScheduleSpec{}, ErrNoDraft
	}
	if d.Time == nil {
		return domain.ScheduleSpec{}, ErrTimeRequired
	}

	spec := domain.ScheduleSpec{Kind: d.Kind, Time: *d.Time}
	if d.Kind == domain.ScheduleSpecificDays {
		spec.Days = d.Weekdays()
		if len(spec.Days) == 0 {
			return domain.ScheduleSpec{}, ErrNoDays
		}
	}

	return spec, nil
}

func (d *ScheduleDraft) clone() *ScheduleDraft {
	if d == nil {
		return nil
	}

	out := &ScheduleDraft{Kind: d.Kind, Days: make(map[domain.Weekday]bool, len(d.Days))}
	for day, on := range d.Days {
		out.Days[day] = on
	}
	if d.Time != nil {
		t := *d.Time
		out.Time = &t
	}
	return out
}

// ChatState is the aggregate state record of one chat.
type ChatState struct {
	ChatID    int64
	Input     State
	Confirmed *CoinSet
	// Pending is non-nil only while a selection dialog is open.
	Pending   *CoinSet
	Phase     Phase
	Draft     *ScheduleDraft
	Schedule  *domain.ScheduleSpec
	UpdatedAt time.Time
}

func newChatState(chatID int64) *ChatState {
	return &ChatState{
		ChatID:    chatID,
		Input:     StateIdle,
		Confirmed: NewCoinSet(),
		Phase:     PhaseNoSchedule,
	}
}

func (s *ChatState) clone() ChatState {
	out := *s
	out.Confirmed = s.Confirmed.Clone()
	if s.Pending != nil {
		out.Pending = s.Pending.Clone()
	}
	out.Draft = s.Draft.clone()
	if s.Schedule != nil {
		spec := *s.Schedule
		spec.Days = append([]domain.Weekday(nil), s.Schedule.Days...)
		out.Schedule = &spec
	}
	return out
}

// restPhase is the phase a chat returns to once its draft is gone.
func (s *ChatState) restPhase() Phase {
	if s.Schedule != nil {
		return PhaseCommitted
	}
	return PhaseNoSchedule
}
