package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Proton-105/coinpulse-bot/internal/domain"
	"github.com/Proton-105/coinpulse-bot/pkg/metrics"
)

// Scheduler owns every armed trigger. A chat has at most one interval trigger
// and at most one calendar trigger; arming a new one cancels the old first.
// Both kinds are cron entries.
type Scheduler struct {
	mu        sync.Mutex
	cron      *cron.Cron
	schedules map[int64]cron.EntryID
	intervals map[int64]intervalEntry
	submit    func(Task) bool
	stopped   bool
	log       *slog.Logger
}

type intervalEntry struct {
	id     cron.EntryID
	period time.Duration
}

// NewScheduler creates a Scheduler whose triggers hand tasks to submit.
// Calendar triggers are evaluated in loc.
func NewScheduler(submit func(Task) bool, loc *time.Location, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	if loc == nil {
		loc = time.Local
	}

	return &Scheduler{
		cron:      cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		schedules: make(map[int64]cron.EntryID),
		intervals: make(map[int64]intervalEntry),
		submit:    submit,
		log:       log.With(slog.String("component", "scheduler")),
	}
}

// Start begins evaluating triggers.
func (s *Scheduler) Start() {
	s.log.Info("scheduler: starting")
	s.cron.Start()
}

// Stop cancels every trigger and waits for running cron callbacks or ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	s.stopped = true
	for chatID, entry := range s.intervals {
		s.cron.Remove(entry.id)
		delete(s.intervals, chatID)
	}
	for chatID, id := range s.schedules {
		s.cron.Remove(id)
		delete(s.schedules, chatID)
	}
	s.reportLocked()
	s.mu.Unlock()

	s.log.Info("scheduler: shutting down")
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// SetInterval arms a trigger that fires every period, counted from the
// previous firing, replacing any previous interval. Periods are whole seconds.
func (s *Scheduler) SetInterval(chatID int64, period time.Duration) error {
	if period < time.Second {
		return ErrInvalidPeriod
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}

	s.clearIntervalLocked(chatID)

	id := s.cron.Schedule(cron.Every(period), cron.FuncJob(func() {
		s.submit(Task{ChatID: chatID, Source: SourceInterval})
	}))
	s.intervals[chatID] = intervalEntry{id: id, period: period}
	s.reportLocked()

	s.log.Info("interval armed", slog.Int64("chat_id", chatID), slog.Duration("period", period))
	return nil
}

// ClearInterval cancels the chat's interval trigger and reports whether one existed.
func (s *Scheduler) ClearInterval(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	existed := s.clearIntervalLocked(chatID)
	s.reportLocked()
	return existed
}

// Interval returns the armed period for chatID.
func (s *Scheduler) Interval(chatID int64) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.intervals[chatID]
	if !ok {
		return 0, false
	}
	return entry.period, true
}

// SetSchedule arms a calendar trigger for spec, replacing any previous one.
func (s *Scheduler) SetSchedule(chatID int64, spec domain.ScheduleSpec) error {
	expr := spec.CronExpr()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}

	s.clearScheduleLocked(chatID)

	id, err := s.cron.AddFunc(expr, func() {
		s.submit(Task{ChatID: chatID, Source: SourceSchedule})
	})
	if err != nil {
		s.reportLocked()
		return fmt.Errorf("arm schedule %q: %w", expr, err)
	}

	s.schedules[chatID] = id
	s.reportLocked()

	s.log.Info("schedule armed", slog.Int64("chat_id", chatID), slog.String("cron", expr))
	return nil
}

// ClearSchedule cancels the chat's calendar trigger and reports whether one existed.
func (s *Scheduler) ClearSchedule(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	existed := s.clearScheduleLocked(chatID)
	s.reportLocked()
	return existed
}

// NextRun returns the next firing time of the chat's calendar trigger.
func (s *Scheduler) NextRun(chatID int64) (time.Time, bool) {
	s.mu.Lock()
	id, ok := s.schedules[chatID]
	s.mu.Unlock()

	if !ok {
		return time.Time{}, false
	}

	entry := s.cron.Entry(id)
	if !entry.Valid() || entry.Next.IsZero() {
		return time.Time{}, false
	}
	return entry.Next, true
}

// HasInterval reports whether an interval trigger is armed for chatID.
func (s *Scheduler) HasInterval(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.intervals[chatID]
	return ok
}

// HasSchedule reports whether a calendar trigger is armed for chatID.
func (s *Scheduler) HasSchedule(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.schedules[chatID]
	return ok
}

func (s *Scheduler) clearIntervalLocked(chatID int64) bool {
	entry, ok := s.intervals[chatID]
	if !ok {
		return false
	}
	s.cron.Remove(entry.id)
	delete(s.intervals, chatID)
	return true
}

func (s *Scheduler) clearScheduleLocked(chatID int64) bool {
	id, ok := s.schedules[chatID]
	if !ok {
		return false
	}
	s.cron.Remove(id)
	delete(s.schedules, chatID)
	return true
}

func (s *Scheduler) reportLocked() {
	metrics.SetArmedTriggers(string(SourceInterval), len(s.intervals))
	metrics.SetArmedTriggers(string(SourceSchedule), len(s.schedules))
}
