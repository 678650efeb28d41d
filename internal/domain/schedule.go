package domain

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ScheduleKind selects between daily and weekday-restricted delivery.
type ScheduleKind string

const (
	ScheduleEveryDay     ScheduleKind = "every_day"
	ScheduleSpecificDays ScheduleKind = "specific_days"
)

// Weekday follows cron numbering: Sunday=0 … Saturday=6.
type Weekday int

// AllWeekdays lists weekdays in display order, Monday first.
var AllWeekdays = []Weekday{1, 2, 3, 4, 5, 6, 0}

// Valid reports whether d is within 0..6.
func (d Weekday) Valid() bool {
	return d >= 0 && d <= 6
}

// TimeOfDay is a wall-clock time with second precision.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// String renders the time as HH:MM:SS.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Duration converts the time of day into an offset from midnight.
func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t.Hour)*time.Hour + time.Duration(t.Minute)*time.Minute + time.Duration(t.Second)*time.Second
}

// ScheduleSpec is a confirmed calendar schedule for a chat.
type ScheduleSpec struct {
	Kind ScheduleKind
	Days []Weekday
	Time TimeOfDay
}

// CronExpr builds a six-field (seconds first) cron expression for the schedule.
func (s ScheduleSpec) CronExpr() string {
	dow := "*"
	if s.Kind == ScheduleSpecificDays {
		days := SortedDays(s.Days)
		parts := make([]string, 0, len(days))
		for _, d := range days {
			parts = append(parts, fmt.Sprintf("%d", int(d)))
		}
		dow = strings.Join(parts, ",")
	}

	return fmt.Sprintf("%d %d %d * * %s", s.Time.Second, s.Time.Minute, s.Time.Hour, dow)
}

// SortedDays returns a sorted, de-duplicated copy of days.
func SortedDays(days []Weekday) []Weekday {
	seen := make(map[Weekday]struct{}, len(days))
	out := make([]Weekday, 0, len(days))
	for _, d := range days {
		if _, ok := seen[d]; ok || !d.Valid() {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ErrInvalidTime indicates a malformed or out-of-range HH:MM:SS value.
var ErrInvalidTime = errors.New("invalid time, expected HH:MM:SS")

var timeOfDayPattern = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2})$`)

// Valid reports whether every field is within range; hours are 0–23.
func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour <= 23 &&
		t.Minute >= 0 && t.Minute <= 59 &&
		t.Second >= 0 && t.Second <= 59
}

// ParseTimeOfDay parses zero-padded HH:MM:SS with hours 0–23.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	m := timeOfDayPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return TimeOfDay{}, ErrInvalidTime
	}

	h, _ := strconv.Atoi(m[1])
	mi, _ := strconv.Atoi(m[2])
	sec, _ := strconv.Atoi(m[3])

	t := TimeOfDay{Hour: h, Minute: mi, Second: sec}
	if !t.Valid() {
		return TimeOfDay{}, ErrInvalidTime
	}
	return t, nil
}
