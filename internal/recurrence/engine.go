package recurrence

import (
	"errors"
	"time"
)

var (
	// ErrInvalidClock indicates a clock value that does not name a time of day.
	ErrInvalidClock = errors.New("recurrence: clock must fall within a single day")
	// ErrInvalidClockRange indicates the end-of-day clock does not follow the start.
	ErrInvalidClockRange = errors.New("recurrence: end time of day must be after start time of day")
	// ErrInvalidRange indicates the semester end precedes the semester start.
	ErrInvalidRange = errors.New("recurrence: semester end must not precede semester start")
)

const minutesPerDay = 24 * 60

// Clock is a time of day expressed as minutes from midnight.
type Clock int

// NewClock builds a Clock from an hour and minute pair.
func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// Hour returns the hour component of the clock.
func (c Clock) Hour() int { return int(c) / 60 }

// Minute returns the minute component of the clock.
func (c Clock) Minute() int { return int(c) % 60 }

// On anchors the clock to the date portion of day in day's location.
func (c Clock) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, c.Hour(), c.Minute(), 0, 0, day.Location())
}

// Rule describes one weekly-interval recurrence request over a semester range.
// The semester end is inclusive.
type Rule struct {
	Weekday       time.Weekday
	StartClock    Clock
	EndClock      Clock
	SemesterStart time.Time
	SemesterEnd   time.Time
	IntervalWeeks int
}

// Slot is one concrete [Start, End) occurrence produced from a Rule.
type Slot struct {
	Start time.Time
	End   time.Time
}

// Expand generates every slot the rule describes, in chronological order.
// Expansion is deterministic: the same rule always yields the same dates.
// An interval of zero or less is treated as weekly. An empty result is not an
// error here; the planner decides how to surface it.
func Expand(rule Rule) ([]Slot, error) {
	// An out-of-day clock would silently roll over onto the next date in On,
	// shifting the slot off the requested weekday.
	if rule.StartClock < 0 || rule.StartClock >= minutesPerDay ||
		rule.EndClock < 0 || rule.EndClock >= minutesPerDay {
		return nil, ErrInvalidClock
	}
	if rule.EndClock <= rule.StartClock {
		return nil, ErrInvalidClockRange
	}
	start := truncateToDay(rule.SemesterStart)
	end := truncateToDay(rule.SemesterEnd)
	if end.Before(start) {
		return nil, ErrInvalidRange
	}

	interval := rule.IntervalWeeks
	if interval <= 0 {
		interval = 1
	}

	// Every week contains each weekday exactly once, so this loop is bounded
	// by seven iterations.
	current := start
	for current.Weekday() != rule.Weekday {
		current = current.AddDate(0, 0, 1)
	}

	var slots []Slot
	for !current.After(end) {
		slots = append(slots, Slot{
			Start: rule.StartClock.On(current),
			End:   rule.EndClock.On(current),
		})
		current = current.AddDate(0, 0, interval*7)
	}

	return slots, nil
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
