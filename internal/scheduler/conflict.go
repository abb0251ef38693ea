package scheduler

import "time"

// Interval is a half-open [Start, End) time range claimed by one booking on one room.
type Interval struct {
	BookingID string
	RoomID    string
	Start     time.Time
	End       time.Time
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) share any instant. Adjacent intervals do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// FirstConflict scans existing confirmed intervals for the first one that
// overlaps the candidate on the same room. Callers are responsible for
// pre-filtering to confirmed bookings and, on reschedules, for removing the
// candidate's own current row from existing.
func FirstConflict(existing []Interval, candidate Interval) (Interval, bool) {
	for _, iv := range existing {
		if iv.RoomID != candidate.RoomID {
			continue
		}
		if iv.BookingID != "" && iv.BookingID == candidate.BookingID {
			continue
		}
		if Overlaps(iv.Start, iv.End, candidate.Start, candidate.End) {
			return iv, true
		}
	}
	return Interval{}, false
}

// HasConflict is the decision policy used by the booking services: reject as
// soon as any overlapping confirmed interval exists.
func HasConflict(existing []Interval, candidate Interval) bool {
	_, found := FirstConflict(existing, candidate)
	return found
}
