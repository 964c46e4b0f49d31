// Package availability decides whether a candidate slot collides with the
// existing bookings of a space. It is pure and stateless: callers fetch the
// booking set, ask for a verdict, and own the transaction that persists the
// result.
package availability

import (
	"fmt"
	"sort"
	"time"

	"clubspace/internal/interval"
	"clubspace/internal/timeutil"
)

// MaxOccurrences caps weekly expansion at roughly three years of sessions.
// A range producing more occurrences is rejected rather than scanned.
const MaxOccurrences = 1100

// Booking is a committed reservation occupying one space on one date.
// One-off reservations and materialized course sessions look the same here.
type Booking struct {
	ID      int64
	SpaceID int64
	Date    time.Time // UTC midnight
	Slot    interval.Interval
}

// Start returns the absolute UTC instant the booking begins.
func (b Booking) Start() time.Time {
	return timeutil.Combine(b.Date, b.Slot.Start)
}

// End returns the absolute UTC instant the booking ends.
func (b Booking) End() time.Time {
	return timeutil.Combine(b.Date, b.Slot.End)
}

// WeeklySchedule is a recurring slot: every occurrence of Weekday inside a
// course's date range.
type WeeklySchedule struct {
	SpaceID int64
	Weekday timeutil.Weekday
	Slot    interval.Interval
}

// DateRange is an inclusive [Start, End] span of UTC calendar dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange normalizes both endpoints to UTC midnight and rejects
// inverted ranges. A malformed range must never silently scan zero days and
// pass as "no conflict".
func NewDateRange(start, end time.Time) (DateRange, error) {
	s, e := timeutil.DateOnly(start), timeutil.DateOnly(end)
	if s.After(e) {
		return DateRange{}, fmt.Errorf("range %s..%s: %w",
			timeutil.FormatDate(s), timeutil.FormatDate(e), ErrInvalidDateRange)
	}
	return DateRange{Start: s, End: e}, nil
}

// Contains reports whether a date falls inside the range.
func (r DateRange) Contains(date time.Time) bool {
	d := timeutil.DateOnly(date)
	return !d.Before(r.Start) && !d.After(r.End)
}

// Days returns the number of calendar days in the inclusive range.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// FindConflict returns the existing booking that collides with the candidate
// slot, or nil when the slot is clear. Only bookings for the same space on
// the same calendar date are considered. When several bookings collide the
// earliest-starting one is reported; ties break on the earlier end, giving
// callers a deterministic error to display.
func FindConflict(candidate Booking, spaceID int64, existing []Booking) *Booking {
	var found *Booking
	for i := range existing {
		b := &existing[i]
		if b.SpaceID != spaceID {
			continue
		}
		if !timeutil.SameDate(b.Date, candidate.Date) {
			continue
		}
		if !b.Slot.Overlaps(candidate.Slot) {
			continue
		}
		if found == nil || earlier(b, found) {
			found = b
		}
	}
	if found == nil {
		return nil
	}
	out := *found
	return &out
}

func earlier(a, b *Booking) bool {
	if a.Slot.Start != b.Slot.Start {
		return a.Slot.Start < b.Slot.Start
	}
	return a.Slot.End < b.Slot.End
}

// Occurrences expands every concrete date of weekday inside the inclusive
// range, in chronological order. The expansion is bounded by MaxOccurrences.
func Occurrences(weekday timeutil.Weekday, rng DateRange) ([]time.Time, error) {
	if !weekday.Valid() {
		return nil, fmt.Errorf("weekday %d out of range: %w", int(weekday), ErrInvalidDateRange)
	}
	if rng.Start.After(rng.End) {
		return nil, fmt.Errorf("range %s..%s: %w",
			timeutil.FormatDate(rng.Start), timeutil.FormatDate(rng.End), ErrInvalidDateRange)
	}

	var dates []time.Time
	for d := rng.Start; !d.After(rng.End); d = d.AddDate(0, 0, 1) {
		if timeutil.WeekdayOf(d) != weekday {
			continue
		}
		if len(dates) >= MaxOccurrences {
			return nil, fmt.Errorf("range %s..%s expands past %d occurrences: %w",
				timeutil.FormatDate(rng.Start), timeutil.FormatDate(rng.End), MaxOccurrences, ErrRangeTooLong)
		}
		dates = append(dates, d)
	}
	return dates, nil
}

// FindConflictForWeeklySchedule checks every occurrence of the candidate's
// weekday inside the course date range against the existing bookings.
// It returns the earliest conflict by occurrence date, then booking start
// time, or nil when every occurrence is clear. An inverted range fails
// closed with ErrInvalidDateRange.
func FindConflictForWeeklySchedule(candidate WeeklySchedule, rng DateRange, spaceID int64, existing []Booking) (*Booking, error) {
	dates, err := Occurrences(candidate.Weekday, rng)
	if err != nil {
		return nil, err
	}

	for _, date := range dates {
		probe := Booking{SpaceID: spaceID, Date: date, Slot: candidate.Slot}
		if hit := FindConflict(probe, spaceID, existing); hit != nil {
			return hit, nil
		}
	}
	return nil, nil
}

// HasDuplicateWeekday reports whether the course draft already holds a
// schedule on the candidate weekday. A course allows at most one weekly
// slot per weekday; this gate runs before any booking lookup.
func HasDuplicateWeekday(schedules []WeeklySchedule, weekday timeutil.Weekday) bool {
	for _, s := range schedules {
		if s.Weekday == weekday {
			return true
		}
	}
	return false
}

// MergedWindows folds the candidate slot together with every booking it
// overlaps on the given date into the single unavailable window the UI
// shows, alongside the remaining busy windows of the day.
func MergedWindows(candidate Booking, existing []Booking) []interval.Interval {
	slots := []interval.Interval{candidate.Slot}
	for _, b := range existing {
		if b.SpaceID != candidate.SpaceID || !timeutil.SameDate(b.Date, candidate.Date) {
			continue
		}
		slots = append(slots, b.Slot)
	}
	return interval.MergeAll(slots)
}

// ConflictWindow returns the single merged window containing the candidate
// slot after folding it into the day's bookings. The result always contains
// the candidate slot.
func ConflictWindow(candidate Booking, existing []Booking) interval.Interval {
	for _, w := range MergedWindows(candidate, existing) {
		if w.Start <= candidate.Slot.Start && candidate.Slot.End <= w.End {
			return w
		}
	}
	return candidate.Slot
}

// SortBookings orders bookings by date, then start, then end. The store
// returns rows in this order already; the helper exists for caller-supplied
// collections of unknown origin.
func SortBookings(bookings []Booking) {
	sort.Slice(bookings, func(i, j int) bool {
		if !bookings[i].Date.Equal(bookings[j].Date) {
			return bookings[i].Date.Before(bookings[j].Date)
		}
		if bookings[i].Slot.Start != bookings[j].Slot.Start {
			return bookings[i].Slot.Start < bookings[j].Slot.Start
		}
		return bookings[i].Slot.End < bookings[j].Slot.End
	})
}
