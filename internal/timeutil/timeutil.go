// Package timeutil provides wall-clock and calendar arithmetic for the
// scheduling engine. All date math is done on UTC-normalized dates so the
// result never depends on the server's local timezone.
package timeutil

import (
	"fmt"
	"regexp"
	"time"
)

// MinutesPerDay is the number of minutes in a calendar day.
const MinutesPerDay = 24 * 60

// ErrInvalidFormat is returned when a time or date string fails to parse.
var ErrInvalidFormat = fmt.Errorf("invalid format")

// TimeOfDay is a wall-clock time expressed as minutes since midnight.
// Valid values are in [0, 1440).
type TimeOfDay int

var timeOfDayRe = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// ParseTimeOfDay parses strict 24-hour "HH:MM" input.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	m := timeOfDayRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("parse time %q: expected HH:MM: %w", s, ErrInvalidFormat)
	}
	var hour, minute int
	fmt.Sscanf(m[1], "%d", &hour)
	fmt.Sscanf(m[2], "%d", &minute)
	return TimeOfDay(hour*60 + minute), nil
}

// String formats the time as zero-padded "HH:MM". It is the inverse of
// ParseTimeOfDay for every valid value.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Valid reports whether the value is inside [0, 1440).
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < MinutesPerDay
}

// Weekday is a day of the week, Monday first.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

func (w Weekday) String() string {
	if w < Monday || w > Sunday {
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
	return weekdayNames[w]
}

// Valid reports whether w is one of the seven defined weekdays.
func (w Weekday) Valid() bool {
	return w >= Monday && w <= Sunday
}

// ParseWeekday parses a weekday name such as "Monday".
func ParseWeekday(s string) (Weekday, error) {
	for i, name := range weekdayNames {
		if s == name {
			return Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("parse weekday %q: %w", s, ErrInvalidFormat)
}

// fromGo maps Go's numbering (0=Sunday..6=Saturday) onto the Monday-first
// enum. The mapping is explicit and total.
func fromGo(w time.Weekday) Weekday {
	switch w {
	case time.Sunday:
		return Sunday
	case time.Monday:
		return Monday
	case time.Tuesday:
		return Tuesday
	case time.Wednesday:
		return Wednesday
	case time.Thursday:
		return Thursday
	case time.Friday:
		return Friday
	default:
		return Saturday
	}
}

// WeekdayOf derives the weekday of a date. The date is normalized to UTC
// first so the answer matches how dates are persisted (UTC midnight),
// regardless of the caller's location.
func WeekdayOf(date time.Time) Weekday {
	return fromGo(DateOnly(date).Weekday())
}

// DateOnly truncates an instant to UTC midnight of its UTC calendar date.
func DateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Combine anchors a wall-clock time to a calendar date, producing an
// absolute UTC instant.
func Combine(date time.Time, tod TimeOfDay) time.Time {
	return DateOnly(date).Add(time.Duration(tod) * time.Minute)
}

// ParseDate parses strict "YYYY-MM-DD" into a UTC midnight instant.
func ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: expected YYYY-MM-DD: %w", s, ErrInvalidFormat)
	}
	return d, nil
}

// FormatDate formats a date as "YYYY-MM-DD" in UTC.
func FormatDate(t time.Time) string {
	return DateOnly(t).Format("2006-01-02")
}

// SameDate reports whether two instants fall on the same UTC calendar date.
func SameDate(a, b time.Time) bool {
	return DateOnly(a).Equal(DateOnly(b))
}
