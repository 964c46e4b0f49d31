package availability

import (
	"fmt"

	"clubspace/internal/interval"
	"clubspace/internal/timeutil"
)

var (
	// ErrInvalidDateRange is returned when a course range has start > end.
	ErrInvalidDateRange = fmt.Errorf("invalid date range: start after end")

	// ErrRangeTooLong is returned when weekly expansion would exceed
	// MaxOccurrences.
	ErrRangeTooLong = fmt.Errorf("date range too long")

	// ErrDuplicateWeekday is returned when a course draft already carries a
	// schedule on the proposed weekday.
	ErrDuplicateWeekday = fmt.Errorf("duplicate weekday in course schedule")
)

// ConflictError reports a candidate slot colliding with an existing booking.
// The conflicting booking and the merged unavailable window around the
// candidate are carried for caller display.
type ConflictError struct {
	Booking Booking
	Window  interval.Interval
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slot conflicts with booking %d on %s %s",
		e.Booking.ID, timeutil.FormatDate(e.Booking.Date), e.Booking.Slot)
}
