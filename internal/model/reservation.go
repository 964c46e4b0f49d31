package model

import (
	"time"

	"github.com/google/uuid"

	"clubspace/internal/availability"
	"clubspace/internal/interval"
	"clubspace/internal/timeutil"
)

// Reservation statuses. A reservation is immutable once created;
// cancellation removes it from the conflict set instead of mutating it.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCanceled  = "canceled"
)

// KindReservation marks one-off member reservations, KindCourseSession the
// materialized occurrences of a weekly course schedule.
const (
	KindReservation   = "reservation"
	KindCourseSession = "course_session"
)

// Reservation is a committed booking row for a space.
type Reservation struct {
	ID          int64     `json:"id"`
	Ref         string    `json:"ref"`
	SpaceID     int64     `json:"space_id"`
	CourseID    int64     `json:"course_id,omitempty"`
	MemberName  string    `json:"member_name,omitempty"`
	MemberPhone string    `json:"member_phone,omitempty"`
	Kind        string    `json:"kind"`
	Date        time.Time `json:"date"` // UTC midnight
	StartMinute int       `json:"start_minute"`
	EndMinute   int       `json:"end_minute"`
	PriceCents  int64     `json:"price_cents"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewRef generates the public reference code handed back to members.
func NewRef() string {
	return uuid.NewString()
}

// Slot returns the reservation's wall-clock interval.
func (r *Reservation) Slot() interval.Interval {
	return interval.Interval{
		Start: timeutil.TimeOfDay(r.StartMinute),
		End:   timeutil.TimeOfDay(r.EndMinute),
	}
}

// Booking converts the row into the engine's representation.
func (r *Reservation) Booking() availability.Booking {
	return availability.Booking{
		ID:      r.ID,
		SpaceID: r.SpaceID,
		Date:    timeutil.DateOnly(r.Date),
		Slot:    r.Slot(),
	}
}

// Duration returns the reserved length of time.
func (r *Reservation) Duration() time.Duration {
	return r.Slot().Duration()
}

// OverlapsWith reports whether two reservations occupy the same space at
// the same time on the same date.
func (r *Reservation) OverlapsWith(other *Reservation) bool {
	if r.SpaceID != other.SpaceID || !timeutil.SameDate(r.Date, other.Date) {
		return false
	}
	return r.Slot().Overlaps(other.Slot())
}

// Active reports whether the reservation still occupies its slot.
func (r *Reservation) Active() bool {
	return r.Status != StatusCanceled
}
