package model

import "time"

// Space is a bookable club resource: a court, pitch, pool lane or room.
type Space struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Capacity    int       `json:"capacity"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Course is an academy course whose weekly schedules occupy a space for
// every weekday occurrence inside [StartDate, EndDate].
type Course struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	SpaceID   int64     `json:"space_id"`
	StartDate time.Time `json:"start_date"` // UTC midnight, inclusive
	EndDate   time.Time `json:"end_date"`   // UTC midnight, inclusive
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// CourseSchedule is one persisted weekly slot of a course.
type CourseSchedule struct {
	ID          int64 `json:"id"`
	CourseID    int64 `json:"course_id"`
	SpaceID     int64 `json:"space_id"`
	Weekday     int   `json:"weekday"` // 0=Monday..6=Sunday
	StartMinute int   `json:"start_minute"`
	EndMinute   int   `json:"end_minute"`
}
