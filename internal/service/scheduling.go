// Package service orchestrates the availability engine against the store:
// it validates boundary input, consults the conflict resolver and pricing
// lookup, and hands approved bookings to the store for the transactional
// commit.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"clubspace/internal/availability"
	"clubspace/internal/interval"
	"clubspace/internal/metrics"
	"clubspace/internal/model"
	"clubspace/internal/pricing"
	"clubspace/internal/timeutil"
)

var (
	// ErrDateOutOfWindow is returned when a reservation date is in the past
	// or beyond the booking horizon.
	ErrDateOutOfWindow = fmt.Errorf("date outside booking window")

	// ErrClosedDate is returned when the club is closed on the requested date.
	ErrClosedDate = fmt.Errorf("club closed on requested date")

	// ErrSpaceInactive is returned for reservations against inactive spaces.
	ErrSpaceInactive = fmt.Errorf("space is not active")
)

// Repository is the persistence collaborator: read paths feed the resolver,
// CreateReservation re-checks and writes in one transaction.
type Repository interface {
	GetSpace(ctx context.Context, id int64) (*model.Space, error)
	BookingsForSpace(ctx context.Context, spaceID int64, rng availability.DateRange) ([]availability.Booking, error)
	PricedBlocks(ctx context.Context, spaceID int64) ([]pricing.PricedBlock, error)
	CreateReservation(ctx context.Context, r *model.Reservation) error
	GetReservationByRef(ctx context.Context, ref string) (*model.Reservation, error)
	CancelReservation(ctx context.Context, ref string) error
	GetCourse(ctx context.Context, id int64) (*model.Course, error)
	CourseSchedules(ctx context.Context, courseID int64) ([]availability.WeeklySchedule, error)
	AddCourseSchedule(ctx context.Context, courseID int64, ws availability.WeeklySchedule, occurrences []time.Time) error
}

// HolidayCalendar answers whether a date is a club-wide closed day.
type HolidayCalendar interface {
	IsHoliday(date string) (bool, string)
}

// SchedulingService exposes the reservation and course-schedule operations
// consumed by the API layer.
type SchedulingService struct {
	repo       Repository
	holidays   HolidayCalendar
	maxAdvance time.Duration
	now        func() time.Time
	logger     *zerolog.Logger
}

// NewSchedulingService creates the service. holidays may be nil when no
// catalog is loaded.
func NewSchedulingService(repo Repository, holidays HolidayCalendar, maxAdvance time.Duration, logger *zerolog.Logger) *SchedulingService {
	if maxAdvance <= 0 {
		maxAdvance = 30 * 24 * time.Hour
	}
	return &SchedulingService{
		repo:       repo,
		holidays:   holidays,
		maxAdvance: maxAdvance,
		now:        time.Now,
		logger:     logger,
	}
}

// ReserveRequest is the boundary input for a one-off member reservation.
// All fields arrive as strings from the dashboard and are validated here.
type ReserveRequest struct {
	SpaceID     int64
	Date        string // YYYY-MM-DD
	Start       string // HH:MM
	End         string // HH:MM
	MemberName  string
	MemberPhone string
}

// ReserveSpace books a slot for a member. The advisory conflict check runs
// against a fresh booking snapshot; the store repeats it inside the commit
// transaction, so a stale snapshot can reject but never double-book.
func (s *SchedulingService) ReserveSpace(ctx context.Context, req ReserveRequest) (*model.Reservation, error) {
	date, err := timeutil.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	slot, err := interval.Parse(req.Start, req.End)
	if err != nil {
		return nil, err
	}
	if err := s.validateDate(date); err != nil {
		return nil, err
	}

	space, err := s.repo.GetSpace(ctx, req.SpaceID)
	if err != nil {
		return nil, fmt.Errorf("load space %d: %w", req.SpaceID, err)
	}
	if !space.IsActive {
		return nil, ErrSpaceInactive
	}

	// Pricing gate: only slots matching a configured block may be booked.
	blocks, err := s.repo.PricedBlocks(ctx, req.SpaceID)
	if err != nil {
		return nil, fmt.Errorf("load priced blocks: %w", err)
	}
	price, ok := pricing.FindPrice(blocks, timeutil.WeekdayOf(date), slot)
	if !ok {
		return nil, pricing.ErrNoPriceForSlot
	}

	day := availability.DateRange{Start: date, End: date}
	existing, err := s.repo.BookingsForSpace(ctx, req.SpaceID, day)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	candidate := availability.Booking{SpaceID: req.SpaceID, Date: date, Slot: slot}
	if hit := availability.FindConflict(candidate, req.SpaceID, existing); hit != nil {
		metrics.IncConflictDetected(model.KindReservation)
		return nil, &availability.ConflictError{
			Booking: *hit,
			Window:  availability.ConflictWindow(candidate, existing),
		}
	}

	reservation := &model.Reservation{
		Ref:         model.NewRef(),
		SpaceID:     req.SpaceID,
		MemberName:  req.MemberName,
		MemberPhone: req.MemberPhone,
		Kind:        model.KindReservation,
		Date:        date,
		StartMinute: int(slot.Start),
		EndMinute:   int(slot.End),
		PriceCents:  int64(price),
		Status:      model.StatusConfirmed,
	}
	if err := s.repo.CreateReservation(ctx, reservation); err != nil {
		return nil, err
	}

	metrics.IncReservationCreated(model.KindReservation)
	s.logger.Info().
		Int64("space_id", req.SpaceID).
		Str("date", req.Date).
		Str("slot", slot.String()).
		Str("ref", reservation.Ref).
		Msg("reservation created")
	return reservation, nil
}

func (s *SchedulingService) validateDate(date time.Time) error {
	today := timeutil.DateOnly(s.now())
	if date.Before(today) {
		return fmt.Errorf("date %s is in the past: %w", timeutil.FormatDate(date), ErrDateOutOfWindow)
	}
	if date.After(today.Add(s.maxAdvance)) {
		return fmt.Errorf("date %s is beyond the booking horizon: %w", timeutil.FormatDate(date), ErrDateOutOfWindow)
	}
	if s.holidays != nil {
		if closed, name := s.holidays.IsHoliday(timeutil.FormatDate(date)); closed {
			return fmt.Errorf("%s (%s): %w", timeutil.FormatDate(date), name, ErrClosedDate)
		}
	}
	return nil
}

// ScheduleRequest is the boundary input for adding a weekly slot to a course.
type ScheduleRequest struct {
	CourseID int64
	Weekday  string // "Monday".."Sunday"
	Start    string // HH:MM
	End      string // HH:MM
}

// AddCourseSchedule adds a recurring weekly slot to a course. The
// duplicate-weekday gate runs before any booking lookup; only then is every
// occurrence inside the course range checked for conflicts and materialized.
func (s *SchedulingService) AddCourseSchedule(ctx context.Context, req ScheduleRequest) (*availability.WeeklySchedule, error) {
	weekday, err := timeutil.ParseWeekday(req.Weekday)
	if err != nil {
		return nil, err
	}
	slot, err := interval.Parse(req.Start, req.End)
	if err != nil {
		return nil, err
	}

	course, err := s.repo.GetCourse(ctx, req.CourseID)
	if err != nil {
		return nil, fmt.Errorf("load course %d: %w", req.CourseID, err)
	}

	draft, err := s.repo.CourseSchedules(ctx, req.CourseID)
	if err != nil {
		return nil, fmt.Errorf("load course schedules: %w", err)
	}
	if availability.HasDuplicateWeekday(draft, weekday) {
		return nil, availability.ErrDuplicateWeekday
	}

	rng, err := availability.NewDateRange(course.StartDate, course.EndDate)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.BookingsForSpace(ctx, course.SpaceID, rng)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	candidate := availability.WeeklySchedule{SpaceID: course.SpaceID, Weekday: weekday, Slot: slot}
	hit, err := availability.FindConflictForWeeklySchedule(candidate, rng, course.SpaceID, existing)
	if err != nil {
		return nil, err
	}
	if hit != nil {
		metrics.IncConflictDetected(model.KindCourseSession)
		probe := availability.Booking{SpaceID: course.SpaceID, Date: hit.Date, Slot: slot}
		return nil, &availability.ConflictError{
			Booking: *hit,
			Window:  availability.ConflictWindow(probe, existing),
		}
	}

	occurrences, err := availability.Occurrences(weekday, rng)
	if err != nil {
		return nil, err
	}
	if err := s.repo.AddCourseSchedule(ctx, req.CourseID, candidate, occurrences); err != nil {
		return nil, err
	}

	metrics.IncReservationCreated(model.KindCourseSession)
	s.logger.Info().
		Int64("course_id", req.CourseID).
		Str("weekday", weekday.String()).
		Str("slot", slot.String()).
		Int("occurrences", len(occurrences)).
		Msg("course schedule added")
	return &candidate, nil
}

// DayView is the merged unavailable-window view of one space on one date.
type DayView struct {
	SpaceID int64    `json:"space_id"`
	Date    string   `json:"date"`
	Busy    []string `json:"busy"` // "HH:MM-HH:MM" windows, sorted, non-overlapping
}

// SpaceDay returns the merged busy windows of a space for a date.
func (s *SchedulingService) SpaceDay(ctx context.Context, spaceID int64, dateStr string) (*DayView, error) {
	date, err := timeutil.ParseDate(dateStr)
	if err != nil {
		return nil, err
	}

	day := availability.DateRange{Start: date, End: date}
	existing, err := s.repo.BookingsForSpace(ctx, spaceID, day)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	slots := make([]interval.Interval, 0, len(existing))
	for _, b := range existing {
		slots = append(slots, b.Slot)
	}

	view := &DayView{SpaceID: spaceID, Date: dateStr, Busy: []string{}}
	for _, w := range interval.MergeAll(slots) {
		view.Busy = append(view.Busy, w.String())
	}
	return view, nil
}

// Quote is the up-front cost display for a candidate slot.
type Quote struct {
	SpaceID int64   `json:"space_id"`
	Date    string  `json:"date"`
	Slot    string  `json:"slot"`
	Price   string  `json:"price"`
	Hours   float64 `json:"hours"`
}

// QuoteSlot returns the configured price of a slot. A slot with no exact
// priced block is unpriced, not free.
func (s *SchedulingService) QuoteSlot(ctx context.Context, spaceID int64, dateStr, start, end string) (*Quote, error) {
	date, err := timeutil.ParseDate(dateStr)
	if err != nil {
		return nil, err
	}
	slot, err := interval.Parse(start, end)
	if err != nil {
		return nil, err
	}

	blocks, err := s.repo.PricedBlocks(ctx, spaceID)
	if err != nil {
		return nil, fmt.Errorf("load priced blocks: %w", err)
	}

	price, ok := pricing.FindPrice(blocks, timeutil.WeekdayOf(date), slot)
	if !ok {
		return nil, pricing.ErrNoPriceForSlot
	}

	return &Quote{
		SpaceID: spaceID,
		Date:    dateStr,
		Slot:    slot.String(),
		Price:   price.String(),
		Hours:   pricing.SlotHours(slot),
	}, nil
}

// CancelReservation frees a reserved slot by public reference.
func (s *SchedulingService) CancelReservation(ctx context.Context, ref string) error {
	if err := s.repo.CancelReservation(ctx, ref); err != nil {
		return err
	}
	metrics.IncReservationCancelled()
	s.logger.Info().Str("ref", ref).Msg("reservation cancelled")
	return nil
}

// IsConflict reports whether err is a slot conflict, for API status mapping.
func IsConflict(err error) bool {
	var ce *availability.ConflictError
	return errors.As(err, &ce)
}
