package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"clubspace/internal/availability"
	"clubspace/internal/interval"
	"clubspace/internal/metrics"
	"clubspace/internal/pricing"
	"clubspace/internal/report"
	"clubspace/internal/service"
	"clubspace/internal/store"
	"clubspace/internal/timeutil"
)

// CreateReservationRequest is the request body for POST /api/v1/reservations.
type CreateReservationRequest struct {
	SpaceID     int64  `json:"space_id"`
	Date        string `json:"date"`       // Format: YYYY-MM-DD
	StartTime   string `json:"start_time"` // Format: HH:MM
	EndTime     string `json:"end_time"`   // Format: HH:MM
	MemberName  string `json:"member_name,omitempty"`
	MemberPhone string `json:"member_phone,omitempty"`
}

// ConflictResponse describes the booking blocking a rejected slot request
// and the merged unavailable window around the requested slot.
type ConflictResponse struct {
	Error             string `json:"error"`
	SpaceID           int64  `json:"space_id"`
	Date              string `json:"date"`
	Slot              string `json:"slot"`
	UnavailableWindow string `json:"unavailable_window,omitempty"`
}

// handleReservations creates a one-off reservation.
// POST /api/v1/reservations
func (s *HTTPServer) handleReservations(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("create_reservation")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req CreateReservationRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.SpaceID <= 0 {
		writeError(w, http.StatusBadRequest, "space_id is required")
		return
	}
	if req.Date == "" || req.StartTime == "" || req.EndTime == "" {
		writeError(w, http.StatusBadRequest, "date, start_time and end_time are required")
		return
	}

	reservation, err := s.svc.ReserveSpace(r.Context(), service.ReserveRequest{
		SpaceID:     req.SpaceID,
		Date:        req.Date,
		Start:       req.StartTime,
		End:         req.EndTime,
		MemberName:  req.MemberName,
		MemberPhone: req.MemberPhone,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.invalidateDayView(r, req.SpaceID, req.Date)
	writeJSON(w, http.StatusCreated, reservation)
}

// handleReservationByRef fetches or cancels a reservation by reference.
// GET|DELETE /api/v1/reservations/{ref}
func (s *HTTPServer) handleReservationByRef(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/reservations/"
	ref := strings.TrimPrefix(r.URL.Path, prefix)
	if ref == "" || strings.Contains(ref, "/") {
		writeError(w, http.StatusBadRequest, "invalid path")
		return
	}

	switch r.Method {
	case http.MethodGet:
		metrics.IncHTTP("get_reservation")
		reservation, err := s.db.GetReservationByRef(r.Context(), ref)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, reservation)

	case http.MethodDelete:
		metrics.IncHTTP("cancel_reservation")
		reservation, err := s.db.GetReservationByRef(r.Context(), ref)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		if err := s.svc.CancelReservation(r.Context(), ref); err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.invalidateDayView(r, reservation.SpaceID, timeutil.FormatDate(reservation.Date))
		writeJSON(w, http.StatusOK, map[string]any{"success": true})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// ScheduleCourseRequest is the request body for POST /api/v1/courses/schedules.
type ScheduleCourseRequest struct {
	CourseID  int64  `json:"course_id"`
	Weekday   string `json:"weekday"`    // "Monday".."Sunday"
	StartTime string `json:"start_time"` // Format: HH:MM
	EndTime   string `json:"end_time"`   // Format: HH:MM
}

// handleCourseSchedules adds a weekly slot to a course and materializes its
// occurrences.
// POST /api/v1/courses/schedules
func (s *HTTPServer) handleCourseSchedules(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("add_course_schedule")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req ScheduleCourseRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.CourseID <= 0 {
		writeError(w, http.StatusBadRequest, "course_id is required")
		return
	}
	if req.Weekday == "" || req.StartTime == "" || req.EndTime == "" {
		writeError(w, http.StatusBadRequest, "weekday, start_time and end_time are required")
		return
	}

	ws, err := s.svc.AddCourseSchedule(r.Context(), service.ScheduleRequest{
		CourseID: req.CourseID,
		Weekday:  req.Weekday,
		Start:    req.StartTime,
		End:      req.EndTime,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"course_id": req.CourseID,
		"space_id":  ws.SpaceID,
		"weekday":   ws.Weekday.String(),
		"slot":      ws.Slot.String(),
	})
}

// handleSpaces lists active spaces.
// GET /api/v1/spaces
func (s *HTTPServer) handleSpaces(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("list_spaces")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	spaces, err := s.db.ListActiveSpaces(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"spaces": spaces})
}

// handleSpaceSubresource routes /api/v1/spaces/{id}/day and
// /api/v1/spaces/{id}/quote.
func (s *HTTPServer) handleSpaceSubresource(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/spaces/"
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if len(parts) != 2 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	spaceID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || spaceID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid space id")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	switch parts[1] {
	case "day":
		s.handleSpaceDay(w, r, spaceID)
	case "quote":
		s.handleSpaceQuote(w, r, spaceID)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// handleSpaceDay returns the merged busy windows of a space for a date.
// GET /api/v1/spaces/{id}/day?date=YYYY-MM-DD
func (s *HTTPServer) handleSpaceDay(w http.ResponseWriter, r *http.Request, spaceID int64) {
	metrics.IncHTTP("space_day")
	date := r.URL.Query().Get("date")
	if date == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}

	cacheKey := dayViewKey(spaceID, date)
	if s.cache != nil && s.cacheTTL > 0 {
		if val, err := s.cache.Get(r.Context(), cacheKey).Result(); err == nil {
			var view service.DayView
			if json.Unmarshal([]byte(val), &view) == nil {
				writeJSON(w, http.StatusOK, view)
				return
			}
		}
	}

	view, err := s.svc.SpaceDay(r.Context(), spaceID, date)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if data, err := json.Marshal(view); err == nil {
			s.cache.Set(r.Context(), cacheKey, data, s.cacheTTL)
		}
	}
	writeJSON(w, http.StatusOK, view)
}

// handleSpaceQuote prices a candidate slot without booking it.
// GET /api/v1/spaces/{id}/quote?date=YYYY-MM-DD&start=HH:MM&end=HH:MM
func (s *HTTPServer) handleSpaceQuote(w http.ResponseWriter, r *http.Request, spaceID int64) {
	metrics.IncHTTP("space_quote")
	q := r.URL.Query()
	date, start, end := q.Get("date"), q.Get("start"), q.Get("end")
	if date == "" || start == "" || end == "" {
		writeError(w, http.StatusBadRequest, "date, start and end are required")
		return
	}

	quote, err := s.svc.QuoteSlot(r.Context(), spaceID, date, start, end)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// handleReservationsReport streams an xlsx workbook of reservations, one
// sheet per active space.
// GET /api/v1/reports/reservations?start=YYYY-MM-DD&end=YYYY-MM-DD
func (s *HTTPServer) handleReservationsReport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("reservations_report")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	start, err := timeutil.ParseDate(q.Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start; expected YYYY-MM-DD")
		return
	}
	end, err := timeutil.ParseDate(q.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end; expected YYYY-MM-DD")
		return
	}
	rng, err := availability.NewDateRange(start, end)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start must not be after end")
		return
	}

	spaces, err := s.db.ListActiveSpaces(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	reservations, err := s.db.ReservationsInRange(r.Context(), rng)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	workbook, err := report.Build(spaces, reservations)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	defer workbook.Close()

	filename := fmt.Sprintf("reservations_%s_%s.xlsx", q.Get("start"), q.Get("end"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := workbook.Save(w); err != nil {
		s.log.Error().Err(err).Msg("stream report")
	}
}

func dayViewKey(spaceID int64, date string) string {
	return fmt.Sprintf("dayview:%d:%s", spaceID, date)
}

func (s *HTTPServer) invalidateDayView(r *http.Request, spaceID int64, date string) {
	if s.cache == nil {
		return
	}
	s.cache.Del(r.Context(), dayViewKey(spaceID, date))
}

// writeServiceError maps domain errors onto HTTP statuses.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	var ce *availability.ConflictError
	if errors.As(err, &ce) {
		writeJSON(w, http.StatusConflict, ConflictResponse{
			Error:             "slot conflicts with an existing booking",
			SpaceID:           ce.Booking.SpaceID,
			Date:              timeutil.FormatDate(ce.Booking.Date),
			Slot:              ce.Booking.Slot.String(),
			UnavailableWindow: ce.Window.String(),
		})
		return
	}

	switch {
	case errors.Is(err, timeutil.ErrInvalidFormat),
		errors.Is(err, interval.ErrInvalidInterval),
		errors.Is(err, availability.ErrInvalidDateRange),
		errors.Is(err, availability.ErrRangeTooLong):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, availability.ErrDuplicateWeekday),
		errors.Is(err, store.ErrSlotTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrDateOutOfWindow),
		errors.Is(err, service.ErrClosedDate),
		errors.Is(err, service.ErrSpaceInactive),
		errors.Is(err, pricing.ErrNoPriceForSlot):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		s.log.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
