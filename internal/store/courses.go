package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"clubspace/internal/availability"
	"clubspace/internal/model"
	"clubspace/internal/timeutil"
)

// GetCourse returns a course by ID.
func (s *Store) GetCourse(ctx context.Context, id int64) (*model.Course, error) {
	var c model.Course
	err := s.QueryRowContext(ctx, `
		SELECT id, name, space_id, start_date, end_date, is_active, created_at
		FROM courses WHERE id = ?`,
		id,
	).Scan(&c.ID, &c.Name, &c.SpaceID, &c.StartDate, &c.EndDate, &c.IsActive, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.StartDate = timeutil.DateOnly(c.StartDate)
	c.EndDate = timeutil.DateOnly(c.EndDate)
	return &c, nil
}

// CreateCourse inserts a course.
func (s *Store) CreateCourse(ctx context.Context, c *model.Course) error {
	res, err := s.ExecContext(ctx, `
		INSERT INTO courses (name, space_id, start_date, end_date, is_active, created_at)
		VALUES (?, ?, ?, ?, 1, ?)`,
		c.Name, c.SpaceID, timeutil.DateOnly(c.StartDate), timeutil.DateOnly(c.EndDate), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert course: %w", err)
	}
	c.ID, err = res.LastInsertId()
	return err
}

// CourseSchedules returns the persisted weekly slots of a course as the
// engine's schedule type.
func (s *Store) CourseSchedules(ctx context.Context, courseID int64) ([]availability.WeeklySchedule, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT space_id, weekday, start_minute, end_minute
		FROM course_schedules WHERE course_id = ?
		ORDER BY weekday, start_minute`,
		courseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []availability.WeeklySchedule
	for rows.Next() {
		var spaceID int64
		var weekday, startMin, endMin int
		if err := rows.Scan(&spaceID, &weekday, &startMin, &endMin); err != nil {
			return nil, err
		}
		ws := availability.WeeklySchedule{
			SpaceID: spaceID,
			Weekday: timeutil.Weekday(weekday),
		}
		ws.Slot.Start = timeutil.TimeOfDay(startMin)
		ws.Slot.End = timeutil.TimeOfDay(endMin)
		schedules = append(schedules, ws)
	}
	return schedules, rows.Err()
}

// AddCourseSchedule persists a weekly slot and materializes one reservation
// per occurrence inside the course range, all in one transaction. The
// UNIQUE (course_id, weekday) constraint backs the duplicate-weekday gate.
func (s *Store) AddCourseSchedule(ctx context.Context, courseID int64, ws availability.WeeklySchedule, occurrences []time.Time) error {
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO course_schedules (course_id, space_id, weekday, start_minute, end_minute)
		VALUES (?, ?, ?, ?, ?)`,
		courseID, ws.SpaceID, int(ws.Weekday), int(ws.Slot.Start), int(ws.Slot.End),
	)
	if err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}

	now := time.Now().UTC()
	for _, date := range occurrences {
		var count int
		err = tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM reservations
			WHERE space_id = ? AND date(date) = date(?)
			AND start_minute < ? AND end_minute > ?
			AND status != 'canceled'`,
			ws.SpaceID, date, int(ws.Slot.End), int(ws.Slot.Start),
		).Scan(&count)
		if err != nil {
			return fmt.Errorf("recheck occurrence %s: %w", timeutil.FormatDate(date), err)
		}
		if count > 0 {
			return ErrSlotTaken
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO reservations (
				ref, space_id, course_id, kind, date, start_minute, end_minute, status, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			model.NewRef(), ws.SpaceID, courseID, model.KindCourseSession,
			date, int(ws.Slot.Start), int(ws.Slot.End), model.StatusConfirmed, now,
		)
		if err != nil {
			return fmt.Errorf("materialize occurrence %s: %w", timeutil.FormatDate(date), err)
		}
	}

	return tx.Commit()
}
