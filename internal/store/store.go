// Package store persists spaces, courses, priced blocks and reservations in
// SQLite. It is the engine's external collaborator: the read paths feed the
// conflict resolver, and CreateReservation re-runs the overlap check inside
// the same transaction that writes the row.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"clubspace/internal/availability"
	"clubspace/internal/model"
	"clubspace/internal/timeutil"
)

// ErrSlotTaken is returned when the in-transaction re-check or the unique
// slot index finds the candidate slot already occupied.
var ErrSlotTaken = fmt.Errorf("slot already taken")

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = fmt.Errorf("not found")

// Store wraps sql.DB for the scheduling service.
type Store struct {
	*sql.DB
}

// Open opens the database at path and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := createTables(db); err != nil {
		return nil, err
	}
	return &Store{db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS spaces (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL,
			description TEXT,
			capacity INTEGER NOT NULL DEFAULT 1,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS priced_blocks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			space_id INTEGER NOT NULL,
			weekday INTEGER NOT NULL,
			start_minute INTEGER NOT NULL,
			end_minute INTEGER NOT NULL,
			price_cents INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (space_id) REFERENCES spaces(id),
			UNIQUE (space_id, weekday, start_minute, end_minute)
		)`,

		`CREATE TABLE IF NOT EXISTS courses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			space_id INTEGER NOT NULL,
			start_date DATETIME NOT NULL,
			end_date DATETIME NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (space_id) REFERENCES spaces(id)
		)`,

		`CREATE TABLE IF NOT EXISTS course_schedules (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			course_id INTEGER NOT NULL,
			space_id INTEGER NOT NULL,
			weekday INTEGER NOT NULL,
			start_minute INTEGER NOT NULL,
			end_minute INTEGER NOT NULL,
			FOREIGN KEY (course_id) REFERENCES courses(id),
			FOREIGN KEY (space_id) REFERENCES spaces(id),
			UNIQUE (course_id, weekday)
		)`,

		`CREATE TABLE IF NOT EXISTS reservations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ref TEXT UNIQUE NOT NULL,
			space_id INTEGER NOT NULL,
			course_id INTEGER,
			member_name TEXT,
			member_phone TEXT,
			kind TEXT NOT NULL,
			date DATETIME NOT NULL,
			start_minute INTEGER NOT NULL,
			end_minute INTEGER NOT NULL,
			price_cents INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'confirmed',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (space_id) REFERENCES spaces(id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_spaces_active ON spaces(is_active)`,
		`CREATE INDEX IF NOT EXISTS idx_priced_blocks_space ON priced_blocks(space_id, weekday)`,
		`CREATE INDEX IF NOT EXISTS idx_schedules_course ON course_schedules(course_id, weekday)`,

		// Partial unique index: the backstop against two writers committing
		// the same slot past a stale conflict check. Canceled rows stay out
		// of it so a freed slot can be booked again.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_reservations_slot
			ON reservations(space_id, date, start_minute, end_minute)
			WHERE status != 'canceled'`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_status ON reservations(status)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}

// ReservationsForSpace returns all active bookings of a space whose date
// falls inside the inclusive range, ordered by date then start then end.
// One-off reservations and course-session occurrences both qualify.
func (s *Store) ReservationsForSpace(ctx context.Context, spaceID int64, rng availability.DateRange) ([]model.Reservation, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT id, ref, space_id, COALESCE(course_id, 0), COALESCE(member_name, ''),
		       COALESCE(member_phone, ''), kind, date, start_minute, end_minute,
		       price_cents, status, created_at
		FROM reservations
		WHERE space_id = ? AND date >= ? AND date <= ?
		AND status != 'canceled'
		ORDER BY date, start_minute, end_minute`,
		spaceID, rng.Start, rng.End,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []model.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, *r)
	}
	return reservations, rows.Err()
}

// BookingsForSpace is ReservationsForSpace converted to the engine's type.
func (s *Store) BookingsForSpace(ctx context.Context, spaceID int64, rng availability.DateRange) ([]availability.Booking, error) {
	reservations, err := s.ReservationsForSpace(ctx, spaceID, rng)
	if err != nil {
		return nil, err
	}
	bookings := make([]availability.Booking, 0, len(reservations))
	for i := range reservations {
		bookings = append(bookings, reservations[i].Booking())
	}
	return bookings, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*model.Reservation, error) {
	var r model.Reservation
	if err := row.Scan(
		&r.ID, &r.Ref, &r.SpaceID, &r.CourseID, &r.MemberName,
		&r.MemberPhone, &r.Kind, &r.Date, &r.StartMinute, &r.EndMinute,
		&r.PriceCents, &r.Status, &r.CreatedAt,
	); err != nil {
		return nil, err
	}
	r.Date = timeutil.DateOnly(r.Date)
	return &r, nil
}

// CreateReservation commits a booking. The overlap re-check runs inside the
// same transaction as the insert, so a slot approved against a stale
// snapshot cannot be committed twice; the unique slot index backs this up
// for exact duplicates.
func (s *Store) CreateReservation(ctx context.Context, r *model.Reservation) error {
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var count int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reservations
		WHERE space_id = ? AND date(date) = date(?)
		AND start_minute < ? AND end_minute > ?
		AND status != 'canceled'`,
		r.SpaceID, r.Date, r.EndMinute, r.StartMinute,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("recheck slot: %w", err)
	}
	if count > 0 {
		return ErrSlotTaken
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO reservations (
			ref, space_id, course_id, member_name, member_phone,
			kind, date, start_minute, end_minute, price_cents, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Ref, r.SpaceID, nullableID(r.CourseID), r.MemberName, r.MemberPhone,
		r.Kind, r.Date, r.StartMinute, r.EndMinute, r.PriceCents, r.Status, time.Now().UTC(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrSlotTaken
		}
		return fmt.Errorf("insert reservation: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.ID = id
	return nil
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

// GetReservationByRef fetches a reservation by its public reference.
func (s *Store) GetReservationByRef(ctx context.Context, ref string) (*model.Reservation, error) {
	row := s.QueryRowContext(ctx, `
		SELECT id, ref, space_id, COALESCE(course_id, 0), COALESCE(member_name, ''),
		       COALESCE(member_phone, ''), kind, date, start_minute, end_minute,
		       price_cents, status, created_at
		FROM reservations WHERE ref = ?`,
		ref,
	)
	r, err := scanReservation(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// CancelReservation marks a reservation canceled, freeing its slot.
func (s *Store) CancelReservation(ctx context.Context, ref string) error {
	res, err := s.ExecContext(ctx,
		"UPDATE reservations SET status = 'canceled' WHERE ref = ? AND status != 'canceled'", ref)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ReservationsInRange returns all non-canceled reservations of every space
// inside the inclusive range. Used by the report exporter.
func (s *Store) ReservationsInRange(ctx context.Context, rng availability.DateRange) ([]model.Reservation, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT id, ref, space_id, COALESCE(course_id, 0), COALESCE(member_name, ''),
		       COALESCE(member_phone, ''), kind, date, start_minute, end_minute,
		       price_cents, status, created_at
		FROM reservations
		WHERE date >= ? AND date <= ? AND status != 'canceled'
		ORDER BY space_id, date, start_minute`,
		rng.Start, rng.End,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []model.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, *r)
	}
	return reservations, rows.Err()
}

// Backup writes a consistent snapshot of the database to dest.
func (s *Store) Backup(dest string) error {
	_, err := s.Exec("VACUUM INTO ?", dest)
	return err
}

// CleanupBackups deletes backup files older than retention. Returns the
// number of files removed.
func (s *Store) CleanupBackups(dir string, retention time.Duration) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-retention)
	deleted := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(dir, e.Name())); err == nil {
				deleted++
			}
		}
	}
	return deleted, nil
}
