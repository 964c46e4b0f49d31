package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubspace/internal/availability"
	"clubspace/internal/config"
	"clubspace/internal/interval"
	"clubspace/internal/model"
	"clubspace/internal/timeutil"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedCatalog(t *testing.T, s *Store) {
	t.Helper()
	cfg := &config.SpacesConfig{
		Spaces: []config.SpaceConfig{
			{
				ID: 1, Name: "Court A", Capacity: 4, IsActive: true,
				PricedBlocks: []config.PricedBlockConfig{
					{Weekday: "Tuesday", Start: "08:00", End: "10:00", Price: "50.00"},
					{Weekday: "Wednesday", Start: "17:00", End: "18:00", Price: "30.00"},
				},
			},
			{ID: 2, Name: "Studio B", Capacity: 12, IsActive: true},
		},
	}
	require.NoError(t, s.SyncSpacesFromConfig(context.Background(), cfg))
}

func testReservation(spaceID int64, date string, startMin, endMin int) *model.Reservation {
	d, _ := timeutil.ParseDate(date)
	return &model.Reservation{
		Ref:         model.NewRef(),
		SpaceID:     spaceID,
		MemberName:  "Ada",
		Kind:        model.KindReservation,
		Date:        d,
		StartMinute: startMin,
		EndMinute:   endMin,
		PriceCents:  5000,
		Status:      model.StatusConfirmed,
	}
}

func TestCreateReservation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedCatalog(t, s)

	first := testReservation(1, "2025-03-04", 480, 600) // 08:00-10:00
	require.NoError(t, s.CreateReservation(ctx, first))
	assert.NotZero(t, first.ID)

	t.Run("overlap is rejected in the commit transaction", func(t *testing.T) {
		overlapping := testReservation(1, "2025-03-04", 540, 660) // 09:00-11:00
		assert.ErrorIs(t, s.CreateReservation(ctx, overlapping), ErrSlotTaken)
	})

	t.Run("exact duplicate is rejected", func(t *testing.T) {
		dup := testReservation(1, "2025-03-04", 480, 600)
		assert.ErrorIs(t, s.CreateReservation(ctx, dup), ErrSlotTaken)
	})

	t.Run("adjacent slot is allowed", func(t *testing.T) {
		adjacent := testReservation(1, "2025-03-04", 600, 660) // 10:00-11:00
		assert.NoError(t, s.CreateReservation(ctx, adjacent))
	})

	t.Run("same slot on another space is allowed", func(t *testing.T) {
		other := testReservation(2, "2025-03-04", 480, 600)
		assert.NoError(t, s.CreateReservation(ctx, other))
	})

	t.Run("canceled slot can be booked again", func(t *testing.T) {
		require.NoError(t, s.CancelReservation(ctx, first.Ref))
		rebooked := testReservation(1, "2025-03-04", 480, 600)
		assert.NoError(t, s.CreateReservation(ctx, rebooked))
	})
}

func TestGetReservationByRef(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedCatalog(t, s)

	r := testReservation(1, "2025-03-04", 480, 600)
	require.NoError(t, s.CreateReservation(ctx, r))

	got, err := s.GetReservationByRef(ctx, r.Ref)
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)
	assert.Equal(t, 480, got.StartMinute)
	assert.Equal(t, int64(5000), got.PriceCents)
	assert.True(t, got.Date.Equal(r.Date))

	_, err = s.GetReservationByRef(ctx, "no-such-ref")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelReservation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedCatalog(t, s)

	r := testReservation(1, "2025-03-04", 480, 600)
	require.NoError(t, s.CreateReservation(ctx, r))
	require.NoError(t, s.CancelReservation(ctx, r.Ref))

	got, err := s.GetReservationByRef(ctx, r.Ref)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCanceled, got.Status)

	// Already canceled and unknown refs both report not found.
	assert.ErrorIs(t, s.CancelReservation(ctx, r.Ref), ErrNotFound)
	assert.ErrorIs(t, s.CancelReservation(ctx, "no-such-ref"), ErrNotFound)
}

func TestBookingsForSpace(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedCatalog(t, s)

	inside := testReservation(1, "2025-03-10", 480, 600)
	boundary := testReservation(1, "2025-03-14", 600, 660)
	outside := testReservation(1, "2025-03-20", 480, 600)
	otherSpace := testReservation(2, "2025-03-10", 480, 600)
	canceled := testReservation(1, "2025-03-11", 480, 600)
	for _, r := range []*model.Reservation{inside, boundary, outside, otherSpace, canceled} {
		require.NoError(t, s.CreateReservation(ctx, r))
	}
	require.NoError(t, s.CancelReservation(ctx, canceled.Ref))

	rng, err := availability.NewDateRange(
		time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	bookings, err := s.BookingsForSpace(ctx, 1, rng)
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, inside.ID, bookings[0].ID)
	assert.Equal(t, boundary.ID, bookings[1].ID)
}

func TestPricedBlocks(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedCatalog(t, s)

	blocks, err := s.PricedBlocks(ctx, 1)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, timeutil.Tuesday, blocks[0].Weekday)
	assert.Equal(t, "50.00", blocks[0].Price.String())
	assert.Equal(t, "08:00-10:00", blocks[0].Slot.String())

	empty, err := s.PricedBlocks(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSyncSpacesFromConfig(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedCatalog(t, s)

	// Re-sync without space 2: it gets deactivated, not deleted.
	cfg := &config.SpacesConfig{
		Spaces: []config.SpaceConfig{
			{ID: 1, Name: "Court A renamed", Capacity: 6, IsActive: true},
		},
	}
	require.NoError(t, s.SyncSpacesFromConfig(ctx, cfg))

	sp1, err := s.GetSpace(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Court A renamed", sp1.Name)
	assert.Equal(t, 6, sp1.Capacity)

	sp2, err := s.GetSpace(ctx, 2)
	require.NoError(t, err)
	assert.False(t, sp2.IsActive)

	active, err := s.ListActiveSpaces(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, int64(1), active[0].ID)

	// Priced blocks of re-synced spaces are replaced wholesale.
	blocks, err := s.PricedBlocks(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestAddCourseSchedule(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedCatalog(t, s)

	course := &model.Course{
		Name:      "Beginner Yoga",
		SpaceID:   1,
		StartDate: time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 3, 19, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.CreateCourse(ctx, course))

	slot, err := interval.Parse("17:00", "18:00")
	require.NoError(t, err)
	ws := availability.WeeklySchedule{SpaceID: 1, Weekday: timeutil.Wednesday, Slot: slot}
	occurrences := []time.Time{
		time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 19, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.AddCourseSchedule(ctx, course.ID, ws, occurrences))

	schedules, err := s.CourseSchedules(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.Equal(t, timeutil.Wednesday, schedules[0].Weekday)

	rng, err := availability.NewDateRange(course.StartDate, course.EndDate)
	require.NoError(t, err)
	bookings, err := s.BookingsForSpace(ctx, 1, rng)
	require.NoError(t, err)
	assert.Len(t, bookings, 3)

	t.Run("duplicate weekday hits the unique constraint", func(t *testing.T) {
		second, err := interval.Parse("19:00", "20:00")
		require.NoError(t, err)
		dup := availability.WeeklySchedule{SpaceID: 1, Weekday: timeutil.Wednesday, Slot: second}
		assert.Error(t, s.AddCourseSchedule(ctx, course.ID, dup, nil))
	})

	t.Run("occupied occurrence rolls back the whole schedule", func(t *testing.T) {
		taken := testReservation(1, "2025-03-07", 1050, 1110) // Friday 17:30-18:30
		require.NoError(t, s.CreateReservation(ctx, taken))

		friday := availability.WeeklySchedule{SpaceID: 1, Weekday: timeutil.Friday, Slot: slot}
		fridays := []time.Time{
			time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		}
		assert.ErrorIs(t, s.AddCourseSchedule(ctx, course.ID, friday, fridays), ErrSlotTaken)

		schedules, err := s.CourseSchedules(ctx, course.ID)
		require.NoError(t, err)
		assert.Len(t, schedules, 1) // only the Wednesday slot survives
	})
}

func TestReservationsInRange(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedCatalog(t, s)

	require.NoError(t, s.CreateReservation(ctx, testReservation(2, "2025-03-10", 480, 600)))
	require.NoError(t, s.CreateReservation(ctx, testReservation(1, "2025-03-10", 480, 600)))
	require.NoError(t, s.CreateReservation(ctx, testReservation(1, "2025-03-11", 480, 600)))

	rng, err := availability.NewDateRange(
		time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	all, err := s.ReservationsInRange(ctx, rng)
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Ordered by space, then date.
	assert.Equal(t, int64(1), all[0].SpaceID)
	assert.Equal(t, int64(1), all[1].SpaceID)
	assert.Equal(t, int64(2), all[2].SpaceID)
}

func TestBackup(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedCatalog(t, s)
	require.NoError(t, s.CreateReservation(ctx, testReservation(1, "2025-03-04", 480, 600)))

	dir := t.TempDir()
	dest := filepath.Join(dir, "backup.db")
	require.NoError(t, s.Backup(dest))

	restored, err := Open(dest)
	require.NoError(t, err)
	defer restored.Close()

	spaces, err := restored.ListActiveSpaces(ctx)
	require.NoError(t, err)
	assert.Len(t, spaces, 2)
}

func TestCleanupBackups(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old.db")
	fresh := filepath.Join(dir, "fresh.db")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0o644))
	stale := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old, stale, stale))

	s := newTestStore(t)
	deleted, err := s.CleanupBackups(dir, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, err = os.Stat(old)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	assert.NoError(t, err)
}
