package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"clubspace/internal/model"
)

func TestBuild(t *testing.T) {
	spaces := []model.Space{
		{ID: 1, Name: "Court A"},
		{ID: 2, Name: "Studio B"},
	}
	reservations := []model.Reservation{
		{
			Ref: "ref-1", SpaceID: 1, Kind: model.KindReservation,
			Date:        time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC),
			StartMinute: 480, EndMinute: 600,
			MemberName: "Ada", PriceCents: 5000, Status: model.StatusConfirmed,
		},
		{
			Ref: "ref-2", SpaceID: 1, Kind: model.KindCourseSession,
			Date:        time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
			StartMinute: 1020, EndMinute: 1080,
			Status: model.StatusConfirmed,
		},
	}

	w, err := Build(spaces, reservations)
	require.NoError(t, err)
	defer w.Close()

	var buf bytes.Buffer
	require.NoError(t, w.Save(&buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Court A", "Studio B"}, f.GetSheetList())

	rows, err := f.GetRows("Court A")
	require.NoError(t, err)
	require.Len(t, rows, 3) // header + 2 reservations
	assert.Equal(t, "Ref", rows[0][0])
	assert.Equal(t, []string{
		"ref-1", "reservation", "2025-03-04", "08:00", "10:00",
		"Ada", "", "50.00", "confirmed",
	}, rows[1][:9])
	assert.Equal(t, "17:00", rows[2][3])

	// Empty space still gets a header-only sheet.
	studio, err := f.GetRows("Studio B")
	require.NoError(t, err)
	require.Len(t, studio, 1)
}

func TestSheetNameTruncated(t *testing.T) {
	long := model.Space{ID: 1, Name: "An Extremely Long Space Name Well Past The Excel Limit"}
	w, err := Build([]model.Space{long}, nil)
	require.NoError(t, err)
	defer w.Close()

	var buf bytes.Buffer
	require.NoError(t, w.Save(&buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	names := f.GetSheetList()
	require.Len(t, names, 1)
	assert.Len(t, names[0], 31)
}
