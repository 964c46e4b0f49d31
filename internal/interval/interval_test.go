package interval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, start, end string) Interval {
	t.Helper()
	i, err := Parse(start, end)
	require.NoError(t, err)
	return i
}

func TestNewRejectsDegenerate(t *testing.T) {
	_, err := Parse("10:00", "10:00")
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = Parse("11:00", "10:00")
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestParseRejectsMalformed(t *testing.T) {
	_, err := Parse("25:00", "26:00")
	assert.Error(t, err)

	_, err = Parse("10:00", "10:61")
	assert.Error(t, err)
}

func TestOverlapsHalfOpen(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"adjacent do not overlap", mustParse(t, "10:00", "11:00"), mustParse(t, "11:00", "12:00"), false},
		{"partial overlap", mustParse(t, "10:00", "11:00"), mustParse(t, "10:30", "11:30"), true},
		{"contained", mustParse(t, "10:00", "14:00"), mustParse(t, "11:00", "12:00"), true},
		{"identical", mustParse(t, "10:00", "11:00"), mustParse(t, "10:00", "11:00"), true},
		{"disjoint", mustParse(t, "08:00", "09:00"), mustParse(t, "12:00", "13:00"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a), "overlap must be symmetric")
		})
	}
}

func TestUnion(t *testing.T) {
	a := mustParse(t, "10:00", "11:30")
	b := mustParse(t, "11:00", "12:00")

	got, err := a.Union(b)
	require.NoError(t, err)
	assert.Equal(t, "10:00-12:00", got.String())

	// Adjacent intervals merge too.
	c := mustParse(t, "12:00", "13:00")
	got, err = got.Union(c)
	require.NoError(t, err)
	assert.Equal(t, "10:00-13:00", got.String())

	// Disjoint intervals do not.
	_, err = a.Union(mustParse(t, "14:00", "15:00"))
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestMergeAll(t *testing.T) {
	in := []Interval{
		mustParse(t, "14:00", "15:00"),
		mustParse(t, "09:00", "10:00"),
		mustParse(t, "10:00", "11:00"), // adjacent to previous
		mustParse(t, "09:30", "10:30"), // overlaps both
		mustParse(t, "16:00", "17:00"),
	}

	got := MergeAll(in)
	require.Len(t, got, 3)
	assert.Equal(t, "09:00-11:00", got[0].String())
	assert.Equal(t, "14:00-15:00", got[1].String())
	assert.Equal(t, "16:00-17:00", got[2].String())

	// Pairwise non-overlapping and sorted.
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].End <= got[i].Start)
	}

	// Idempotent.
	assert.Equal(t, got, MergeAll(got))
}

func TestMergeAllEmpty(t *testing.T) {
	assert.Nil(t, MergeAll(nil))
	assert.Nil(t, MergeAll([]Interval{}))
}

func TestDuration(t *testing.T) {
	i := mustParse(t, "08:00", "10:30")
	assert.Equal(t, 2*time.Hour+30*time.Minute, i.Duration())
}
