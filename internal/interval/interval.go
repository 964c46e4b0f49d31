// Package interval models half-open [start, end) wall-clock intervals on a
// single calendar date or weekday. Adjacent intervals do not overlap, so
// back-to-back bookings never conflict.
package interval

import (
	"fmt"
	"sort"
	"time"

	"clubspace/internal/timeutil"
)

// ErrInvalidInterval is returned when end <= start at construction.
var ErrInvalidInterval = fmt.Errorf("invalid interval: end must be after start")

// Interval is a half-open [Start, End) range within one day.
// Construct with New; the zero value is not a valid interval.
type Interval struct {
	Start timeutil.TimeOfDay
	End   timeutil.TimeOfDay
}

// New builds an interval, rejecting zero-length and inverted ranges.
func New(start, end timeutil.TimeOfDay) (Interval, error) {
	if !start.Valid() || !end.Valid() {
		return Interval{}, fmt.Errorf("interval %s-%s out of day bounds: %w", start, end, ErrInvalidInterval)
	}
	if end <= start {
		return Interval{}, fmt.Errorf("interval %s-%s: %w", start, end, ErrInvalidInterval)
	}
	return Interval{Start: start, End: end}, nil
}

// Parse builds an interval from two "HH:MM" strings.
func Parse(start, end string) (Interval, error) {
	s, err := timeutil.ParseTimeOfDay(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := timeutil.ParseTimeOfDay(end)
	if err != nil {
		return Interval{}, err
	}
	return New(s, e)
}

// String formats the interval as "HH:MM-HH:MM".
func (i Interval) String() string {
	return i.Start.String() + "-" + i.End.String()
}

// Duration returns the interval length.
func (i Interval) Duration() time.Duration {
	return time.Duration(i.End-i.Start) * time.Minute
}

// Overlaps reports whether two intervals on the same date share any time.
// Touching intervals (a.End == b.Start) do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.End && other.Start < i.End
}

// Adjacent reports whether one interval ends exactly where the other begins.
func (i Interval) Adjacent(other Interval) bool {
	return i.End == other.Start || other.End == i.Start
}

// Union merges two overlapping or adjacent intervals into the single window
// spanning both. Disjoint intervals cannot be merged.
func (i Interval) Union(other Interval) (Interval, error) {
	if !i.Overlaps(other) && !i.Adjacent(other) {
		return Interval{}, fmt.Errorf("union of disjoint intervals %s and %s: %w", i, other, ErrInvalidInterval)
	}
	out := i
	if other.Start < out.Start {
		out.Start = other.Start
	}
	if other.End > out.End {
		out.End = other.End
	}
	return out, nil
}

// MergeAll folds a set of intervals into the minimal sorted sequence of
// pairwise non-overlapping windows. Adjacent runs are merged. The result is
// stable under re-merging.
func MergeAll(intervals []Interval) []Interval {
	if len(intervals) == 0 {
		return nil
	}

	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(a, b int) bool {
		if sorted[a].Start != sorted[b].Start {
			return sorted[a].Start < sorted[b].Start
		}
		return sorted[a].End < sorted[b].End
	})

	merged := []Interval{sorted[0]}
	for _, cur := range sorted[1:] {
		last := &merged[len(merged)-1]
		if cur.Start <= last.End {
			if cur.End > last.End {
				last.End = cur.End
			}
			continue
		}
		merged = append(merged, cur)
	}
	return merged
}
