package types

import (
	"fmt"
	"sort"
	"time"
)

// TimeIndex is the ordered, deduplicated sequence of decision dates for a
// panel. All windowing logic references positions into a TimeIndex rather
// than raw dates, so duplicate or unsorted input can never shift a window
// boundary.
type TimeIndex struct {
	dates []time.Time
	pos   map[int64]int
}

// NewTimeIndex builds a TimeIndex from a set of dates. Input is copied,
// sorted ascending and deduplicated. An empty input is rejected.
func NewTimeIndex(dates []time.Time) (*TimeIndex, error) {
	if len(dates) == 0 {
		return nil, fmt.Errorf("time index requires at least one date")
	}

	sorted := make([]time.Time, len(dates))
	copy(sorted, dates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	deduped := sorted[:1]
	for _, d := range sorted[1:] {
		if !d.Equal(deduped[len(deduped)-1]) {
			deduped = append(deduped, d)
		}
	}

	pos := make(map[int64]int, len(deduped))
	for i, d := range deduped {
		pos[d.UnixNano()] = i
	}

	return &TimeIndex{dates: deduped, pos: pos}, nil
}

// Len returns the number of distinct dates.
func (ti *TimeIndex) Len() int {
	return len(ti.dates)
}

// At returns the date at position i. Panics on out-of-range access, which
// always indicates a windowing bug upstream.
func (ti *TimeIndex) At(i int) time.Time {
	return ti.dates[i]
}

// Position returns the position of a date in the index, or false when the
// date is not a decision date.
func (ti *TimeIndex) Position(d time.Time) (int, bool) {
	i, ok := ti.pos[d.UnixNano()]
	return i, ok
}

// Dates returns a copy of the ordered dates.
func (ti *TimeIndex) Dates() []time.Time {
	out := make([]time.Time, len(ti.dates))
	copy(out, ti.dates)
	return out
}
