package types

import (
	"sort"
	"time"
)

// ScoreTable maps (date, entity) to a real-valued score. A stored NaN means
// "a decision was made but the entity was unscoreable that date"; a missing
// key means "no decision was made". The two are deliberately distinct and
// downstream consumers must not conflate them.
//
// The same shape doubles as a generic date-by-entity value table, e.g. the
// close-price table consumed by the backtest accumulator.
type ScoreTable struct {
	cells map[int64]map[string]float64
}

// NewScoreTable returns an empty table.
func NewScoreTable() *ScoreTable {
	return &ScoreTable{cells: make(map[int64]map[string]float64)}
}

// Set stores a score, overwriting any existing value.
func (t *ScoreTable) Set(date time.Time, entity string, score float64) {
	key := date.UnixNano()
	row, ok := t.cells[key]
	if !ok {
		row = make(map[string]float64)
		t.cells[key] = row
	}
	row[entity] = score
}

// SetIfAbsent stores a score only when the (date, entity) cell is empty and
// reports whether the write happened. Used by the stitcher's
// first-writer-wins overlap policy.
func (t *ScoreTable) SetIfAbsent(date time.Time, entity string, score float64) bool {
	key := date.UnixNano()
	row, ok := t.cells[key]
	if !ok {
		row = make(map[string]float64)
		t.cells[key] = row
	}
	if _, exists := row[entity]; exists {
		return false
	}
	row[entity] = score
	return true
}

// Get returns the score for (date, entity) and whether a decision exists.
func (t *ScoreTable) Get(date time.Time, entity string) (float64, bool) {
	row, ok := t.cells[date.UnixNano()]
	if !ok {
		return 0, false
	}
	s, ok := row[entity]
	return s, ok
}

// Row returns a copy of all entity scores on a date.
func (t *ScoreTable) Row(date time.Time) map[string]float64 {
	row, ok := t.cells[date.UnixNano()]
	if !ok {
		return nil
	}
	out := make(map[string]float64, len(row))
	for e, s := range row {
		out[e] = s
	}
	return out
}

// Dates returns the covered dates in ascending order.
func (t *ScoreTable) Dates() []time.Time {
	keys := make([]int64, 0, len(t.cells))
	for k := range t.cells {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	out := make([]time.Time, len(keys))
	for i, k := range keys {
		out[i] = time.Unix(0, k).UTC()
	}
	return out
}

// Entities returns the sorted set of entities with at least one score.
func (t *ScoreTable) Entities() []string {
	seen := make(map[string]struct{})
	for _, row := range t.cells {
		for e := range row {
			seen[e] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for e := range seen {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of (date, entity) cells.
func (t *ScoreTable) Len() int {
	n := 0
	for _, row := range t.cells {
		n += len(row)
	}
	return n
}

// Clone returns a deep copy.
func (t *ScoreTable) Clone() *ScoreTable {
	out := NewScoreTable()
	for k, row := range t.cells {
		dst := make(map[string]float64, len(row))
		for e, s := range row {
			dst[e] = s
		}
		out.cells[k] = dst
	}
	return out
}
