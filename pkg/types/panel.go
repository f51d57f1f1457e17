package types

import (
	"math"
	"sort"
	"time"
)

// Row is a single (date, entity) observation: a feature vector plus the
// label realized for that decision date. A NaN feature marks a missing
// value; a NaN label means no outcome is known for the row.
type Row struct {
	Date     time.Time
	Entity   string
	Features []float64
	Label    float64
}

// HasCompleteFeatures reports whether every feature value is present.
// Models are never handed rows with missing features.
func (r Row) HasCompleteFeatures() bool {
	for _, f := range r.Features {
		if math.IsNaN(f) {
			return false
		}
	}
	return true
}

// Panel is a read-only entity-by-date table of observations. The engine
// never mutates a panel in place; every slice handed to a model is an
// independent copy.
type Panel struct {
	rows []Row
}

// NewPanel builds a panel from rows, copying and sorting them by date then
// entity so slicing is deterministic regardless of input order.
func NewPanel(rows []Row) *Panel {
	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].Entity < sorted[j].Entity
	})
	return &Panel{rows: sorted}
}

// Len returns the number of rows.
func (p *Panel) Len() int {
	return len(p.rows)
}

// Rows returns a copy of all rows.
func (p *Panel) Rows() []Row {
	out := make([]Row, len(p.rows))
	copy(out, p.rows)
	return out
}

// TimeIndex derives the ordered decision-date index from the panel's rows.
func (p *Panel) TimeIndex() (*TimeIndex, error) {
	dates := make([]time.Time, 0, len(p.rows))
	for _, r := range p.rows {
		dates = append(dates, r.Date)
	}
	return NewTimeIndex(dates)
}

// Entities returns the sorted set of entities appearing anywhere in the
// panel.
func (p *Panel) Entities() []string {
	seen := make(map[string]struct{})
	for _, r := range p.rows {
		seen[r.Entity] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for e := range seen {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// Slice copies the rows whose date falls on positions [start, end] of the
// index. Rows on dates outside the index are never returned.
func (p *Panel) Slice(index *TimeIndex, start, end int) []Row {
	out := make([]Row, 0)
	for _, r := range p.rows {
		pos, ok := index.Position(r.Date)
		if !ok {
			continue
		}
		if pos >= start && pos <= end {
			row := r
			row.Features = append([]float64(nil), r.Features...)
			out = append(out, row)
		}
	}
	return out
}
