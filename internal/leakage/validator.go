// Package leakage checks the in-sample/out-of-sample boundary before any
// model fit executes. It is a guard, not a repair step: violations surface
// per-row diagnostics instead of being silently fixed.
package leakage

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/quantframe/walkeval/pkg/types"
)

// Kind identifies the boundary violation class.
type Kind string

const (
	// KindLeakageDetected marks an in-sample feature row stamped on or
	// after the OOS start.
	KindLeakageDetected Kind = "leakage_detected"
	// KindUnresolvedLabel marks a window whose training set is empty after
	// dropping labels that resolve past the in-sample end.
	KindUnresolvedLabel Kind = "unresolved_label"
	// KindDuplicateRow marks duplicate (date, entity) rows inside one
	// window slice. The upstream panel source broke its deduplication
	// contract.
	KindDuplicateRow Kind = "duplicate_row"
)

// RowDiag points at one offending row.
type RowDiag struct {
	Date   time.Time
	Entity string
	Detail string
}

// Error carries the violation kind plus a diagnostic per offending row.
type Error struct {
	Kind   Kind
	Window types.Window
	Rows   []RowDiag
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s in %s (%d rows)", e.Kind, e.Window, len(e.Rows))
	limit := len(e.Rows)
	if limit > 5 {
		limit = 5
	}
	for _, r := range e.Rows[:limit] {
		fmt.Fprintf(&b, "; %s/%s: %s", r.Date.Format("2006-01-02"), r.Entity, r.Detail)
	}
	if len(e.Rows) > limit {
		fmt.Fprintf(&b, "; and %d more", len(e.Rows)-limit)
	}
	return b.String()
}

// Check validates one window's slices before a fit. It returns the training
// rows actually safe to use: rows whose label resolves after the in-sample
// end (position + labelHorizon > is_end) are dropped rather than trained on
// with a partially-known outcome, as are rows without a label at all.
//
// Hard failures: any in-sample feature timestamp at or past oos_start, a
// training set emptied entirely by label-resolution drops, or duplicate
// (date, entity) rows in either slice.
func Check(index *types.TimeIndex, w types.Window, isRows, oosRows []types.Row, labelHorizon int) ([]types.Row, error) {
	if labelHorizon < 0 {
		return nil, fmt.Errorf("label horizon must be non-negative, got %d", labelHorizon)
	}

	var leaks []RowDiag
	for _, r := range isRows {
		pos, ok := index.Position(r.Date)
		if !ok {
			leaks = append(leaks, RowDiag{Date: r.Date, Entity: r.Entity, Detail: "date not in time index"})
			continue
		}
		if pos >= w.OOSStart {
			leaks = append(leaks, RowDiag{
				Date:   r.Date,
				Entity: r.Entity,
				Detail: fmt.Sprintf("feature timestamp at position %d >= oos_start %d", pos, w.OOSStart),
			})
		}
	}
	if len(leaks) > 0 {
		return nil, &Error{Kind: KindLeakageDetected, Window: w, Rows: leaks}
	}

	if dups := duplicates(isRows); len(dups) > 0 {
		return nil, &Error{Kind: KindDuplicateRow, Window: w, Rows: dups}
	}
	if dups := duplicates(oosRows); len(dups) > 0 {
		return nil, &Error{Kind: KindDuplicateRow, Window: w, Rows: dups}
	}

	var (
		trainable []types.Row
		dropped   []RowDiag
	)
	for _, r := range isRows {
		if math.IsNaN(r.Label) {
			dropped = append(dropped, RowDiag{Date: r.Date, Entity: r.Entity, Detail: "no label"})
			continue
		}
		pos, _ := index.Position(r.Date)
		if pos+labelHorizon > w.ISEnd {
			dropped = append(dropped, RowDiag{
				Date:   r.Date,
				Entity: r.Entity,
				Detail: fmt.Sprintf("label resolves at position %d past is_end %d", pos+labelHorizon, w.ISEnd),
			})
			continue
		}
		trainable = append(trainable, r)
	}

	if len(isRows) > 0 && len(trainable) == 0 {
		return nil, &Error{Kind: KindUnresolvedLabel, Window: w, Rows: dropped}
	}
	return trainable, nil
}

func duplicates(rows []types.Row) []RowDiag {
	seen := make(map[string]bool, len(rows))
	var dups []RowDiag
	for _, r := range rows {
		key := fmt.Sprintf("%d/%s", r.Date.UnixNano(), r.Entity)
		if seen[key] {
			dups = append(dups, RowDiag{Date: r.Date, Entity: r.Entity, Detail: "duplicate (date, entity) row"})
		}
		seen[key] = true
	}
	return dups
}
