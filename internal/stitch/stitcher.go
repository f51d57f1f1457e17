// Package stitch merges per-window out-of-sample scores into one continuous
// date-indexed table with a deterministic overlap tie-break.
package stitch

import (
	"sort"

	"github.com/quantframe/walkeval/pkg/types"
)

// WindowScores pairs a window with the OOS scores produced for it.
type WindowScores struct {
	Window types.Window
	Scores *types.ScoreTable
}

// Stitch merges per-window scores into one table. When two windows' OOS
// ranges overlap on a (date, entity), the window with the earliest
// oos_start wins: the earlier scheduled decision was already made and is
// never revised by a later window. Input order does not matter; parts are
// sorted internally, so stitching is idempotent and shuffle-invariant.
//
// Dates covered by no window are simply absent from the output ("no
// decision made"), never NaN-filled.
func Stitch(parts []WindowScores) *types.ScoreTable {
	sorted := make([]WindowScores, len(parts))
	copy(sorted, parts)
	sort.SliceStable(sorted, func(i, j int) bool {
		wi, wj := sorted[i].Window, sorted[j].Window
		if wi.OOSStart != wj.OOSStart {
			return wi.OOSStart < wj.OOSStart
		}
		if wi.OOSEnd != wj.OOSEnd {
			return wi.OOSEnd < wj.OOSEnd
		}
		return wi.ISStart < wj.ISStart
	})

	out := types.NewScoreTable()
	for _, part := range sorted {
		if part.Scores == nil {
			continue
		}
		for _, date := range part.Scores.Dates() {
			for entity, score := range part.Scores.Row(date) {
				out.SetIfAbsent(date, entity, score)
			}
		}
	}
	return out
}
