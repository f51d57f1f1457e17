package leakage

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantframe/walkeval/pkg/types"
)

var base = time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)

func day(i int) time.Time { return base.AddDate(0, 0, i) }

func dailyIndex(t *testing.T, n int) *types.TimeIndex {
	t.Helper()
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = day(i)
	}
	index, err := types.NewTimeIndex(dates)
	require.NoError(t, err)
	return index
}

func row(i int, entity string, label float64) types.Row {
	return types.Row{Date: day(i), Entity: entity, Features: []float64{1.0}, Label: label}
}

func TestCheck_CleanWindowPassesThrough(t *testing.T) {
	index := dailyIndex(t, 30)
	w := types.Window{ISStart: 0, ISEnd: 19, OOSStart: 20, OOSEnd: 29}

	isRows := []types.Row{row(0, "AAA", 0.1), row(1, "AAA", 0.2), row(1, "BBB", -0.1)}
	oosRows := []types.Row{row(20, "AAA", math.NaN())}

	trainable, err := Check(index, w, isRows, oosRows, 0)
	require.NoError(t, err)
	assert.Len(t, trainable, 3)
}

func TestCheck_FeaturePastBoundary(t *testing.T) {
	index := dailyIndex(t, 30)
	w := types.Window{ISStart: 0, ISEnd: 19, OOSStart: 20, OOSEnd: 29}

	isRows := []types.Row{row(5, "AAA", 0.1), row(21, "AAA", 0.2)}

	_, err := Check(index, w, isRows, nil, 0)
	require.Error(t, err)

	var lerr *Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, KindLeakageDetected, lerr.Kind)
	require.Len(t, lerr.Rows, 1)
	assert.Equal(t, "AAA", lerr.Rows[0].Entity)
	assert.Equal(t, day(21), lerr.Rows[0].Date)
}

func TestCheck_UnresolvedLabelsAreDropped(t *testing.T) {
	index := dailyIndex(t, 30)
	w := types.Window{ISStart: 0, ISEnd: 19, OOSStart: 20, OOSEnd: 29}

	// With a 5-position label horizon, rows at positions 15+ resolve past
	// is_end and must not be trained on.
	isRows := []types.Row{row(10, "AAA", 0.1), row(14, "AAA", 0.3), row(15, "AAA", 0.2), row(19, "AAA", 0.4)}

	trainable, err := Check(index, w, isRows, nil, 5)
	require.NoError(t, err)
	require.Len(t, trainable, 2)
	assert.Equal(t, day(10), trainable[0].Date)
	assert.Equal(t, day(14), trainable[1].Date)
}

func TestCheck_AllLabelsUnresolvedFails(t *testing.T) {
	index := dailyIndex(t, 30)
	w := types.Window{ISStart: 0, ISEnd: 19, OOSStart: 20, OOSEnd: 29}

	isRows := []types.Row{row(18, "AAA", 0.1), row(19, "BBB", 0.2)}

	_, err := Check(index, w, isRows, nil, 10)
	var lerr *Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, KindUnresolvedLabel, lerr.Kind)
	assert.Len(t, lerr.Rows, 2)
}

func TestCheck_MissingLabelRowsExcluded(t *testing.T) {
	index := dailyIndex(t, 30)
	w := types.Window{ISStart: 0, ISEnd: 19, OOSStart: 20, OOSEnd: 29}

	isRows := []types.Row{row(3, "AAA", math.NaN()), row(4, "AAA", 0.2)}

	trainable, err := Check(index, w, isRows, nil, 0)
	require.NoError(t, err)
	require.Len(t, trainable, 1)
	assert.Equal(t, day(4), trainable[0].Date)
}

func TestCheck_DuplicateRows(t *testing.T) {
	index := dailyIndex(t, 30)
	w := types.Window{ISStart: 0, ISEnd: 19, OOSStart: 20, OOSEnd: 29}

	isRows := []types.Row{row(2, "AAA", 0.1), row(2, "AAA", 0.5)}

	_, err := Check(index, w, isRows, nil, 0)
	var lerr *Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, KindDuplicateRow, lerr.Kind)
}

func TestCheck_RejectsNegativeHorizon(t *testing.T) {
	index := dailyIndex(t, 30)
	w := types.Window{ISStart: 0, ISEnd: 19, OOSStart: 20, OOSEnd: 29}

	_, err := Check(index, w, nil, nil, -1)
	assert.Error(t, err)
}
