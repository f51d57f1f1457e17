package reporting

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rerrors "github.com/quantframe/walkeval/internal/errors"
	"github.com/quantframe/walkeval/internal/engine"
	"github.com/quantframe/walkeval/pkg/backtest"
	"github.com/quantframe/walkeval/pkg/config"
	"github.com/quantframe/walkeval/pkg/types"
)

func sampleResult() *engine.Result {
	scores := types.NewScoreTable()
	d := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	scores.Set(d, "AAA", 0.25)
	scores.Set(d, "BBB", math.NaN())
	scores.Set(d.AddDate(0, 0, 1), "AAA", -0.5)

	return &engine.Result{
		Scores: scores,
		Diagnostics: []engine.Diagnostic{
			{Window: 2, Category: rerrors.CategoryFit, Message: "synthetic fit failure"},
		},
		WindowsPlanned:   4,
		WindowsCompleted: 4,
	}
}

func TestWriteScoresCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "scores.csv")
	require.NoError(t, WriteScoresCSV(sampleResult().Scores, path))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")

	require.Len(t, lines, 4)
	assert.Equal(t, "date,entity,score", lines[0])
	assert.Equal(t, "2023-05-01,AAA,0.25", lines[1])
	assert.Equal(t, "2023-05-01,BBB,NA", lines[2])
	assert.Equal(t, "2023-05-02,AAA,-0.5", lines[3])
}

func TestWriteDiagnosticsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diags.csv")
	require.NoError(t, WriteDiagnosticsCSV(sampleResult().Diagnostics, path))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), "2,FIT,synthetic fit failure")
}

func TestWriteEquityAndSweepCSV(t *testing.T) {
	res := &backtest.Results{
		Dates:    []time.Time{time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)},
		Returns:  []float64{0.01},
		Turnover: []float64{1},
		Equity:   []float64{1.01},
	}
	path := filepath.Join(t.TempDir(), "equity.csv")
	require.NoError(t, WriteEquityCSV(res, path))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), "2023-05-01,0.01,1,1.01")

	sweepPath := filepath.Join(t.TempDir(), "sweep.csv")
	points := []backtest.SweepPoint{{CostBps: 10, TotalReturn: 0.05, SharpeRatio: 1.2, MaxDrawdown: 0.03}}
	require.NoError(t, WriteSweepCSV(points, sweepPath))

	body, err = os.ReadFile(sweepPath)
	require.NoError(t, err)
	assert.Contains(t, string(body), "10,0.05,1.2,0.03")
}

func TestWriteReportXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	err := WriteReportXLSX(path, config.Default(), sampleResult(), nil, nil)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
