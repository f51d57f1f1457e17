package reporting

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/quantframe/walkeval/internal/engine"
	"github.com/quantframe/walkeval/pkg/backtest"
	"github.com/quantframe/walkeval/pkg/types"
)

const dateLayout = "2006-01-02"

// WriteScoresCSV writes the stitched score table in long format
// (date, entity, score). NaN scores are written as "NA"; absent cells are
// not written at all, preserving the no-decision distinction.
func WriteScoresCSV(scores *types.ScoreTable, path string) error {
	w, closeFn, err := createCSV(path)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := w.Write([]string{"date", "entity", "score"}); err != nil {
		return err
	}
	for _, d := range scores.Dates() {
		row := scores.Row(d)
		for _, e := range sortedKeys(row) {
			cell := "NA"
			if !math.IsNaN(row[e]) {
				cell = strconv.FormatFloat(row[e], 'g', -1, 64)
			}
			if err := w.Write([]string{d.Format(dateLayout), e, cell}); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteDiagnosticsCSV writes the run diagnostics list.
func WriteDiagnosticsCSV(diags []engine.Diagnostic, path string) error {
	w, closeFn, err := createCSV(path)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := w.Write([]string{"window", "category", "message"}); err != nil {
		return err
	}
	for _, d := range diags {
		if err := w.Write([]string{strconv.Itoa(d.Window), string(d.Category), d.Message}); err != nil {
			return err
		}
	}
	return nil
}

// WriteEquityCSV writes the accumulated equity, return and turnover series.
func WriteEquityCSV(res *backtest.Results, path string) error {
	w, closeFn, err := createCSV(path)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := w.Write([]string{"date", "return", "turnover", "equity"}); err != nil {
		return err
	}
	for i, d := range res.Dates {
		record := []string{
			d.Format(dateLayout),
			strconv.FormatFloat(res.Returns[i], 'g', -1, 64),
			strconv.FormatFloat(res.Turnover[i], 'g', -1, 64),
			strconv.FormatFloat(res.Equity[i], 'g', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// WriteSweepCSV writes a turnover-cost sweep.
func WriteSweepCSV(points []backtest.SweepPoint, path string) error {
	w, closeFn, err := createCSV(path)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := w.Write([]string{"cost_bps", "total_return", "sharpe", "max_drawdown"}); err != nil {
		return err
	}
	for _, p := range points {
		record := []string{
			strconv.FormatFloat(p.CostBps, 'g', -1, 64),
			strconv.FormatFloat(p.TotalReturn, 'g', -1, 64),
			strconv.FormatFloat(p.SharpeRatio, 'g', -1, 64),
			strconv.FormatFloat(p.MaxDrawdown, 'g', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func createCSV(path string) (*csv.Writer, func(), error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("could not create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	w := csv.NewWriter(f)
	return w, func() {
		w.Flush()
		f.Close()
	}, nil
}

func sortedKeys(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
