package reporting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/quantframe/walkeval/internal/engine"
	"github.com/quantframe/walkeval/pkg/backtest"
	"github.com/quantframe/walkeval/pkg/config"
)

// WriteReportXLSX writes one workbook with the run summary, diagnostics,
// stitched scores and the equity record. bt and sweep may be nil when no
// backtest was accumulated.
func WriteReportXLSX(path string, cfg *config.RunConfig, result *engine.Result, bt *backtest.Results, sweep []backtest.SweepPoint) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("could not create output directory: %w", err)
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := writeSummarySheet(f, cfg, result, bt); err != nil {
		return err
	}
	if err := writeDiagnosticsSheet(f, result.Diagnostics); err != nil {
		return err
	}
	if err := writeScoresSheet(f, result); err != nil {
		return err
	}
	if bt != nil {
		if err := writeEquitySheet(f, bt, sweep); err != nil {
			return err
		}
	}

	f.DeleteSheet("Sheet1")
	return f.SaveAs(path)
}

func writeSummarySheet(f *excelize.File, cfg *config.RunConfig, result *engine.Result, bt *backtest.Results) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Setting", "Value"},
		{"is_length", cfg.ISLength},
		{"oos_length", cfg.OOSLength},
		{"step", cfg.Step},
		{"purge_horizon", cfg.PurgeHorizon},
		{"embargo_horizon", cfg.EmbargoHorizon},
		{"k_folds", cfg.KFolds},
		{"fit_mode", cfg.FitMode},
		{"history_policy", cfg.HistoryPolicy},
		{"windows_planned", result.WindowsPlanned},
		{"windows_completed", result.WindowsCompleted},
		{"scored_cells", result.Scores.Len()},
		{"diagnostics", len(result.Diagnostics)},
	}
	if bt != nil {
		rows = append(rows,
			[]interface{}{"total_return", bt.TotalReturn},
			[]interface{}{"annualized_return", bt.AnnualizedReturn},
			[]interface{}{"max_drawdown", bt.MaxDrawdown},
			[]interface{}{"sharpe_ratio", bt.SharpeRatio},
			[]interface{}{"hit_rate", bt.HitRate},
			[]interface{}{"total_turnover", bt.TotalTurnover},
		)
	}
	return writeRows(f, sheet, rows)
}

func writeDiagnosticsSheet(f *excelize.File, diags []engine.Diagnostic) error {
	const sheet = "Diagnostics"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	rows := [][]interface{}{{"Window", "Category", "Message"}}
	for _, d := range diags {
		rows = append(rows, []interface{}{d.Window, string(d.Category), d.Message})
	}
	return writeRows(f, sheet, rows)
}

func writeScoresSheet(f *excelize.File, result *engine.Result) error {
	const sheet = "Scores"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	rows := [][]interface{}{{"Date", "Entity", "Score"}}
	for _, d := range result.Scores.Dates() {
		row := result.Scores.Row(d)
		for _, e := range sortedKeys(row) {
			var cell interface{} = row[e]
			if math.IsNaN(row[e]) {
				cell = "NA"
			}
			rows = append(rows, []interface{}{d.Format(dateLayout), e, cell})
		}
	}
	return writeRows(f, sheet, rows)
}

func writeEquitySheet(f *excelize.File, bt *backtest.Results, sweep []backtest.SweepPoint) error {
	const sheet = "Equity"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	rows := [][]interface{}{{"Date", "Return", "Turnover", "Equity"}}
	for i, d := range bt.Dates {
		rows = append(rows, []interface{}{d.Format(dateLayout), bt.Returns[i], bt.Turnover[i], bt.Equity[i]})
	}
	if len(sweep) > 0 {
		rows = append(rows, []interface{}{}, []interface{}{"Cost (bps)", "Total Return", "Sharpe", "Max DD"})
		for _, p := range sweep {
			rows = append(rows, []interface{}{p.CostBps, p.TotalReturn, p.SharpeRatio, p.MaxDrawdown})
		}
	}
	return writeRows(f, sheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
