// Package reporting renders run results to the console, CSV files and
// Excel workbooks.
package reporting

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/quantframe/walkeval/internal/engine"
	"github.com/quantframe/walkeval/pkg/backtest"
	"github.com/quantframe/walkeval/pkg/config"
)

// PrintRunSummary renders the evaluation and backtest summary to stdout.
func PrintRunSummary(cfg *config.RunConfig, result *engine.Result, bt *backtest.Results) {
	fmt.Println("\n📊 WALK-FORWARD EVALUATION")

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Setting", "Value"})
	t.AppendRows([]table.Row{
		{"IS / OOS / step", fmt.Sprintf("%d / %d / %d", cfg.ISLength, cfg.OOSLength, cfg.Step)},
		{"Purge / embargo", fmt.Sprintf("%d / %d", cfg.PurgeHorizon, cfg.EmbargoHorizon)},
		{"Fit mode", cfg.FitMode},
		{"Windows", fmt.Sprintf("%d of %d completed", result.WindowsCompleted, result.WindowsPlanned)},
		{"Scored cells", fmt.Sprintf("%d", result.Scores.Len())},
		{"Diagnostics", fmt.Sprintf("%d", len(result.Diagnostics))},
	})
	t.Render()

	if len(result.Diagnostics) > 0 {
		d := table.NewWriter()
		d.SetOutputMirror(os.Stdout)
		d.AppendHeader(table.Row{"Window", "Category", "Message"})
		for _, diag := range result.Diagnostics {
			d.AppendRow(table.Row{diag.Window, string(diag.Category), truncate(diag.Message, 90)})
		}
		d.Render()
	}

	if bt != nil {
		fmt.Println("\n💰 BACKTEST")
		b := table.NewWriter()
		b.SetOutputMirror(os.Stdout)
		b.AppendHeader(table.Row{"Metric", "Value"})
		b.AppendRows([]table.Row{
			{"Total return", fmt.Sprintf("%.2f%%", bt.TotalReturn*100)},
			{"Annualized return", fmt.Sprintf("%.2f%%", bt.AnnualizedReturn*100)},
			{"Max drawdown", fmt.Sprintf("%.2f%%", bt.MaxDrawdown*100)},
			{"Sharpe ratio", fmt.Sprintf("%.2f", bt.SharpeRatio)},
			{"Hit rate", fmt.Sprintf("%.1f%%", bt.HitRate*100)},
			{"Total turnover", fmt.Sprintf("%.2fx", bt.TotalTurnover)},
			{"Cost level", fmt.Sprintf("%.0f bps", bt.CostBps)},
		})
		b.Render()
	}
}

// PrintCostSweep renders a turnover-cost sweep to stdout.
func PrintCostSweep(points []backtest.SweepPoint) {
	if len(points) == 0 {
		return
	}
	fmt.Println("\n🔁 COST SWEEP")
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Cost (bps)", "Total Return", "Sharpe", "Max DD"})
	for _, p := range points {
		t.AppendRow(table.Row{
			fmt.Sprintf("%.0f", p.CostBps),
			fmt.Sprintf("%.2f%%", p.TotalReturn*100),
			fmt.Sprintf("%.2f", p.SharpeRatio),
			fmt.Sprintf("%.2f%%", p.MaxDrawdown*100),
		})
	}
	t.Render()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
