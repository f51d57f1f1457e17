package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/quantframe/walkeval/internal/engine"
	"github.com/quantframe/walkeval/internal/logger"
	"github.com/quantframe/walkeval/internal/monitoring"
	"github.com/quantframe/walkeval/internal/schedule"
	"github.com/quantframe/walkeval/pkg/backtest"
	"github.com/quantframe/walkeval/pkg/config"
	"github.com/quantframe/walkeval/pkg/data"
	"github.com/quantframe/walkeval/pkg/models"
	"github.com/quantframe/walkeval/pkg/reporting"
	"github.com/quantframe/walkeval/pkg/types"
)

const (
	AppName    = "Walkeval"
	AppVersion = "1.2.0"

	// Default values
	DefaultModel     = "momentum"
	DefaultCostBps   = 5.0
	DefaultOutputDir = "results"
)

func main() {
	// Create and parse command line flags
	flags := NewRunFlags()
	flag.Parse()

	// Validate flags before proceeding
	if err := ValidateRunFlags(flags); err != nil {
		log.Fatalf("❌ Flag validation error: %v", err)
	}

	// Version and help
	if *flags.ShowVersion {
		fmt.Printf("%s v%s\n", AppName, AppVersion)
		return
	}

	if *flags.ShowHelp {
		printUsageHelp()
		return
	}

	// Header
	printHeader()

	// Load environment
	loadEnvironment(*flags.EnvFile)
	runLog, closeLog, err := logger.New(logger.Options{Verbose: *flags.Verbose, LogDir: *flags.LogDir})
	if err != nil {
		log.Fatalf("❌ Logging setup error: %v", err)
	}
	if closeLog != nil {
		defer closeLog()
	}

	// Configuration: file over defaults, env over file, flags over env
	cfg, err := loadRunConfiguration(*flags.ConfigFile, flags)
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}

	// Load the panel
	provider := data.NewCSVProvider()
	panel, err := provider.LoadPanel(*flags.DataFile)
	if err != nil {
		log.Fatalf("❌ Could not load panel %s: %v", *flags.DataFile, err)
	}
	index, err := panel.TimeIndex()
	if err != nil {
		log.Fatalf("❌ Could not build time index: %v", err)
	}
	fmt.Printf("📊 Loaded %d rows, %d dates, %d entities from %s\n",
		panel.Len(), index.Len(), len(panel.Entities()), filepath.Base(*flags.DataFile))

	// Plan the windows
	policy := schedule.Policy(cfg.HistoryPolicy)
	windows, err := schedule.Plan(index, schedule.Params{
		ISLength:    cfg.ISLength,
		OOSLength:   cfg.OOSLength,
		Step:        cfg.Step,
		MinISLength: cfg.MinISLength,
		Policy:      policy,
	})
	if err != nil {
		log.Fatalf("❌ Scheduling error: %v", err)
	}
	fmt.Printf("🗓️  Planned %d walk-forward windows (%s history policy)\n", len(windows), policy)

	// Metrics listener
	if *flags.MetricsAddr != "" {
		startMetricsListener(*flags.MetricsAddr, runLog)
	}

	// Model factory and tuning grid
	factory, tuning, err := buildModel(*flags.Model, *flags.Lambdas, cfg)
	if err != nil {
		log.Fatalf("❌ Model error: %v", err)
	}

	fitMode, err := types.ParseFitMode(cfg.FitMode)
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}

	eng := engine.New(engine.Options{
		FitMode:       fitMode,
		Groups:        cfg.Groups,
		GroupFallback: engine.GroupFallback(cfg.GroupFallback),
		LabelHorizon:  cfg.LabelHorizon,
		FailFast:      cfg.FailFast,
		Workers:       cfg.Workers,
		Tuning:        tuning,
		Logger:        runLog,
	})

	// Interrupt cancels the run at window granularity; completed windows
	// are kept and reported.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	result, err := eng.Run(ctx, panel, index, windows, factory)
	switch {
	case err != nil && result == nil:
		log.Fatalf("❌ Run failed: %v", err)
	case err != nil:
		fmt.Printf("⚠️  Run interrupted after %d/%d windows (%v)\n",
			result.WindowsCompleted, result.WindowsPlanned, err)
	default:
		fmt.Printf("✅ Run complete in %s\n", time.Since(started).Round(time.Millisecond))
	}

	// Optional score-to-portfolio accumulation
	var btResults *backtest.Results
	var sweep []backtest.SweepPoint
	if *flags.Backtest {
		btResults, sweep = runBacktest(provider, flags, result)
	}

	// Reporting
	reporting.PrintRunSummary(cfg, result, btResults)
	if len(sweep) > 0 {
		reporting.PrintCostSweep(sweep)
	}
	if !*flags.ConsoleOnly {
		writeReports(*flags.OutputDir, cfg, result, btResults, sweep)
	}
}

func printHeader() {
	fmt.Printf("🎯 %s v%s\n", strings.ToUpper(AppName), AppVersion)
	fmt.Printf("%s\n\n", strings.Repeat("=", 50))
}

func printUsageHelp() {
	fmt.Printf("%s v%s - Walk-Forward Strategy Evaluation\n\n", AppName, AppVersion)
	fmt.Printf("USAGE:\n  %s [OPTIONS]\n\n", filepath.Base(flag.CommandLine.Name()))

	PrintUsageExamples()
	PrintFlagGroups()

	fmt.Printf("\nFor more information, see the README or documentation.\n")
}

func loadEnvironment(envFile string) {
	if err := godotenv.Load(envFile); err != nil {
		log.Printf("⚠️  Could not load %s (%v)", envFile, err)
	}
}

// loadRunConfiguration resolves the run configuration with flag values
// winning over environment overrides winning over the config file.
func loadRunConfiguration(configFile string, flags *RunFlags) (*config.RunConfig, error) {
	// Resolve config file path
	if configFile != "" && !strings.ContainsAny(configFile, "/\\") {
		configFile = filepath.Join("configs", configFile+".json")
	}

	var cfg *config.RunConfig
	var err error
	if configFile != "" {
		cfg, err = config.Load(configFile)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
	}
	cfg.ApplyEnv()

	if *flags.ISLength > 0 {
		cfg.ISLength = *flags.ISLength
	}
	if *flags.OOSLength > 0 {
		cfg.OOSLength = *flags.OOSLength
	}
	if *flags.Step > 0 {
		cfg.Step = *flags.Step
	}
	if *flags.Policy != "" {
		cfg.HistoryPolicy = *flags.Policy
	}
	if *flags.FitMode != "" {
		cfg.FitMode = *flags.FitMode
	}
	if *flags.KFolds > 0 {
		cfg.KFolds = *flags.KFolds
	}
	if *flags.Workers > 0 {
		cfg.Workers = *flags.Workers
	}
	if *flags.FailFast {
		cfg.FailFast = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildModel returns the factory for the selected baseline model and, for
// ridge with a penalty grid, the tuning spec evaluated per window.
func buildModel(name, lambdaList string, cfg *config.RunConfig) (models.Factory, *engine.TuningSpec, error) {
	switch name {
	case "momentum":
		return func(p models.Params) models.Model { return models.NewMomentum(p) }, nil, nil
	case "ridge":
		factory := func(p models.Params) models.Model { return models.NewRidge(p) }
		lambdas, err := ParseFloatList(lambdaList)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid -lambdas: %w", err)
		}
		if len(lambdas) == 0 {
			return factory, nil, nil
		}
		if len(lambdas) > 1 && cfg.KFolds < 2 {
			return nil, nil, fmt.Errorf("tuning over %d penalties needs k_folds >= 2, got %d", len(lambdas), cfg.KFolds)
		}
		candidates := make([]models.Params, 0, len(lambdas))
		for i, l := range lambdas {
			candidates = append(candidates, models.Params{
				Name:       fmt.Sprintf("ridge_lambda_%g", l),
				Values:     map[string]float64{"lambda": l},
				Complexity: i,
			})
		}
		return factory, &engine.TuningSpec{
			Candidates:     candidates,
			KFolds:         cfg.KFolds,
			PurgeHorizon:   cfg.PurgeHorizon,
			EmbargoHorizon: cfg.EmbargoHorizon,
			Score:          models.NegMSE,
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown model %q", name)
}

func startMetricsListener(addr string, runLog zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitoring.NewMetricsHandler())
	mux.Handle("/health", monitoring.DefaultHealth)
	go func() {
		runLog.Info().Str("addr", addr).Msg("metrics listener started")
		if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			runLog.Warn().Err(err).Msg("metrics listener stopped")
		}
	}()
}

func runBacktest(provider *data.CSVProvider, flags *RunFlags, result *engine.Result) (*backtest.Results, []backtest.SweepPoint) {
	prices, err := provider.LoadPrices(*flags.PricesFile)
	if err != nil {
		log.Printf("⚠️  Could not load prices %s: %v", *flags.PricesFile, err)
		return nil, nil
	}
	acc := backtest.NewAccumulator(prices)
	transform := backtest.SignWeights()

	btResults, err := acc.Run(result.Scores, transform, *flags.CostBps)
	if err != nil {
		log.Printf("⚠️  Backtest failed: %v", err)
		return nil, nil
	}

	var sweep []backtest.SweepPoint
	if *flags.Sweep != "" {
		levels, err := ParseFloatList(*flags.Sweep)
		if err != nil {
			log.Printf("⚠️  Invalid -sweep: %v", err)
		} else if sweep, err = acc.CostSweep(result.Scores, transform, levels); err != nil {
			log.Printf("⚠️  Cost sweep failed: %v", err)
		}
	}
	return btResults, sweep
}

func writeReports(dir string, cfg *config.RunConfig, result *engine.Result, bt *backtest.Results, sweep []backtest.SweepPoint) {
	stamp := time.Now().Format("20060102_150405")
	outDir := filepath.Join(dir, stamp)

	write := func(name string, err error) {
		if err != nil {
			log.Printf("⚠️  Failed to save %s: %v", name, err)
			return
		}
		fmt.Printf("💾 Saved %s\n", filepath.Join(outDir, name))
	}

	write("scores.csv", reporting.WriteScoresCSV(result.Scores, filepath.Join(outDir, "scores.csv")))
	if len(result.Diagnostics) > 0 {
		write("diagnostics.csv", reporting.WriteDiagnosticsCSV(result.Diagnostics, filepath.Join(outDir, "diagnostics.csv")))
	}
	if bt != nil {
		write("equity.csv", reporting.WriteEquityCSV(bt, filepath.Join(outDir, "equity.csv")))
	}
	if len(sweep) > 0 {
		write("cost_sweep.csv", reporting.WriteSweepCSV(sweep, filepath.Join(outDir, "cost_sweep.csv")))
	}
	write("report.xlsx", reporting.WriteReportXLSX(filepath.Join(outDir, "report.xlsx"), cfg, result, bt, sweep))
}
