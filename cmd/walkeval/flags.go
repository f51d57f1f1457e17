package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
)

// RunFlags holds all command line flags for the walkeval command
type RunFlags struct {
	// Configuration
	ConfigFile *string
	DataFile   *string
	PricesFile *string
	EnvFile    *string

	// Window geometry overrides (zero means keep config value)
	ISLength  *int
	OOSLength *int
	Step      *int
	Policy    *string

	// Evaluation options
	FitMode  *string
	Model    *string
	Lambdas  *string // Comma-separated ridge penalties to tune over
	KFolds   *int
	Workers  *int
	FailFast *bool

	// Backtest options
	Backtest *bool
	CostBps  *float64
	Sweep    *string // Comma-separated cost levels in bps

	// Output options
	OutputDir   *string
	ConsoleOnly *bool
	MetricsAddr *string
	LogDir      *string
	Verbose     *bool

	// Help and version
	ShowVersion *bool
	ShowHelp    *bool
}

// NewRunFlags creates and registers all walkeval command line flags
func NewRunFlags() *RunFlags {
	return &RunFlags{
		// Configuration
		ConfigFile: flag.String("config", "", "Path to run configuration file (JSON)"),
		DataFile:   flag.String("data", "", "Path to panel CSV (date, entity, features..., label)"),
		PricesFile: flag.String("prices", "", "Path to prices CSV for the backtest accumulator"),
		EnvFile:    flag.String("env", ".env", "Path to environment file"),

		// Window geometry overrides
		ISLength:  flag.Int("is-length", 0, "In-sample length in index positions (overrides config)"),
		OOSLength: flag.Int("oos-length", 0, "Out-of-sample length in index positions (overrides config)"),
		Step:      flag.Int("step", 0, "Step between successive OOS starts (overrides config)"),
		Policy:    flag.String("policy", "", "History policy (strict, expanding)"),

		// Evaluation options
		FitMode:  flag.String("fit-mode", "", "Fit mode (pooled, per_symbol, per_group)"),
		Model:    flag.String("model", DefaultModel, "Baseline model (momentum, ridge)"),
		Lambdas:  flag.String("lambdas", "", "Comma-separated ridge penalties to tune over (e.g. 0.1,1,10)"),
		KFolds:   flag.Int("k-folds", 0, "Fold count for hyper-parameter tuning (overrides config)"),
		Workers:  flag.Int("workers", 0, "Parallel window workers (0 = GOMAXPROCS)"),
		FailFast: flag.Bool("fail-fast", false, "Abort the run on the first window failure"),

		// Backtest options
		Backtest: flag.Bool("backtest", false, "Accumulate scores into a portfolio backtest (requires -prices)"),
		CostBps:  flag.Float64("cost-bps", DefaultCostBps, "One-way transaction cost in basis points"),
		Sweep:    flag.String("sweep", "", "Comma-separated cost levels in bps for a sensitivity sweep"),

		// Output options
		OutputDir:   flag.String("output", DefaultOutputDir, "Directory for CSV and Excel reports"),
		ConsoleOnly: flag.Bool("console-only", false, "Print to console only, write no report files"),
		MetricsAddr: flag.String("metrics-addr", "", "Listen address for Prometheus metrics (empty = disabled)"),
		LogDir:      flag.String("log-dir", "", "Directory for a JSON log file (empty = console only)"),
		Verbose:     flag.Bool("verbose", false, "Enable debug logging"),

		// Help and version
		ShowVersion: flag.Bool("version", false, "Show version information"),
		ShowHelp:    flag.Bool("help", false, "Show detailed help"),
	}
}

// ValidateRunFlags checks flag combinations before any work starts
func ValidateRunFlags(flags *RunFlags) error {
	if *flags.ShowVersion || *flags.ShowHelp {
		return nil
	}
	if *flags.DataFile == "" {
		return fmt.Errorf("-data is required")
	}
	switch *flags.Model {
	case "momentum", "ridge":
	default:
		return fmt.Errorf("unknown model %q (want momentum or ridge)", *flags.Model)
	}
	if *flags.Lambdas != "" && *flags.Model != "ridge" {
		return fmt.Errorf("-lambdas only applies to the ridge model")
	}
	if *flags.Backtest && *flags.PricesFile == "" {
		return fmt.Errorf("-backtest requires -prices")
	}
	if *flags.CostBps < 0 {
		return fmt.Errorf("-cost-bps must be non-negative, got %v", *flags.CostBps)
	}
	return nil
}

// ParseFloatList parses a comma-separated list of floats, as used by the
// -lambdas and -sweep flags.
func ParseFloatList(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// PrintFlagGroups prints the available flags grouped by concern
func PrintFlagGroups() {
	fmt.Println("\nCONFIGURATION:")
	fmt.Println("  -config        Path to run configuration file (JSON)")
	fmt.Println("  -data          Path to panel CSV (required)")
	fmt.Println("  -prices        Path to prices CSV for the backtest accumulator")
	fmt.Println("  -env           Path to environment file (default .env)")

	fmt.Println("\nWINDOW GEOMETRY:")
	fmt.Println("  -is-length     In-sample length in index positions")
	fmt.Println("  -oos-length    Out-of-sample length in index positions")
	fmt.Println("  -step          Step between successive OOS starts")
	fmt.Println("  -policy        History policy (strict, expanding)")

	fmt.Println("\nEVALUATION:")
	fmt.Println("  -fit-mode      pooled, per_symbol or per_group")
	fmt.Println("  -model         Baseline model (momentum, ridge)")
	fmt.Println("  -lambdas       Ridge penalties to tune over, e.g. 0.1,1,10")
	fmt.Println("  -k-folds       Fold count for hyper-parameter tuning")
	fmt.Println("  -workers       Parallel window workers")
	fmt.Println("  -fail-fast     Abort on the first window failure")

	fmt.Println("\nBACKTEST:")
	fmt.Println("  -backtest      Accumulate scores into a portfolio backtest")
	fmt.Println("  -cost-bps      One-way transaction cost in basis points")
	fmt.Println("  -sweep         Cost levels in bps for a sensitivity sweep")

	fmt.Println("\nOUTPUT:")
	fmt.Println("  -output        Directory for CSV and Excel reports")
	fmt.Println("  -console-only  Write no report files")
	fmt.Println("  -metrics-addr  Prometheus metrics and health listen address")
	fmt.Println("  -log-dir       Directory for a JSON log file")
	fmt.Println("  -verbose       Enable debug logging")
}

// PrintUsageExamples prints common invocations
func PrintUsageExamples() {
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Walk the default windows over a panel with the momentum baseline")
	fmt.Println("  walkeval -data panel.csv")
	fmt.Println()
	fmt.Println("  # Ridge with per-window tuning over three penalties, per-symbol fit")
	fmt.Println("  walkeval -data panel.csv -model ridge -lambdas 0.1,1,10 -fit-mode per_symbol")
	fmt.Println()
	fmt.Println("  # Full run from a config file plus a costed backtest and sweep")
	fmt.Println("  walkeval -config configs/run.json -data panel.csv -prices prices.csv \\")
	fmt.Println("           -backtest -cost-bps 10 -sweep 0,5,10,25")
}
