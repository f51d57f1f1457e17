// Package config loads and validates the persisted evaluation
// configuration: window geometry, purge/embargo horizons, fold count and
// fit mode as a plain structured record.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/quantframe/walkeval/pkg/types"
)

// RunConfig is the persisted configuration for one rolling evaluation run.
// All lengths and horizons are counted in TimeIndex positions.
type RunConfig struct {
	ISLength       int               `json:"is_length"`
	OOSLength      int               `json:"oos_length"`
	Step           int               `json:"step"`
	MinISLength    int               `json:"min_is_length"`
	PurgeHorizon   int               `json:"purge_horizon"`
	EmbargoHorizon int               `json:"embargo_horizon"`
	KFolds         int               `json:"k_folds"`
	FitMode        string            `json:"fit_mode"`
	FailFast       bool              `json:"fail_fast"`
	HistoryPolicy  string            `json:"history_policy"`
	LabelHorizon   int               `json:"label_horizon"`
	Workers        int               `json:"workers"`
	GroupFallback  string            `json:"group_fallback"`
	Groups         map[string]string `json:"groups,omitempty"`
}

// Default returns a configuration with conservative defaults: one trading
// year in sample, one month out, strict history policy, pooled fitting.
func Default() *RunConfig {
	return &RunConfig{
		ISLength:       252,
		OOSLength:      21,
		Step:           21,
		MinISLength:    63,
		PurgeHorizon:   2,
		EmbargoHorizon: 2,
		KFolds:         5,
		FitMode:        string(types.FitModePooled),
		HistoryPolicy:  "strict",
		GroupFallback:  "per_symbol",
	}
}

// Load reads a JSON configuration file over the defaults and validates the
// result.
func Load(path string) (*RunConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("could not parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from WALKEVAL_* environment variables, letting
// deployments tune a run without editing the config file.
func (c *RunConfig) ApplyEnv() {
	intVar(&c.ISLength, "WALKEVAL_IS_LENGTH")
	intVar(&c.OOSLength, "WALKEVAL_OOS_LENGTH")
	intVar(&c.Step, "WALKEVAL_STEP")
	intVar(&c.MinISLength, "WALKEVAL_MIN_IS_LENGTH")
	intVar(&c.PurgeHorizon, "WALKEVAL_PURGE_HORIZON")
	intVar(&c.EmbargoHorizon, "WALKEVAL_EMBARGO_HORIZON")
	intVar(&c.KFolds, "WALKEVAL_K_FOLDS")
	intVar(&c.LabelHorizon, "WALKEVAL_LABEL_HORIZON")
	intVar(&c.Workers, "WALKEVAL_WORKERS")
	stringVar(&c.FitMode, "WALKEVAL_FIT_MODE")
	stringVar(&c.HistoryPolicy, "WALKEVAL_HISTORY_POLICY")
	stringVar(&c.GroupFallback, "WALKEVAL_GROUP_FALLBACK")
	boolVar(&c.FailFast, "WALKEVAL_FAIL_FAST")
}

// Validate checks every field range explicitly so a bad config fails before
// any window is scheduled.
func (c *RunConfig) Validate() error {
	if c.ISLength <= 0 {
		return fmt.Errorf("is_length must be positive, got %d", c.ISLength)
	}
	if c.OOSLength <= 0 {
		return fmt.Errorf("oos_length must be positive, got %d", c.OOSLength)
	}
	if c.Step <= 0 {
		return fmt.Errorf("step must be positive, got %d", c.Step)
	}
	if c.HistoryPolicy == "expanding" && c.MinISLength <= 0 {
		return fmt.Errorf("min_is_length must be positive under the expanding policy, got %d", c.MinISLength)
	}
	if c.HistoryPolicy != "strict" && c.HistoryPolicy != "expanding" {
		return fmt.Errorf("history_policy must be strict or expanding, got %q", c.HistoryPolicy)
	}
	if c.PurgeHorizon < 0 || c.EmbargoHorizon < 0 {
		return fmt.Errorf("purge/embargo horizons must be non-negative, got %d/%d", c.PurgeHorizon, c.EmbargoHorizon)
	}
	if c.KFolds < 0 || c.KFolds == 1 {
		return fmt.Errorf("k_folds must be 0 (tuning disabled) or at least 2, got %d", c.KFolds)
	}
	if c.LabelHorizon < 0 {
		return fmt.Errorf("label_horizon must be non-negative, got %d", c.LabelHorizon)
	}
	if _, err := types.ParseFitMode(c.FitMode); err != nil {
		return err
	}
	if c.FitMode == string(types.FitModePerGroup) && len(c.Groups) == 0 {
		return fmt.Errorf("fit_mode per_group requires a non-empty groups mapping")
	}
	if c.GroupFallback != "per_symbol" && c.GroupFallback != "exclude" {
		return fmt.Errorf("group_fallback must be per_symbol or exclude, got %q", c.GroupFallback)
	}
	return nil
}

func intVar(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func stringVar(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func boolVar(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
