package types

import "fmt"

// Window is one in-sample / out-of-sample pair produced by the scheduler.
// All four fields are positions into a TimeIndex. Windows are immutable
// once produced.
type Window struct {
	ISStart  int
	ISEnd    int
	OOSStart int
	OOSEnd   int
}

// Valid reports whether the window's ranges are ordered and disjoint:
// is_start <= is_end < oos_start <= oos_end.
func (w Window) Valid() bool {
	return w.ISStart >= 0 &&
		w.ISStart <= w.ISEnd &&
		w.ISEnd < w.OOSStart &&
		w.OOSStart <= w.OOSEnd
}

// ISLen returns the in-sample length in index positions.
func (w Window) ISLen() int {
	return w.ISEnd - w.ISStart + 1
}

// OOSLen returns the out-of-sample length in index positions.
func (w Window) OOSLen() int {
	return w.OOSEnd - w.OOSStart + 1
}

func (w Window) String() string {
	return fmt.Sprintf("IS[%d:%d] OOS[%d:%d]", w.ISStart, w.ISEnd, w.OOSStart, w.OOSEnd)
}

// FitMode selects how models are instantiated across entities. It is fixed
// for the duration of a run.
type FitMode string

const (
	// FitModePooled trains a single model across all entities.
	FitModePooled FitMode = "pooled"
	// FitModePerSymbol trains an independent model per entity.
	FitModePerSymbol FitMode = "per_symbol"
	// FitModePerGroup trains an independent model per caller-supplied
	// entity group.
	FitModePerGroup FitMode = "per_group"
)

// ParseFitMode validates a fit-mode string from configuration.
func ParseFitMode(s string) (FitMode, error) {
	switch FitMode(s) {
	case FitModePooled, FitModePerSymbol, FitModePerGroup:
		return FitMode(s), nil
	}
	return "", fmt.Errorf("unknown fit mode %q (want pooled, per_symbol or per_group)", s)
}
