// Package schedule partitions a TimeIndex into successive walk-forward
// (in-sample, out-of-sample) window pairs.
package schedule

import (
	"errors"
	"fmt"

	"github.com/quantframe/walkeval/pkg/types"
)

// ErrInsufficientHistory is returned when the index cannot produce a single
// valid window under the requested lengths. It is fatal for the run.
var ErrInsufficientHistory = errors.New("insufficient history: no valid walk-forward window can be produced")

// Policy controls what happens when the available in-sample history before
// an OOS start is shorter than the requested in-sample length.
type Policy string

const (
	// PolicyStrict drops any window with truncated in-sample history.
	PolicyStrict Policy = "strict"
	// PolicyExpanding truncates the in-sample range to whatever history is
	// available, as long as it covers MinISLength positions.
	PolicyExpanding Policy = "expanding"
)

// ParsePolicy validates a history-policy string from configuration.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyStrict, PolicyExpanding:
		return Policy(s), nil
	}
	return "", fmt.Errorf("unknown history policy %q (want strict or expanding)", s)
}

// Params holds the window-geometry parameters, all counted in TimeIndex
// positions.
type Params struct {
	ISLength    int
	OOSLength   int
	Step        int
	MinISLength int
	Policy      Policy
}

func (p Params) validate() error {
	if p.ISLength <= 0 {
		return fmt.Errorf("is_length must be positive, got %d", p.ISLength)
	}
	if p.OOSLength <= 0 {
		return fmt.Errorf("oos_length must be positive, got %d", p.OOSLength)
	}
	if p.Step <= 0 {
		return fmt.Errorf("step must be positive, got %d", p.Step)
	}
	if p.Policy == PolicyExpanding && p.MinISLength <= 0 {
		return fmt.Errorf("min_is_length must be positive under the expanding policy, got %d", p.MinISLength)
	}
	return nil
}

// Plan produces the full sequence of walk-forward windows over the index.
// Successive windows advance oos_start by Step; a step smaller than the OOS
// length yields intentionally overlapping OOS ranges that the stitcher
// resolves later. Trailing partial-OOS windows are never emitted.
//
// The slice is materialized rather than streamed: window counts are small,
// the engine needs the total for dispatch, and re-ranging a slice gives the
// restartability the callers need.
func Plan(index *types.TimeIndex, p Params) ([]types.Window, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	n := index.Len()
	firstOOS := p.ISLength
	if p.Policy == PolicyExpanding {
		firstOOS = p.MinISLength
	}

	var windows []types.Window
	for oosStart := firstOOS; oosStart+p.OOSLength-1 <= n-1; oosStart += p.Step {
		isStart := oosStart - p.ISLength
		if isStart < 0 {
			isStart = 0
		}
		isLen := oosStart - isStart

		switch p.Policy {
		case PolicyStrict:
			if isLen < p.ISLength {
				continue
			}
		case PolicyExpanding:
			if isLen < p.MinISLength {
				continue
			}
		}

		w := types.Window{
			ISStart:  isStart,
			ISEnd:    oosStart - 1,
			OOSStart: oosStart,
			OOSEnd:   oosStart + p.OOSLength - 1,
		}
		if !w.Valid() {
			return nil, fmt.Errorf("scheduler produced invalid window %s", w)
		}
		windows = append(windows, w)
	}

	if len(windows) == 0 {
		return nil, fmt.Errorf("%w: index has %d dates, need at least %d", ErrInsufficientHistory, n, firstOOS+p.OOSLength)
	}
	return windows, nil
}
