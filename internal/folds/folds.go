// Package folds generates purged, embargoed cross-validation folds inside a
// single window's in-sample range. Folds are used for hyper-parameter
// tuning only, never for the final out-of-sample evaluation.
package folds

import (
	"errors"
	"fmt"
)

// ErrDegenerateFold is returned when purge/embargo removal leaves a fold
// with an empty train or validation set. The caller must shrink k or the
// horizons.
var ErrDegenerateFold = errors.New("degenerate fold: purge/embargo removal left an empty train or validation set")

// Fold is one train/validation split. Both slices hold TimeIndex positions
// in ascending order and are always disjoint.
type Fold struct {
	Train []int
	Val   []int
}

// Generate splits the in-sample range [isStart, isEnd] into k contiguous,
// equal-as-possible validation blocks in chronological order; shuffling is
// never applied because adjacency itself carries information in a time
// series. For each block the training complement is purged of any position
// within purgeHorizon before the block (label horizons spanning the
// boundary) and embargoed of any position within embargoHorizon after it
// (serial correlation bleeding forward).
//
// Across the k folds every in-sample position appears as validation exactly
// once.
func Generate(isStart, isEnd, k, purgeHorizon, embargoHorizon int) ([]Fold, error) {
	if isStart < 0 || isEnd < isStart {
		return nil, fmt.Errorf("invalid in-sample range [%d, %d]", isStart, isEnd)
	}
	if purgeHorizon < 0 || embargoHorizon < 0 {
		return nil, fmt.Errorf("purge/embargo horizons must be non-negative, got %d/%d", purgeHorizon, embargoHorizon)
	}
	n := isEnd - isStart + 1
	if k < 2 {
		return nil, fmt.Errorf("k must be at least 2, got %d", k)
	}
	if k > n {
		return nil, fmt.Errorf("k=%d exceeds in-sample length %d", k, n)
	}

	// Block sizes: n/k each, remainder spread over the leading blocks.
	base := n / k
	rem := n % k

	folds := make([]Fold, 0, k)
	blockStart := isStart
	for i := 0; i < k; i++ {
		size := base
		if i < rem {
			size++
		}
		valStart := blockStart
		valEnd := blockStart + size - 1
		blockStart = valEnd + 1

		val := make([]int, 0, size)
		for p := valStart; p <= valEnd; p++ {
			val = append(val, p)
		}

		train := make([]int, 0, n-size)
		for p := isStart; p <= isEnd; p++ {
			if p >= valStart && p <= valEnd {
				continue
			}
			// Purge: positions too close before the validation block.
			if p < valStart && valStart-p <= purgeHorizon {
				continue
			}
			// Embargo: positions too close after the validation block.
			if p > valEnd && p-valEnd <= embargoHorizon {
				continue
			}
			train = append(train, p)
		}

		if len(train) == 0 || len(val) == 0 {
			return nil, fmt.Errorf("%w: fold %d of %d over [%d, %d] with purge=%d embargo=%d",
				ErrDegenerateFold, i+1, k, isStart, isEnd, purgeHorizon, embargoHorizon)
		}
		folds = append(folds, Fold{Train: train, Val: val})
	}

	return folds, nil
}
