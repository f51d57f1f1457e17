// Package backtest consumes a stitched score table plus a close-price
// table and turns it into equity, turnover and cost series. It sits
// downstream of the evaluation engine; the score-to-weight policy —
// including treating "unscoreable" NaN decisions as zero weight — lives
// here and never leaks into the engine's NA semantics.
package backtest

import (
	"math"
	"sort"
)

// WeightTransform maps one date's entity scores to portfolio weights.
// Implementations decide how NaN scores and absent entities are handled;
// every transform in this package maps NaN to zero weight.
type WeightTransform func(scores map[string]float64) map[string]float64

// SignWeights goes long positive scores and short negative ones, equal
// weighted so gross exposure is 1.
func SignWeights() WeightTransform {
	return func(scores map[string]float64) map[string]float64 {
		weights := make(map[string]float64, len(scores))
		n := 0
		for _, s := range scores {
			if !math.IsNaN(s) && s != 0 {
				n++
			}
		}
		if n == 0 {
			return weights
		}
		for e, s := range scores {
			switch {
			case math.IsNaN(s) || s == 0:
				weights[e] = 0
			case s > 0:
				weights[e] = 1 / float64(n)
			default:
				weights[e] = -1 / float64(n)
			}
		}
		return weights
	}
}

// TopQuantileLongShort goes long the top q fraction of scores and short
// the bottom q fraction, equal weighted per side. NaN scores are excluded
// from ranking and weighted zero.
func TopQuantileLongShort(q float64) WeightTransform {
	if q <= 0 || q > 0.5 {
		q = 0.2
	}
	return func(scores map[string]float64) map[string]float64 {
		weights := make(map[string]float64, len(scores))
		type cell struct {
			entity string
			score  float64
		}
		ranked := make([]cell, 0, len(scores))
		for e, s := range scores {
			weights[e] = 0
			if !math.IsNaN(s) {
				ranked = append(ranked, cell{e, s})
			}
		}
		k := int(float64(len(ranked)) * q)
		if k == 0 {
			return weights
		}
		sort.Slice(ranked, func(i, j int) bool {
			if ranked[i].score != ranked[j].score {
				return ranked[i].score > ranked[j].score
			}
			return ranked[i].entity < ranked[j].entity
		})
		for i := 0; i < k; i++ {
			weights[ranked[i].entity] = 1 / float64(k)
			weights[ranked[len(ranked)-1-i].entity] = -1 / float64(k)
		}
		return weights
	}
}
