package backtest

import (
	"fmt"
	"math"
	"time"

	"github.com/quantframe/walkeval/pkg/types"
)

// Accumulator turns stitched scores into an equity record against a
// close-price table. Each decision date's weights are held until the next
// decision date; dates absent from the score table simply carry no
// position change.
type Accumulator struct {
	prices *types.ScoreTable
}

// NewAccumulator creates an accumulator over a close-price table.
func NewAccumulator(prices *types.ScoreTable) *Accumulator {
	return &Accumulator{prices: prices}
}

// Results is the accumulated performance record. The series are parallel:
// Returns[i] and Turnover[i] realize the decision made on Dates[i], and
// Equity[i] is the compounded equity after that period.
type Results struct {
	Dates    []time.Time
	Returns  []float64
	Turnover []float64
	Equity   []float64

	CostBps          float64
	TotalReturn      float64
	AnnualizedReturn float64
	MaxDrawdown      float64
	SharpeRatio      float64
	HitRate          float64
	TotalTurnover    float64
}

// SweepPoint is one cost level of a turnover-cost sweep.
type SweepPoint struct {
	CostBps     float64
	TotalReturn float64
	SharpeRatio float64
	MaxDrawdown float64
}

// Run accumulates the score table into an equity record at one cost level,
// expressed in basis points charged on turnover.
func (a *Accumulator) Run(scores *types.ScoreTable, transform WeightTransform, costBps float64) (*Results, error) {
	if scores == nil || transform == nil {
		return nil, fmt.Errorf("scores and transform are required")
	}
	dates := scores.Dates()
	if len(dates) < 2 {
		return nil, fmt.Errorf("need at least two decision dates to realize a return, got %d", len(dates))
	}

	res := &Results{CostBps: costBps}
	equity := 1.0
	peak := 1.0
	prevWeights := map[string]float64{}

	for i := 0; i < len(dates)-1; i++ {
		d, next := dates[i], dates[i+1]
		weights := transform(scores.Row(d))

		turnover := weightDistance(prevWeights, weights)
		gross := 0.0
		for e, w := range weights {
			if w == 0 {
				continue
			}
			p0, ok0 := a.prices.Get(d, e)
			p1, ok1 := a.prices.Get(next, e)
			if !ok0 || !ok1 || p0 <= 0 {
				continue // no tradeable price, position contributes nothing
			}
			gross += w * (p1/p0 - 1)
		}
		net := gross - turnover*costBps/10000

		equity *= 1 + net
		if equity > peak {
			peak = equity
		}
		dd := 1 - equity/peak
		if dd > res.MaxDrawdown {
			res.MaxDrawdown = dd
		}

		res.Dates = append(res.Dates, d)
		res.Returns = append(res.Returns, net)
		res.Turnover = append(res.Turnover, turnover)
		res.Equity = append(res.Equity, equity)
		res.TotalTurnover += turnover
		prevWeights = weights
	}

	res.TotalReturn = equity - 1
	res.SharpeRatio = annualizedSharpe(res.Returns)
	res.HitRate = hitRate(res.Returns)
	res.AnnualizedReturn = annualize(res.TotalReturn, dates[0], dates[len(dates)-1])
	return res, nil
}

// CostSweep re-runs the accumulation across turnover-cost levels so a
// caller can see where a signal stops paying for its trading.
func (a *Accumulator) CostSweep(scores *types.ScoreTable, transform WeightTransform, bpsLevels []float64) ([]SweepPoint, error) {
	points := make([]SweepPoint, 0, len(bpsLevels))
	for _, bps := range bpsLevels {
		res, err := a.Run(scores, transform, bps)
		if err != nil {
			return nil, err
		}
		points = append(points, SweepPoint{
			CostBps:     bps,
			TotalReturn: res.TotalReturn,
			SharpeRatio: res.SharpeRatio,
			MaxDrawdown: res.MaxDrawdown,
		})
	}
	return points, nil
}

// weightDistance is the L1 distance between two weight maps over the union
// of their entities.
func weightDistance(prev, cur map[string]float64) float64 {
	d := 0.0
	for e, w := range cur {
		d += math.Abs(w - prev[e])
	}
	for e, w := range prev {
		if _, ok := cur[e]; !ok {
			d += math.Abs(w)
		}
	}
	return d
}
