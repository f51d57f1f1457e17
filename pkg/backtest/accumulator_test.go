package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantframe/walkeval/pkg/types"
)

var base = time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)

func day(i int) time.Time { return base.AddDate(0, 0, i) }

func table(cells map[int]map[string]float64) *types.ScoreTable {
	t := types.NewScoreTable()
	for d, row := range cells {
		for e, v := range row {
			t.Set(day(d), e, v)
		}
	}
	return t
}

func TestRun_SingleEntityKnownArithmetic(t *testing.T) {
	prices := table(map[int]map[string]float64{
		0: {"AAA": 100},
		1: {"AAA": 110},
		2: {"AAA": 99},
	})
	scores := table(map[int]map[string]float64{
		0: {"AAA": 1.0},
		1: {"AAA": 1.0},
		2: {"AAA": 1.0},
	})

	res, err := NewAccumulator(prices).Run(scores, SignWeights(), 0)
	require.NoError(t, err)

	// Long 100% both periods: +10% then -10%.
	require.Len(t, res.Returns, 2)
	assert.InDelta(t, 0.10, res.Returns[0], 1e-12)
	assert.InDelta(t, -0.10, res.Returns[1], 1e-12)
	assert.InDelta(t, 1.1*0.9-1, res.TotalReturn, 1e-12)
	assert.InDelta(t, 0.10, res.MaxDrawdown, 1e-12)

	// First period establishes the position (turnover 1), second holds it.
	assert.InDelta(t, 1.0, res.Turnover[0], 1e-12)
	assert.InDelta(t, 0.0, res.Turnover[1], 1e-12)
	assert.InDelta(t, 0.5, res.HitRate, 1e-12)
}

func TestRun_CostsReduceReturns(t *testing.T) {
	prices := table(map[int]map[string]float64{
		0: {"AAA": 100}, 1: {"AAA": 101}, 2: {"AAA": 102},
	})
	scores := table(map[int]map[string]float64{
		0: {"AAA": 1.0}, 1: {"AAA": -1.0}, 2: {"AAA": 1.0},
	})

	free, err := NewAccumulator(prices).Run(scores, SignWeights(), 0)
	require.NoError(t, err)
	costly, err := NewAccumulator(prices).Run(scores, SignWeights(), 50)
	require.NoError(t, err)

	assert.Greater(t, free.TotalReturn, costly.TotalReturn)
	// Flipping long to short trades 2x gross.
	assert.InDelta(t, 2.0, free.Turnover[1], 1e-12)
}

func TestRun_NaNScoreMeansZeroWeight(t *testing.T) {
	prices := table(map[int]map[string]float64{
		0: {"AAA": 100, "BBB": 100},
		1: {"AAA": 200, "BBB": 50},
	})
	scores := table(map[int]map[string]float64{
		0: {"AAA": math.NaN(), "BBB": 1.0},
		1: {"AAA": 1.0, "BBB": 1.0},
	})

	res, err := NewAccumulator(prices).Run(scores, SignWeights(), 0)
	require.NoError(t, err)

	// Only BBB is held: -50%. AAA's doubling must not contribute.
	assert.InDelta(t, -0.5, res.Returns[0], 1e-12)
}

func TestRun_MissingPriceContributesNothing(t *testing.T) {
	prices := table(map[int]map[string]float64{
		0: {"AAA": 100},
		1: {}, // no price on realization date
	})
	scores := table(map[int]map[string]float64{
		0: {"AAA": 1.0},
		1: {"AAA": 1.0},
	})

	res, err := NewAccumulator(prices).Run(scores, SignWeights(), 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, res.Returns[0], 1e-12)
}

func TestRun_RequiresTwoDates(t *testing.T) {
	prices := table(map[int]map[string]float64{0: {"AAA": 100}})
	scores := table(map[int]map[string]float64{0: {"AAA": 1.0}})

	_, err := NewAccumulator(prices).Run(scores, SignWeights(), 0)
	assert.Error(t, err)
}

func TestCostSweep_MonotoneInCost(t *testing.T) {
	prices := table(map[int]map[string]float64{
		0: {"AAA": 100}, 1: {"AAA": 103}, 2: {"AAA": 101}, 3: {"AAA": 104},
	})
	scores := table(map[int]map[string]float64{
		0: {"AAA": 1.0}, 1: {"AAA": -1.0}, 2: {"AAA": 1.0}, 3: {"AAA": 1.0},
	})

	points, err := NewAccumulator(prices).CostSweep(scores, SignWeights(), []float64{0, 10, 25, 50})
	require.NoError(t, err)
	require.Len(t, points, 4)

	for i := 1; i < len(points); i++ {
		assert.Less(t, points[i].TotalReturn, points[i-1].TotalReturn,
			"higher costs must not improve returns")
	}
}

func TestSignWeights(t *testing.T) {
	w := SignWeights()(map[string]float64{"AAA": 2.0, "BBB": -1.0, "CCC": math.NaN(), "DDD": 0})
	assert.InDelta(t, 0.5, w["AAA"], 1e-12)
	assert.InDelta(t, -0.5, w["BBB"], 1e-12)
	assert.Equal(t, 0.0, w["CCC"])
	assert.Equal(t, 0.0, w["DDD"])
}

func TestTopQuantileLongShort(t *testing.T) {
	scores := map[string]float64{
		"A": 5, "B": 4, "C": 3, "D": 2, "E": 1,
		"F": 0, "G": -1, "H": -2, "I": -3, "J": -4,
	}
	w := TopQuantileLongShort(0.2)(scores)

	assert.InDelta(t, 0.5, w["A"], 1e-12)
	assert.InDelta(t, 0.5, w["B"], 1e-12)
	assert.InDelta(t, -0.5, w["J"], 1e-12)
	assert.InDelta(t, -0.5, w["I"], 1e-12)
	assert.Equal(t, 0.0, w["C"])

	// NaN scores are excluded from the ranking entirely.
	w = TopQuantileLongShort(0.5)(map[string]float64{"A": 1, "B": math.NaN()})
	assert.Equal(t, 0.0, w["B"])
}
