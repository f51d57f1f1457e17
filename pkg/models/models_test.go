package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantframe/walkeval/pkg/types"
)

func testRow(entity string, features []float64, label float64) types.Row {
	return types.Row{
		Date:     time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		Entity:   entity,
		Features: features,
		Label:    label,
	}
}

func TestMomentum_DemeansAgainstTrainingSet(t *testing.T) {
	m := NewMomentum(Params{})
	train := []types.Row{
		testRow("AAA", []float64{1, 3}, 0),   // mean 2
		testRow("BBB", []float64{4, 4}, 0),   // mean 4
		testRow("CCC", []float64{-1, 1}, 0),  // mean 0
	}
	require.NoError(t, m.Fit(train)) // train mean 2

	preds, err := m.Predict([]types.Row{testRow("AAA", []float64{5, 1}, 0)})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, preds[0], 1e-12) // mean 3 - train mean 2
}

func TestMomentum_PredictBeforeFit(t *testing.T) {
	m := NewMomentum(Params{})
	_, err := m.Predict([]types.Row{testRow("AAA", []float64{1}, 0)})
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestMomentum_EmptyTrainingSet(t *testing.T) {
	m := NewMomentum(Params{})
	assert.ErrorIs(t, m.Fit(nil), ErrNoTrainingData)
}

func TestRidge_RecoversLinearRelationship(t *testing.T) {
	// y = 2*x1 - x2 + 0.5, noiseless; near-zero lambda should recover it.
	m := NewRidge(Params{Values: map[string]float64{"lambda": 1e-9}})
	var train []types.Row
	for i := 0; i < 20; i++ {
		x1 := float64(i) * 0.3
		x2 := float64(i%5) - 2
		train = append(train, testRow("AAA", []float64{x1, x2}, 2*x1-x2+0.5))
	}
	require.NoError(t, m.Fit(train))

	preds, err := m.Predict([]types.Row{testRow("AAA", []float64{1.0, -1.0}, 0)})
	require.NoError(t, err)
	assert.InDelta(t, 3.5, preds[0], 1e-6)
}

func TestRidge_ShrinksWeightsWithLambda(t *testing.T) {
	var train []types.Row
	for i := 0; i < 30; i++ {
		x := float64(i) - 15
		train = append(train, testRow("AAA", []float64{x}, 3*x))
	}

	loose := NewRidge(Params{Values: map[string]float64{"lambda": 0.001}})
	tight := NewRidge(Params{Values: map[string]float64{"lambda": 1000}})
	require.NoError(t, loose.Fit(train))
	require.NoError(t, tight.Fit(train))

	query := []types.Row{testRow("AAA", []float64{10}, 0)}
	loosePred, err := loose.Predict(query)
	require.NoError(t, err)
	tightPred, err := tight.Predict(query)
	require.NoError(t, err)

	assert.Greater(t, math.Abs(loosePred[0]), math.Abs(tightPred[0]))
}

func TestRidge_InconsistentFeatureWidth(t *testing.T) {
	m := NewRidge(Params{})
	err := m.Fit([]types.Row{
		testRow("AAA", []float64{1, 2}, 0),
		testRow("BBB", []float64{1}, 0),
	})
	assert.Error(t, err)
}

func TestNegMSE(t *testing.T) {
	assert.InDelta(t, 0.0, NegMSE([]float64{1, 2}, []float64{1, 2}), 1e-12)
	assert.InDelta(t, -1.0, NegMSE([]float64{0, 0}, []float64{1, -1}), 1e-12)
	assert.True(t, math.IsInf(NegMSE([]float64{math.NaN()}, []float64{1}), -1))
}

func TestInformationCoefficient(t *testing.T) {
	assert.InDelta(t, 1.0, InformationCoefficient([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-12)
	assert.InDelta(t, -1.0, InformationCoefficient([]float64{1, 2, 3}, []float64{3, 2, 1}), 1e-12)
	assert.True(t, math.IsInf(InformationCoefficient([]float64{1, 1, 1}, []float64{1, 2, 3}), -1))
}

func TestParamsValue(t *testing.T) {
	p := Params{Values: map[string]float64{"lambda": 0.5}}
	assert.Equal(t, 0.5, p.Value("lambda", 1))
	assert.Equal(t, 1.0, p.Value("missing", 1))
}
