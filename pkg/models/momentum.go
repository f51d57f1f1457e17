package models

import (
	"fmt"

	"github.com/quantframe/walkeval/pkg/types"
)

// Momentum scores a row by the mean of its feature vector, optionally
// demeaned by the training-set average so scores are centered on the
// in-sample regime. It is the simplest model that exercises the full
// fit/predict contract.
type Momentum struct {
	demean    bool
	trainMean float64
	fitted    bool
}

// NewMomentum creates a momentum model. Recognized params: "demean" (0 or
// 1, default 1).
func NewMomentum(p Params) *Momentum {
	return &Momentum{demean: p.Value("demean", 1) != 0}
}

// Fit records the training-set mean signal.
func (m *Momentum) Fit(rows []types.Row) error {
	if len(rows) == 0 {
		return ErrNoTrainingData
	}
	sum := 0.0
	for _, r := range rows {
		sum += featureMean(r.Features)
	}
	m.trainMean = sum / float64(len(rows))
	m.fitted = true
	return nil
}

// Predict returns one score per row in input order.
func (m *Momentum) Predict(rows []types.Row) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		if len(r.Features) == 0 {
			return nil, fmt.Errorf("row %s/%s has no features", r.Date.Format("2006-01-02"), r.Entity)
		}
		s := featureMean(r.Features)
		if m.demean {
			s -= m.trainMean
		}
		out[i] = s
	}
	return out, nil
}

func featureMean(fs []float64) float64 {
	if len(fs) == 0 {
		return 0
	}
	sum := 0.0
	for _, f := range fs {
		sum += f
	}
	return sum / float64(len(fs))
}
