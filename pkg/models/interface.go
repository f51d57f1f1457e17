// Package models defines the fit/predict contract the evaluation engine
// drives, plus two baseline reference models. The engine treats models as
// opaque: it never inspects trained state and discards each model once its
// window's predictions are produced.
package models

import (
	"errors"

	"github.com/quantframe/walkeval/pkg/types"
)

// ErrNoTrainingData is returned by Fit when the training slice is empty.
var ErrNoTrainingData = errors.New("no training data")

// ErrNotFitted is returned by Predict when Fit was never called
// successfully.
var ErrNotFitted = errors.New("model has not been fitted")

// Model is the caller-supplied fit/predict black box. Fit trains on
// in-sample rows; Predict returns one score per query row in input order.
// Implementations are never handed rows with missing features and must not
// retain references to the input slices.
type Model interface {
	Fit(rows []types.Row) error
	Predict(rows []types.Row) ([]float64, error)
}

// Params is one hyper-parameter candidate. Complexity ranks candidates for
// the tuning tie-break: on equal mean validation score the lower-complexity
// candidate wins.
type Params struct {
	Name       string
	Values     map[string]float64
	Complexity int
}

// Value returns a named hyper-parameter or a default when absent.
func (p Params) Value(key string, def float64) float64 {
	if v, ok := p.Values[key]; ok {
		return v
	}
	return def
}

// Factory instantiates a fresh, unfitted model for one window (or one
// tuning fold) under the given hyper-parameters.
type Factory func(p Params) Model
