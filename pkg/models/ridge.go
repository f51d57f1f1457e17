package models

import (
	"fmt"
	"math"

	"github.com/quantframe/walkeval/pkg/types"
)

// Ridge is a linear model with L2 regularization, fitted by solving the
// normal equations (X'X + lambda*I) w = X'y with Gaussian elimination. An
// intercept column is always included and excluded from the penalty.
type Ridge struct {
	lambda    float64
	weights   []float64 // intercept first
	nFeatures int
	fitted    bool
}

// NewRidge creates a ridge model. Recognized params: "lambda" (>= 0,
// default 1.0).
func NewRidge(p Params) *Ridge {
	lambda := p.Value("lambda", 1.0)
	if lambda < 0 {
		lambda = 0
	}
	return &Ridge{lambda: lambda}
}

// Fit solves for the ridge weights on the training rows.
func (m *Ridge) Fit(rows []types.Row) error {
	if len(rows) == 0 {
		return ErrNoTrainingData
	}
	m.nFeatures = len(rows[0].Features)
	for _, r := range rows {
		if len(r.Features) != m.nFeatures {
			return fmt.Errorf("inconsistent feature width: want %d, got %d for %s/%s",
				m.nFeatures, len(r.Features), r.Date.Format("2006-01-02"), r.Entity)
		}
	}

	d := m.nFeatures + 1 // intercept
	a := make([][]float64, d)
	for i := range a {
		a[i] = make([]float64, d+1) // augmented column holds X'y
	}

	x := make([]float64, d)
	for _, r := range rows {
		x[0] = 1
		copy(x[1:], r.Features)
		for i := 0; i < d; i++ {
			for j := 0; j < d; j++ {
				a[i][j] += x[i] * x[j]
			}
			a[i][d] += x[i] * r.Label
		}
	}
	for i := 1; i < d; i++ {
		a[i][i] += m.lambda
	}

	w, err := solve(a)
	if err != nil {
		return fmt.Errorf("ridge fit: %w", err)
	}
	m.weights = w
	m.fitted = true
	return nil
}

// Predict returns one linear score per row in input order.
func (m *Ridge) Predict(rows []types.Row) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		if len(r.Features) != m.nFeatures {
			return nil, fmt.Errorf("inconsistent feature width at prediction: want %d, got %d", m.nFeatures, len(r.Features))
		}
		s := m.weights[0]
		for j, f := range r.Features {
			s += m.weights[j+1] * f
		}
		out[i] = s
	}
	return out, nil
}

// solve performs Gaussian elimination with partial pivoting on an augmented
// d x (d+1) system.
func solve(a [][]float64) ([]float64, error) {
	d := len(a)
	for col := 0; col < d; col++ {
		pivot := col
		for r := col + 1; r < d; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, fmt.Errorf("singular system at column %d", col)
		}
		a[col], a[pivot] = a[pivot], a[col]

		for r := 0; r < d; r++ {
			if r == col {
				continue
			}
			factor := a[r][col] / a[col][col]
			for c := col; c <= d; c++ {
				a[r][c] -= factor * a[col][c]
			}
		}
	}

	w := make([]float64, d)
	for i := 0; i < d; i++ {
		w[i] = a[i][d] / a[i][i]
	}
	return w, nil
}
