package models

import "math"

// ScoreFunc rates predictions against realized labels; higher is better.
// Used by the tuning loop to compare hyper-parameter candidates across
// validation folds.
type ScoreFunc func(preds, labels []float64) float64

// NegMSE returns the negative mean squared error, so that higher remains
// better. NaN pairs are skipped; an empty overlap scores -Inf so the
// candidate can never win.
func NegMSE(preds, labels []float64) float64 {
	n := 0
	sum := 0.0
	for i := range preds {
		if i >= len(labels) || math.IsNaN(preds[i]) || math.IsNaN(labels[i]) {
			continue
		}
		d := preds[i] - labels[i]
		sum += d * d
		n++
	}
	if n == 0 {
		return math.Inf(-1)
	}
	return -sum / float64(n)
}

// InformationCoefficient returns the Pearson correlation between
// predictions and labels, the conventional signal-quality measure for
// cross-sectional scores. Degenerate inputs score -Inf.
func InformationCoefficient(preds, labels []float64) float64 {
	var xs, ys []float64
	for i := range preds {
		if i >= len(labels) || math.IsNaN(preds[i]) || math.IsNaN(labels[i]) {
			continue
		}
		xs = append(xs, preds[i])
		ys = append(ys, labels[i])
	}
	n := float64(len(xs))
	if n < 2 {
		return math.Inf(-1)
	}

	var mx, my float64
	for i := range xs {
		mx += xs[i]
		my += ys[i]
	}
	mx /= n
	my /= n

	var cov, vx, vy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx < 1e-18 || vy < 1e-18 {
		return math.Inf(-1)
	}
	return cov / math.Sqrt(vx*vy)
}
