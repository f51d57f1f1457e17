package backtest

import (
	"math"
	"time"
)

// tradingDaysPerYear is the conventional annualization base for daily
// decision frequencies.
const tradingDaysPerYear = 252

// annualizedSharpe computes the annualized Sharpe ratio of a period-return
// series, assuming a zero risk-free rate.
func annualizedSharpe(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))
	std := math.Sqrt(variance)
	if std < 1e-12 {
		return 0
	}
	return mean / std * math.Sqrt(tradingDaysPerYear)
}

// hitRate is the fraction of periods with a strictly positive return.
func hitRate(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	wins := 0
	for _, r := range returns {
		if r > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(returns))
}

// annualize converts a total return over [first, last] into a compound
// annual rate. Spans under a day return the total unchanged.
func annualize(total float64, first, last time.Time) float64 {
	years := last.Sub(first).Hours() / (24 * 365.25)
	if years <= 1.0/365.25 {
		return total
	}
	base := 1 + total
	if base <= 0 {
		return -1
	}
	return math.Pow(base, 1/years) - 1
}
