// Package formulas holds the numeric building blocks shared by the indicator
// engine, pattern detectors and backtest metrics.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// CoefficientOfVariation returns std/mean, or 0 when the mean is zero.
func CoefficientOfVariation(data []float64) float64 {
	mean := Mean(data)
	if mean == 0 {
		return 0
	}
	return StdDev(data) / math.Abs(mean)
}

// LinearTrend fits y = alpha + beta*x over x = 0..n-1 and returns the total
// fitted change across the series relative to its mean.
// A value of 0.05 means the fitted line rises 5% of the mean from first to last point.
func LinearTrend(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	if mean == 0 {
		return 0
	}

	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i)
	}
	_, beta := stat.LinearRegression(xs, values, nil, false)

	return beta * float64(len(values)-1) / math.Abs(mean)
}

// CalculateReturns converts prices to percentage returns
// Returns[i] = (Price[i] - Price[i-1]) / Price[i-1]
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}

	return returns
}

// PercentChange returns the percentage change between the value `periods`
// bars ago and the last value. Returns nil if there is not enough data.
func PercentChange(values []float64, periods int) *float64 {
	if periods <= 0 || len(values) < periods+1 {
		return nil
	}

	start := values[len(values)-periods-1]
	end := values[len(values)-1]
	if start == 0 {
		return nil
	}

	change := (end - start) / start * 100
	return &change
}

// Round rounds f to the given number of decimal places
func Round(f float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(f*pow) / pow
}

// Clamp bounds f to [lo, hi]
func Clamp(f, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, f))
}

// Last returns the last element of a series, or NaN when empty
func Last(series []float64) float64 {
	if len(series) == 0 {
		return math.NaN()
	}
	return series[len(series)-1]
}

// LastN returns the value n positions from the end (n=0 is the last element),
// or NaN when out of range.
func LastN(series []float64, n int) float64 {
	idx := len(series) - 1 - n
	if idx < 0 || idx >= len(series) {
		return math.NaN()
	}
	return series[idx]
}

// isNaN checks if a float64 is NaN
func isNaN(f float64) bool {
	return f != f
}

// IsUsable reports whether f is a finite number
func IsUsable(f float64) bool {
	return !isNaN(f) && !math.IsInf(f, 0)
}
