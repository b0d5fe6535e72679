package formulas

import "math"

// CalculateMaxDrawdown calculates the maximum drawdown from a value series
//
// Drawdown Formula:
//
//	Drawdown = (Peak Value - Current Value) / Peak Value
//	Max Drawdown = Maximum of all drawdowns
//
// Returns the maximum drawdown as a positive fraction (0.25 = 25% loss from peak), or nil
// for fewer than two points.
func CalculateMaxDrawdown(values []float64) *float64 {
	if len(values) < 2 {
		return nil
	}

	maxDrawdown := 0.0
	peak := values[0]

	for _, value := range values {
		if value > peak {
			peak = value
		}

		if peak > 0 {
			drawdown := (peak - value) / peak
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	return &maxDrawdown
}

// CalculatePeriodSharpe returns mean(returns)/std(returns) without any
// annualisation. The caller is responsible for choosing the period of the
// returns (the backtest feeds weekly returns).
// Returns 0 when fewer than two returns exist or volatility is zero.
func CalculatePeriodSharpe(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	stdDev := StdDev(returns)
	if stdDev == 0 {
		return 0
	}

	return Mean(returns) / stdDev
}

// CalculateSharpeRatio calculates the annualised Sharpe Ratio
//
//	Sharpe = (Mean Return - Periodic Risk-free Rate) / Std Dev × sqrt(periodsPerYear)
//
// Returns nil if there is insufficient data or zero volatility.
func CalculateSharpeRatio(returns []float64, riskFreeRate float64, periodsPerYear int) *float64 {
	if len(returns) < 2 || periodsPerYear <= 0 {
		return nil
	}

	stdDev := StdDev(returns)
	if stdDev == 0 {
		return nil
	}

	periodicRiskFree := riskFreeRate / float64(periodsPerYear)
	sharpe := (Mean(returns) - periodicRiskFree) / stdDev
	annualized := sharpe * math.Sqrt(float64(periodsPerYear))

	return &annualized
}

// CalculateCAGR computes the compound growth rate between two values over
// `periods` periods, annualised with `periodsPerYear`.
//
// Formula: CAGR = (final / initial)^(periodsPerYear / periods) - 1
//
// A wiped-out portfolio (final <= 0) returns -1.
func CalculateCAGR(initial, final float64, periods, periodsPerYear int) float64 {
	if initial <= 0 || periods <= 0 {
		return 0
	}
	if final <= 0 {
		return -1
	}

	return math.Pow(final/initial, float64(periodsPerYear)/float64(periods)) - 1
}
