package patterns

import (
	"math"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/pkg/formulas"
)

// MinChartBars is the shortest series chart patterns are searched on
const MinChartBars = 20

// DefaultSwingLookback is the number of bars compared on each side of a swing point
const DefaultSwingLookback = 5

// Chart pattern weights, confidences and thresholds
const (
	weightHeadShoulders     = 20
	confidenceHeadShoulders = 0.7
	weightTriangle          = 15
	confidenceTriangle      = 0.6
	weightFlag              = 12
	confidenceFlag          = 0.6

	shoulderTolerance = 0.10
	flatThreshold     = 0.02
	triangleTrend     = 0.05
	flagTrend         = 0.10
	flagVolatility    = 0.05
	flagWindow        = 20
)

// SwingPoint is a local extreme of the series
type SwingPoint struct {
	Index int     `json:"index"`
	Price float64 `json:"price"`
}

// FindSwingHighs returns the points whose value is >= every value within
// lookback positions on both sides
func FindSwingHighs(values []float64, lookback int) []SwingPoint {
	return findSwings(values, lookback, func(candidate, other float64) bool { return candidate >= other })
}

// FindSwingLows returns the points whose value is <= every value within
// lookback positions on both sides
func FindSwingLows(values []float64, lookback int) []SwingPoint {
	return findSwings(values, lookback, func(candidate, other float64) bool { return candidate <= other })
}

func findSwings(values []float64, lookback int, dominates func(candidate, other float64) bool) []SwingPoint {
	if lookback <= 0 {
		return nil
	}
	var points []SwingPoint
	for i := lookback; i < len(values)-lookback; i++ {
		swing := true
		for j := i - lookback; j <= i+lookback; j++ {
			if j != i && !dominates(values[i], values[j]) {
				swing = false
				break
			}
		}
		if swing {
			points = append(points, SwingPoint{Index: i, Price: values[i]})
		}
	}
	return points
}

// lastPrices returns the prices of the last n swing points, or nil
func lastPrices(points []SwingPoint, n int) []float64 {
	if len(points) < n {
		return nil
	}
	prices := make([]float64, n)
	for i, p := range points[len(points)-n:] {
		prices[i] = p.Price
	}
	return prices
}

// DetectChartPatterns searches the series for head-and-shoulders, triangles
// and flags. It needs at least MinChartBars bars.
func DetectChartPatterns(bars []domain.Bar, lookback int) []Pattern {
	if len(bars) < MinChartBars {
		return nil
	}
	b := domain.Bars(bars)
	highs := FindSwingHighs(b.Highs(), lookback)
	lows := FindSwingLows(b.Lows(), lookback)

	var found []Pattern
	if p, ok := headAndShoulders(highs, lows); ok {
		found = append(found, p)
	}
	if p, ok := triangle(highs, lows); ok {
		found = append(found, p)
	}
	if p, ok := flag(b.Closes()); ok {
		found = append(found, p)
	}
	return found
}

func headAndShoulders(highs, lows []SwingPoint) (Pattern, bool) {
	if h := lastPrices(highs, 3); h != nil {
		left, head, right := h[0], h[1], h[2]
		if head > left && head > right && withinTolerance(left, right, shoulderTolerance) {
			return Pattern{
				Name:       NameHeadAndShoulders,
				Signal:     domain.SignalSell,
				Weight:     weightHeadShoulders,
				Confidence: confidenceHeadShoulders,
				Details:    map[string]float64{"left": left, "head": head, "right": right},
			}, true
		}
	}
	if l := lastPrices(lows, 3); l != nil {
		left, head, right := l[0], l[1], l[2]
		if head < left && head < right && withinTolerance(left, right, shoulderTolerance) {
			return Pattern{
				Name:       NameInverseHeadShoulder,
				Signal:     domain.SignalBuy,
				Weight:     weightHeadShoulders,
				Confidence: confidenceHeadShoulders,
				Details:    map[string]float64{"left": left, "head": head, "right": right},
			}, true
		}
	}
	return Pattern{}, false
}

// withinTolerance reports whether a and b differ by at most tol of the larger
func withinTolerance(a, b, tol float64) bool {
	larger := math.Max(math.Abs(a), math.Abs(b))
	if larger == 0 {
		return true
	}
	return math.Abs(a-b)/larger <= tol
}

func triangle(highs, lows []SwingPoint) (Pattern, bool) {
	h := lastPrices(highs, 3)
	l := lastPrices(lows, 3)
	if h == nil || l == nil {
		return Pattern{}, false
	}

	highsFlat := formulas.CoefficientOfVariation(h) < flatThreshold
	lowsFlat := formulas.CoefficientOfVariation(l) < flatThreshold
	lowsTrend := formulas.LinearTrend(l)
	highsTrend := formulas.LinearTrend(h)

	switch {
	case highsFlat && lowsTrend > triangleTrend:
		return Pattern{
			Name:       NameAscendingTriangle,
			Signal:     domain.SignalBuy,
			Weight:     weightTriangle,
			Confidence: confidenceTriangle,
			Details:    map[string]float64{"resistance": formulas.Mean(h), "lows_trend": lowsTrend},
		}, true
	case lowsFlat && highsTrend < -triangleTrend:
		return Pattern{
			Name:       NameDescendingTriangle,
			Signal:     domain.SignalSell,
			Weight:     weightTriangle,
			Confidence: confidenceTriangle,
			Details:    map[string]float64{"support": formulas.Mean(l), "highs_trend": highsTrend},
		}, true
	}
	return Pattern{}, false
}

// flag looks at the last flagWindow closes: a strong pole in the first half
// followed by a tight consolidation in the second
func flag(closes []float64) (Pattern, bool) {
	if len(closes) < flagWindow {
		return Pattern{}, false
	}
	window := closes[len(closes)-flagWindow:]
	pole := window[:flagWindow/2]
	consolidation := window[flagWindow/2:]

	trend := formulas.LinearTrend(pole)
	volatility := formulas.CoefficientOfVariation(consolidation)
	if volatility >= flagVolatility {
		return Pattern{}, false
	}

	details := map[string]float64{"pole_trend": trend, "consolidation_volatility": volatility}
	switch {
	case trend > flagTrend:
		return Pattern{
			Name:       NameBullFlag,
			Signal:     domain.SignalBuy,
			Weight:     weightFlag,
			Confidence: confidenceFlag,
			Details:    details,
		}, true
	case trend < -flagTrend:
		return Pattern{
			Name:       NameBearFlag,
			Signal:     domain.SignalSell,
			Weight:     weightFlag,
			Confidence: confidenceFlag,
			Details:    details,
		}, true
	}
	return Pattern{}, false
}
