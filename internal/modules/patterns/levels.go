package patterns

import (
	"math"

	"github.com/aristath/advisor/internal/domain"
)

// DefaultLevelThreshold is how close (as a fraction of price) a level must be
const DefaultLevelThreshold = 0.02

const (
	weightLevel     = 10
	confidenceLevel = 0.6
)

// Levels are the nearest swing levels around the current price.
// A zero value means no level exists on that side.
type Levels struct {
	Support    float64 `json:"support"`
	Resistance float64 `json:"resistance"`
}

// FindLevels returns the nearest swing low below and swing high above price
func FindLevels(bars []domain.Bar, price float64, lookback int) Levels {
	b := domain.Bars(bars)
	var lv Levels

	for _, p := range FindSwingLows(b.Lows(), lookback) {
		if p.Price < price && p.Price > lv.Support {
			lv.Support = p.Price
		}
	}
	lv.Resistance = math.Inf(1)
	for _, p := range FindSwingHighs(b.Highs(), lookback) {
		if p.Price > price && p.Price < lv.Resistance {
			lv.Resistance = p.Price
		}
	}
	if math.IsInf(lv.Resistance, 1) {
		lv.Resistance = 0
	}
	return lv
}

// DetectLevels flags the price as near support or resistance when the
// nearest level is within threshold of it
func DetectLevels(bars []domain.Bar, lookback int, threshold float64) []Pattern {
	if len(bars) < MinChartBars {
		return nil
	}
	price := bars[len(bars)-1].Close
	if price <= 0 {
		return nil
	}
	lv := FindLevels(bars, price, lookback)

	var found []Pattern
	if lv.Support > 0 {
		if distance := (price - lv.Support) / price; distance <= threshold {
			found = append(found, Pattern{
				Name:       NameNearSupport,
				Signal:     domain.SignalBuy,
				Weight:     weightLevel,
				Confidence: confidenceLevel,
				Details:    map[string]float64{"level": lv.Support, "distance": distance},
			})
		}
	}
	if lv.Resistance > 0 {
		if distance := (lv.Resistance - price) / price; distance <= threshold {
			found = append(found, Pattern{
				Name:       NameNearResistance,
				Signal:     domain.SignalSell,
				Weight:     weightLevel,
				Confidence: confidenceLevel,
				Details:    map[string]float64{"level": lv.Resistance, "distance": distance},
			})
		}
	}
	return found
}
