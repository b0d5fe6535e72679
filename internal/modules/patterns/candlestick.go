package patterns

import (
	"math"

	"github.com/aristath/advisor/internal/domain"
)

// Candlestick weights and confidences
const (
	weightHammer        = 10
	confidenceHammer    = 0.6
	weightEngulfing     = 15
	confidenceEngulfing = 0.7
	confidenceDoji      = 0.5
)

// candle describes the geometry of a single bar
type candle struct {
	body, rng, upper, lower float64
	bullish, bearish        bool
}

func newCandle(b domain.Bar) candle {
	top := math.Max(b.Open, b.Close)
	bottom := math.Min(b.Open, b.Close)
	return candle{
		body:    top - bottom,
		rng:     b.High - b.Low,
		upper:   b.High - top,
		lower:   bottom - b.Low,
		bullish: b.Close > b.Open,
		bearish: b.Close < b.Open,
	}
}

// DetectCandlesticks inspects the last two bars. It needs at least 2 bars.
func DetectCandlesticks(bars []domain.Bar) []Pattern {
	if len(bars) < 2 {
		return nil
	}
	prevBar, lastBar := bars[len(bars)-2], bars[len(bars)-1]
	last := newCandle(lastBar)

	var found []Pattern
	if last.rng > 0 {
		ratio := last.body / last.rng
		switch {
		case ratio < 0.1:
			found = append(found, Pattern{
				Name:       NameDoji,
				Signal:     domain.SignalNeutral,
				Confidence: confidenceDoji,
				Details:    map[string]float64{"body_ratio": ratio},
			})
		case ratio < 0.3 && last.lower > 2*last.body && last.upper < last.body:
			found = append(found, Pattern{
				Name:       NameHammer,
				Signal:     domain.SignalBuy,
				Weight:     weightHammer,
				Confidence: confidenceHammer,
				Details:    map[string]float64{"body_ratio": ratio},
			})
		case ratio < 0.3 && last.upper > 2*last.body && last.lower < last.body:
			found = append(found, Pattern{
				Name:       NameShootingStar,
				Signal:     domain.SignalSell,
				Weight:     weightHammer,
				Confidence: confidenceHammer,
				Details:    map[string]float64{"body_ratio": ratio},
			})
		}
	}

	prev := newCandle(prevBar)
	switch {
	case prev.bearish && last.bullish && lastBar.Open <= prevBar.Close && lastBar.Close >= prevBar.Open && last.body > prev.body:
		found = append(found, Pattern{
			Name:       NameBullishEngulfing,
			Signal:     domain.SignalBuy,
			Weight:     weightEngulfing,
			Confidence: confidenceEngulfing,
		})
	case prev.bullish && last.bearish && lastBar.Open >= prevBar.Close && lastBar.Close <= prevBar.Open && last.body > prev.body:
		found = append(found, Pattern{
			Name:       NameBearishEngulfing,
			Signal:     domain.SignalSell,
			Weight:     weightEngulfing,
			Confidence: confidenceEngulfing,
		})
	}
	return found
}
