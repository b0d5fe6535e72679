package recommendation

import (
	"math"

	"github.com/aristath/advisor/internal/modules/indicators"
	"github.com/aristath/advisor/internal/modules/patterns"
	"github.com/aristath/advisor/pkg/formulas"
)

const (
	consensusThreshold  = 0.8
	consensusMultiplier = 1.2
	actionThreshold     = 20.0
	highPriority        = 50.0
	minConfidence       = 0.05
	maxConfidence       = 0.95
	driftEpsilon        = 1e-9
	roundPlaces         = 4
)

// weeklyIndicators are the only indicators behind the weekly signal
var weeklyIndicators = []string{
	indicators.NameRSI,
	indicators.NameMACD,
	indicators.NameMACross,
	indicators.NameBollinger,
}

// dailySignal folds indicator and pattern weights into a clamped strength.
// A consensus above 80% boosts the raw sum by 20% before clamping.
func dailySignal(ind indicators.Indicators, pats patterns.Result) (signal, consensus float64) {
	raw := ind.Strength() + pats.Strength()
	consensus = ind.ConsensusRatio()
	if consensus > consensusThreshold {
		raw *= consensusMultiplier
	}
	return formulas.Clamp(raw, -100, 100), consensus
}

// weeklySignal is the reduced-subset strength of the weekly series
func weeklySignal(ind *indicators.Indicators) float64 {
	if ind == nil || ind.Empty() {
		return 0
	}
	return formulas.Clamp(ind.StrengthOf(weeklyIndicators...), -100, 100)
}

// sameDirection reports whether both signals are non-zero with equal sign
func sameDirection(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}

// classifyTimeframe maps the daily and weekly signals to a holding horizon.
// strong is set only for the long-term case where both exceed 50.
func classifyTimeframe(daily, weekly float64) (timeframe string, strong bool) {
	d, w := math.Abs(daily), math.Abs(weekly)
	agree := sameDirection(daily, weekly)

	switch {
	case agree && d > 30 && w > 30:
		if d > 50 && w > 50 {
			return TimeframeLongStrong, true
		}
		return TimeframeLong, false
	case d > actionThreshold || w > actionThreshold:
		return TimeframeMedium, false
	}
	return TimeframeShort, false
}

// volatilityFactor dampens confidence for volatile assets. An unknown band
// is treated as medium.
func volatilityFactor(band string) float64 {
	switch band {
	case indicators.VolatilityLow:
		return 1.0
	case indicators.VolatilityHigh:
		return 0.6
	}
	return 0.8
}

type confidenceInputs struct {
	signal       float64
	consensus    float64
	agree        bool
	volatility   string
	strong       bool
	bullishSetup bool
}

// technicalConfidence blends signal magnitude, consensus and timeframe
// agreement, then applies the volatility factor, boosts, floors and clamp
func technicalConfidence(in confidenceInputs) float64 {
	agreement := 0.5
	if in.agree {
		agreement = 1.0
	}
	abs := math.Abs(in.signal)

	c := 0.3*abs/100 + 0.4*in.consensus + 0.2*agreement
	c *= volatilityFactor(in.volatility)
	if in.strong {
		c += 0.1
	}
	if in.bullishSetup {
		c += 0.1
	}

	switch {
	case abs > 70:
		c = math.Max(c, 0.70)
	case abs > 50:
		c = math.Max(c, 0.50)
	case abs > 30:
		c = math.Max(c, 0.30)
	}
	return formulas.Clamp(c, minConfidence, maxConfidence)
}

// riskWeight rewards the middle confidence band the most
func riskWeight(confidence float64) float64 {
	switch {
	case confidence >= 0.7:
		return 10
	case confidence >= 0.4:
		return 15
	}
	return 5
}

// compositeScore ranks technical recommendations on a 0-100 scale
func compositeScore(signal, confidence, matching, drift float64) float64 {
	score := 0.30*math.Abs(signal) +
		0.25*confidence*100 +
		0.20*math.Min(matching, 100) +
		0.15*riskWeight(confidence) +
		0.10*math.Min(100, math.Abs(drift)*500)
	return formulas.Clamp(score, 0, 100)
}

// driftAction sells overweight and buys underweight positions once the
// drift reaches the threshold
func driftAction(drift, threshold float64) Action {
	if math.Abs(drift)+driftEpsilon < threshold {
		return ActionHold
	}
	if drift > 0 {
		return ActionSell
	}
	return ActionBuy
}

func driftConfidence(drift float64) float64 {
	return math.Min(math.Abs(drift)*2, 1)
}

func driftComposite(drift float64) float64 {
	return math.Min(math.Abs(drift)*200, 100)
}

// patternScores splits pattern weights into buy and sell totals
func patternScores(pats patterns.Result) (buy, sell float64) {
	for _, p := range pats.Patterns {
		switch s := p.Signed(); {
		case s > 0:
			buy += s
		case s < 0:
			sell -= s
		}
	}
	return buy, sell
}

func round(f float64) float64 {
	return formulas.Round(f, roundPlaces)
}
