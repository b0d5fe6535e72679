package indicators

import "github.com/aristath/advisor/internal/domain"

// Vote is the outcome of one indicator rule
type Vote struct {
	Signal domain.Signal
	Status string
	Weight float64
}

// Buy votes for buying with the given weight
func Buy(weight float64, status string) Vote {
	return Vote{Signal: domain.SignalBuy, Weight: weight, Status: status}
}

// Sell votes for selling with the given weight
func Sell(weight float64, status string) Vote {
	return Vote{Signal: domain.SignalSell, Weight: weight, Status: status}
}

// Neutral abstains
func Neutral(status string) Vote {
	return Vote{Signal: domain.SignalNeutral, Status: status}
}

// Rule weights
const (
	WeightRSI             = 15
	WeightStochastic      = 10
	WeightStochasticCross = 5
	WeightWilliamsR       = 8
	WeightMFI             = 10
	WeightCCIStrong       = 12
	WeightCCI             = 8
	WeightMACDCrossover   = 20
	WeightMACDTrend       = 10
	WeightMA50            = 8
	WeightMA200           = 10
	WeightMACross         = 25
	WeightADX             = 12
	WeightSAR             = 8
	WeightBollinger       = 12
	WeightDonchian        = 12
	WeightIchimoku        = 15
	WeightOBV             = 6
	WeightAD              = 6
	WeightCMF             = 8
	WeightVWAP            = 6
	WeightVolumeROC       = 5
	WeightMomentum7       = 8
	WeightMomentum30      = 10
)

// RSIRule: oversold below 30, overbought above 70
func RSIRule(rsi float64) Vote {
	switch {
	case rsi < 30:
		return Buy(WeightRSI, "oversold")
	case rsi > 70:
		return Sell(WeightRSI, "overbought")
	}
	return Neutral("neutral")
}

// StochasticRule: %K extremes first, otherwise %K against %D
func StochasticRule(k, d float64) Vote {
	switch {
	case k < 20:
		return Buy(WeightStochastic, "oversold")
	case k > 80:
		return Sell(WeightStochastic, "overbought")
	case k > d:
		return Buy(WeightStochasticCross, "bullish")
	case k < d:
		return Sell(WeightStochasticCross, "bearish")
	}
	return Neutral("neutral")
}

// WilliamsRRule: oversold below -80, overbought above -20
func WilliamsRRule(r float64) Vote {
	switch {
	case r < -80:
		return Buy(WeightWilliamsR, "oversold")
	case r > -20:
		return Sell(WeightWilliamsR, "overbought")
	}
	return Neutral("neutral")
}

// MFIRule: oversold below 20, overbought above 80
func MFIRule(mfi float64) Vote {
	switch {
	case mfi < 20:
		return Buy(WeightMFI, "oversold")
	case mfi > 80:
		return Sell(WeightMFI, "overbought")
	}
	return Neutral("neutral")
}

// CCIRule grades CCI at ±100 and ±150
func CCIRule(cci float64) Vote {
	switch {
	case cci > 150:
		return Buy(WeightCCIStrong, "strong_bullish")
	case cci > 100:
		return Buy(WeightCCI, "bullish")
	case cci < -150:
		return Sell(WeightCCIStrong, "strong_bearish")
	case cci < -100:
		return Sell(WeightCCI, "bearish")
	}
	return Neutral("neutral")
}

// MACDRule: a crossover on the last bar overrides the plain trend
func MACDRule(macd, signal, prevMACD, prevSignal float64) Vote {
	switch {
	case prevMACD <= prevSignal && macd > signal:
		return Buy(WeightMACDCrossover, "bullish_crossover")
	case prevMACD >= prevSignal && macd < signal:
		return Sell(WeightMACDCrossover, "bearish_crossover")
	case macd > signal:
		return Buy(WeightMACDTrend, "bullish")
	case macd < signal:
		return Sell(WeightMACDTrend, "bearish")
	}
	return Neutral("neutral")
}

// MovingAverageRule: price above the average is bullish
func MovingAverageRule(price, ma, weight float64) Vote {
	switch {
	case price > ma:
		return Buy(weight, "above")
	case price < ma:
		return Sell(weight, "below")
	}
	return Neutral("at")
}

// Cross is the state of the MA50/MA200 pair
type Cross int

const (
	CrossNone Cross = iota
	CrossGolden
	CrossDeath
)

// CrossLookback is how many bars a golden or death cross stays active
const CrossLookback = 10

// DetectCross reports a golden (death) cross when the short average crossed
// above (below) the long one within the last `lookback` bars and is still
// on that side. Both series must be aligned and valid over the window.
func DetectCross(short, long []float64, lookback int) Cross {
	n := len(short)
	if n != len(long) || n < lookback+1 {
		return CrossNone
	}

	last := n - 1
	for i := last; i > last-lookback; i-- {
		prevAbove := short[i-1] > long[i-1]
		nowAbove := short[i] > long[i]
		if !prevAbove && nowAbove && short[last] > long[last] {
			return CrossGolden
		}
		prevBelow := short[i-1] < long[i-1]
		nowBelow := short[i] < long[i]
		if !prevBelow && nowBelow && short[last] < long[last] {
			return CrossDeath
		}
	}
	return CrossNone
}

// MACrossRule votes on an active golden or death cross
func MACrossRule(c Cross) Vote {
	switch c {
	case CrossGolden:
		return Buy(WeightMACross, "golden_cross")
	case CrossDeath:
		return Sell(WeightMACross, "death_cross")
	}
	return Neutral("no_cross")
}

// ADXRule: only a trend stronger than 25 votes, in the direction of the DIs
func ADXRule(adx, plusDI, minusDI float64) Vote {
	if adx <= 25 {
		return Neutral("weak_trend")
	}
	switch {
	case plusDI > minusDI:
		return Buy(WeightADX, "strong_uptrend")
	case plusDI < minusDI:
		return Sell(WeightADX, "strong_downtrend")
	}
	return Neutral("strong_trend")
}

// SARRule: price above the parabolic SAR is bullish
func SARRule(price, sar float64) Vote {
	switch {
	case price > sar:
		return Buy(WeightSAR, "bullish")
	case price < sar:
		return Sell(WeightSAR, "bearish")
	}
	return Neutral("neutral")
}

// VolatilityBand classifies ATR as a percentage of price
func VolatilityBand(atrPercent float64) string {
	switch {
	case atrPercent > 5:
		return VolatilityHigh
	case atrPercent > 3:
		return VolatilityMedium
	}
	return VolatilityLow
}

// BollingerRule takes the price position within the bands in percent
func BollingerRule(position float64) Vote {
	switch {
	case position < 20:
		return Buy(WeightBollinger, "near_lower")
	case position > 80:
		return Sell(WeightBollinger, "near_upper")
	}
	return Neutral("middle")
}

// DonchianRule votes on a breakout of the prior channel
func DonchianRule(price, upper, lower float64) Vote {
	switch {
	case price > upper:
		return Buy(WeightDonchian, "breakout_up")
	case price < lower:
		return Sell(WeightDonchian, "breakout_down")
	}
	return Neutral("inside")
}

// IchimokuRule needs both the cloud position and the conversion/base
// relationship to agree
func IchimokuRule(price, conversion, base, cloudTop, cloudBottom float64) Vote {
	switch {
	case price > cloudTop && conversion > base:
		return Buy(WeightIchimoku, "bullish")
	case price < cloudBottom && conversion < base:
		return Sell(WeightIchimoku, "bearish")
	case price > cloudTop:
		return Neutral("above_cloud")
	case price < cloudBottom:
		return Neutral("below_cloud")
	}
	return Neutral("in_cloud")
}

// FlowTrendRule compares a cumulative flow line with its value some bars ago
func FlowTrendRule(current, previous, weight float64) Vote {
	switch {
	case current > previous:
		return Buy(weight, "rising")
	case current < previous:
		return Sell(weight, "falling")
	}
	return Neutral("flat")
}

// CMFRule: accumulation above 0.05, distribution below -0.05
func CMFRule(cmf float64) Vote {
	switch {
	case cmf > 0.05:
		return Buy(WeightCMF, "accumulation")
	case cmf < -0.05:
		return Sell(WeightCMF, "distribution")
	}
	return Neutral("neutral")
}

// VWAPRule: price above VWAP is bullish
func VWAPRule(price, vwap float64) Vote {
	switch {
	case price > vwap:
		return Buy(WeightVWAP, "above")
	case price < vwap:
		return Sell(WeightVWAP, "below")
	}
	return Neutral("at")
}

// VolumeROCRule: a volume surge above 50% confirms the price direction
func VolumeROCRule(volumeROC, priceChange float64) Vote {
	if volumeROC <= 50 {
		return Neutral("normal_volume")
	}
	switch {
	case priceChange > 0:
		return Buy(WeightVolumeROC, "confirmed_up")
	case priceChange < 0:
		return Sell(WeightVolumeROC, "confirmed_down")
	}
	return Neutral("high_volume")
}

// MomentumRule votes when the percentage change exceeds ±threshold
func MomentumRule(change, threshold, weight float64) Vote {
	switch {
	case change > threshold:
		return Buy(weight, "strong_up")
	case change < -threshold:
		return Sell(weight, "strong_down")
	}
	return Neutral("flat")
}
