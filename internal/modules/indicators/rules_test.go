package indicators

import (
	"testing"

	"github.com/aristath/advisor/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestThresholdRules(t *testing.T) {
	tests := []struct {
		name   string
		vote   Vote
		signal domain.Signal
		weight float64
		status string
	}{
		{name: "rsi oversold", vote: RSIRule(29.9), signal: domain.SignalBuy, weight: 15, status: "oversold"},
		{name: "rsi at 30", vote: RSIRule(30), signal: domain.SignalNeutral},
		{name: "rsi at 70", vote: RSIRule(70), signal: domain.SignalNeutral},
		{name: "rsi overbought", vote: RSIRule(70.1), signal: domain.SignalSell, weight: 15, status: "overbought"},

		{name: "stoch oversold", vote: StochasticRule(19, 50), signal: domain.SignalBuy, weight: 10},
		{name: "stoch overbought", vote: StochasticRule(81, 10), signal: domain.SignalSell, weight: 10},
		{name: "stoch k above d", vote: StochasticRule(50, 40), signal: domain.SignalBuy, weight: 5},
		{name: "stoch k below d", vote: StochasticRule(50, 60), signal: domain.SignalSell, weight: 5},
		{name: "stoch k equals d", vote: StochasticRule(50, 50), signal: domain.SignalNeutral},

		{name: "williams oversold", vote: WilliamsRRule(-81), signal: domain.SignalBuy, weight: 8},
		{name: "williams overbought", vote: WilliamsRRule(-19), signal: domain.SignalSell, weight: 8},
		{name: "williams middle", vote: WilliamsRRule(-50), signal: domain.SignalNeutral},

		{name: "mfi oversold", vote: MFIRule(19), signal: domain.SignalBuy, weight: 10},
		{name: "mfi overbought", vote: MFIRule(81), signal: domain.SignalSell, weight: 10},

		{name: "cci strong bullish", vote: CCIRule(151), signal: domain.SignalBuy, weight: 12, status: "strong_bullish"},
		{name: "cci bullish", vote: CCIRule(101), signal: domain.SignalBuy, weight: 8, status: "bullish"},
		{name: "cci at 100", vote: CCIRule(100), signal: domain.SignalNeutral, status: "neutral"},
		{name: "cci bearish", vote: CCIRule(-120), signal: domain.SignalSell, weight: 8, status: "bearish"},
		{name: "cci strong bearish", vote: CCIRule(-151), signal: domain.SignalSell, weight: 12, status: "strong_bearish"},

		{name: "bollinger lower", vote: BollingerRule(10), signal: domain.SignalBuy, weight: 12},
		{name: "bollinger upper", vote: BollingerRule(95), signal: domain.SignalSell, weight: 12},
		{name: "bollinger middle", vote: BollingerRule(50), signal: domain.SignalNeutral},

		{name: "cmf accumulation", vote: CMFRule(0.06), signal: domain.SignalBuy, weight: 8},
		{name: "cmf distribution", vote: CMFRule(-0.06), signal: domain.SignalSell, weight: 8},
		{name: "cmf flat", vote: CMFRule(0.05), signal: domain.SignalNeutral},

		{name: "momentum7 up", vote: MomentumRule(5.1, 5, WeightMomentum7), signal: domain.SignalBuy, weight: 8},
		{name: "momentum7 flat", vote: MomentumRule(5, 5, WeightMomentum7), signal: domain.SignalNeutral},
		{name: "momentum30 down", vote: MomentumRule(-10.5, 10, WeightMomentum30), signal: domain.SignalSell, weight: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.signal, tt.vote.Signal)
			assert.Equal(t, tt.weight, tt.vote.Weight)
			if tt.status != "" {
				assert.Equal(t, tt.status, tt.vote.Status)
			}
		})
	}
}

func TestMACDRule(t *testing.T) {
	tests := []struct {
		name                      string
		macd, signal, pMACD, pSig float64
		expected                  Vote
	}{
		{name: "bullish crossover", macd: 1, signal: 0.5, pMACD: 0.4, pSig: 0.5, expected: Buy(20, "bullish_crossover")},
		{name: "bearish crossover", macd: 0.4, signal: 0.5, pMACD: 0.6, pSig: 0.5, expected: Sell(20, "bearish_crossover")},
		{name: "bullish trend", macd: 1, signal: 0.5, pMACD: 0.9, pSig: 0.5, expected: Buy(10, "bullish")},
		{name: "bearish trend", macd: 0.1, signal: 0.5, pMACD: 0.2, pSig: 0.5, expected: Sell(10, "bearish")},
		{name: "flat", macd: 0.5, signal: 0.5, pMACD: 0.5, pSig: 0.5, expected: Neutral("neutral")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MACDRule(tt.macd, tt.signal, tt.pMACD, tt.pSig))
		})
	}
}

func TestADXRule(t *testing.T) {
	assert.Equal(t, Neutral("weak_trend"), ADXRule(25, 40, 10))
	assert.Equal(t, Buy(12, "strong_uptrend"), ADXRule(30, 40, 10))
	assert.Equal(t, Sell(12, "strong_downtrend"), ADXRule(30, 10, 40))
}

func TestVolatilityBand(t *testing.T) {
	assert.Equal(t, VolatilityHigh, VolatilityBand(5.01))
	assert.Equal(t, VolatilityMedium, VolatilityBand(5))
	assert.Equal(t, VolatilityMedium, VolatilityBand(3.5))
	assert.Equal(t, VolatilityLow, VolatilityBand(3))
}

func TestPriceRelativeRules(t *testing.T) {
	assert.Equal(t, domain.SignalBuy, MovingAverageRule(110, 100, WeightMA50).Signal)
	assert.Equal(t, float64(WeightMA200), MovingAverageRule(90, 100, WeightMA200).Weight)
	assert.Equal(t, domain.SignalSell, SARRule(90, 100).Signal)
	assert.Equal(t, domain.SignalBuy, VWAPRule(101, 100).Signal)
	assert.Equal(t, domain.SignalBuy, DonchianRule(121, 120, 100).Signal)
	assert.Equal(t, domain.SignalSell, DonchianRule(99, 120, 100).Signal)
	assert.Equal(t, domain.SignalNeutral, DonchianRule(110, 120, 100).Signal)
	assert.Equal(t, domain.SignalBuy, FlowTrendRule(2, 1, WeightOBV).Signal)
	assert.Equal(t, domain.SignalSell, FlowTrendRule(1, 2, WeightAD).Signal)
}

func TestIchimokuRule(t *testing.T) {
	assert.Equal(t, Buy(15, "bullish"), IchimokuRule(120, 110, 105, 100, 95))
	assert.Equal(t, Neutral("above_cloud"), IchimokuRule(120, 100, 105, 100, 95))
	assert.Equal(t, Sell(15, "bearish"), IchimokuRule(80, 90, 95, 100, 95))
	assert.Equal(t, Neutral("in_cloud"), IchimokuRule(97, 90, 95, 100, 95))
}

func TestVolumeROCRule(t *testing.T) {
	assert.Equal(t, domain.SignalNeutral, VolumeROCRule(50, 3).Signal)
	assert.Equal(t, Buy(5, "confirmed_up"), VolumeROCRule(80, 3))
	assert.Equal(t, Sell(5, "confirmed_down"), VolumeROCRule(80, -3))
}

func TestDetectCross(t *testing.T) {
	long := []float64{100, 100, 100, 100, 100, 100}

	tests := []struct {
		name     string
		short    []float64
		lookback int
		expected Cross
	}{
		{name: "golden within window", short: []float64{95, 96, 97, 101, 102, 103}, lookback: 5, expected: CrossGolden},
		{name: "death within window", short: []float64{105, 104, 103, 99, 98, 97}, lookback: 5, expected: CrossDeath},
		{name: "golden outside window", short: []float64{95, 101, 102, 103, 104, 105}, lookback: 3, expected: CrossNone},
		{name: "golden then death", short: []float64{95, 101, 102, 103, 104, 99}, lookback: 5, expected: CrossDeath},
		{name: "always above", short: []float64{101, 102, 103, 104, 105, 106}, lookback: 5, expected: CrossNone},
		{name: "too short", short: []float64{95, 101}, lookback: 5, expected: CrossNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectCross(tt.short, long[:len(tt.short)], tt.lookback))
		})
	}
}

func TestMACrossRule(t *testing.T) {
	assert.Equal(t, Buy(25, "golden_cross"), MACrossRule(CrossGolden))
	assert.Equal(t, Sell(25, "death_cross"), MACrossRule(CrossDeath))
	assert.Equal(t, domain.SignalNeutral, MACrossRule(CrossNone).Signal)
}
