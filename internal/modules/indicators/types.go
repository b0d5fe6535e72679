package indicators

import (
	"math"

	"github.com/aristath/advisor/internal/domain"
)

// Indicator names used as keys in Indicators.Snapshots
const (
	NameRSI        = "rsi"
	NameStochastic = "stochastic"
	NameWilliamsR  = "williams_r"
	NameMFI        = "mfi"
	NameCCI        = "cci"
	NameMACD       = "macd"
	NameMA50       = "ma50"
	NameMA200      = "ma200"
	NameMACross    = "ma_cross"
	NameADX        = "adx"
	NameSAR        = "parabolic_sar"
	NameATR        = "atr"
	NameBollinger  = "bollinger"
	NameDonchian   = "donchian"
	NameIchimoku   = "ichimoku"
	NameOBV        = "obv"
	NameAD         = "ad_line"
	NameCMF        = "cmf"
	NameVWAP       = "vwap"
	NameVolumeROC  = "volume_roc"
	NameMomentum7  = "momentum_7"
	NameMomentum30 = "momentum_30"
)

// Volatility bands derived from ATR as a percentage of price
const (
	VolatilityLow    = "low"
	VolatilityMedium = "medium"
	VolatilityHigh   = "high"
)

// Snapshot is the evaluated state of one indicator at the last bar
type Snapshot struct {
	Name   string             `json:"name"`
	Value  float64            `json:"value"`
	Status string             `json:"status"`
	Signal domain.Signal      `json:"signal"`
	Weight float64            `json:"weight"`
	Extra  map[string]float64 `json:"extra,omitempty"`

	// Informational snapshots are reported but take no part in the vote
	Informational bool `json:"informational,omitempty"`
}

// Signed returns +weight for buy, -weight for sell and 0 otherwise
func (s Snapshot) Signed() float64 {
	if s.Informational {
		return 0
	}
	switch s.Signal {
	case domain.SignalBuy:
		return s.Weight
	case domain.SignalSell:
		return -s.Weight
	}
	return 0
}

// Indicators is the full indicator battery computed for one series
type Indicators struct {
	Symbol     string              `json:"symbol"`
	Interval   domain.Interval     `json:"interval,omitempty"`
	Backend    string              `json:"backend,omitempty"`
	Volatility string              `json:"volatility,omitempty"`
	Snapshots  map[string]Snapshot `json:"indicators"`
	Bars       int                 `json:"bars"`
	Price      float64             `json:"price"`
	BuyScore   float64             `json:"buy_score"`
	SellScore  float64             `json:"sell_score"`
	Bullish    int                 `json:"bullish_votes"`
	Bearish    int                 `json:"bearish_votes"`
	Neutral    int                 `json:"neutral_votes"`

	GoldenCross bool `json:"golden_cross"`
	DeathCross  bool `json:"death_cross"`
}

// Empty reports whether nothing could be computed (fewer than MinBars bars)
func (ind Indicators) Empty() bool {
	return len(ind.Snapshots) == 0
}

// Get returns a snapshot by name
func (ind Indicators) Get(name string) (Snapshot, bool) {
	s, ok := ind.Snapshots[name]
	return s, ok
}

// Strength is the unclamped weighted vote: buy weights minus sell weights
func (ind Indicators) Strength() float64 {
	return ind.BuyScore - ind.SellScore
}

// ConsensusRatio is max(bullish, bearish) over all counted votes
func (ind Indicators) ConsensusRatio() float64 {
	total := ind.Bullish + ind.Bearish + ind.Neutral
	if total == 0 {
		return 0
	}
	return math.Max(float64(ind.Bullish), float64(ind.Bearish)) / float64(total)
}

// StrengthOf sums the signed weights of the named snapshots only
func (ind Indicators) StrengthOf(names ...string) float64 {
	total := 0.0
	for _, name := range names {
		if s, ok := ind.Snapshots[name]; ok {
			total += s.Signed()
		}
	}
	return total
}

// fold tallies the votes of every snapshot into the aggregate fields
func (ind *Indicators) fold() {
	ind.BuyScore, ind.SellScore = 0, 0
	ind.Bullish, ind.Bearish, ind.Neutral = 0, 0, 0

	for _, s := range ind.Snapshots {
		if s.Informational {
			continue
		}
		switch s.Signal {
		case domain.SignalBuy:
			ind.BuyScore += s.Weight
			ind.Bullish++
		case domain.SignalSell:
			ind.SellScore += s.Weight
			ind.Bearish++
		default:
			ind.Neutral++
		}
	}
}
