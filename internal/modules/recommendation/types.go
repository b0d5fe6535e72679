// Package recommendation combines indicator and pattern signals with
// allocation drift into per-asset rebalance recommendations.
package recommendation

import (
	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/modules/indicators"
	"github.com/aristath/advisor/internal/modules/patterns"
)

// Action is what a recommendation asks for
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// Priority ranks how urgent a recommendation is
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Timeframes produced by classifyTimeframe
const (
	TimeframeShort      = "short_term"
	TimeframeMedium     = "medium_term"
	TimeframeLong       = "long_term"
	TimeframeLongStrong = "long_term (strong)"
	TimeframeAllocation = "allocation"
)

// Sources of a recommendation
const (
	SourceTechnical = "technical"
	SourceDrift     = "drift"
)

// DefaultThreshold is the allocation drift that triggers a rebalance
const DefaultThreshold = 0.05

// Stablecoins are scored on allocation drift alone
var Stablecoins = map[string]bool{
	"USDT": true, "USDC": true, "BUSD": true, "DAI": true, "TUSD": true,
	"PAX": true, "USDP": true, "GUSD": true, "HUSD": true,
}

// IsStablecoin reports whether symbol is in the stablecoin set
func IsStablecoin(symbol string) bool {
	return Stablecoins[symbol]
}

// Allocation compares the current and target portfolio weight
type Allocation struct {
	Current    float64 `json:"current"`
	Target     float64 `json:"target"`
	Difference float64 `json:"difference"`
}

// Recommendation is the verdict for one asset
type Recommendation struct {
	Asset          string                         `json:"asset"`
	Action         Action                         `json:"action"`
	Priority       Priority                       `json:"priority"`
	SignalStrength float64                        `json:"signal_strength"`
	WeeklySignal   float64                        `json:"weekly_signal"`
	Confidence     float64                        `json:"confidence"`
	BuyScore       float64                        `json:"buy_score"`
	SellScore      float64                        `json:"sell_score"`
	CompositeScore float64                        `json:"composite_score"`
	Timeframe      string                         `json:"timeframe"`
	Volatility     string                         `json:"volatility,omitempty"`
	Allocation     Allocation                     `json:"allocation"`
	Metrics        map[string]indicators.Snapshot `json:"metrics,omitempty"`
	Patterns       []patterns.Pattern             `json:"patterns,omitempty"`
	Source         string                         `json:"source"`
	Reason         string                         `json:"reason"`
}

// Summary counts recommendations by action
type Summary struct {
	Total        int `json:"total"`
	Buy          int `json:"buy"`
	Sell         int `json:"sell"`
	Hold         int `json:"hold"`
	HighPriority int `json:"high_priority"`
	Technical    int `json:"technical"`
}

func summarize(recs []Recommendation) Summary {
	s := Summary{Total: len(recs)}
	for _, r := range recs {
		switch r.Action {
		case ActionBuy:
			s.Buy++
		case ActionSell:
			s.Sell++
		default:
			s.Hold++
		}
		if r.Priority == PriorityHigh {
			s.HighPriority++
		}
		if r.Source == SourceTechnical {
			s.Technical++
		}
	}
	return s
}

// Report is the result of one rebalance call
type Report struct {
	Status          domain.Status    `json:"status"`
	Message         string           `json:"message,omitempty"`
	BatchID         string           `json:"batch_id,omitempty"`
	Recommendations []Recommendation `json:"recommendations"`
	Summary         Summary          `json:"summary"`
}

// Analysis is the technical picture of one symbol
type Analysis struct {
	Symbol   string                 `json:"symbol"`
	Daily    indicators.Indicators  `json:"daily"`
	Weekly   *indicators.Indicators `json:"weekly,omitempty"`
	Patterns patterns.Result        `json:"patterns"`
}
