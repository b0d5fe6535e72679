// Package patterns recognises candlestick formations, swing-point chart
// patterns, support/resistance levels and the volume profile of a series.
package patterns

import "github.com/aristath/advisor/internal/domain"

// Pattern names
const (
	NameDoji                = "doji"
	NameHammer              = "hammer"
	NameShootingStar        = "shooting_star"
	NameBullishEngulfing    = "bullish_engulfing"
	NameBearishEngulfing    = "bearish_engulfing"
	NameHeadAndShoulders    = "head_and_shoulders"
	NameInverseHeadShoulder = "inverse_head_and_shoulders"
	NameAscendingTriangle   = "ascending_triangle"
	NameDescendingTriangle  = "descending_triangle"
	NameBullFlag            = "bull_flag"
	NameBearFlag            = "bear_flag"
	NameNearSupport         = "near_support"
	NameNearResistance      = "near_resistance"
	NameVolumeProfile       = "volume_profile"
)

// Pattern is one detected formation
type Pattern struct {
	Name       string             `json:"name"`
	Signal     domain.Signal      `json:"signal"`
	Weight     float64            `json:"weight"`
	Confidence float64            `json:"confidence"`
	Details    map[string]float64 `json:"details,omitempty"`
}

// Signed returns +weight for buy, -weight for sell and 0 otherwise
func (p Pattern) Signed() float64 {
	switch p.Signal {
	case domain.SignalBuy:
		return p.Weight
	case domain.SignalSell:
		return -p.Weight
	}
	return 0
}

// Result holds everything detected on one series
type Result struct {
	Patterns []Pattern      `json:"patterns"`
	Profile  *VolumeProfile `json:"volume_profile,omitempty"`
}

// Strength sums the signed weights of every detected pattern
func (r Result) Strength() float64 {
	total := 0.0
	for _, p := range r.Patterns {
		total += p.Signed()
	}
	return total
}

// Has reports whether a pattern with the given name was detected
func (r Result) Has(name string) bool {
	for _, p := range r.Patterns {
		if p.Name == name {
			return true
		}
	}
	return false
}

// Names lists the detected pattern names in detection order
func (r Result) Names() []string {
	names := make([]string, 0, len(r.Patterns))
	for _, p := range r.Patterns {
		names = append(names, p.Name)
	}
	return names
}
