package patterns

import (
	"math"
	"sort"

	"github.com/aristath/advisor/internal/domain"
)

// Volume profile defaults
const (
	DefaultProfileLevels = 20
	valueAreaShare       = 0.70
	pocProximity         = 0.02
	weightProfile        = 8
	confidenceProfile    = 0.5
)

// Price positions relative to the value area
const (
	PositionBelowVAL = "below_val"
	PositionAboveVAH = "above_vah"
	PositionAtPOC    = "at_poc"
	PositionWithinVA = "within_va"
)

// VolumeProfile is the volume-by-price distribution of a series
type VolumeProfile struct {
	POC      float64   `json:"poc"`
	VAH      float64   `json:"vah"`
	VAL      float64   `json:"val"`
	Levels   []float64 `json:"levels"`
	Volumes  []float64 `json:"volumes"`
	Position string    `json:"position"`
}

// CalculateVolumeProfile spreads the price range over n evenly spaced levels
// and credits each bar's volume to every level inside its [low, high].
// It returns nil for an empty series or one without a price range.
func CalculateVolumeProfile(bars []domain.Bar, n int) *VolumeProfile {
	if len(bars) == 0 || n < 2 {
		return nil
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, b := range bars {
		lo = math.Min(lo, b.Low)
		hi = math.Max(hi, b.High)
	}
	if hi <= lo {
		return nil
	}

	step := (hi - lo) / float64(n-1)
	levels := make([]float64, n)
	volumes := make([]float64, n)
	for i := range levels {
		levels[i] = lo + step*float64(i)
	}
	for _, b := range bars {
		for i, level := range levels {
			if level >= b.Low && level <= b.High {
				volumes[i] += b.Volume
			}
		}
	}

	total := 0.0
	poc := 0
	for i, v := range volumes {
		total += v
		if v > volumes[poc] {
			poc = i
		}
	}
	if total == 0 {
		return nil
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return volumes[order[a]] > volumes[order[b]] })

	vah, val := levels[poc], levels[poc]
	cumulative := 0.0
	for _, i := range order {
		cumulative += volumes[i]
		vah = math.Max(vah, levels[i])
		val = math.Min(val, levels[i])
		if cumulative >= total*valueAreaShare {
			break
		}
	}

	return &VolumeProfile{
		POC:     levels[poc],
		VAH:     vah,
		VAL:     val,
		Levels:  levels,
		Volumes: volumes,
	}
}

// Classify places price relative to the value area
func (vp *VolumeProfile) Classify(price float64) string {
	switch {
	case price < vp.VAL:
		return PositionBelowVAL
	case price > vp.VAH:
		return PositionAboveVAH
	case vp.POC > 0 && math.Abs(price-vp.POC)/vp.POC <= pocProximity:
		return PositionAtPOC
	}
	return PositionWithinVA
}

// profilePattern turns the classified position into a vote
func profilePattern(vp *VolumeProfile) Pattern {
	p := Pattern{
		Name:       NameVolumeProfile,
		Signal:     domain.SignalNeutral,
		Confidence: confidenceProfile,
		Details: map[string]float64{
			"poc": vp.POC,
			"vah": vp.VAH,
			"val": vp.VAL,
		},
	}
	switch vp.Position {
	case PositionBelowVAL:
		p.Signal, p.Weight = domain.SignalBuy, weightProfile
	case PositionAboveVAH:
		p.Signal, p.Weight = domain.SignalSell, weightProfile
	}
	return p
}
