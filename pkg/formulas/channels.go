package formulas

import "fmt"

// Donchian holds the Donchian channel of the bars preceding the current bar.
type Donchian struct {
	Upper  float64 `json:"upper"`
	Lower  float64 `json:"lower"`
	Middle float64 `json:"middle"`
}

// CalculateDonchian returns the highest high / lowest low over the `period`
// bars before the last bar, so the last close can be tested for a breakout.
func CalculateDonchian(highs, lows []float64, period int) (*Donchian, error) {
	if len(highs) != len(lows) {
		return nil, fmt.Errorf("donchian: mismatched series lengths %d/%d", len(highs), len(lows))
	}
	if period <= 0 || len(highs) < period+1 {
		return nil, fmt.Errorf("donchian: need %d bars, have %d", period+1, len(highs))
	}

	end := len(highs) - 1
	start := end - period
	upper := highs[start]
	lower := lows[start]
	for i := start; i < end; i++ {
		if highs[i] > upper {
			upper = highs[i]
		}
		if lows[i] < lower {
			lower = lows[i]
		}
	}

	return &Donchian{Upper: upper, Lower: lower, Middle: (upper + lower) / 2}, nil
}

// Ichimoku holds the Ichimoku lines evaluated at the last bar.
// SpanA/SpanB are the cloud values plotted at the last bar, i.e. computed
// `displacement` bars earlier.
type Ichimoku struct {
	Conversion float64 `json:"conversion"`
	Base       float64 `json:"base"`
	SpanA      float64 `json:"span_a"`
	SpanB      float64 `json:"span_b"`
}

// CloudTop returns the upper edge of the cloud
func (i Ichimoku) CloudTop() float64 {
	if i.SpanA > i.SpanB {
		return i.SpanA
	}
	return i.SpanB
}

// CloudBottom returns the lower edge of the cloud
func (i Ichimoku) CloudBottom() float64 {
	if i.SpanA < i.SpanB {
		return i.SpanA
	}
	return i.SpanB
}

// CalculateIchimoku computes conversion (9), base (26) and the displaced
// leading spans (26, 52) with the classic parameters.
func CalculateIchimoku(highs, lows []float64) (*Ichimoku, error) {
	const (
		conversionPeriod = 9
		basePeriod       = 26
		spanBPeriod      = 52
		displacement     = 26
	)

	if len(highs) != len(lows) {
		return nil, fmt.Errorf("ichimoku: mismatched series lengths %d/%d", len(highs), len(lows))
	}
	if len(highs) < spanBPeriod+displacement {
		return nil, fmt.Errorf("ichimoku: need %d bars, have %d", spanBPeriod+displacement, len(highs))
	}

	n := len(highs)
	midpoint := func(end, period int) float64 {
		hi, lo := highs[end-period], lows[end-period]
		for i := end - period; i < end; i++ {
			if highs[i] > hi {
				hi = highs[i]
			}
			if lows[i] < lo {
				lo = lows[i]
			}
		}
		return (hi + lo) / 2
	}

	shifted := n - displacement
	return &Ichimoku{
		Conversion: midpoint(n, conversionPeriod),
		Base:       midpoint(n, basePeriod),
		SpanA:      (midpoint(shifted, conversionPeriod) + midpoint(shifted, basePeriod)) / 2,
		SpanB:      midpoint(shifted, spanBPeriod),
	}, nil
}
