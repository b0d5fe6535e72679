package formulas

import "fmt"

// CalculateCMF computes the Chaikin Money Flow over the last `period` bars.
//
//	MFM = ((Close - Low) - (High - Close)) / (High - Low)
//	CMF = Σ(MFM × Volume) / Σ(Volume)
func CalculateCMF(highs, lows, closes, volumes []float64, period int) (float64, error) {
	if err := sameLength(highs, lows, closes, volumes); err != nil {
		return 0, fmt.Errorf("cmf: %w", err)
	}
	if period <= 0 || len(closes) < period {
		return 0, fmt.Errorf("cmf: need %d bars, have %d", period, len(closes))
	}

	var flow, totalVolume float64
	for i := len(closes) - period; i < len(closes); i++ {
		rng := highs[i] - lows[i]
		if rng > 0 {
			mfm := ((closes[i] - lows[i]) - (highs[i] - closes[i])) / rng
			flow += mfm * volumes[i]
		}
		totalVolume += volumes[i]
	}

	if totalVolume == 0 {
		return 0, fmt.Errorf("cmf: zero volume over window")
	}
	return flow / totalVolume, nil
}

// CalculateVWAP computes the volume-weighted average of the typical price
// ((H+L+C)/3) over the last `period` bars.
func CalculateVWAP(highs, lows, closes, volumes []float64, period int) (float64, error) {
	if err := sameLength(highs, lows, closes, volumes); err != nil {
		return 0, fmt.Errorf("vwap: %w", err)
	}
	if period <= 0 || len(closes) < period {
		return 0, fmt.Errorf("vwap: need %d bars, have %d", period, len(closes))
	}

	var pv, totalVolume float64
	for i := len(closes) - period; i < len(closes); i++ {
		typical := (highs[i] + lows[i] + closes[i]) / 3
		pv += typical * volumes[i]
		totalVolume += volumes[i]
	}

	if totalVolume == 0 {
		return 0, fmt.Errorf("vwap: zero volume over window")
	}
	return pv / totalVolume, nil
}

func sameLength(series ...[]float64) error {
	for _, s := range series[1:] {
		if len(s) != len(series[0]) {
			return fmt.Errorf("mismatched series lengths")
		}
	}
	return nil
}
