package indicators

import (
	"math"

	"github.com/aristath/advisor/pkg/formulas"
)

// NativeBackend is a pure Go implementation following the TA-Lib
// definitions (Wilder smoothing for RSI, ATR and ADX; SMA-seeded EMAs;
// population standard deviation for Bollinger Bands)
type NativeBackend struct{}

func (NativeBackend) Name() string { return BackendNative }

func (NativeBackend) SMA(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	if period <= 0 || len(closes) < period {
		return out
	}
	sum := 0.0
	for i, v := range closes {
		sum += v
		if i >= period {
			sum -= closes[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// ema computes an EMA over values[start:], seeded with the SMA of its first
// period values
func ema(values []float64, start, period int) []float64 {
	out := make([]float64, len(values))
	if period <= 0 || len(values)-start < period {
		return out
	}
	k := 2.0 / float64(period+1)

	seed := 0.0
	for i := start; i < start+period; i++ {
		seed += values[i]
	}
	prev := seed / float64(period)
	out[start+period-1] = prev

	for i := start + period; i < len(values); i++ {
		prev = (values[i]-prev)*k + prev
		out[i] = prev
	}
	return out
}

func (NativeBackend) RSI(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	if period <= 0 || len(closes) <= period {
		return out
	}

	var gain, loss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gain += change
		} else {
			loss -= change
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		g, l := 0.0, 0.0
		if change > 0 {
			g = change
		} else {
			l = -change
		}
		avgGain = (avgGain*float64(period-1) + g) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + l) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgGain+avgLoss == 0 {
		return 0
	}
	return 100 * avgGain / (avgGain + avgLoss)
}

func (NativeBackend) MACD(closes []float64, fast, slow, signal int) ([]float64, []float64, []float64) {
	n := len(closes)
	macd := make([]float64, n)
	sig := make([]float64, n)
	hist := make([]float64, n)
	if slow <= 0 || fast <= 0 || signal <= 0 || n < slow+signal-1 {
		return macd, sig, hist
	}

	fastEMA := ema(closes, 0, fast)
	slowEMA := ema(closes, 0, slow)
	start := slow - 1
	for i := start; i < n; i++ {
		macd[i] = fastEMA[i] - slowEMA[i]
	}

	signalEMA := ema(macd, start, signal)
	for i := start + signal - 1; i < n; i++ {
		sig[i] = signalEMA[i]
		hist[i] = macd[i] - sig[i]
	}
	// only report MACD where the signal line exists
	for i := 0; i < start+signal-1; i++ {
		macd[i] = 0
	}
	return macd, sig, hist
}

func (NativeBackend) Stochastic(highs, lows, closes []float64, fastK, slowK, slowD int) ([]float64, []float64) {
	n := len(closes)
	k := make([]float64, n)
	d := make([]float64, n)
	if fastK <= 0 || slowK <= 0 || slowD <= 0 || n < fastK+slowK+slowD-2 {
		return k, d
	}

	raw := make([]float64, n)
	for i := fastK - 1; i < n; i++ {
		hh, ll := extremes(highs, lows, i-fastK+1, i)
		if hh > ll {
			raw[i] = (closes[i] - ll) / (hh - ll) * 100
		}
	}

	kStart := fastK + slowK - 2
	for i := kStart; i < n; i++ {
		k[i] = formulas.Mean(raw[i-slowK+1 : i+1])
	}
	dStart := kStart + slowD - 1
	for i := dStart; i < n; i++ {
		d[i] = formulas.Mean(k[i-slowD+1 : i+1])
	}
	for i := kStart; i < dStart; i++ {
		k[i] = 0
	}
	return k, d
}

func (NativeBackend) WilliamsR(highs, lows, closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	if period <= 0 || len(closes) < period {
		return out
	}
	for i := period - 1; i < len(closes); i++ {
		hh, ll := extremes(highs, lows, i-period+1, i)
		if hh > ll {
			out[i] = -100 * (hh - closes[i]) / (hh - ll)
		}
	}
	return out
}

func (NativeBackend) MFI(highs, lows, closes, volumes []float64, period int) []float64 {
	n := len(closes)
	out := make([]float64, n)
	if period <= 0 || n <= period {
		return out
	}

	typical := make([]float64, n)
	for i := range closes {
		typical[i] = (highs[i] + lows[i] + closes[i]) / 3
	}

	for i := period; i < n; i++ {
		var pos, neg float64
		for j := i - period + 1; j <= i; j++ {
			flow := typical[j] * volumes[j]
			switch {
			case typical[j] > typical[j-1]:
				pos += flow
			case typical[j] < typical[j-1]:
				neg += flow
			}
		}
		if pos+neg > 0 {
			out[i] = 100 * pos / (pos + neg)
		}
	}
	return out
}

func (NativeBackend) CCI(highs, lows, closes []float64, period int) []float64 {
	n := len(closes)
	out := make([]float64, n)
	if period <= 0 || n < period {
		return out
	}

	typical := make([]float64, n)
	for i := range closes {
		typical[i] = (highs[i] + lows[i] + closes[i]) / 3
	}

	for i := period - 1; i < n; i++ {
		window := typical[i-period+1 : i+1]
		avg := formulas.Mean(window)
		dev := 0.0
		for _, v := range window {
			dev += math.Abs(v - avg)
		}
		dev /= float64(period)
		if dev > 0 {
			out[i] = (typical[i] - avg) / (0.015 * dev)
		}
	}
	return out
}

func (NativeBackend) ADX(highs, lows, closes []float64, period int) ([]float64, []float64, []float64) {
	n := len(closes)
	adx := make([]float64, n)
	plusDI := make([]float64, n)
	minusDI := make([]float64, n)
	if period <= 0 || n < 2*period {
		return adx, plusDI, minusDI
	}

	var trSum, plusSum, minusSum float64
	dx := make([]float64, n)
	for i := 1; i < n; i++ {
		tr := trueRange(highs, lows, closes, i)
		up := highs[i] - highs[i-1]
		down := lows[i-1] - lows[i]
		plusDM, minusDM := 0.0, 0.0
		if up > down && up > 0 {
			plusDM = up
		}
		if down > up && down > 0 {
			minusDM = down
		}

		if i <= period {
			trSum += tr
			plusSum += plusDM
			minusSum += minusDM
			if i < period {
				continue
			}
		} else {
			trSum = trSum - trSum/float64(period) + tr
			plusSum = plusSum - plusSum/float64(period) + plusDM
			minusSum = minusSum - minusSum/float64(period) + minusDM
		}

		if trSum > 0 {
			plusDI[i] = 100 * plusSum / trSum
			minusDI[i] = 100 * minusSum / trSum
		}
		if total := plusDI[i] + minusDI[i]; total > 0 {
			dx[i] = 100 * math.Abs(plusDI[i]-minusDI[i]) / total
		}
	}

	first := 2*period - 1
	adx[first] = formulas.Mean(dx[period : first+1])
	for i := first + 1; i < n; i++ {
		adx[i] = (adx[i-1]*float64(period-1) + dx[i]) / float64(period)
	}
	return adx, plusDI, minusDI
}

func (NativeBackend) SAR(highs, lows []float64, acceleration, maximum float64) []float64 {
	n := len(highs)
	out := make([]float64, n)
	if n < 2 {
		return out
	}

	// initial direction from the first directional move
	long := highs[1]-highs[0] >= lows[0]-lows[1]
	af := acceleration
	var sar, ep float64
	if long {
		sar, ep = lows[0], highs[1]
	} else {
		sar, ep = highs[0], lows[1]
	}

	for i := 1; i < n; i++ {
		if long {
			if lows[i] < sar {
				long = false
				sar = ep
				ep = lows[i]
				af = acceleration
			} else {
				if highs[i] > ep {
					ep = highs[i]
					af = math.Min(af+acceleration, maximum)
				}
			}
		} else {
			if highs[i] > sar {
				long = true
				sar = ep
				ep = highs[i]
				af = acceleration
			} else {
				if lows[i] < ep {
					ep = lows[i]
					af = math.Min(af+acceleration, maximum)
				}
			}
		}
		out[i] = sar

		next := sar + af*(ep-sar)
		if long {
			next = math.Min(next, math.Min(lows[i], lows[i-1]))
		} else {
			next = math.Max(next, math.Max(highs[i], highs[i-1]))
		}
		sar = next
	}
	return out
}

func (NativeBackend) ATR(highs, lows, closes []float64, period int) []float64 {
	n := len(closes)
	out := make([]float64, n)
	if period <= 0 || n <= period {
		return out
	}

	sum := 0.0
	for i := 1; i <= period; i++ {
		sum += trueRange(highs, lows, closes, i)
	}
	out[period] = sum / float64(period)
	for i := period + 1; i < n; i++ {
		out[i] = (out[i-1]*float64(period-1) + trueRange(highs, lows, closes, i)) / float64(period)
	}
	return out
}

func (b NativeBackend) BollingerBands(closes []float64, period int, deviations float64) ([]float64, []float64, []float64) {
	n := len(closes)
	upper := make([]float64, n)
	lower := make([]float64, n)
	middle := b.SMA(closes, period)
	if period <= 0 || n < period {
		return upper, middle, lower
	}

	for i := period - 1; i < n; i++ {
		window := closes[i-period+1 : i+1]
		variance := 0.0
		for _, v := range window {
			variance += (v - middle[i]) * (v - middle[i])
		}
		std := math.Sqrt(variance / float64(period))
		upper[i] = middle[i] + deviations*std
		lower[i] = middle[i] - deviations*std
	}
	return upper, middle, lower
}

func (NativeBackend) OBV(closes, volumes []float64) []float64 {
	out := make([]float64, len(closes))
	if len(closes) == 0 {
		return out
	}
	out[0] = volumes[0]
	for i := 1; i < len(closes); i++ {
		out[i] = out[i-1]
		switch {
		case closes[i] > closes[i-1]:
			out[i] += volumes[i]
		case closes[i] < closes[i-1]:
			out[i] -= volumes[i]
		}
	}
	return out
}

func (NativeBackend) AD(highs, lows, closes, volumes []float64) []float64 {
	out := make([]float64, len(closes))
	ad := 0.0
	for i := range closes {
		if rng := highs[i] - lows[i]; rng > 0 {
			ad += ((closes[i] - lows[i]) - (highs[i] - closes[i])) / rng * volumes[i]
		}
		out[i] = ad
	}
	return out
}

func (NativeBackend) ROC(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if period <= 0 {
		return out
	}
	for i := period; i < len(values); i++ {
		if prev := values[i-period]; prev != 0 {
			out[i] = (values[i]/prev - 1) * 100
		}
	}
	return out
}

func trueRange(highs, lows, closes []float64, i int) float64 {
	hl := highs[i] - lows[i]
	hc := math.Abs(highs[i] - closes[i-1])
	lc := math.Abs(lows[i] - closes[i-1])
	return math.Max(hl, math.Max(hc, lc))
}

// extremes returns the highest high and lowest low over [from, to]
func extremes(highs, lows []float64, from, to int) (float64, float64) {
	hh, ll := highs[from], lows[from]
	for i := from + 1; i <= to; i++ {
		hh = math.Max(hh, highs[i])
		ll = math.Min(ll, lows[i])
	}
	return hh, ll
}
