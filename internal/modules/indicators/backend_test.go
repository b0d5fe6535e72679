package indicators

import (
	"math"
	"testing"

	"github.com/aristath/advisor/internal/domain"
	testingpkg "github.com/aristath/advisor/internal/testing"
	"github.com/aristath/advisor/pkg/formulas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBackend(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		wantErr  bool
	}{
		{name: "", expected: BackendTalib},
		{name: "talib", expected: BackendTalib},
		{name: " Native ", expected: BackendNative},
		{name: "pandas", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBackend(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, b.Name())
		})
	}
}

func TestNativeSMA(t *testing.T) {
	out := NativeBackend{}.SMA([]float64{1, 2, 3, 4, 5}, 3)
	assert.Equal(t, []float64{0, 0, 2, 3, 4}, out)

	assert.Equal(t, []float64{0, 0}, NativeBackend{}.SMA([]float64{1, 2}, 3))
}

func TestNativeEMASeededWithSMA(t *testing.T) {
	out := ema([]float64{2, 4, 6, 8}, 0, 3)
	// seed = 4, k = 0.5
	assert.Equal(t, []float64{0, 0, 4, 6}, out)
}

func TestNativeRSIExtremes(t *testing.T) {
	up := make([]float64, 30)
	down := make([]float64, 30)
	for i := range up {
		up[i] = float64(100 + i)
		down[i] = float64(100 - i)
	}

	assert.InDelta(t, 100, formulas.Last(NativeBackend{}.RSI(up, 14)), 1e-9)
	assert.InDelta(t, 0, formulas.Last(NativeBackend{}.RSI(down, 14)), 1e-9)
	assert.Zero(t, NativeBackend{}.RSI(up, 14)[13])
}

func TestNativeVolumeFlows(t *testing.T) {
	closes := []float64{10, 11, 11, 9}
	volumes := []float64{100, 200, 300, 400}
	assert.Equal(t, []float64{100, 300, 300, -100}, NativeBackend{}.OBV(closes, volumes))

	highs := []float64{12, 12}
	lows := []float64{10, 10}
	// close at the high adds the full volume, at the low subtracts it
	ad := NativeBackend{}.AD(highs, lows, []float64{12, 10}, []float64{100, 50})
	assert.Equal(t, []float64{100, 50}, ad)

	roc := NativeBackend{}.ROC([]float64{100, 150, 50}, 1)
	assert.InDeltaSlice(t, []float64{0, 50, -66.6666666667}, roc, 1e-6)
}

func TestNativeWilliamsR(t *testing.T) {
	highs := []float64{10, 12, 14}
	lows := []float64{8, 9, 10}
	closes := []float64{9, 11, 14}
	out := NativeBackend{}.WilliamsR(highs, lows, closes, 3)
	assert.Equal(t, 0.0, out[2])

	closes[2] = 8
	out = NativeBackend{}.WilliamsR(highs, lows, closes, 3)
	assert.Equal(t, -100.0, out[2])
}

// parityBars is a noisy wave long enough for every smoothing seed to wash out
func parityBars() domain.Bars {
	return testingpkg.SeriesBars(300, testingpkg.Day, func(i int) float64 {
		return 100 + 10*math.Sin(2*math.Pi*float64(i)/37) + 3*math.Sin(float64(i)/3) + 0.05*float64(i)
	})
}

func TestNativeMatchesTalib(t *testing.T) {
	bars := parityBars()
	h, l, c := bars.Highs(), bars.Lows(), bars.Closes()
	talib, native := TalibBackend{}, NativeBackend{}

	pairs := []struct {
		name          string
		talib, native func() []float64
	}{
		{"sma", func() []float64 { return talib.SMA(c, 20) }, func() []float64 { return native.SMA(c, 20) }},
		{"rsi", func() []float64 { return talib.RSI(c, 14) }, func() []float64 { return native.RSI(c, 14) }},
		{"atr", func() []float64 { return talib.ATR(h, l, c, 14) }, func() []float64 { return native.ATR(h, l, c, 14) }},
		{"willr", func() []float64 { return talib.WilliamsR(h, l, c, 14) }, func() []float64 { return native.WilliamsR(h, l, c, 14) }},
		{"cci", func() []float64 { return talib.CCI(h, l, c, 20) }, func() []float64 { return native.CCI(h, l, c, 20) }},
		{"bbands_upper", func() []float64 {
			u, _, _ := talib.BollingerBands(c, 20, 2)
			return u
		}, func() []float64 {
			u, _, _ := native.BollingerBands(c, 20, 2)
			return u
		}},
		{"stoch_k", func() []float64 {
			k, _ := talib.Stochastic(h, l, c, 14, 3, 3)
			return k
		}, func() []float64 {
			k, _ := native.Stochastic(h, l, c, 14, 3, 3)
			return k
		}},
		{"stoch_d", func() []float64 {
			_, d := talib.Stochastic(h, l, c, 14, 3, 3)
			return d
		}, func() []float64 {
			_, d := native.Stochastic(h, l, c, 14, 3, 3)
			return d
		}},
		{"macd", func() []float64 {
			m, _, _ := talib.MACD(c, 12, 26, 9)
			return m
		}, func() []float64 {
			m, _, _ := native.MACD(c, 12, 26, 9)
			return m
		}},
	}

	for _, p := range pairs {
		t.Run(p.name, func(t *testing.T) {
			want, got := p.talib(), p.native()
			require.Len(t, got, len(want))
			// compare the settled tail of the series
			for i := len(want) - 20; i < len(want); i++ {
				tolerance := 1e-6 * math.Max(1, math.Abs(want[i]))
				assert.InDelta(t, want[i], got[i], tolerance, "index %d", i)
			}
		})
	}
}
