package indicators

import (
	"fmt"
	"strings"
)

// Backend names accepted by NewBackend
const (
	BackendTalib  = "talib"
	BackendNative = "native"
)

// Backend computes the raw indicator series. Every output has the length of
// its input; positions before the lookback period hold 0.
type Backend interface {
	Name() string
	SMA(closes []float64, period int) []float64
	RSI(closes []float64, period int) []float64
	MACD(closes []float64, fast, slow, signal int) (macd, signalLine, hist []float64)
	Stochastic(highs, lows, closes []float64, fastK, slowK, slowD int) (k, d []float64)
	WilliamsR(highs, lows, closes []float64, period int) []float64
	MFI(highs, lows, closes, volumes []float64, period int) []float64
	CCI(highs, lows, closes []float64, period int) []float64
	ADX(highs, lows, closes []float64, period int) (adx, plusDI, minusDI []float64)
	SAR(highs, lows []float64, acceleration, maximum float64) []float64
	ATR(highs, lows, closes []float64, period int) []float64
	BollingerBands(closes []float64, period int, deviations float64) (upper, middle, lower []float64)
	OBV(closes, volumes []float64) []float64
	AD(highs, lows, closes, volumes []float64) []float64
	ROC(values []float64, period int) []float64
}

// NewBackend returns the backend registered under name ("" means talib)
func NewBackend(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", BackendTalib:
		return TalibBackend{}, nil
	case BackendNative:
		return NativeBackend{}, nil
	}
	return nil, fmt.Errorf("unknown indicator backend %q", name)
}
