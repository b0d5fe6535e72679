package indicators

import (
	"github.com/markcheno/go-talib"
)

// TalibBackend delegates to go-talib
type TalibBackend struct{}

func (TalibBackend) Name() string { return BackendTalib }

func (TalibBackend) SMA(closes []float64, period int) []float64 {
	return talib.Sma(closes, period)
}

func (TalibBackend) RSI(closes []float64, period int) []float64 {
	return talib.Rsi(closes, period)
}

func (TalibBackend) MACD(closes []float64, fast, slow, signal int) ([]float64, []float64, []float64) {
	return talib.Macd(closes, fast, slow, signal)
}

func (TalibBackend) Stochastic(highs, lows, closes []float64, fastK, slowK, slowD int) ([]float64, []float64) {
	return talib.Stoch(highs, lows, closes, fastK, slowK, talib.SMA, slowD, talib.SMA)
}

func (TalibBackend) WilliamsR(highs, lows, closes []float64, period int) []float64 {
	return talib.WillR(highs, lows, closes, period)
}

func (TalibBackend) MFI(highs, lows, closes, volumes []float64, period int) []float64 {
	return talib.Mfi(highs, lows, closes, volumes, period)
}

func (TalibBackend) CCI(highs, lows, closes []float64, period int) []float64 {
	return talib.Cci(highs, lows, closes, period)
}

func (TalibBackend) ADX(highs, lows, closes []float64, period int) ([]float64, []float64, []float64) {
	return talib.Adx(highs, lows, closes, period),
		talib.PlusDI(highs, lows, closes, period),
		talib.MinusDI(highs, lows, closes, period)
}

func (TalibBackend) SAR(highs, lows []float64, acceleration, maximum float64) []float64 {
	return talib.Sar(highs, lows, acceleration, maximum)
}

func (TalibBackend) ATR(highs, lows, closes []float64, period int) []float64 {
	return talib.Atr(highs, lows, closes, period)
}

func (TalibBackend) BollingerBands(closes []float64, period int, deviations float64) ([]float64, []float64, []float64) {
	return talib.BBands(closes, period, deviations, deviations, talib.SMA)
}

func (TalibBackend) OBV(closes, volumes []float64) []float64 {
	return talib.Obv(closes, volumes)
}

func (TalibBackend) AD(highs, lows, closes, volumes []float64) []float64 {
	return talib.Ad(highs, lows, closes, volumes)
}

func (TalibBackend) ROC(values []float64, period int) []float64 {
	return talib.Roc(values, period)
}
