// Package indicators computes the technical indicator battery for an OHLCV
// series and folds the per-indicator votes into buy and sell scores.
package indicators

import (
	"fmt"
	"math"

	"github.com/aristath/advisor/internal/cache"
	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/pkg/formulas"
	"github.com/rs/zerolog"
)

// MinBars is the shortest series the engine evaluates
const MinBars = 50

// Engine computes indicators through a Backend, memoising results in an
// optional cache
type Engine struct {
	backend Backend
	cache   cache.Cache
	log     zerolog.Logger
}

// NewEngine creates an engine. c may be nil to disable caching.
func NewEngine(backend Backend, c cache.Cache, log zerolog.Logger) *Engine {
	if backend == nil {
		backend = TalibBackend{}
	}
	return &Engine{
		backend: backend,
		cache:   c,
		log:     log.With().Str("component", "indicators").Str("backend", backend.Name()).Logger(),
	}
}

// Backend returns the name of the backend in use
func (e *Engine) Backend() string {
	return e.backend.Name()
}

// series holds the bar columns shared by every calculator
type series struct {
	opens, highs, lows, closes, volumes []float64
	price                               float64
}

type calculator struct {
	name string
	fn   func(s series) (Snapshot, bool)
}

// Compute evaluates every indicator on bars (ascending by date).
// Fewer than MinBars bars yield an empty result. An indicator that fails,
// panics or produces a non-finite value is omitted.
func (e *Engine) Compute(symbol string, interval domain.Interval, bars []domain.Bar) Indicators {
	result := Indicators{
		Symbol:    symbol,
		Interval:  interval,
		Backend:   e.backend.Name(),
		Bars:      len(bars),
		Snapshots: map[string]Snapshot{},
	}
	if len(bars) < MinBars {
		return result
	}

	lastClose := bars[len(bars)-1].Close
	key := fmt.Sprintf("%s|%s|%d|%g", symbol, interval, len(bars), lastClose)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			return cached.(Indicators)
		}
	}

	b := domain.Bars(bars)
	s := series{
		opens:   b.Opens(),
		highs:   b.Highs(),
		lows:    b.Lows(),
		closes:  b.Closes(),
		volumes: b.Volumes(),
		price:   lastClose,
	}
	result.Price = lastClose

	for _, calc := range e.calculators() {
		if snap, ok := e.safely(symbol, calc, s); ok {
			result.Snapshots[calc.name] = snap
		}
	}

	if atr, ok := result.Snapshots[NameATR]; ok {
		result.Volatility = atr.Status
	}
	if cross, ok := result.Snapshots[NameMACross]; ok {
		result.GoldenCross = cross.Status == "golden_cross"
		result.DeathCross = cross.Status == "death_cross"
		if result.GoldenCross || result.DeathCross {
			suppress(result.Snapshots, NameMA50)
			suppress(result.Snapshots, NameMA200)
		}
	}

	result.fold()

	if e.cache != nil {
		e.cache.Set(key, result)
	}
	return result
}

// suppress keeps an MA snapshot for reporting while removing its vote
func suppress(snapshots map[string]Snapshot, name string) {
	s, ok := snapshots[name]
	if !ok {
		return
	}
	s.Weight = 0
	s.Informational = true
	snapshots[name] = s
}

func (e *Engine) safely(symbol string, calc calculator, s series) (snap Snapshot, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Debug().
				Str("symbol", symbol).
				Str("indicator", calc.name).
				Interface("panic", r).
				Msg("Indicator calculation panicked")
			snap, ok = Snapshot{}, false
		}
	}()

	snap, ok = calc.fn(s)
	if !ok {
		return snap, false
	}
	if !formulas.IsUsable(snap.Value) {
		return snap, false
	}
	for _, v := range snap.Extra {
		if !formulas.IsUsable(v) {
			return snap, false
		}
	}
	snap.Name = calc.name
	return snap, true
}

func newSnapshot(value float64, v Vote, extra map[string]float64) Snapshot {
	return Snapshot{
		Value:  value,
		Status: v.Status,
		Signal: v.Signal,
		Weight: v.Weight,
		Extra:  extra,
	}
}

// lastTwo returns the last and previous values of a series
func lastTwo(values []float64) (float64, float64) {
	return formulas.Last(values), formulas.LastN(values, 1)
}

func (e *Engine) calculators() []calculator {
	be := e.backend
	return []calculator{
		{NameRSI, func(s series) (Snapshot, bool) {
			rsi := formulas.Last(be.RSI(s.closes, 14))
			return newSnapshot(rsi, RSIRule(rsi), nil), true
		}},
		{NameStochastic, func(s series) (Snapshot, bool) {
			k, d := be.Stochastic(s.highs, s.lows, s.closes, 14, 3, 3)
			kv, dv := formulas.Last(k), formulas.Last(d)
			return newSnapshot(kv, StochasticRule(kv, dv), map[string]float64{"d": dv}), true
		}},
		{NameWilliamsR, func(s series) (Snapshot, bool) {
			r := formulas.Last(be.WilliamsR(s.highs, s.lows, s.closes, 14))
			return newSnapshot(r, WilliamsRRule(r), nil), true
		}},
		{NameMFI, func(s series) (Snapshot, bool) {
			mfi := formulas.Last(be.MFI(s.highs, s.lows, s.closes, s.volumes, 14))
			return newSnapshot(mfi, MFIRule(mfi), nil), true
		}},
		{NameCCI, func(s series) (Snapshot, bool) {
			cci := formulas.Last(be.CCI(s.highs, s.lows, s.closes, 20))
			return newSnapshot(cci, CCIRule(cci), nil), true
		}},
		{NameMACD, func(s series) (Snapshot, bool) {
			macd, signal, hist := be.MACD(s.closes, 12, 26, 9)
			m, pm := lastTwo(macd)
			sg, psg := lastTwo(signal)
			return newSnapshot(m, MACDRule(m, sg, pm, psg), map[string]float64{
				"signal":    sg,
				"histogram": formulas.Last(hist),
			}), true
		}},
		{NameMA50, func(s series) (Snapshot, bool) {
			ma := formulas.Last(be.SMA(s.closes, 50))
			return newSnapshot(ma, MovingAverageRule(s.price, ma, WeightMA50), nil), true
		}},
		{NameMA200, func(s series) (Snapshot, bool) {
			if len(s.closes) < 200 {
				return Snapshot{}, false
			}
			ma := formulas.Last(be.SMA(s.closes, 200))
			return newSnapshot(ma, MovingAverageRule(s.price, ma, WeightMA200), nil), true
		}},
		{NameMACross, func(s series) (Snapshot, bool) {
			if len(s.closes) < 200+CrossLookback {
				return Snapshot{}, false
			}
			short := be.SMA(s.closes, 50)
			long := be.SMA(s.closes, 200)
			from := len(s.closes) - CrossLookback - 1
			cross := DetectCross(short[from:], long[from:], CrossLookback)
			ma50, ma200 := formulas.Last(short), formulas.Last(long)
			return newSnapshot(ma50-ma200, MACrossRule(cross), map[string]float64{
				"ma50":  ma50,
				"ma200": ma200,
			}), true
		}},
		{NameADX, func(s series) (Snapshot, bool) {
			adx, plus, minus := be.ADX(s.highs, s.lows, s.closes, 14)
			a, p, m := formulas.Last(adx), formulas.Last(plus), formulas.Last(minus)
			return newSnapshot(a, ADXRule(a, p, m), map[string]float64{
				"plus_di":  p,
				"minus_di": m,
			}), true
		}},
		{NameSAR, func(s series) (Snapshot, bool) {
			sar := formulas.Last(be.SAR(s.highs, s.lows, 0.02, 0.2))
			return newSnapshot(sar, SARRule(s.price, sar), nil), true
		}},
		{NameATR, func(s series) (Snapshot, bool) {
			atr := formulas.Last(be.ATR(s.highs, s.lows, s.closes, 14))
			if s.price <= 0 {
				return Snapshot{}, false
			}
			pct := atr / s.price * 100
			snap := newSnapshot(atr, Neutral(VolatilityBand(pct)), map[string]float64{"atr_percent": pct})
			snap.Informational = true
			return snap, true
		}},
		{NameBollinger, func(s series) (Snapshot, bool) {
			upper, middle, lower := be.BollingerBands(s.closes, 20, 2)
			u, m, l := formulas.Last(upper), formulas.Last(middle), formulas.Last(lower)
			position := 50.0
			if u > l {
				position = (s.price - l) / (u - l) * 100
			}
			return newSnapshot(position, BollingerRule(position), map[string]float64{
				"upper":  u,
				"middle": m,
				"lower":  l,
			}), true
		}},
		{NameDonchian, func(s series) (Snapshot, bool) {
			d, err := formulas.CalculateDonchian(s.highs, s.lows, 20)
			if err != nil {
				return Snapshot{}, false
			}
			return newSnapshot(s.price, DonchianRule(s.price, d.Upper, d.Lower), map[string]float64{
				"upper":  d.Upper,
				"middle": d.Middle,
				"lower":  d.Lower,
			}), true
		}},
		{NameIchimoku, func(s series) (Snapshot, bool) {
			ichi, err := formulas.CalculateIchimoku(s.highs, s.lows)
			if err != nil {
				return Snapshot{}, false
			}
			v := IchimokuRule(s.price, ichi.Conversion, ichi.Base, ichi.CloudTop(), ichi.CloudBottom())
			return newSnapshot(s.price, v, map[string]float64{
				"conversion": ichi.Conversion,
				"base":       ichi.Base,
				"span_a":     ichi.SpanA,
				"span_b":     ichi.SpanB,
			}), true
		}},
		{NameOBV, func(s series) (Snapshot, bool) {
			return flowSnapshot(be.OBV(s.closes, s.volumes), WeightOBV)
		}},
		{NameAD, func(s series) (Snapshot, bool) {
			return flowSnapshot(be.AD(s.highs, s.lows, s.closes, s.volumes), WeightAD)
		}},
		{NameCMF, func(s series) (Snapshot, bool) {
			cmf, err := formulas.CalculateCMF(s.highs, s.lows, s.closes, s.volumes, 20)
			if err != nil {
				return Snapshot{}, false
			}
			return newSnapshot(cmf, CMFRule(cmf), nil), true
		}},
		{NameVWAP, func(s series) (Snapshot, bool) {
			vwap, err := formulas.CalculateVWAP(s.highs, s.lows, s.closes, s.volumes, 20)
			if err != nil {
				return Snapshot{}, false
			}
			return newSnapshot(vwap, VWAPRule(s.price, vwap), nil), true
		}},
		{NameVolumeROC, func(s series) (Snapshot, bool) {
			change := formulas.PercentChange(s.closes, 15)
			if change == nil {
				return Snapshot{}, false
			}
			roc := formulas.Last(be.ROC(s.volumes, 15))
			return newSnapshot(roc, VolumeROCRule(roc, *change), map[string]float64{"price_change": *change}), true
		}},
		{NameMomentum7, func(s series) (Snapshot, bool) {
			return momentumSnapshot(s.closes, 7, 5, WeightMomentum7)
		}},
		{NameMomentum30, func(s series) (Snapshot, bool) {
			return momentumSnapshot(s.closes, 30, 10, WeightMomentum30)
		}},
	}
}

// flowLookback is how far back OBV and A/D are compared
const flowLookback = 20

func flowSnapshot(line []float64, weight float64) (Snapshot, bool) {
	if len(line) <= flowLookback {
		return Snapshot{}, false
	}
	current := formulas.Last(line)
	previous := formulas.LastN(line, flowLookback)
	return newSnapshot(current, FlowTrendRule(current, previous, weight), map[string]float64{
		"previous": previous,
	}), true
}

func momentumSnapshot(closes []float64, periods int, threshold, weight float64) (Snapshot, bool) {
	change := formulas.PercentChange(closes, periods)
	if change == nil || math.IsNaN(*change) {
		return Snapshot{}, false
	}
	return newSnapshot(*change, MomentumRule(*change, threshold, weight), nil), true
}
