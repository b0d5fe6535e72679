// Package backtest replays weekly price history through trading strategies.
package backtest

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/modules/recommendation"
	"github.com/aristath/advisor/internal/utils"
	"github.com/aristath/advisor/pkg/formulas"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// WarmupDays of history are fetched before the window so the replayed
// recommendation engine has enough bars from the first step.
const WarmupDays = recommendation.WeeklyHorizonDays

// Engine runs backtests
type Engine struct {
	provider    domain.MarketDataProvider
	recommender *recommendation.Service
	timeout     time.Duration
	now         func() time.Time
	log         zerolog.Logger
}

// NewEngine creates a backtest engine. recommender may be nil, in which case
// only buy_and_hold is available.
func NewEngine(
	provider domain.MarketDataProvider,
	recommender *recommendation.Service,
	log zerolog.Logger,
) *Engine {
	return &Engine{
		provider:    provider,
		recommender: recommender,
		timeout:     recommendation.DefaultProviderTimeout,
		now:         time.Now,
		log:         log.With().Str("component", "backtest").Logger(),
	}
}

// SetTimeout changes the per-symbol market data timeout
func (e *Engine) SetTimeout(d time.Duration) {
	if d > 0 {
		e.timeout = d
	}
}

// Run executes one backtest. Problems are reported through Result.Status;
// it never panics.
func (e *Engine) Run(ctx context.Context, req Request) (result Result) {
	defer utils.OperationTimer("backtest_run", e.log)()

	result = Result{
		RunID:          uuid.New().String(),
		Strategy:       req.Strategy,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		InitialCapital: req.InitialCapital,
		Symbols:        normalizeSymbols(req.Symbols),
		DroppedSymbols: []string{},
		EquityCurve:    []EquityPoint{},
		TradeHistory:   []Trade{},
	}
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Str("run_id", result.RunID).Msg("Backtest panicked")
			result.Status = domain.StatusError
			result.Message = fmt.Sprintf("backtest failed: %v", r)
			result.Metrics = nil
		}
	}()

	if status, msg := validate(req, result.Symbols); status != "" {
		result.Status = status
		result.Message = msg
		return result
	}

	threshold := req.SignalThreshold
	if threshold == 0 {
		threshold = DefaultSignalThreshold
	}

	series, window, dropped := e.load(ctx, req, result.Symbols)
	result.DroppedSymbols = dropped
	if len(window) == 0 {
		result.Status = domain.StatusNoData
		result.Message = "no symbol has at least 2 weekly bars in the window"
		return result
	}

	replay := NewReplayProvider(series)
	var rec Recommender
	if e.recommender != nil {
		rec = e.recommender.WithProvider(replay)
	}
	strategy, err := NewStrategy(req.Strategy, threshold, rec)
	if err != nil {
		result.Status = domain.StatusInvalidInput
		result.Message = err.Error()
		return result
	}

	sim := newSimulation(req.InitialCapital, window)
	result.EquityCurve = append(result.EquityCurve, EquityPoint{
		Date:  seedDate(req.StartDate, sim.timeline),
		Value: req.InitialCapital,
	})
	for i, date := range sim.timeline {
		if err := ctx.Err(); err != nil {
			result.Status = domain.StatusError
			result.Message = fmt.Sprintf("backtest cancelled: %v", err)
			return result
		}

		replay.SetAsOf(date)
		step := sim.advance(i, date)
		intents, err := strategy.Decide(ctx, step)
		if err != nil {
			result.Status = domain.StatusError
			result.Message = fmt.Sprintf("strategy %s failed on %s: %v", strategy.Name(), date.Format("2006-01-02"), err)
			return result
		}
		result.TradeHistory = append(result.TradeHistory, sim.execute(date, intents)...)
		result.EquityCurve = append(result.EquityCurve, EquityPoint{
			Date:  date,
			Value: formulas.Round(sim.value(), 8),
		})
	}

	metrics := computeMetrics(req.InitialCapital, result.EquityCurve, result.TradeHistory)
	result.Metrics = &metrics
	result.Status = domain.StatusSuccess

	e.log.Info().
		Str("run_id", result.RunID).
		Str("strategy", req.Strategy).
		Int("steps", len(sim.timeline)).
		Int("trades", metrics.TotalTrades).
		Float64("total_return", metrics.TotalReturn).
		Msg("Backtest completed")

	return result
}

// seedDate dates the initial capital point at the start date, or one week
// earlier when the first bar already falls on it, so curve dates stay unique
func seedDate(start time.Time, timeline []time.Time) time.Time {
	if len(timeline) > 0 && !timeline[0].After(start) {
		return start.AddDate(0, 0, -7)
	}
	return start
}

func validate(req Request, symbols []string) (domain.Status, string) {
	switch {
	case req.StartDate.IsZero() || req.EndDate.IsZero():
		return domain.StatusInvalidDates, "start_date and end_date are required"
	case !req.EndDate.After(req.StartDate):
		return domain.StatusInvalidDates, "end_date must be after start_date"
	case math.IsNaN(req.InitialCapital) || math.IsInf(req.InitialCapital, 0) || req.InitialCapital <= 0:
		return domain.StatusInvalidInput, "initial_capital must be a positive number"
	case len(symbols) == 0:
		return domain.StatusInvalidInput, "at least one symbol is required"
	case math.IsNaN(req.SignalThreshold) || req.SignalThreshold < 0:
		return domain.StatusInvalidInput, "signal_threshold must be non-negative"
	}
	switch req.Strategy {
	case StrategyBuyAndHold, StrategyFollowAI, StrategyHighConfidence, StrategyWeightedAllocation:
		return "", ""
	}
	return domain.StatusInvalidInput, fmt.Sprintf("unknown strategy %q", req.Strategy)
}

func normalizeSymbols(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		key := strings.ToUpper(strings.TrimSpace(s))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// load fetches weekly history per symbol. series holds everything up to the
// end date (warm-up included) for replay; window holds the bars inside
// [start, end]. Symbols with fewer than two window bars are dropped.
func (e *Engine) load(ctx context.Context, req Request, symbols []string) (series, window map[string][]domain.Bar, dropped []string) {
	series = make(map[string][]domain.Bar, len(symbols))
	window = make(map[string][]domain.Bar, len(symbols))
	dropped = []string{}

	horizon := int(math.Ceil(e.now().Sub(req.StartDate).Hours()/24)) + WarmupDays
	for _, symbol := range symbols {
		bars, err := e.fetch(ctx, domain.HistoryRequest{
			Symbol:      symbol,
			Interval:    domain.IntervalWeek,
			HorizonDays: horizon,
		})
		if err != nil {
			e.log.Warn().Err(err).Str("symbol", symbol).Msg("Weekly history unavailable, dropping symbol")
			dropped = append(dropped, symbol)
			continue
		}

		sorted := make([]domain.Bar, 0, len(bars))
		for _, b := range bars {
			if !b.Date.After(req.EndDate) {
				sorted = append(sorted, b)
			}
		}
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

		var inWindow []domain.Bar
		for _, b := range sorted {
			if !b.Date.Before(req.StartDate) {
				inWindow = append(inWindow, b)
			}
		}
		if len(inWindow) < 2 {
			e.log.Debug().Str("symbol", symbol).Int("bars", len(inWindow)).Msg("Too few bars in window, dropping symbol")
			dropped = append(dropped, symbol)
			continue
		}
		series[symbol] = sorted
		window[symbol] = inWindow
	}
	return series, window, dropped
}

func (e *Engine) fetch(ctx context.Context, req domain.HistoryRequest) ([]domain.Bar, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	bars, _, err := e.provider.GetHistory(ctx, req)
	return bars, err
}
