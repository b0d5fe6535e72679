package recommendation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/modules/indicators"
	"github.com/aristath/advisor/internal/modules/patterns"
	"github.com/aristath/advisor/internal/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// History horizons fetched for each symbol
const (
	DailyHorizonDays  = 365
	WeeklyHorizonDays = 1825
)

// DefaultProviderTimeout bounds each market data call
const DefaultProviderTimeout = 30 * time.Second

// HistoryWriter records produced recommendations
type HistoryWriter interface {
	Append(ctx context.Context, batchID string, recs []Recommendation) error
}

// Service produces rebalance recommendations
type Service struct {
	provider domain.MarketDataProvider
	engine   *indicators.Engine
	detector *patterns.Detector
	history  HistoryWriter
	timeout  time.Duration
	log      zerolog.Logger
}

// NewService creates a recommendation service
func NewService(
	provider domain.MarketDataProvider,
	engine *indicators.Engine,
	detector *patterns.Detector,
	log zerolog.Logger,
) *Service {
	return &Service{
		provider: provider,
		engine:   engine,
		detector: detector,
		timeout:  DefaultProviderTimeout,
		log:      log.With().Str("service", "recommendation").Logger(),
	}
}

// SetHistory enables the recommendation log
func (s *Service) SetHistory(h HistoryWriter) {
	s.history = h
}

// SetTimeout changes the per-call market data timeout
func (s *Service) SetTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

// WithProvider returns a copy of the service reading from another provider.
// The backtest uses it to replay history without look-ahead.
func (s *Service) WithProvider(p domain.MarketDataProvider) *Service {
	clone := *s
	clone.provider = p
	clone.history = nil
	return &clone
}

// RecommendRebalance scores every symbol in the union of holdings and
// targets. A threshold <= 0 means DefaultThreshold. It never panics: an
// unexpected failure is reported as status error.
func (s *Service) RecommendRebalance(
	ctx context.Context,
	holdings map[string]float64,
	targets map[string]float64,
	threshold float64,
) (report Report) {
	defer utils.OperationTimer("rebalance_recommendation", s.log)()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("Rebalance recommendation panicked")
			report = Report{
				Status:          domain.StatusError,
				Message:         fmt.Sprintf("recommendation failed: %v", r),
				Recommendations: []Recommendation{},
			}
		}
	}()

	if math.IsNaN(threshold) || threshold <= 0 {
		threshold = DefaultThreshold
	}
	current, err := normalizeWeights(holdings)
	if err != nil {
		return invalidReport(fmt.Sprintf("invalid holdings: %v", err))
	}
	target, err := normalizeWeights(targets)
	if err != nil {
		return invalidReport(fmt.Sprintf("invalid targets: %v", err))
	}

	symbols := unionSymbols(current, target)
	recs := make([]Recommendation, 0, len(symbols))
	for _, symbol := range symbols {
		recs = append(recs, s.recommend(ctx, symbol, current[symbol], target[symbol], threshold))
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].CompositeScore > recs[j].CompositeScore
	})

	batchID := uuid.New().String()
	if s.history != nil && len(recs) > 0 {
		if err := s.history.Append(ctx, batchID, recs); err != nil {
			s.log.Warn().Err(err).Str("batch_id", batchID).Msg("Failed to log recommendations")
		}
	}

	s.log.Info().
		Int("symbols", len(recs)).
		Str("batch_id", batchID).
		Msg("Rebalance recommendations computed")

	return Report{
		Status:          domain.StatusSuccess,
		BatchID:         batchID,
		Recommendations: recs,
		Summary:         summarize(recs),
	}
}

func invalidReport(message string) Report {
	return Report{
		Status:          domain.StatusInvalidInput,
		Message:         message,
		Recommendations: []Recommendation{},
	}
}

// normalizeWeights upper-cases symbols and rejects negative or non-finite weights
func normalizeWeights(weights map[string]float64) (map[string]float64, error) {
	out := make(map[string]float64, len(weights))
	for symbol, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return nil, fmt.Errorf("weight for %s must be a non-negative number", symbol)
		}
		key := strings.ToUpper(strings.TrimSpace(symbol))
		if key == "" {
			return nil, errors.New("empty symbol")
		}
		out[key] += w
	}
	return out, nil
}

func unionSymbols(a, b map[string]float64) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var symbols []string
	for _, m := range []map[string]float64{a, b} {
		for symbol := range m {
			if !seen[symbol] {
				seen[symbol] = true
				symbols = append(symbols, symbol)
			}
		}
	}
	sort.Strings(symbols)
	return symbols
}

// recommend scores one symbol, falling back to pure drift whenever the
// technical path is unavailable
func (s *Service) recommend(ctx context.Context, symbol string, current, target, threshold float64) Recommendation {
	alloc := Allocation{
		Current:    round(current),
		Target:     round(target),
		Difference: round(current - target),
	}
	if IsStablecoin(symbol) {
		return driftRecommendation(symbol, alloc, current-target, threshold, "stablecoin scored on allocation drift")
	}

	rec, err := s.safeTechnical(ctx, symbol, alloc, current-target, threshold)
	if err != nil {
		s.log.Debug().Err(err).Str("symbol", symbol).Msg("Falling back to allocation drift")
		return driftRecommendation(symbol, alloc, current-target, threshold, fmt.Sprintf("technical analysis unavailable: %v", err))
	}
	return rec
}

func driftRecommendation(symbol string, alloc Allocation, drift, threshold float64, why string) Recommendation {
	action := driftAction(drift, threshold)
	priority := PriorityMedium
	if action == ActionHold {
		priority = PriorityLow
	}
	return Recommendation{
		Asset:          symbol,
		Action:         action,
		Priority:       priority,
		Confidence:     round(driftConfidence(drift)),
		CompositeScore: round(driftComposite(drift)),
		Timeframe:      TimeframeAllocation,
		Allocation:     alloc,
		Source:         SourceDrift,
		Reason:         fmt.Sprintf("%s (drift %+.2f%%)", why, drift*100),
	}
}

func (s *Service) safeTechnical(ctx context.Context, symbol string, alloc Allocation, drift, threshold float64) (rec Recommendation, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("technical analysis panicked: %v", r)
		}
	}()
	return s.technical(ctx, symbol, alloc, drift, threshold)
}

func (s *Service) technical(ctx context.Context, symbol string, alloc Allocation, drift, threshold float64) (Recommendation, error) {
	a, err := s.Analyze(ctx, symbol)
	if err != nil {
		return Recommendation{}, err
	}
	ind := a.Daily

	signal, consensus := dailySignal(ind, a.Patterns)
	weekly := weeklySignal(a.Weekly)
	timeframe, strong := classifyTimeframe(signal, weekly)

	confidence := technicalConfidence(confidenceInputs{
		signal:       signal,
		consensus:    consensus,
		agree:        sameDirection(signal, weekly),
		volatility:   ind.Volatility,
		strong:       strong,
		bullishSetup: ind.GoldenCross || a.Patterns.Has(patterns.NameInverseHeadShoulder),
	})

	patternBuy, patternSell := patternScores(a.Patterns)
	buyScore := ind.BuyScore + patternBuy
	sellScore := ind.SellScore + patternSell

	var action Action
	var priority Priority
	var reason string
	switch {
	case signal > actionThreshold:
		action = ActionBuy
	case signal < -actionThreshold:
		action = ActionSell
	}
	if action != "" {
		priority = PriorityMedium
		if math.Abs(signal) > highPriority {
			priority = PriorityHigh
		}
		reason = fmt.Sprintf("%d bullish / %d bearish indicators, %d patterns, %s",
			ind.Bullish, ind.Bearish, len(a.Patterns.Patterns), timeframe)
	} else {
		action = driftAction(drift, threshold)
		priority = PriorityMedium
		if action == ActionHold {
			priority = PriorityLow
		}
		reason = fmt.Sprintf("signal %.1f inside ±%.0f, allocation drift %+.2f%%", signal, actionThreshold, drift*100)
	}

	matching := buyScore
	if signal < 0 {
		matching = sellScore
	}

	return Recommendation{
		Asset:          symbol,
		Action:         action,
		Priority:       priority,
		SignalStrength: round(signal),
		WeeklySignal:   round(weekly),
		Confidence:     round(confidence),
		BuyScore:       round(buyScore),
		SellScore:      round(sellScore),
		CompositeScore: round(compositeScore(signal, confidence, matching, drift)),
		Timeframe:      timeframe,
		Volatility:     ind.Volatility,
		Allocation:     alloc,
		Metrics:        ind.Snapshots,
		Patterns:       a.Patterns.Patterns,
		Source:         SourceTechnical,
		Reason:         reason,
	}, nil
}

// Analyze computes daily indicators and patterns for symbol, plus the weekly
// indicators when weekly history is available. It fails with domain.ErrNoData
// when the daily series is too short.
func (s *Service) Analyze(ctx context.Context, symbol string) (*Analysis, error) {
	daily, interval, err := s.fetch(ctx, domain.HistoryRequest{
		Symbol:      symbol,
		HorizonDays: DailyHorizonDays,
		Interval:    domain.IntervalDay,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch daily history for %s: %w", symbol, err)
	}
	if len(daily) < indicators.MinBars {
		return nil, fmt.Errorf("%w: %s has %d daily bars", domain.ErrNoData, symbol, len(daily))
	}

	a := &Analysis{
		Symbol:   symbol,
		Daily:    s.engine.Compute(symbol, interval, daily),
		Patterns: s.detector.Detect(symbol, daily),
	}

	weekly, weeklyInterval, err := s.fetch(ctx, domain.HistoryRequest{
		Symbol:      symbol,
		HorizonDays: WeeklyHorizonDays,
		Interval:    domain.IntervalWeek,
	})
	switch {
	case err != nil:
		s.log.Debug().Err(err).Str("symbol", symbol).Msg("Weekly history unavailable")
	case len(weekly) >= indicators.MinBars:
		w := s.engine.Compute(symbol, weeklyInterval, weekly)
		a.Weekly = &w
	}
	return a, nil
}

func (s *Service) fetch(ctx context.Context, req domain.HistoryRequest) ([]domain.Bar, domain.Interval, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.provider.GetHistory(ctx, req)
}
