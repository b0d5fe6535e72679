package backtest

import (
	"context"
	"fmt"
	"math"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/modules/recommendation"
)

// Strategy turns the portfolio state at one step into trade intents
type Strategy interface {
	Name() string
	Decide(ctx context.Context, step Step) ([]TradeIntent, error)
}

// Recommender is the slice of the recommendation service the AI strategies use
type Recommender interface {
	RecommendRebalance(ctx context.Context, holdings, targets map[string]float64, threshold float64) recommendation.Report
}

// NewStrategy builds a strategy by name. rec may be nil for buy_and_hold.
func NewStrategy(name string, signalThreshold float64, rec Recommender) (Strategy, error) {
	switch name {
	case StrategyBuyAndHold:
		return buyAndHold{}, nil
	case StrategyFollowAI, StrategyHighConfidence, StrategyWeightedAllocation:
		if rec == nil {
			return nil, fmt.Errorf("strategy %s needs a recommendation service", name)
		}
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}

	s := &recommendationStrategy{name: name, rec: rec}
	switch name {
	case StrategyFollowAI:
		s.pick = aboveSignal(signalThreshold)
	case StrategyHighConfidence:
		s.pick = aboveSignal(HighConfidenceSignal)
	case StrategyWeightedAllocation:
		s.pick = signalWeighted
	}
	return s, nil
}

// buyAndHold spends all cash equally on the first step and never trades again
type buyAndHold struct{}

func (buyAndHold) Name() string { return StrategyBuyAndHold }

func (buyAndHold) Decide(_ context.Context, step Step) ([]TradeIntent, error) {
	if step.Index != 0 {
		return nil, nil
	}
	intents := make([]TradeIntent, 0, len(step.Symbols))
	for _, symbol := range step.Symbols {
		if step.Prices[symbol] > 0 {
			intents = append(intents, TradeIntent{Symbol: symbol, Action: string(recommendation.ActionBuy), Weight: 1})
		}
	}
	return intents, nil
}

// recommendationStrategy asks the recommendation engine for advice against
// an equal-weight target and keeps what pick accepts
type recommendationStrategy struct {
	name string
	rec  Recommender
	pick func(recommendation.Recommendation) (TradeIntent, bool)
}

func (s *recommendationStrategy) Name() string { return s.name }

func (s *recommendationStrategy) Decide(ctx context.Context, step Step) ([]TradeIntent, error) {
	targets := make(map[string]float64, len(step.Symbols))
	for _, symbol := range step.Symbols {
		targets[symbol] = 1 / float64(len(step.Symbols))
	}

	report := s.rec.RecommendRebalance(ctx, step.Holdings(), targets, 0)
	if report.Status != domain.StatusSuccess {
		return nil, fmt.Errorf("recommendations unavailable: %s", report.Message)
	}

	var intents []TradeIntent
	for _, r := range report.Recommendations {
		if intent, ok := s.pick(r); ok {
			intents = append(intents, intent)
		}
	}
	return intents, nil
}

func aboveSignal(threshold float64) func(recommendation.Recommendation) (TradeIntent, bool) {
	return func(r recommendation.Recommendation) (TradeIntent, bool) {
		if r.Action == recommendation.ActionHold || math.Abs(r.SignalStrength) <= threshold {
			return TradeIntent{}, false
		}
		return TradeIntent{Symbol: r.Asset, Action: string(r.Action), Weight: 1}, true
	}
}

// signalWeighted accepts every buy or sell; buys are sized by |signal| with
// a floor of 1 so drift-only advice still gets a share.
func signalWeighted(r recommendation.Recommendation) (TradeIntent, bool) {
	if r.Action == recommendation.ActionHold {
		return TradeIntent{}, false
	}
	return TradeIntent{
		Symbol: r.Asset,
		Action: string(r.Action),
		Weight: math.Max(1, math.Abs(r.SignalStrength)),
	}, true
}
