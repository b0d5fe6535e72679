package backtest

import (
	"github.com/aristath/advisor/internal/modules/recommendation"
	"github.com/aristath/advisor/pkg/formulas"
)

func computeMetrics(initial float64, curve []EquityPoint, trades []Trade) Metrics {
	values := make([]float64, len(curve))
	for i, p := range curve {
		values[i] = p.Value
	}
	final := values[len(values)-1]
	returns := formulas.CalculateReturns(values)

	m := Metrics{
		TotalReturn: formulas.Round((final-initial)/initial, 6),
		Sharpe:      formulas.Round(formulas.CalculatePeriodSharpe(returns), 6),
		CAGR:        formulas.Round(formulas.CalculateCAGR(initial, final, len(values)-1, PeriodsPerYear), 6),
		WinRate:     formulas.Round(winRate(trades), 6),
		TotalTrades: len(trades),
		FinalValue:  formulas.Round(final, 8),
	}
	if sharpe := formulas.CalculateSharpeRatio(returns, 0, PeriodsPerYear); sharpe != nil {
		m.AnnualizedSharpe = formulas.Round(*sharpe, 6)
	}
	if dd := formulas.CalculateMaxDrawdown(values); dd != nil {
		m.MaxDrawdown = formulas.Round(*dd, 6)
	}
	return m
}

// winRate pairs each buy with the first later sell of the same symbol and
// returns the share of pairs that sold above the buy price. Unmatched buys
// are ignored; 0 when nothing was closed.
func winRate(trades []Trade) float64 {
	pairs, wins := 0, 0
	for i, buy := range trades {
		if buy.Action != string(recommendation.ActionBuy) {
			continue
		}
		for _, sell := range trades[i+1:] {
			if sell.Symbol != buy.Symbol || sell.Action != string(recommendation.ActionSell) || !sell.Date.After(buy.Date) {
				continue
			}
			pairs++
			if sell.Price > buy.Price {
				wins++
			}
			break
		}
	}
	if pairs == 0 {
		return 0
	}
	return float64(wins) / float64(pairs)
}
