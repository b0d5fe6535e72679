package backtest

import (
	"math"
	"sort"
	"time"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/modules/recommendation"
)

// simulation holds the cash and positions of one run and the carried-forward
// price of every symbol
type simulation struct {
	symbols   []string
	window    map[string][]domain.Bar
	cursor    map[string]int
	timeline  []time.Time
	prices    map[string]float64
	positions map[string]float64
	cash      float64
}

func newSimulation(capital float64, window map[string][]domain.Bar) *simulation {
	sim := &simulation{
		window:    window,
		cursor:    make(map[string]int, len(window)),
		prices:    make(map[string]float64, len(window)),
		positions: make(map[string]float64, len(window)),
		cash:      capital,
	}

	seen := make(map[int64]bool)
	for symbol, bars := range window {
		sim.symbols = append(sim.symbols, symbol)
		for _, b := range bars {
			key := b.Date.UnixNano()
			if !seen[key] {
				seen[key] = true
				sim.timeline = append(sim.timeline, b.Date)
			}
		}
	}
	sort.Strings(sim.symbols)
	sort.Slice(sim.timeline, func(i, j int) bool { return sim.timeline[i].Before(sim.timeline[j]) })
	return sim
}

// advance moves every price cursor up to date and returns the step the
// strategy decides on
func (s *simulation) advance(index int, date time.Time) Step {
	for _, symbol := range s.symbols {
		bars := s.window[symbol]
		i := s.cursor[symbol]
		for i < len(bars) && !bars[i].Date.After(date) {
			s.prices[symbol] = bars[i].Close
			i++
		}
		s.cursor[symbol] = i
	}

	prices := make(map[string]float64, len(s.prices))
	for k, v := range s.prices {
		prices[k] = v
	}
	positions := make(map[string]float64, len(s.positions))
	for k, v := range s.positions {
		positions[k] = v
	}
	return Step{
		Index:     index,
		Date:      date,
		Symbols:   s.symbols,
		Prices:    prices,
		Positions: positions,
		Cash:      s.cash,
	}
}

// execute applies intents: every sell first, then the buys split the cash
// by weight. Symbols without a price yet are skipped.
func (s *simulation) execute(date time.Time, intents []TradeIntent) []Trade {
	var trades []Trade

	for _, intent := range intents {
		if intent.Action != string(recommendation.ActionSell) {
			continue
		}
		shares := s.positions[intent.Symbol]
		price := s.prices[intent.Symbol]
		if shares <= 0 || price <= 0 {
			continue
		}
		s.cash += shares * price
		delete(s.positions, intent.Symbol)
		trades = append(trades, Trade{Date: date, Symbol: intent.Symbol, Action: intent.Action, Shares: shares, Price: price})
	}

	var buys []TradeIntent
	total := 0.0
	seen := make(map[string]bool)
	for _, intent := range intents {
		if intent.Action != string(recommendation.ActionBuy) || seen[intent.Symbol] {
			continue
		}
		if s.prices[intent.Symbol] <= 0 || intent.Weight <= 0 || math.IsNaN(intent.Weight) {
			continue
		}
		seen[intent.Symbol] = true
		buys = append(buys, intent)
		total += intent.Weight
	}
	if len(buys) == 0 || s.cash <= 0 {
		return trades
	}

	budget := s.cash
	for _, intent := range buys {
		price := s.prices[intent.Symbol]
		alloc := budget * intent.Weight / total
		shares := alloc / price
		s.positions[intent.Symbol] += shares
		s.cash -= alloc
		trades = append(trades, Trade{Date: date, Symbol: intent.Symbol, Action: intent.Action, Shares: shares, Price: price})
	}
	s.cash = math.Max(0, s.cash)
	return trades
}

func (s *simulation) value() float64 {
	total := s.cash
	for symbol, shares := range s.positions {
		total += shares * s.prices[symbol]
	}
	return total
}
