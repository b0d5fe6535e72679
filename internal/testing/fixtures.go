package testing

import (
	"math"
	"time"

	"github.com/aristath/advisor/internal/domain"
)

// FixtureStart is the date of the first bar generated by the fixtures
var FixtureStart = time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)

// FlatBars returns n bars at a constant price
func FlatBars(n int, price float64, step time.Duration) []domain.Bar {
	return SeriesBars(n, step, func(int) float64 { return price })
}

// TrendBars returns n bars moving linearly from start by delta per bar
func TrendBars(n int, start, delta float64, step time.Duration) []domain.Bar {
	return SeriesBars(n, step, func(i int) float64 { return start + delta*float64(i) })
}

// WaveBars returns n bars oscillating around base with the given amplitude and period
func WaveBars(n int, base, amplitude float64, period int, step time.Duration) []domain.Bar {
	return SeriesBars(n, step, func(i int) float64 {
		return base + amplitude*math.Sin(2*math.Pi*float64(i)/float64(period))
	})
}

// SeriesBars builds bars whose close follows closeAt. Highs and lows sit 1%
// around the larger and smaller of open and close; volume is constant.
func SeriesBars(n int, step time.Duration, closeAt func(i int) float64) []domain.Bar {
	bars := make([]domain.Bar, n)
	prev := closeAt(0)
	for i := 0; i < n; i++ {
		c := closeAt(i)
		o := prev
		hi := math.Max(o, c) * 1.01
		lo := math.Min(o, c) * 0.99
		bars[i] = domain.Bar{
			Date:   FixtureStart.Add(time.Duration(i) * step),
			Open:   o,
			High:   hi,
			Low:    lo,
			Close:  c,
			Volume: 1000,
		}
		prev = c
	}
	return bars
}

// Day and Week are the fixture steps for daily and weekly bars
const (
	Day  = 24 * time.Hour
	Week = 7 * Day
)

// Tx builds a transaction on a YYYY-MM-DD date
func Tx(exchange, asset string, typ domain.TransactionType, amount, price float64, date string) domain.Transaction {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return domain.Transaction{
		Exchange: exchange,
		Asset:    asset,
		Type:     typ,
		Amount:   amount,
		PriceUSD: price,
		Date:     d,
	}
}
