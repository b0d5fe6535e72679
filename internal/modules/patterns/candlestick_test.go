package patterns

import (
	"testing"

	"github.com/aristath/advisor/internal/domain"
	"github.com/stretchr/testify/assert"
)

func bar(o, h, l, c float64) domain.Bar {
	return domain.Bar{Open: o, High: h, Low: l, Close: c, Volume: 1000}
}

func names(found []Pattern) []string {
	var out []string
	for _, p := range found {
		out = append(out, p.Name)
	}
	return out
}

func TestDetectCandlesticks(t *testing.T) {
	tests := []struct {
		name     string
		prev     domain.Bar
		last     domain.Bar
		expected []string
	}{
		{name: "doji", prev: bar(10, 11, 9, 10.5), last: bar(10, 11, 9, 10.05), expected: []string{NameDoji}},
		{name: "hammer", prev: bar(10.5, 10.6, 10, 10.1), last: bar(10, 10.25, 9, 10.2), expected: []string{NameHammer}},
		{name: "shooting star", prev: bar(9.8, 10.2, 9.7, 10.1), last: bar(10.2, 11.2, 9.95, 10), expected: []string{NameShootingStar}},
		{name: "bullish engulfing", prev: bar(10.5, 10.6, 9.9, 10), last: bar(9.9, 10.9, 9.8, 10.8), expected: []string{NameBullishEngulfing}},
		{name: "bearish engulfing", prev: bar(10, 10.6, 9.9, 10.5), last: bar(10.6, 10.7, 9.7, 9.8), expected: []string{NameBearishEngulfing}},
		{name: "plain candle", prev: bar(10, 10.6, 9.9, 10.5), last: bar(10.5, 11.2, 10.4, 11), expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found := DetectCandlesticks([]domain.Bar{tt.prev, tt.last})
			assert.Equal(t, tt.expected, names(found))
		})
	}
}

func TestCandlestickVotes(t *testing.T) {
	hammer := DetectCandlesticks([]domain.Bar{bar(10.5, 10.6, 10, 10.1), bar(10, 10.25, 9, 10.2)})
	assert.Equal(t, domain.SignalBuy, hammer[0].Signal)
	assert.Equal(t, 10.0, hammer[0].Weight)
	assert.Equal(t, 0.6, hammer[0].Confidence)

	engulfing := DetectCandlesticks([]domain.Bar{bar(10, 10.6, 9.9, 10.5), bar(10.6, 10.7, 9.7, 9.8)})
	assert.Equal(t, domain.SignalSell, engulfing[0].Signal)
	assert.Equal(t, 15.0, engulfing[0].Weight)
	assert.Equal(t, 0.7, engulfing[0].Confidence)

	doji := DetectCandlesticks([]domain.Bar{bar(10, 11, 9, 10.5), bar(10, 11, 9, 10.05)})
	assert.Zero(t, doji[0].Signed())
}

func TestDetectCandlesticksNeedsTwoBars(t *testing.T) {
	assert.Nil(t, DetectCandlesticks(nil))
	assert.Nil(t, DetectCandlesticks([]domain.Bar{bar(10, 11, 9, 10)}))
}
