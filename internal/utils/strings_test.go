package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSymbols(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty string", input: "", expected: nil},
		{name: "only separators", input: " , ,, ", expected: nil},
		{name: "single value", input: "btc", expected: []string{"BTC"}},
		{name: "comma separated", input: "BTC,eth", expected: []string{"BTC", "ETH"}},
		{name: "mixed spacing", input: "BTC,  eth \tSOL", expected: []string{"BTC", "ETH", "SOL"}},
		{name: "duplicates keep first", input: "eth,BTC,ETH", expected: []string{"ETH", "BTC"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseSymbols(tt.input))
		})
	}
}
