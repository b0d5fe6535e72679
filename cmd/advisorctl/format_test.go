package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUSD(t *testing.T) {
	tests := []struct {
		amount   float64
		expected string
	}{
		{amount: 1234.5, expected: "$1,234.50"},
		{amount: 0, expected: "$0.00"},
		{amount: -12.5, expected: "-$12.50"},
		{amount: 0.004, expected: "$0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, usd(tt.amount))
		})
	}
}

func TestSignedUSD(t *testing.T) {
	assert.Equal(t, "+$10.00", signedUSD(10))
	assert.Equal(t, "-$10.00", signedUSD(-10))
}

func TestParseWeights(t *testing.T) {
	weights, err := parseWeights("btc=0.5, ETH = 0.25,,")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"BTC": 0.5, "ETH": 0.25}, weights)

	_, err = parseWeights("BTC")
	assert.Error(t, err)

	_, err = parseWeights("BTC=half")
	assert.Error(t, err)

	_, err = parseWeights("=0.5")
	assert.Error(t, err)
}
