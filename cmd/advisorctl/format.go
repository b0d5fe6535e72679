package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"
)

// usd renders a dollar amount with the currency formatter, rounding to cents
func usd(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "n/a"
	}
	return money.New(int64(math.Round(amount*100)), money.USD).Display()
}

// signedUSD prefixes gains with "+"
func signedUSD(amount float64) string {
	if amount > 0 {
		return "+" + usd(amount)
	}
	return usd(amount)
}

func percent(fraction float64) string {
	return fmt.Sprintf("%.2f%%", fraction*100)
}

// parseWeights reads "BTC=0.5,ETH=0.3" into a map keyed by upper-case symbol
func parseWeights(s string) (map[string]float64, error) {
	weights := make(map[string]float64)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		symbol, raw, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("expected SYMBOL=WEIGHT, got %q", part)
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight for %s: %w", symbol, err)
		}
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" {
			return nil, fmt.Errorf("missing symbol in %q", part)
		}
		weights[symbol] = w
	}
	return weights, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
