package utils

import "strings"

// ParseSymbols splits a comma or whitespace separated list into upper-case
// symbols, dropping blanks and duplicates while keeping first-seen order.
// Returns nil when nothing remains.
func ParseSymbols(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})

	var result []string
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		symbol := strings.ToUpper(strings.TrimSpace(f))
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true
		result = append(result, symbol)
	}
	return result
}
