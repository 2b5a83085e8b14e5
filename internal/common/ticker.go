// Package common provides shared utilities across the application.
package common

import (
	"regexp"
	"strings"
)

// symbolPattern matches US-style ticker symbols: 1 to 5 uppercase letters.
var symbolPattern = regexp.MustCompile(`^[A-Z]{1,5}$`)

// ValidSymbol reports whether s is a well-formed ticker symbol.
func ValidSymbol(s string) bool {
	return symbolPattern.MatchString(s)
}

// NormalizeSymbol uppercases and trims a user-supplied symbol.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// KnownSymbols maps widely covered ticker symbols to their company names.
// Used by the heuristic extraction fallback and for display labels when
// the market data provider does not return a name.
var KnownSymbols = map[string]string{
	"AAPL":  "Apple Inc.",
	"GOOGL": "Alphabet Inc.",
	"MSFT":  "Microsoft Corporation",
	"TSLA":  "Tesla, Inc.",
	"AMZN":  "Amazon.com, Inc.",
	"NVDA":  "NVIDIA Corporation",
	"META":  "Meta Platforms, Inc.",
	"NFLX":  "Netflix, Inc.",
	"AMD":   "Advanced Micro Devices, Inc.",
	"INTC":  "Intel Corporation",
}

// CompanyKeywords maps lowercase company mentions to ticker symbols,
// for transcripts that name the company rather than the symbol.
var CompanyKeywords = map[string]string{
	"apple":     "AAPL",
	"alphabet":  "GOOGL",
	"google":    "GOOGL",
	"microsoft": "MSFT",
	"tesla":     "TSLA",
	"amazon":    "AMZN",
	"nvidia":    "NVDA",
	"meta":      "META",
	"facebook":  "META",
	"netflix":   "NFLX",
	"amd":       "AMD",
	"intel":     "INTC",
}

// CompanyName returns the display name for a known symbol, or the symbol
// itself when it is not in the known set.
func CompanyName(symbol string) string {
	if name, ok := KnownSymbols[symbol]; ok {
		return name
	}
	return symbol
}
