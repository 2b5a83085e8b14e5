package extraction

import (
	"regexp"
	"strings"

	"github.com/ternarybob/specto/internal/common"
	"github.com/ternarybob/specto/internal/models"
)

// uppercaseTokenPattern matches candidate ticker tokens in free text.
var uppercaseTokenPattern = regexp.MustCompile(`\b[A-Z]{1,5}\b`)

// Recommendation vocabulary for the fallback sentiment scan.
var (
	buyKeywords  = []string{"buy", "bullish", "long", "accumulate", "overweight", "upside"}
	sellKeywords = []string{"sell", "bearish", "short", "underweight", "downside", "exit"}
	holdKeywords = []string{"hold", "neutral", "maintain", "sideways"}
)

// FallbackScan deterministically extracts tickers from report text when
// the AI path is unavailable. Uppercase tokens are intersected with the
// known-symbol table, company-name keywords catch mentions without an
// explicit ticker, and recommendations come from buy/sell/hold
// vocabulary near each mention. Capped at MaxFallbackTickers items.
func FallbackScan(text string) []models.ExtractedTicker {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	seen := make(map[string]bool)
	var found []models.ExtractedTicker

	add := func(symbol string, confidence models.Confidence) {
		if seen[symbol] || len(found) >= MaxFallbackTickers {
			return
		}
		seen[symbol] = true
		found = append(found, models.ExtractedTicker{
			Symbol:         symbol,
			Name:           common.CompanyName(symbol),
			Confidence:     confidence,
			Recommendation: scanRecommendation(text, symbol),
		})
	}

	// Explicit ticker tokens first; they are the stronger signal.
	for _, token := range uppercaseTokenPattern.FindAllString(text, -1) {
		if _, known := common.KnownSymbols[token]; known {
			add(token, models.ConfidenceHigh)
		}
	}

	// Company names mentioned without a ticker.
	lower := strings.ToLower(text)
	for keyword, symbol := range common.CompanyKeywords {
		if strings.Contains(lower, keyword) {
			add(symbol, models.ConfidenceLow)
		}
	}

	return found
}

// scanRecommendation assigns a stance from buy/sell/hold vocabulary in
// the lines surrounding a symbol mention, defaulting to none.
func scanRecommendation(text, symbol string) models.Recommendation {
	context := mentionContext(text, symbol)
	if context == "" {
		context = strings.ToLower(text)
	}

	if containsAny(context, buyKeywords) {
		return models.RecommendationBuy
	}
	if containsAny(context, sellKeywords) {
		return models.RecommendationSell
	}
	if containsAny(context, holdKeywords) {
		return models.RecommendationHold
	}
	return models.RecommendationNone
}

// mentionContext returns the lowercased lines that mention the symbol or
// its company keywords.
func mentionContext(text, symbol string) string {
	var keywords []string
	for keyword, sym := range common.CompanyKeywords {
		if sym == symbol {
			keywords = append(keywords, keyword)
		}
	}

	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(line, symbol) || containsAny(lower, keywords) {
			b.WriteString(lower)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
