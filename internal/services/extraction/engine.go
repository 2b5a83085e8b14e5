// Package extraction identifies ticker symbols discussed in analysis
// report text. It prefers an AI extraction path and falls back to a
// deterministic keyword scan when the AI path is unavailable or returns
// nothing usable.
package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/specto/internal/common"
	"github.com/ternarybob/specto/internal/interfaces"
	"github.com/ternarybob/specto/internal/models"
)

// MaxExtractedTickers caps the AI extraction path.
const MaxExtractedTickers = 10

// MaxFallbackTickers caps the deterministic fallback path.
const MaxFallbackTickers = 5

// Engine extracts tickers from report text and scores report accuracy.
type Engine struct {
	llm    interfaces.LLMService
	logger arbor.ILogger
}

// NewEngine creates a new extraction engine. llm may be nil, in which
// case only the fallback paths run.
func NewEngine(llm interfaces.LLMService, logger arbor.ILogger) *Engine {
	return &Engine{
		llm:    llm,
		logger: logger,
	}
}

const extractionSystemPrompt = `You extract stock tickers from investment report text. Respond with JSON only, no prose.`

func extractionUserPrompt(reportText string) string {
	return fmt.Sprintf(`Extract every stock discussed in the following report. Return JSON in
exactly this shape, with at most %d items:
{
  "extracted_stocks": [
    {"symbol": "AAPL", "name": "Apple Inc.", "confidence": "high/medium/low", "recommendation": "buy/sell/hold/none"}
  ]
}

Report:
%s`, MaxExtractedTickers, reportText)
}

// ExtractTickersFromReport returns the tickers discussed in a cached
// analysis result. The AI path is tried first; any failure, unparseable
// reply, or empty list triggers the deterministic fallback.
func (e *Engine) ExtractTickersFromReport(ctx context.Context, result *models.AnalysisResult) []models.ExtractedTicker {
	text := reportText(result)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if e.llm != nil {
		tickers, err := e.extractWithAI(ctx, text)
		if err != nil {
			e.logger.Warn().Err(err).Msg("AI ticker extraction failed, using fallback scan")
		} else if len(tickers) > 0 {
			return tickers
		} else {
			e.logger.Debug().Msg("AI ticker extraction returned no items, using fallback scan")
		}
	}

	return FallbackScan(text)
}

// extractWithAI runs the LLM extraction path and validates the reply.
func (e *Engine) extractWithAI(ctx context.Context, text string) ([]models.ExtractedTicker, error) {
	response, err := e.llm.Chat(ctx, []interfaces.Message{
		{Role: "system", Content: extractionSystemPrompt},
		{Role: "user", Content: extractionUserPrompt(text)},
	})
	if err != nil {
		return nil, err
	}

	raw, err := parseExtractionJSON(response)
	if err != nil {
		return nil, err
	}

	return ValidateTickers(raw, MaxExtractedTickers), nil
}

// extractionJSON mirrors the requested reply shape.
type extractionJSON struct {
	ExtractedStocks []struct {
		Symbol         string `json:"symbol"`
		Name           string `json:"name"`
		Confidence     string `json:"confidence"`
		Recommendation string `json:"recommendation"`
	} `json:"extracted_stocks"`
}

var fencePattern = regexp.MustCompile(`(?s)^\s*` + "```" + `(?:json|JSON)?\s*\n?(.*?)\n?\s*` + "```" + `\s*$`)
var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// parseExtractionJSON pulls the JSON object out of a model reply that
// may be fenced or wrapped in prose.
func parseExtractionJSON(response string) ([]models.ExtractedTicker, error) {
	s := strings.TrimSpace(response)
	if matches := fencePattern.FindStringSubmatch(s); len(matches) > 1 {
		s = strings.TrimSpace(matches[1])
	}
	if !strings.HasPrefix(s, "{") {
		match := jsonObjectPattern.FindString(s)
		if match == "" {
			return nil, fmt.Errorf("no JSON object in extraction reply")
		}
		s = match
	}

	var parsed extractionJSON
	if err := json.Unmarshal([]byte(s), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse extraction reply: %w", err)
	}

	tickers := make([]models.ExtractedTicker, 0, len(parsed.ExtractedStocks))
	for _, item := range parsed.ExtractedStocks {
		tickers = append(tickers, models.ExtractedTicker{
			Symbol:         strings.TrimSpace(item.Symbol),
			Name:           strings.TrimSpace(item.Name),
			Confidence:     models.Confidence(strings.ToLower(strings.TrimSpace(item.Confidence))),
			Recommendation: models.Recommendation(strings.ToLower(strings.TrimSpace(item.Recommendation))),
		})
	}
	return tickers, nil
}

// ValidateTickers normalizes and filters raw extraction candidates.
// Invalid symbols drop the item, never the whole batch. Out-of-vocabulary
// confidence and recommendation values are normalized rather than
// dropped. Duplicate symbols keep the first occurrence. The result is
// capped at limit items.
func ValidateTickers(raw []models.ExtractedTicker, limit int) []models.ExtractedTicker {
	seen := make(map[string]bool, len(raw))
	valid := make([]models.ExtractedTicker, 0, len(raw))

	for _, item := range raw {
		symbol := common.NormalizeSymbol(item.Symbol)
		if !common.ValidSymbol(symbol) {
			continue
		}
		if seen[symbol] {
			continue
		}
		seen[symbol] = true

		switch item.Confidence {
		case models.ConfidenceHigh, models.ConfidenceMedium, models.ConfidenceLow:
		default:
			item.Confidence = models.ConfidenceMedium
		}

		switch item.Recommendation {
		case models.RecommendationBuy, models.RecommendationSell, models.RecommendationHold, models.RecommendationNone:
		default:
			item.Recommendation = models.RecommendationNone
		}

		item.Symbol = symbol
		if item.Name == "" {
			item.Name = common.CompanyName(symbol)
		}

		valid = append(valid, item)
		if len(valid) >= limit {
			break
		}
	}

	return valid
}

// reportText picks the richest narrative text available on a result.
func reportText(result *models.AnalysisResult) string {
	if result == nil {
		return ""
	}
	if result.Report.RawMarkdown != "" {
		return result.Report.RawMarkdown
	}
	if result.ContentSummary != nil {
		return result.ContentSummary.RawText
	}
	return ""
}
