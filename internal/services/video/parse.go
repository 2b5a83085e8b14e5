package video

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/ternarybob/specto/internal/models"
)

// extractionResponse mirrors the JSON shape requested by extractionPrompt.
type extractionResponse struct {
	ExtractedStocks []extractedStock `json:"extracted_stocks"`
	Summary         string           `json:"summary"`
}

type extractedStock struct {
	Symbol         string `json:"symbol"`
	Name           string `json:"name"`
	Confidence     string `json:"confidence"`
	Recommendation string `json:"recommendation"`
	Sentiment      string `json:"sentiment"` // legacy field, mapped onto recommendation
}

// cleanExtractionMarkdownFences removes markdown code fences from a model response
func cleanExtractionMarkdownFences(s string) string {
	s = strings.TrimSpace(s)

	fencePattern := regexp.MustCompile(`(?s)^\s*` + "```" + `(?:json|JSON)?\s*\n?(.*?)\n?\s*` + "```" + `\s*$`)
	if matches := fencePattern.FindStringSubmatch(s); len(matches) > 1 {
		s = matches[1]
	}

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	return strings.TrimSpace(s)
}

// jsonObjectPattern finds the outermost JSON object in a response that
// surrounds it with prose.
var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// parseExtractionResponse parses the model's ticker extraction reply.
// Returns the extracted tickers in response order. Items are not yet
// validated; callers apply symbol and confidence checks.
func parseExtractionResponse(response string) ([]models.ExtractedTicker, error) {
	cleaned := cleanExtractionMarkdownFences(response)

	jsonText := cleaned
	if !strings.HasPrefix(strings.TrimSpace(jsonText), "{") {
		match := jsonObjectPattern.FindString(cleaned)
		if match == "" {
			return nil, fmt.Errorf("no JSON object found in extraction response")
		}
		jsonText = match
	}

	var parsed extractionResponse
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse extraction response: %w", err)
	}

	tickers := make([]models.ExtractedTicker, 0, len(parsed.ExtractedStocks))
	for _, stock := range parsed.ExtractedStocks {
		rec := stock.Recommendation
		if rec == "" {
			rec = sentimentToRecommendation(stock.Sentiment)
		}
		tickers = append(tickers, models.ExtractedTicker{
			Symbol:         strings.TrimSpace(stock.Symbol),
			Name:           strings.TrimSpace(stock.Name),
			Confidence:     models.Confidence(strings.ToLower(strings.TrimSpace(stock.Confidence))),
			Recommendation: models.Recommendation(strings.ToLower(strings.TrimSpace(rec))),
		})
	}

	return tickers, nil
}

// sentimentToRecommendation maps the legacy sentiment vocabulary onto
// recommendations for models that answer with the older field.
func sentimentToRecommendation(sentiment string) string {
	switch strings.ToLower(strings.TrimSpace(sentiment)) {
	case "positive":
		return string(models.RecommendationBuy)
	case "negative":
		return string(models.RecommendationSell)
	case "neutral":
		return string(models.RecommendationHold)
	default:
		return string(models.RecommendationNone)
	}
}
