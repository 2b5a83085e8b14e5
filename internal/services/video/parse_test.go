package video

import (
	"testing"

	"github.com/ternarybob/specto/internal/models"
)

func TestParseExtractionResponsePlainJSON(t *testing.T) {
	response := `{
		"extracted_stocks": [
			{"symbol": "AAPL", "name": "Apple Inc.", "confidence": "high", "recommendation": "buy"},
			{"symbol": "TSLA", "name": "Tesla, Inc.", "confidence": "medium", "recommendation": "hold"}
		],
		"summary": "Discussion of big tech."
	}`

	tickers, err := parseExtractionResponse(response)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(tickers) != 2 {
		t.Fatalf("expected 2 tickers, got %d", len(tickers))
	}
	if tickers[0].Symbol != "AAPL" || tickers[0].Confidence != models.ConfidenceHigh {
		t.Errorf("unexpected first ticker: %+v", tickers[0])
	}
	if tickers[1].Recommendation != models.RecommendationHold {
		t.Errorf("unexpected recommendation: %+v", tickers[1])
	}
}

func TestParseExtractionResponseFencedJSON(t *testing.T) {
	response := "```json\n" + `{
		"extracted_stocks": [
			{"symbol": "NVDA", "name": "NVIDIA Corporation", "confidence": "HIGH", "recommendation": "BUY"}
		],
		"summary": ""
	}` + "\n```"

	tickers, err := parseExtractionResponse(response)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(tickers) != 1 {
		t.Fatalf("expected 1 ticker, got %d", len(tickers))
	}
	// Vocabulary fields are lowered during parsing
	if tickers[0].Confidence != models.ConfidenceHigh {
		t.Errorf("expected lowered confidence, got %q", tickers[0].Confidence)
	}
	if tickers[0].Recommendation != models.RecommendationBuy {
		t.Errorf("expected lowered recommendation, got %q", tickers[0].Recommendation)
	}
}

func TestParseExtractionResponseSurroundingProse(t *testing.T) {
	response := `Here is what I found in the video:

{"extracted_stocks": [{"symbol": "MSFT", "name": "Microsoft Corporation", "confidence": "low", "sentiment": "positive"}], "summary": "brief"}

Let me know if you need more detail.`

	tickers, err := parseExtractionResponse(response)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(tickers) != 1 {
		t.Fatalf("expected 1 ticker, got %d", len(tickers))
	}
	// Legacy sentiment vocabulary maps onto recommendations
	if tickers[0].Recommendation != models.RecommendationBuy {
		t.Errorf("expected positive sentiment to map to buy, got %q", tickers[0].Recommendation)
	}
}

func TestParseExtractionResponseEmptyList(t *testing.T) {
	tickers, err := parseExtractionResponse(`{"extracted_stocks": [], "summary": "no stocks discussed"}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(tickers) != 0 {
		t.Errorf("expected no tickers, got %d", len(tickers))
	}
}

func TestParseExtractionResponseNoJSON(t *testing.T) {
	if _, err := parseExtractionResponse("The video does not discuss any stocks."); err == nil {
		t.Fatal("expected error for response without JSON")
	}
}

func TestCleanExtractionMarkdownFences(t *testing.T) {
	in := "```json\n{\"a\": 1}\n```"
	if got := cleanExtractionMarkdownFences(in); got != `{"a": 1}` {
		t.Errorf("unexpected cleaned text: %q", got)
	}

	// Unfenced text passes through
	if got := cleanExtractionMarkdownFences(`{"a": 1}`); got != `{"a": 1}` {
		t.Errorf("unexpected cleaned text: %q", got)
	}
}
