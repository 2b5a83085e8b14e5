package extraction

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/specto/internal/interfaces"
	"github.com/ternarybob/specto/internal/models"
)

// stubLLM returns a scripted response or error for every Chat call.
type stubLLM struct {
	response string
	err      error
	calls    int
}

func (s *stubLLM) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	s.calls++
	return s.response, s.err
}

func (s *stubLLM) HealthCheck(ctx context.Context) error { return nil }
func (s *stubLLM) Close() error                          { return nil }

func contentResult(text string) *models.AnalysisResult {
	return &models.AnalysisResult{
		Mode:   models.ModeContentOnly,
		Report: models.Report{RawMarkdown: text},
	}
}

func TestExtractTickersFromReportAIPath(t *testing.T) {
	llm := &stubLLM{response: `{
		"extracted_stocks": [
			{"symbol": "AAPL", "name": "Apple Inc.", "confidence": "high", "recommendation": "buy"},
			{"symbol": "toolong6", "name": "Bad", "confidence": "high", "recommendation": "buy"},
			{"symbol": "msft", "name": "", "confidence": "very sure", "recommendation": "strong buy"}
		]
	}`}
	engine := NewEngine(llm, arbor.NewLogger())

	tickers := engine.ExtractTickersFromReport(context.Background(), contentResult("report text"))

	if len(tickers) != 2 {
		t.Fatalf("expected 2 valid tickers, got %d: %+v", len(tickers), tickers)
	}
	if tickers[0].Symbol != "AAPL" || tickers[0].Recommendation != models.RecommendationBuy {
		t.Errorf("unexpected first ticker: %+v", tickers[0])
	}
	// Lowercase symbol is normalized, out-of-vocabulary fields reset
	if tickers[1].Symbol != "MSFT" {
		t.Errorf("expected normalized MSFT, got %q", tickers[1].Symbol)
	}
	if tickers[1].Confidence != models.ConfidenceMedium {
		t.Errorf("expected medium confidence default, got %q", tickers[1].Confidence)
	}
	if tickers[1].Recommendation != models.RecommendationNone {
		t.Errorf("expected none recommendation default, got %q", tickers[1].Recommendation)
	}
	if tickers[1].Name != "Microsoft Corporation" {
		t.Errorf("expected name filled from known symbols, got %q", tickers[1].Name)
	}
}

func TestExtractTickersFromReportCapsAtTen(t *testing.T) {
	items := ""
	symbols := []string{"AAPL", "GOOGL", "MSFT", "TSLA", "AMZN", "NVDA", "META", "NFLX", "AMD", "INTC", "F", "GE"}
	for i, sym := range symbols {
		if i > 0 {
			items += ","
		}
		items += fmt.Sprintf(`{"symbol": %q, "name": "", "confidence": "high", "recommendation": "buy"}`, sym)
	}
	llm := &stubLLM{response: `{"extracted_stocks": [` + items + `]}`}
	engine := NewEngine(llm, arbor.NewLogger())

	tickers := engine.ExtractTickersFromReport(context.Background(), contentResult("report"))
	if len(tickers) != MaxExtractedTickers {
		t.Errorf("expected cap of %d, got %d", MaxExtractedTickers, len(tickers))
	}
}

func TestExtractTickersFromReportFallbackOnAIError(t *testing.T) {
	llm := &stubLLM{err: errors.New("model unavailable")}
	engine := NewEngine(llm, arbor.NewLogger())

	tickers := engine.ExtractTickersFromReport(context.Background(),
		contentResult("The report is bullish on AAPL going into earnings."))

	if len(tickers) != 1 {
		t.Fatalf("expected fallback to find AAPL, got %+v", tickers)
	}
	if tickers[0].Symbol != "AAPL" {
		t.Errorf("expected AAPL, got %q", tickers[0].Symbol)
	}
	if tickers[0].Recommendation != models.RecommendationBuy {
		t.Errorf("expected buy from bullish context, got %q", tickers[0].Recommendation)
	}
}

func TestExtractTickersFromReportFallbackOnEmptyAIResult(t *testing.T) {
	llm := &stubLLM{response: `{"extracted_stocks": []}`}
	engine := NewEngine(llm, arbor.NewLogger())

	tickers := engine.ExtractTickersFromReport(context.Background(),
		contentResult("Apple remains the anchor position."))

	if len(tickers) != 1 || tickers[0].Symbol != "AAPL" {
		t.Fatalf("expected company-keyword fallback to find AAPL, got %+v", tickers)
	}
}

func TestExtractTickersFromReportUnparseableAI(t *testing.T) {
	llm := &stubLLM{response: "I could not find any structured data."}
	engine := NewEngine(llm, arbor.NewLogger())

	tickers := engine.ExtractTickersFromReport(context.Background(),
		contentResult("Sell TSLA before the delivery numbers."))

	if len(tickers) != 1 || tickers[0].Symbol != "TSLA" {
		t.Fatalf("expected fallback to find TSLA, got %+v", tickers)
	}
	if tickers[0].Recommendation != models.RecommendationSell {
		t.Errorf("expected sell from context, got %q", tickers[0].Recommendation)
	}
}

func TestExtractTickersFromReportEmptyText(t *testing.T) {
	engine := NewEngine(nil, arbor.NewLogger())
	if got := engine.ExtractTickersFromReport(context.Background(), contentResult("")); len(got) != 0 {
		t.Errorf("expected no tickers for empty text, got %+v", got)
	}
}
