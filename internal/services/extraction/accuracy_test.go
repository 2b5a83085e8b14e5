package extraction

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/specto/internal/models"
)

func TestFallbackScoreNoOutcomes(t *testing.T) {
	analysis := FallbackScore(nil, nil)
	if analysis.Score != 6.0 {
		t.Errorf("expected fixed 6.0 baseline for no outcomes, got %v", analysis.Score)
	}
	if len(analysis.Findings) != 0 {
		t.Errorf("expected no findings, got %+v", analysis.Findings)
	}
}

func TestFallbackScoreFormula(t *testing.T) {
	extracted := []models.ExtractedTicker{
		{Symbol: "AAPL", Recommendation: models.RecommendationBuy},
		{Symbol: "TSLA", Recommendation: models.RecommendationSell},
		{Symbol: "MSFT", Recommendation: models.RecommendationBuy},
	}
	outcomes := []models.MarketData{
		{Symbol: "AAPL", PctChange: 4.2},  // buy + up: positive
		{Symbol: "TSLA", PctChange: 1.1},  // sell + up: negative
		{Symbol: "MSFT", PctChange: -0.5}, // buy + down: negative
	}

	analysis := FallbackScore(extracted, outcomes)

	want := 5 + 3*(1.0/3.0)
	if math.Abs(analysis.Score-want) > 1e-9 {
		t.Errorf("score = %v, want %v", analysis.Score, want)
	}
	if len(analysis.Findings) != 3 {
		t.Fatalf("expected 3 findings, got %d", len(analysis.Findings))
	}
	if analysis.Findings[0].Outcome != "correct" {
		t.Errorf("AAPL finding = %q, want correct", analysis.Findings[0].Outcome)
	}
	if analysis.Findings[1].Outcome != "incorrect" {
		t.Errorf("TSLA finding = %q, want incorrect", analysis.Findings[1].Outcome)
	}
}

func TestFallbackScoreAllPositive(t *testing.T) {
	extracted := []models.ExtractedTicker{
		{Symbol: "AAPL", Recommendation: models.RecommendationBuy},
	}
	outcomes := []models.MarketData{
		{Symbol: "AAPL", PctChange: 2.0},
	}

	analysis := FallbackScore(extracted, outcomes)
	if analysis.Score != 8.0 {
		t.Errorf("score = %v, want 8.0", analysis.Score)
	}
}

func TestOutcomeIsPositive(t *testing.T) {
	tests := []struct {
		name string
		rec  models.Recommendation
		pct  float64
		want bool
	}{
		{"buy up", models.RecommendationBuy, 3, true},
		{"buy down", models.RecommendationBuy, -3, false},
		{"sell down", models.RecommendationSell, -3, true},
		{"sell up", models.RecommendationSell, 3, false},
		{"hold flat", models.RecommendationHold, 1.5, true},
		{"hold moved", models.RecommendationHold, 4, false},
		{"none up", models.RecommendationNone, 0.5, true},
		{"unrated down", "", -0.5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outcomeIsPositive(tt.rec, tt.pct); got != tt.want {
				t.Errorf("outcomeIsPositive(%q, %v) = %v, want %v", tt.rec, tt.pct, got, tt.want)
			}
		})
	}
}

func TestScoreAccuracyAIPath(t *testing.T) {
	llm := &stubLLM{response: `{
		"overall_score": 7.5,
		"analysis_summary": "Mostly on target.",
		"findings": [{"symbol": "AAPL", "outcome": "correct", "comment": "called the rally"}]
	}`}
	engine := NewEngine(llm, arbor.NewLogger())

	analysis := engine.ScoreAccuracy(context.Background(), nil, []models.MarketData{{Symbol: "AAPL", PctChange: 5}}, "report")
	if analysis.Score != 7.5 {
		t.Errorf("score = %v, want 7.5", analysis.Score)
	}
	if len(analysis.Findings) != 1 || analysis.Findings[0].Symbol != "AAPL" {
		t.Errorf("unexpected findings: %+v", analysis.Findings)
	}
}

func TestScoreAccuracyFallsBackOnError(t *testing.T) {
	llm := &stubLLM{err: errors.New("unavailable")}
	engine := NewEngine(llm, arbor.NewLogger())

	analysis := engine.ScoreAccuracy(context.Background(), nil, nil, "report")
	if analysis.Score != 6.0 {
		t.Errorf("expected deterministic 6.0 baseline, got %v", analysis.Score)
	}
}

func TestScoreAccuracyRejectsOutOfRangeAIScore(t *testing.T) {
	llm := &stubLLM{response: `{"overall_score": 42, "analysis_summary": "broken"}`}
	engine := NewEngine(llm, arbor.NewLogger())

	analysis := engine.ScoreAccuracy(context.Background(), nil, nil, "report")
	// Out-of-range AI scores are discarded in favor of the fallback
	if analysis.Score != 6.0 {
		t.Errorf("expected fallback score, got %v", analysis.Score)
	}
}
