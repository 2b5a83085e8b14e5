package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/ternarybob/specto/internal/interfaces"
	"github.com/ternarybob/specto/internal/models"
)

const accuracySystemPrompt = `You grade the accuracy of investment report predictions against
actual market outcomes. Respond with JSON only, no prose.`

func accuracyUserPrompt(extracted []models.ExtractedTicker, outcomes []models.MarketData, reportText string) string {
	var b strings.Builder
	b.WriteString("Report predictions:\n")
	for _, t := range extracted {
		fmt.Fprintf(&b, "- %s (%s): %s, confidence %s\n", t.Symbol, t.Name, t.Recommendation, t.Confidence)
	}
	b.WriteString("\nActual market outcomes:\n")
	for _, o := range outcomes {
		fmt.Fprintf(&b, "- %s: %.2f%% change over %s, trend %s\n", o.Symbol, o.PctChange, o.Period, o.Trend)
	}
	fmt.Fprintf(&b, `
Grade how well the report's predictions matched these outcomes.
Return JSON in exactly this shape:
{
  "overall_score": 7.5,
  "analysis_summary": "one-paragraph assessment",
  "findings": [
    {"symbol": "AAPL", "outcome": "correct/incorrect/unclear", "comment": "short remark"}
  ]
}
The score is 0-10 where 10 means every prediction matched.

Report excerpt:
%s`, truncate(reportText, 4000))
	return b.String()
}

// ScoreAccuracy grades extracted predictions against market outcomes.
// The AI path is tried first; on any failure a deterministic score is
// computed instead so the accuracy feature always answers.
func (e *Engine) ScoreAccuracy(ctx context.Context, extracted []models.ExtractedTicker, outcomes []models.MarketData, reportText string) *models.AccuracyAnalysis {
	if e.llm != nil {
		analysis, err := e.scoreWithAI(ctx, extracted, outcomes, reportText)
		if err != nil {
			e.logger.Warn().Err(err).Msg("AI accuracy scoring failed, using deterministic fallback")
		} else {
			return analysis
		}
	}

	return FallbackScore(extracted, outcomes)
}

// scoreWithAI runs the LLM scoring path.
func (e *Engine) scoreWithAI(ctx context.Context, extracted []models.ExtractedTicker, outcomes []models.MarketData, reportText string) (*models.AccuracyAnalysis, error) {
	response, err := e.llm.Chat(ctx, []interfaces.Message{
		{Role: "system", Content: accuracySystemPrompt},
		{Role: "user", Content: accuracyUserPrompt(extracted, outcomes, reportText)},
	})
	if err != nil {
		return nil, err
	}

	s := strings.TrimSpace(response)
	if matches := fencePattern.FindStringSubmatch(s); len(matches) > 1 {
		s = strings.TrimSpace(matches[1])
	}
	if !strings.HasPrefix(s, "{") {
		match := jsonObjectPattern.FindString(s)
		if match == "" {
			return nil, fmt.Errorf("no JSON object in accuracy reply")
		}
		s = match
	}

	var analysis models.AccuracyAnalysis
	if err := json.Unmarshal([]byte(s), &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse accuracy reply: %w", err)
	}
	if analysis.Score < 0 || analysis.Score > 10 {
		return nil, fmt.Errorf("accuracy score %v out of range", analysis.Score)
	}
	return &analysis, nil
}

// FallbackScore computes the deterministic accuracy score:
// 5 + 3 * (positive_outcome_count / total), fixed at 6.0 when there are
// no outcomes to grade. An outcome is positive when the price moved in
// the recommended direction.
func FallbackScore(extracted []models.ExtractedTicker, outcomes []models.MarketData) *models.AccuracyAnalysis {
	recommendations := make(map[string]models.Recommendation, len(extracted))
	for _, t := range extracted {
		recommendations[t.Symbol] = t.Recommendation
	}

	total := len(outcomes)
	if total == 0 {
		return &models.AccuracyAnalysis{
			Score:   6.0,
			Summary: "No market outcomes were available to grade, so a neutral baseline score is reported.",
		}
	}

	positive := 0
	findings := make([]models.AccuracyFinding, 0, total)
	for _, outcome := range outcomes {
		rec := recommendations[outcome.Symbol]
		ok := outcomeIsPositive(rec, outcome.PctChange)
		if ok {
			positive++
		}

		label := "incorrect"
		if ok {
			label = "correct"
		}
		findings = append(findings, models.AccuracyFinding{
			Symbol:  outcome.Symbol,
			Outcome: label,
			Comment: fmt.Sprintf("%s call against a %.2f%% move", recommendationLabel(rec), outcome.PctChange),
		})
	}

	score := 5 + 3*(float64(positive)/float64(total))

	return &models.AccuracyAnalysis{
		Score: score,
		Summary: fmt.Sprintf("Deterministic grading: %d of %d outcomes moved in the recommended direction.",
			positive, total),
		Findings: findings,
	}
}

// outcomeIsPositive reports whether the price move agrees with the
// recommendation. Hold counts as positive when the move stayed within
// two percent either way; an absent or none recommendation grades like
// a long position.
func outcomeIsPositive(rec models.Recommendation, pctChange float64) bool {
	switch rec {
	case models.RecommendationSell:
		return pctChange < 0
	case models.RecommendationHold:
		return math.Abs(pctChange) <= 2
	default:
		return pctChange > 0
	}
}

func recommendationLabel(rec models.Recommendation) string {
	if rec == "" {
		return string(models.RecommendationNone)
	}
	return string(rec)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
