package video

import (
	"fmt"
	"strings"
	"time"
)

// summaryPrompt builds the analyst-style prompt for single-video content
// analysis. The report date is pinned to the analysis time so the model
// does not guess at publication dates.
func summaryPrompt(language string, now time.Time) string {
	date := now.Format("2006-01-02")

	return fmt.Sprintf(`You are a senior equity analyst at a top-tier investment bank. You
specialize in extracting core investment views from unstructured sources
such as finance videos, and writing rigorous, institution-grade research
notes.

Analysis date: %s
Use this date as the report date. Do not infer or assume the video's
publication time.

I will provide a video. Your task:
1. Process the full content of the video, including its title, creator,
   and all spoken and visual information.
2. Produce a comprehensive investment opinion report based on the content.
3. Go beyond summarizing: include your own critical assessment, market
   context, and strategy notes as a professional analyst.

Structure the report in Markdown with these sections:

## 1. Executive Summary
Core investment thesis, main recommendations, expected return and risk level.

## 2. Source Assessment
Creator background and credibility, timeliness of the views, reliability of claims.

## 3. Investment Views
For every instrument or theme mentioned: the stated rationale, fundamental
or technical points raised, and your critical evaluation.

## 4. Market Context
Macro environment, relevant sector trends, policy considerations.

## 5. Risk Assessment
Key risk factors per recommendation, with a risk grade (low/medium/high/speculative).

## 6. Actionable Guidance
Concrete positioning, sizing, and exit considerations.

## 7. Caveats
Claims that need independent verification and suggested further reading.

Constraints:
- Professional, objective tone.
- Respond in %s.
- Markdown only.
- End with a disclaimer that the report is derived from video content,
  is for reference only, and is not investment advice.

Begin the analysis now.`, date, languageName(language))
}

// batchSummaryPrompt builds the prompt for multi-video synthesis.
func batchSummaryPrompt(count int, language string, now time.Time) string {
	date := now.Format("2006-01-02")

	return fmt.Sprintf(`You are a senior equity analyst at a top-tier investment bank.

Analysis date: %s

I am providing %d videos. Analyze all of them together and produce a
single consolidated investment report in Markdown:

## 1. Executive Summary
The common themes and the strongest investment views across the videos.

## 2. Per-Video Highlights
One short subsection per video with its core thesis and named instruments.

## 3. Consensus and Disagreement
Where the videos agree, where they conflict, and your assessment of the
balance of evidence.

## 4. Risk Assessment
Aggregate risk factors with risk grades.

## 5. Actionable Guidance
Concrete takeaways supported by more than one source where possible.

Constraints:
- Respond in %s.
- Markdown only.
- End with a disclaimer that the report is derived from video content,
  is for reference only, and is not investment advice.`, date, count, languageName(language))
}

// extractionPrompt asks for strictly structured ticker extraction.
const extractionPrompt = `Analyze this video and extract the stock information it discusses:

1. Identify every explicitly mentioned ticker symbol (e.g. AAPL, GOOGL, TSLA).
2. Identify companies mentioned by name (e.g. Apple, Google, Tesla).
3. Rate how central each stock is to the discussion.
4. Judge the stated leaning for each stock.

Return the result as JSON in exactly this shape:
{
    "extracted_stocks": [
        {
            "symbol": "AAPL",
            "name": "Apple Inc.",
            "confidence": "high/medium/low",
            "recommendation": "buy/sell/hold/none"
        }
    ],
    "summary": "one-paragraph summary of the stock discussion"
}

If the video does not mention any specific stocks, return an empty
extracted_stocks array.`

// languageName maps short language codes to prompt-friendly names.
// Unknown values pass through so callers can request any language.
func languageName(code string) string {
	switch strings.ToLower(code) {
	case "", "en":
		return "English"
	case "zh":
		return "Chinese"
	case "ja":
		return "Japanese"
	case "ko":
		return "Korean"
	case "es":
		return "Spanish"
	case "de":
		return "German"
	case "fr":
		return "French"
	default:
		return code
	}
}
