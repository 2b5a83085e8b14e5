// Package reports synthesizes the final markdown analysis report from the
// collaborator outputs of an analysis run.
package reports

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/specto/internal/models"
)

const disclaimer = "This report is for informational purposes only and does not constitute " +
	"investment advice. It was generated from public information and AI analysis and may " +
	"contain errors or omissions. Investors should make their own independent decisions."

const timestampLayout = "2006-01-02 15:04:05"

// Builder assembles reports. The clock is injectable so generated-at stamps
// are deterministic in tests.
type Builder struct {
	now func() time.Time
}

func NewBuilder() *Builder {
	return &Builder{now: time.Now}
}

// ContentOnly wraps the AI narrative as-is. The narrative already carries its
// own section structure, so nothing is re-synthesized around it.
func (b *Builder) ContentOnly(summary *models.ContentSummary) models.Report {
	raw := summary.RawText
	if raw == "" {
		raw = summary.Summary
	}

	return models.Report{
		Title:       "Video Content Investment Analysis",
		GeneratedAt: b.now().Format(timestampLayout),
		RawMarkdown: raw,
		Disclaimer:  disclaimer,
	}
}

// TickerExtraction combines the content narrative with a market section per
// extracted ticker. Tickers without market data are listed but not charted.
func (b *Builder) TickerExtraction(summary *models.ContentSummary, tickers []models.ExtractedTicker, marketData []models.MarketData) models.Report {
	var sb strings.Builder

	if summary != nil {
		raw := summary.RawText
		if raw == "" {
			raw = summary.Summary
		}
		sb.WriteString(raw)
		sb.WriteString("\n\n")
	}

	sb.WriteString("## Extracted Tickers\n\n")
	for _, ticker := range tickers {
		line := fmt.Sprintf("- **%s**", ticker.Symbol)
		if ticker.Name != "" {
			line += fmt.Sprintf(" (%s)", ticker.Name)
		}
		line += fmt.Sprintf(" — confidence: %s", ticker.Confidence)
		if ticker.Recommendation != "" && ticker.Recommendation != models.RecommendationNone {
			line += fmt.Sprintf(", stance: %s", ticker.Recommendation)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	if len(marketData) > 0 {
		sb.WriteString("\n## Market Data\n")
		for i := range marketData {
			sb.WriteString("\n")
			sb.WriteString(marketSection(&marketData[i]))
		}
	}

	return models.Report{
		Title:          "Video Ticker Extraction and Market Analysis",
		GeneratedAt:    b.now().Format(timestampLayout),
		RawMarkdown:    sb.String(),
		TickersCovered: len(tickers),
		Disclaimer:     disclaimer,
	}
}

// ManualSymbol combines the content narrative with market data for the
// caller-supplied symbol.
func (b *Builder) ManualSymbol(summary *models.ContentSummary, data *models.MarketData) models.Report {
	var sb strings.Builder

	if summary != nil {
		raw := summary.RawText
		if raw == "" {
			raw = summary.Summary
		}
		sb.WriteString(raw)
		sb.WriteString("\n\n")
	}

	sb.WriteString("## Market Data\n\n")
	sb.WriteString(marketSection(data))

	return models.Report{
		Title:          fmt.Sprintf("%s Investment Analysis", data.Symbol),
		GeneratedAt:    b.now().Format(timestampLayout),
		RawMarkdown:    sb.String(),
		TickersCovered: 1,
		Disclaimer:     disclaimer,
	}
}

// Batch wraps a combined multi-video narrative.
func (b *Builder) Batch(summary *models.ContentSummary) models.Report {
	raw := summary.RawText
	if raw == "" {
		raw = summary.Summary
	}
	if raw == "" {
		raw = "Batch analysis completed but no narrative content was produced."
	}

	return models.Report{
		Title:       fmt.Sprintf("Batch Video Investment Analysis (%d videos)", summary.VideoCount),
		GeneratedAt: b.now().Format(timestampLayout),
		RawMarkdown: raw,
		Disclaimer:  disclaimer,
	}
}

// marketSection renders one symbol's snapshot as a markdown subsection.
func marketSection(data *models.MarketData) string {
	var sb strings.Builder

	heading := data.Symbol
	if data.Name != "" && data.Name != data.Symbol {
		heading = fmt.Sprintf("%s (%s)", data.Symbol, data.Name)
	}
	sb.WriteString(fmt.Sprintf("### %s\n\n", heading))

	sb.WriteString(fmt.Sprintf("- Latest price: $%.2f\n", data.LatestPrice))
	sb.WriteString(fmt.Sprintf("- Daily change: %+.2f (%+.2f%%)\n", data.PriceChange, data.PctChange))
	sb.WriteString(fmt.Sprintf("- Trend: %s\n", data.Trend))
	sb.WriteString(fmt.Sprintf("- Volatility: %.2f%%\n", data.Volatility))
	if data.StartDate != "" && data.EndDate != "" {
		sb.WriteString(fmt.Sprintf("- Window: %s to %s (%d trading days)\n", data.StartDate, data.EndDate, data.DataPoints))
	} else {
		sb.WriteString(fmt.Sprintf("- Trading days: %d\n", data.DataPoints))
	}

	return sb.String()
}
