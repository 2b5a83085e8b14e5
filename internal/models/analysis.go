package models

import (
	"time"
)

// AnalysisMode selects which analysis pipeline a request runs through.
// The mode is dispatched exactly once, at the orchestrator entry point.
type AnalysisMode string

const (
	// ModeContentOnly summarizes the video content and investment logic
	// without touching market data.
	ModeContentOnly AnalysisMode = "content_only"

	// ModeTickerExtraction extracts tickers from the video first, then
	// fetches market data for each extracted symbol.
	ModeTickerExtraction AnalysisMode = "ticker_extraction"

	// ModeManualSymbol analyzes the video against a caller-supplied symbol
	// and date range.
	ModeManualSymbol AnalysisMode = "manual_symbol"

	// ModeBatchContent is the mode label recorded for multi-reference runs.
	ModeBatchContent AnalysisMode = "batch_content"
)

// Valid reports whether the mode is one of the three single-reference modes.
func (m AnalysisMode) Valid() bool {
	switch m {
	case ModeContentOnly, ModeTickerExtraction, ModeManualSymbol:
		return true
	}
	return false
}

// AnalysisRequest is the immutable input for a single-reference analysis run.
type AnalysisRequest struct {
	Mode      AnalysisMode `json:"mode" validate:"required,oneof=content_only ticker_extraction manual_symbol"`
	Reference string       `json:"video_url" validate:"required"`

	// StartDate/EndDate bound the market-data window (YYYY-MM-DD).
	// Required for manual_symbol, optional for ticker_extraction.
	StartDate string `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`

	// Symbol is required only for manual_symbol mode.
	Symbol string `json:"symbol,omitempty" validate:"required_if=Mode manual_symbol,omitempty,uppercase,min=1,max=5"`

	// ReportLanguage is the language the report narrative is written in.
	ReportLanguage string `json:"report_language,omitempty"`
}

// Confidence grades how certain the extractor is about a ticker mention.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Recommendation is the stance a report takes on a ticker.
type Recommendation string

const (
	RecommendationBuy  Recommendation = "buy"
	RecommendationSell Recommendation = "sell"
	RecommendationHold Recommendation = "hold"
	RecommendationNone Recommendation = "none"
)

// ExtractedTicker is a single ticker pulled out of a video or report text.
// It is never persisted on its own, only embedded in a result or returned
// transiently for chart generation.
type ExtractedTicker struct {
	Symbol         string         `json:"symbol"`
	Name           string         `json:"name"`
	Confidence     Confidence     `json:"confidence"`
	Recommendation Recommendation `json:"recommendation"`
}

// ContentSummary is the structured payload returned by the
// video-understanding collaborator's summary capability.
type ContentSummary struct {
	RawText    string `json:"raw_content"`
	Summary    string `json:"summary"`
	VideoCount int    `json:"video_count,omitempty"`
}

// Report is the synthesized analysis report. RawMarkdown always carries the
// full narrative text; the remaining fields depend on the mode.
type Report struct {
	Title          string `json:"title"`
	GeneratedAt    string `json:"generated_at"`
	RawMarkdown    string `json:"raw_markdown_content"`
	TickersCovered int    `json:"tickers_covered,omitempty"`
	Disclaimer     string `json:"disclaimer"`
}

// AnalysisResult is the terminal output of one analysis run. Produced exactly
// once per cache miss; owned by the cache store after a successful write.
type AnalysisResult struct {
	Mode             AnalysisMode      `json:"analysis_type"`
	Report           Report            `json:"report"`
	ContentSummary   *ContentSummary   `json:"video_analysis,omitempty"`
	ExtractedTickers []ExtractedTicker `json:"extracted_tickers,omitempty"`
	MarketData       []MarketData      `json:"market_data,omitempty"`
	ReferenceCount   int               `json:"reference_count,omitempty"`
	CacheKey         string            `json:"cache_key,omitempty"`
	FromCache        bool              `json:"from_cache"`
}

// CachedEntry wraps a result with the inputs that produced it. Written once
// per key, never mutated.
type CachedEntry struct {
	CacheKey        string         `json:"cache_key"`
	InputReferences []string       `json:"input_references"`
	CreatedAt       time.Time      `json:"timestamp"`
	Result          AnalysisResult `json:"result"`
}

// AccuracyFinding is one observation in an accuracy review.
type AccuracyFinding struct {
	Symbol  string `json:"symbol"`
	Outcome string `json:"outcome"`
	Comment string `json:"comment,omitempty"`
}

// AccuracyAnalysis scores how well a report's calls matched market outcomes.
// Score is on a 0-10 scale.
type AccuracyAnalysis struct {
	Score    float64           `json:"overall_score"`
	Summary  string            `json:"analysis_summary"`
	Findings []AccuracyFinding `json:"findings,omitempty"`
}
