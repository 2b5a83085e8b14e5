// Package analysis sequences the multi-step analysis pipeline behind a single
// request: video understanding, optional ticker extraction, market data, and
// report synthesis, with content-addressed caching of the final result.
package analysis

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/specto/internal/common"
	"github.com/ternarybob/specto/internal/interfaces"
	"github.com/ternarybob/specto/internal/models"
	"github.com/ternarybob/specto/internal/services/cache"
	"github.com/ternarybob/specto/internal/services/extraction"
	"github.com/ternarybob/specto/internal/services/records"
	"github.com/ternarybob/specto/internal/services/reports"
)

// emptyExtractionMessage is the user-facing failure when ticker extraction
// finds nothing usable. Distinct from transport failures on purpose.
const emptyExtractionMessage = "No stock tickers could be identified in the video content"

// ResultCache is the slice of the cache service the orchestrator depends on.
type ResultCache interface {
	GetByKey(ctx context.Context, key string) (*models.CachedEntry, error)
	Put(ctx context.Context, key string, references []string, result *models.AnalysisResult) error
}

// RecordLog receives best-effort completion records.
type RecordLog interface {
	Append(ctx context.Context, req records.RecordRequest)
}

// Orchestrator runs analysis requests as ordered step sequences and streams
// progress events to the caller. All collaborators are injected.
type Orchestrator struct {
	video    interfaces.VideoUnderstanding
	market   interfaces.MarketDataService
	cache    ResultCache
	records  RecordLog
	reports  *reports.Builder
	validate *validator.Validate
	config   *common.AnalysisConfig
	logger   arbor.ILogger
}

func NewOrchestrator(
	video interfaces.VideoUnderstanding,
	market interfaces.MarketDataService,
	resultCache ResultCache,
	recordLog RecordLog,
	builder *reports.Builder,
	config *common.AnalysisConfig,
	logger arbor.ILogger,
) *Orchestrator {
	return &Orchestrator{
		video:    video,
		market:   market,
		cache:    resultCache,
		records:  recordLog,
		reports:  builder,
		validate: validator.New(),
		config:   config,
		logger:   logger,
	}
}

// RunAnalysis executes a single-reference analysis. The returned channel
// carries status, log, and exactly one terminal result or error event, then
// closes. Dropping the channel cancels the run at the next event boundary;
// in-flight collaborator calls run to completion.
func (o *Orchestrator) RunAnalysis(ctx context.Context, req *models.AnalysisRequest) <-chan models.AnalysisEvent {
	events := make(chan models.AnalysisEvent, 16)

	runID := common.NewRunID()
	common.SafeGo(o.logger, "analysis-run", func() {
		defer close(events)
		o.logger.Debug().Str("run_id", runID).Str("mode", string(req.Mode)).Msg("Analysis run started")
		o.run(ctx, req, events)
	})

	return events
}

func (o *Orchestrator) run(ctx context.Context, req *models.AnalysisRequest, events chan<- models.AnalysisEvent) {
	if err := o.validateRequest(req); err != nil {
		o.send(ctx, events, models.ErrorEvent(err.Error()))
		return
	}

	if !o.send(ctx, events, models.StatusEvent("Starting analysis...", 0)) {
		return
	}

	switch req.Mode {
	case models.ModeContentOnly:
		o.runContentOnly(ctx, req, events)
	case models.ModeTickerExtraction:
		o.runTickerExtraction(ctx, req, events)
	case models.ModeManualSymbol:
		o.runManualSymbol(ctx, req, events)
	}
}

// validateRequest rejects bad input before any collaborator call.
func (o *Orchestrator) validateRequest(req *models.AnalysisRequest) error {
	if !req.Mode.Valid() {
		return fmt.Errorf("unsupported analysis mode %q", req.Mode)
	}
	if err := o.validate.Struct(req); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	if req.Mode == models.ModeManualSymbol {
		if req.StartDate == "" || req.EndDate == "" {
			return fmt.Errorf("manual symbol analysis requires a start and end date")
		}
		if !common.ValidSymbol(common.NormalizeSymbol(req.Symbol)) {
			return fmt.Errorf("invalid symbol %q", req.Symbol)
		}
	}
	return nil
}

func (o *Orchestrator) runContentOnly(ctx context.Context, req *models.AnalysisRequest, events chan<- models.AnalysisEvent) {
	key := cache.DeriveKey([]string{req.Reference})
	if o.emitCacheHit(ctx, key, events) {
		return
	}

	if !o.send(ctx, events, models.StatusEvent("Analyzing video content...", 10)) {
		return
	}

	summary, err := o.video.Summarize(ctx, []string{req.Reference}, o.language(req), o.sink(ctx, events))
	if err != nil {
		o.fail(ctx, events, fmt.Errorf("video analysis failed: %w", err))
		return
	}

	if !o.send(ctx, events, models.StatusEvent("Generating report...", 80)) {
		return
	}

	result := &models.AnalysisResult{
		Mode:           models.ModeContentOnly,
		Report:         o.reports.ContentOnly(summary),
		ContentSummary: summary,
		CacheKey:       key,
	}

	o.finish(ctx, req, key, []string{req.Reference}, result, events)
}

func (o *Orchestrator) runTickerExtraction(ctx context.Context, req *models.AnalysisRequest, events chan<- models.AnalysisEvent) {
	key := cache.DeriveKey([]string{req.Reference})
	if o.emitCacheHit(ctx, key, events) {
		return
	}

	if !o.send(ctx, events, models.StatusEvent("Extracting tickers from video...", 10)) {
		return
	}

	rawTickers, err := o.video.ExtractTickers(ctx, req.Reference, o.sink(ctx, events))
	if err != nil {
		o.fail(ctx, events, fmt.Errorf("ticker extraction failed: %w", err))
		return
	}

	tickers := extraction.ValidateTickers(rawTickers, extraction.MaxExtractedTickers)
	if len(tickers) == 0 {
		o.logger.Warn().Str("reference", req.Reference).Msg("Ticker extraction yielded no usable tickers")
		o.send(ctx, events, models.ErrorEvent(emptyExtractionMessage))
		return
	}

	if !o.send(ctx, events, models.StatusEvent(fmt.Sprintf("Found %d tickers, analyzing video content...", len(tickers)), 30)) {
		return
	}

	summary, err := o.video.Summarize(ctx, []string{req.Reference}, o.language(req), o.sink(ctx, events))
	if err != nil {
		o.fail(ctx, events, fmt.Errorf("video analysis failed: %w", err))
		return
	}

	if !o.send(ctx, events, models.StatusEvent("Fetching market data...", 60)) {
		return
	}

	// Per-symbol failures are warnings; the run continues with whatever
	// data was retrievable.
	marketData := make([]models.MarketData, 0, len(tickers))
	for i, ticker := range tickers {
		data, err := o.fetchMarketData(ctx, ticker.Symbol, req)
		if err != nil {
			o.logger.Warn().
				Str("symbol", ticker.Symbol).
				Err(err).
				Msg("Market data fetch failed, excluding symbol")
			o.send(ctx, events, models.LogEvent("warning", fmt.Sprintf("No market data for %s", ticker.Symbol)))
		} else {
			marketData = append(marketData, *data)
		}

		progress := 60 + 20*float64(i+1)/float64(len(tickers))
		if !o.send(ctx, events, models.StatusEvent(fmt.Sprintf("Fetched market data %d/%d", i+1, len(tickers)), progress)) {
			return
		}
	}

	result := &models.AnalysisResult{
		Mode:             models.ModeTickerExtraction,
		Report:           o.reports.TickerExtraction(summary, tickers, marketData),
		ContentSummary:   summary,
		ExtractedTickers: tickers,
		MarketData:       marketData,
		CacheKey:         key,
	}

	o.finish(ctx, req, key, []string{req.Reference}, result, events)
}

func (o *Orchestrator) runManualSymbol(ctx context.Context, req *models.AnalysisRequest, events chan<- models.AnalysisEvent) {
	symbol := common.NormalizeSymbol(req.Symbol)
	key := cache.DeriveManualKey(req.Reference, symbol, req.StartDate, req.EndDate)
	if o.emitCacheHit(ctx, key, events) {
		return
	}

	if !o.send(ctx, events, models.StatusEvent("Analyzing video content...", 10)) {
		return
	}

	summary, err := o.video.Summarize(ctx, []string{req.Reference}, o.language(req), o.sink(ctx, events))
	if err != nil {
		o.fail(ctx, events, fmt.Errorf("video analysis failed: %w", err))
		return
	}

	if !o.send(ctx, events, models.StatusEvent(fmt.Sprintf("Fetching market data for %s...", symbol), 60)) {
		return
	}

	// A market-data failure is fatal here; nothing is cached.
	data, err := o.market.GetSnapshotByDateRange(ctx, symbol, req.StartDate, req.EndDate)
	if err != nil {
		o.fail(ctx, events, fmt.Errorf("market data for %s failed: %w", symbol, err))
		return
	}

	if !o.send(ctx, events, models.StatusEvent("Generating report...", 80)) {
		return
	}

	result := &models.AnalysisResult{
		Mode:           models.ModeManualSymbol,
		Report:         o.reports.ManualSymbol(summary, data),
		ContentSummary: summary,
		MarketData:     []models.MarketData{*data},
		CacheKey:       key,
	}

	o.finish(ctx, req, key, []string{req.Reference}, result, events)
}

// emitCacheHit checks the cache and, on a hit, emits the stored result tagged
// from_cache and terminates the run. Reports whether the run is done.
func (o *Orchestrator) emitCacheHit(ctx context.Context, key string, events chan<- models.AnalysisEvent) bool {
	entry, err := o.cache.GetByKey(ctx, key)
	if err != nil {
		if err != interfaces.ErrCacheEntryNotFound {
			o.logger.Warn().Str("cache_key", key).Err(err).Msg("Cache lookup failed, treating as miss")
		}
		return false
	}

	o.logger.Info().Str("cache_key", key).Msg("Cache hit, returning stored result")
	o.send(ctx, events, models.LogEvent("info", "Returning cached analysis result"))

	result := entry.Result
	result.FromCache = true
	result.CacheKey = key
	o.send(ctx, events, models.ResultEvent(&result))
	return true
}

// finish writes the cache entry, emits the terminal result, then appends the
// audit record. Record append is best effort and runs after the result is
// already on the wire.
func (o *Orchestrator) finish(ctx context.Context, req *models.AnalysisRequest, key string, references []string, result *models.AnalysisResult, events chan<- models.AnalysisEvent) {
	if err := o.cache.Put(ctx, key, references, result); err != nil {
		o.fail(ctx, events, fmt.Errorf("failed to cache analysis result: %w", err))
		return
	}

	if !o.send(ctx, events, models.StatusEvent("Analysis complete", 100)) {
		return
	}
	if !o.send(ctx, events, models.ResultEvent(result)) {
		return
	}

	if o.records != nil {
		o.records.Append(ctx, records.RecordRequest{
			Reference:      req.Reference,
			CacheKey:       key,
			Mode:           req.Mode,
			StartDate:      req.StartDate,
			EndDate:        req.EndDate,
			ReportLanguage: o.language(req),
		})
	}
}

// fetchMarketData uses the request date range when present, otherwise the
// configured trailing window.
func (o *Orchestrator) fetchMarketData(ctx context.Context, symbol string, req *models.AnalysisRequest) (*models.MarketData, error) {
	if req.StartDate != "" && req.EndDate != "" {
		return o.market.GetSnapshotByDateRange(ctx, symbol, req.StartDate, req.EndDate)
	}
	return o.market.GetSnapshot(ctx, symbol, o.config.DefaultRangeDays)
}

func (o *Orchestrator) language(req *models.AnalysisRequest) string {
	if req.ReportLanguage != "" {
		return req.ReportLanguage
	}
	return o.config.DefaultLanguage
}

// sink forwards collaborator log lines into the event stream unchanged.
func (o *Orchestrator) sink(ctx context.Context, events chan<- models.AnalysisEvent) interfaces.LogSink {
	return func(level, message, partial string) {
		event := models.LogEvent(level, message)
		event.Partial = partial
		o.send(ctx, events, event)
	}
}

func (o *Orchestrator) fail(ctx context.Context, events chan<- models.AnalysisEvent, err error) {
	o.logger.Error().Err(err).Msg("Analysis run failed")
	o.send(ctx, events, models.ErrorEvent(err.Error()))
}

// send delivers an event unless the caller has gone away.
func (o *Orchestrator) send(ctx context.Context, events chan<- models.AnalysisEvent, event models.AnalysisEvent) bool {
	select {
	case events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}
