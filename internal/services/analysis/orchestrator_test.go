package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/specto/internal/common"
	"github.com/ternarybob/specto/internal/interfaces"
	"github.com/ternarybob/specto/internal/models"
	"github.com/ternarybob/specto/internal/services/cache"
	"github.com/ternarybob/specto/internal/services/records"
	"github.com/ternarybob/specto/internal/services/reports"
)

type mockVideo struct {
	summarizeCalls int
	extractCalls   int
	lastReferences []string

	summary    *models.ContentSummary
	summaryErr error
	tickers    []models.ExtractedTicker
	extractErr error
}

func (m *mockVideo) Summarize(_ context.Context, references []string, _ string, sink interfaces.LogSink) (*models.ContentSummary, error) {
	m.summarizeCalls++
	m.lastReferences = references
	if sink != nil {
		sink("step", "Starting video content analysis...", "")
		sink("success", "Video content analysis complete", "")
	}
	if m.summaryErr != nil {
		return nil, m.summaryErr
	}
	if m.summary != nil {
		return m.summary, nil
	}
	return &models.ContentSummary{RawText: "narrative", Summary: "summary"}, nil
}

func (m *mockVideo) ExtractTickers(_ context.Context, _ string, _ interfaces.LogSink) ([]models.ExtractedTicker, error) {
	m.extractCalls++
	return m.tickers, m.extractErr
}

type mockMarket struct {
	calls   int
	failFor map[string]bool
	failAll bool
}

func (m *mockMarket) snapshot(symbol string) (*models.MarketData, error) {
	m.calls++
	if m.failAll || m.failFor[symbol] {
		return nil, errors.New("no data for symbol")
	}
	return &models.MarketData{Symbol: symbol, LatestPrice: 100, Trend: "sideways"}, nil
}

func (m *mockMarket) GetSnapshot(_ context.Context, symbol string, _ int) (*models.MarketData, error) {
	return m.snapshot(symbol)
}

func (m *mockMarket) GetSnapshotByDateRange(_ context.Context, symbol, _, _ string) (*models.MarketData, error) {
	return m.snapshot(symbol)
}

type memCache struct {
	entries map[string]*models.CachedEntry
	puts    int
}

func newMemCache() *memCache {
	return &memCache{entries: map[string]*models.CachedEntry{}}
}

func (m *memCache) GetByKey(_ context.Context, key string) (*models.CachedEntry, error) {
	entry, ok := m.entries[key]
	if !ok {
		return nil, interfaces.ErrCacheEntryNotFound
	}
	return entry, nil
}

func (m *memCache) Put(_ context.Context, key string, references []string, result *models.AnalysisResult) error {
	m.puts++
	m.entries[key] = &models.CachedEntry{CacheKey: key, InputReferences: references, Result: *result}
	return nil
}

type recordingLog struct {
	appended []records.RecordRequest
}

func (r *recordingLog) Append(_ context.Context, req records.RecordRequest) {
	r.appended = append(r.appended, req)
}

var testAnalysisConfig = common.AnalysisConfig{
	DefaultRangeDays: 30,
	MaxBatchSize:     10,
	DefaultLanguage:  "en",
}

func newTestOrchestrator(video *mockVideo, market *mockMarket, store *memCache, log *recordingLog) *Orchestrator {
	return NewOrchestrator(
		video,
		market,
		store,
		log,
		reports.NewBuilder(),
		&testAnalysisConfig,
		arbor.NewLogger(),
	)
}

func drain(events <-chan models.AnalysisEvent) []models.AnalysisEvent {
	var out []models.AnalysisEvent
	for ev := range events {
		out = append(out, ev)
	}
	return out
}

func terminal(events []models.AnalysisEvent) *models.AnalysisEvent {
	if len(events) == 0 {
		return nil
	}
	return &events[len(events)-1]
}

func TestContentOnlyEventSequence(t *testing.T) {
	video := &mockVideo{}
	store := newMemCache()
	log := &recordingLog{}
	o := newTestOrchestrator(video, &mockMarket{}, store, log)

	events := drain(o.RunAnalysis(context.Background(), &models.AnalysisRequest{
		Mode:      models.ModeContentOnly,
		Reference: "ref-123",
	}))

	var statuses []float64
	var result *models.AnalysisResult
	for _, ev := range events {
		switch ev.Type {
		case models.EventStatus:
			statuses = append(statuses, ev.Progress)
		case models.EventResult:
			result = ev.Result
		case models.EventError:
			t.Fatalf("unexpected error event: %s", ev.Message)
		}
	}

	wantStatuses := []float64{0, 10, 80, 100}
	if len(statuses) != len(wantStatuses) {
		t.Fatalf("status progresses = %v, want %v", statuses, wantStatuses)
	}
	for i, want := range wantStatuses {
		if statuses[i] != want {
			t.Errorf("status[%d] = %v, want %v", i, statuses[i], want)
		}
	}

	if result == nil {
		t.Fatal("no result event")
	}
	if result.FromCache {
		t.Error("first run must not be from cache")
	}
	if want := cache.DeriveKey([]string{"ref-123"}); result.CacheKey != want {
		t.Errorf("cache key = %q, want %q", result.CacheKey, want)
	}

	if len(log.appended) != 1 || log.appended[0].Reference != "ref-123" {
		t.Errorf("record append = %+v", log.appended)
	}
}

func TestContentOnlyCacheHitSkipsCollaborators(t *testing.T) {
	video := &mockVideo{}
	store := newMemCache()
	log := &recordingLog{}
	o := newTestOrchestrator(video, &mockMarket{}, store, log)

	req := &models.AnalysisRequest{Mode: models.ModeContentOnly, Reference: "ref-123"}

	first := drain(o.RunAnalysis(context.Background(), req))
	second := drain(o.RunAnalysis(context.Background(), req))

	if video.summarizeCalls != 1 {
		t.Errorf("summarize calls = %d, want 1 across both runs", video.summarizeCalls)
	}

	firstResult := terminal(first)
	secondResult := terminal(second)
	if firstResult.Type != models.EventResult || secondResult.Type != models.EventResult {
		t.Fatalf("expected result terminals, got %v / %v", firstResult.Type, secondResult.Type)
	}
	if firstResult.Result.FromCache {
		t.Error("first result must not be from cache")
	}
	if !secondResult.Result.FromCache {
		t.Error("second result must be from cache")
	}
	if len(log.appended) != 1 {
		t.Errorf("cache hits must not append records, got %d", len(log.appended))
	}
}

func TestTickerExtractionEmptyIsFatal(t *testing.T) {
	video := &mockVideo{tickers: nil}
	store := newMemCache()
	o := newTestOrchestrator(video, &mockMarket{}, store, &recordingLog{})

	events := drain(o.RunAnalysis(context.Background(), &models.AnalysisRequest{
		Mode:      models.ModeTickerExtraction,
		Reference: "ref-123",
	}))

	last := terminal(events)
	if last.Type != models.EventError {
		t.Fatalf("expected terminal error, got %v", last.Type)
	}
	if last.Message != emptyExtractionMessage {
		t.Errorf("error message = %q", last.Message)
	}
	if video.summarizeCalls != 0 {
		t.Error("summary must not run after empty extraction")
	}
	if store.puts != 0 {
		t.Error("nothing may be cached on empty extraction")
	}
}

func TestTickerExtractionToleratesPerSymbolFailure(t *testing.T) {
	video := &mockVideo{tickers: []models.ExtractedTicker{
		{Symbol: "AAPL", Confidence: models.ConfidenceHigh, Recommendation: models.RecommendationBuy},
		{Symbol: "TSLA", Confidence: models.ConfidenceMedium, Recommendation: models.RecommendationNone},
	}}
	market := &mockMarket{failFor: map[string]bool{"TSLA": true}}
	store := newMemCache()
	o := newTestOrchestrator(video, market, store, &recordingLog{})

	events := drain(o.RunAnalysis(context.Background(), &models.AnalysisRequest{
		Mode:      models.ModeTickerExtraction,
		Reference: "ref-123",
	}))

	last := terminal(events)
	if last.Type != models.EventResult {
		t.Fatalf("expected result, got %v (%s)", last.Type, last.Message)
	}
	if len(last.Result.ExtractedTickers) != 2 {
		t.Errorf("tickers = %+v", last.Result.ExtractedTickers)
	}
	if len(last.Result.MarketData) != 1 || last.Result.MarketData[0].Symbol != "AAPL" {
		t.Errorf("market data = %+v", last.Result.MarketData)
	}

	warned := false
	for _, ev := range events {
		if ev.Type == models.EventLog && ev.Level == "warning" {
			warned = true
		}
	}
	if !warned {
		t.Error("expected a warning log for the failed symbol")
	}
}

func TestProgressMonotonic(t *testing.T) {
	video := &mockVideo{tickers: []models.ExtractedTicker{
		{Symbol: "AAPL"}, {Symbol: "MSFT"}, {Symbol: "NVDA"},
	}}
	o := newTestOrchestrator(video, &mockMarket{}, newMemCache(), &recordingLog{})

	events := drain(o.RunAnalysis(context.Background(), &models.AnalysisRequest{
		Mode:      models.ModeTickerExtraction,
		Reference: "ref-123",
	}))

	prev := -1.0
	for _, ev := range events {
		if ev.Type != models.EventStatus {
			continue
		}
		if ev.Progress < prev {
			t.Errorf("progress went backwards: %v after %v", ev.Progress, prev)
		}
		prev = ev.Progress
	}
}

func TestManualSymbolMarketFailureLeavesNoCacheEntry(t *testing.T) {
	video := &mockVideo{}
	market := &mockMarket{failAll: true}
	store := newMemCache()
	o := newTestOrchestrator(video, market, store, &recordingLog{})

	req := &models.AnalysisRequest{
		Mode:      models.ModeManualSymbol,
		Reference: "ref-123",
		Symbol:    "AAPL",
		StartDate: "2026-01-01",
		EndDate:   "2026-02-01",
	}

	events := drain(o.RunAnalysis(context.Background(), req))

	errorCount := 0
	for _, ev := range events {
		if ev.Type == models.EventError {
			errorCount++
		}
	}
	if errorCount != 1 {
		t.Errorf("error events = %d, want exactly 1", errorCount)
	}
	if store.puts != 0 {
		t.Error("failed run must not write to cache")
	}

	// The retry with identical inputs proceeds once market data recovers.
	market.failAll = false
	retry := drain(o.RunAnalysis(context.Background(), req))
	last := terminal(retry)
	if last.Type != models.EventResult {
		t.Fatalf("retry expected result, got %v (%s)", last.Type, last.Message)
	}
	if last.Result.FromCache {
		t.Error("retry must recompute, not hit a poisoned entry")
	}
}

func TestManualSymbolRequiresDates(t *testing.T) {
	video := &mockVideo{}
	o := newTestOrchestrator(video, &mockMarket{}, newMemCache(), &recordingLog{})

	events := drain(o.RunAnalysis(context.Background(), &models.AnalysisRequest{
		Mode:      models.ModeManualSymbol,
		Reference: "ref-123",
		Symbol:    "AAPL",
	}))

	if terminal(events).Type != models.EventError {
		t.Error("expected input error for missing dates")
	}
	if video.summarizeCalls != 0 {
		t.Error("input errors must be rejected before collaborator calls")
	}
}

func TestUnsupportedModeRejected(t *testing.T) {
	o := newTestOrchestrator(&mockVideo{}, &mockMarket{}, newMemCache(), &recordingLog{})

	events := drain(o.RunAnalysis(context.Background(), &models.AnalysisRequest{
		Mode:      "sentiment_only",
		Reference: "ref-123",
	}))

	if terminal(events).Type != models.EventError {
		t.Error("expected error for unsupported mode")
	}
}
