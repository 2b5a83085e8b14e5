package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/specto/internal/common"
	"github.com/ternarybob/specto/internal/interfaces"
	"github.com/ternarybob/specto/internal/models"
	"github.com/ternarybob/specto/internal/services/analysis"
	"github.com/ternarybob/specto/internal/services/records"
	"github.com/ternarybob/specto/internal/services/reports"
)

type stubVideo struct{}

func (stubVideo) Summarize(_ context.Context, _ []string, _ string, sink interfaces.LogSink) (*models.ContentSummary, error) {
	if sink != nil {
		sink("info", "Processing video content...", "")
	}
	return &models.ContentSummary{RawText: "narrative"}, nil
}

func (stubVideo) ExtractTickers(_ context.Context, _ string, _ interfaces.LogSink) ([]models.ExtractedTicker, error) {
	return nil, nil
}

type stubMarket struct{}

func (stubMarket) GetSnapshot(_ context.Context, symbol string, _ int) (*models.MarketData, error) {
	return &models.MarketData{Symbol: symbol}, nil
}

func (stubMarket) GetSnapshotByDateRange(_ context.Context, symbol, _, _ string) (*models.MarketData, error) {
	return &models.MarketData{Symbol: symbol}, nil
}

type stubCache struct {
	entries map[string]*models.CachedEntry
}

func (s *stubCache) GetByKey(_ context.Context, key string) (*models.CachedEntry, error) {
	if entry, ok := s.entries[key]; ok {
		return entry, nil
	}
	return nil, interfaces.ErrCacheEntryNotFound
}

func (s *stubCache) Put(_ context.Context, key string, references []string, result *models.AnalysisResult) error {
	s.entries[key] = &models.CachedEntry{CacheKey: key, InputReferences: references, Result: *result}
	return nil
}

type noopRecords struct{}

func (noopRecords) Append(_ context.Context, _ records.RecordRequest) {}

func newTestAnalyzeHandler() *AnalyzeHandler {
	cfg := &common.AnalysisConfig{DefaultRangeDays: 30, MaxBatchSize: 10, DefaultLanguage: "en"}
	o := analysis.NewOrchestrator(
		stubVideo{},
		stubMarket{},
		&stubCache{entries: map[string]*models.CachedEntry{}},
		noopRecords{},
		reports.NewBuilder(),
		cfg,
		arbor.NewLogger(),
	)
	return NewAnalyzeHandler(o, arbor.NewLogger())
}

func parseSSE(t *testing.T, body string) []models.AnalysisEvent {
	t.Helper()
	var events []models.AnalysisEvent
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev models.AnalysisEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			t.Fatalf("bad SSE frame %q: %v", line, err)
		}
		events = append(events, ev)
	}
	return events
}

func TestHandleAnalyzeStreamsEvents(t *testing.T) {
	h := newTestAnalyzeHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/analyze",
		strings.NewReader(`{"mode":"content_only","video_url":"ref-123"}`))
	rec := httptest.NewRecorder()

	h.HandleAnalyze(rec, req)

	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q", got)
	}

	events := parseSSE(t, rec.Body.String())
	if len(events) == 0 {
		t.Fatal("no events streamed")
	}

	last := events[len(events)-1]
	if last.Type != models.EventResult {
		t.Fatalf("terminal event = %v (%s)", last.Type, last.Message)
	}
	if last.Result.FromCache {
		t.Error("first run must not be from cache")
	}
	if last.Result.CacheKey == "" {
		t.Error("result missing cache key")
	}
}

func TestHandleAnalyzeRejectsBadBody(t *testing.T) {
	h := newTestAnalyzeHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	h.HandleAnalyze(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestHandleAnalyzeRejectsGet(t *testing.T) {
	h := newTestAnalyzeHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/analyze", nil)
	rec := httptest.NewRecorder()

	h.HandleAnalyze(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestHandleBatchAnalyzeSelectedRejectsOversize(t *testing.T) {
	h := newTestAnalyzeHandler()

	refs := make([]string, 11)
	for i := range refs {
		refs[i] = "ref"
	}
	body, _ := json.Marshal(batchRequest{References: refs})

	req := httptest.NewRequest(http.MethodPost, "/api/batch-analyze-selected", strings.NewReader(string(body)))
	rec := httptest.NewRecorder()

	h.HandleBatchAnalyzeSelected(rec, req)

	events := parseSSE(t, rec.Body.String())
	if len(events) != 1 || events[0].Type != models.EventError {
		t.Errorf("expected single error event, got %+v", events)
	}
}
