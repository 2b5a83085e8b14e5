package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/specto/internal/interfaces"
	"github.com/ternarybob/specto/internal/models"
	"github.com/ternarybob/specto/internal/services/cache"
	"github.com/ternarybob/specto/internal/services/extraction"
)

// ChartHandler serves the ticker-comparison flow: it re-reads a cached
// result, extracts tickers from its report text, fetches market outcomes per
// symbol, and scores the report's calls. This flow never writes to the cache.
type ChartHandler struct {
	cache     *cache.Service
	engine    *extraction.Engine
	market    interfaces.MarketDataService
	rangeDays int
	logger    arbor.ILogger
}

func NewChartHandler(cacheService *cache.Service, engine *extraction.Engine, market interfaces.MarketDataService, rangeDays int, logger arbor.ILogger) *ChartHandler {
	return &ChartHandler{
		cache:     cacheService,
		engine:    engine,
		market:    market,
		rangeDays: rangeDays,
		logger:    logger,
	}
}

type chartRequest struct {
	CacheKey  string `json:"cache_key"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

type chartResponse struct {
	CacheKey         string                   `json:"cache_key"`
	ExtractedTickers []models.ExtractedTicker `json:"extracted_tickers"`
	MarketData       []models.MarketData      `json:"market_data"`
	Accuracy         *models.AccuracyAnalysis `json:"accuracy_analysis,omitempty"`
}

// HandleExtractTickersChart builds the report-vs-market comparison payload.
// POST /api/extract-tickers-chart
func (h *ChartHandler) HandleExtractTickersChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req chartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CacheKey == "" {
		WriteError(w, http.StatusBadRequest, "cache_key is required")
		return
	}

	entry, err := h.cache.GetByKey(r.Context(), req.CacheKey)
	if err != nil {
		if err == interfaces.ErrCacheEntryNotFound {
			WriteError(w, http.StatusNotFound, "no analysis found for cache key")
		} else {
			WriteError(w, http.StatusInternalServerError, "failed to load analysis")
		}
		return
	}

	result := entry.Result
	tickers := h.engine.ExtractTickersFromReport(r.Context(), &result)
	if len(tickers) == 0 {
		WriteError(w, http.StatusUnprocessableEntity, "no tickers could be extracted from the report")
		return
	}

	// Per-symbol failures shrink the comparison rather than failing it.
	marketData := make([]models.MarketData, 0, len(tickers))
	for _, ticker := range tickers {
		data, err := h.fetchOutcome(r, ticker.Symbol, req)
		if err != nil {
			h.logger.Warn().
				Str("symbol", ticker.Symbol).
				Err(err).
				Msg("Market data unavailable for extracted ticker")
			continue
		}
		marketData = append(marketData, *data)
	}

	accuracy := h.engine.ScoreAccuracy(r.Context(), tickers, marketData, result.Report.RawMarkdown)

	WriteJSON(w, http.StatusOK, chartResponse{
		CacheKey:         req.CacheKey,
		ExtractedTickers: tickers,
		MarketData:       marketData,
		Accuracy:         accuracy,
	})
}

func (h *ChartHandler) fetchOutcome(r *http.Request, symbol string, req chartRequest) (*models.MarketData, error) {
	if req.StartDate != "" && req.EndDate != "" {
		return h.market.GetSnapshotByDateRange(r.Context(), symbol, req.StartDate, req.EndDate)
	}
	return h.market.GetSnapshot(r.Context(), symbol, h.rangeDays)
}
