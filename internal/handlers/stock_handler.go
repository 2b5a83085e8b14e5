package handlers

import (
	"net/http"
	"strconv"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/specto/internal/interfaces"
)

// StockHandler serves raw market snapshots for the chart UI.
type StockHandler struct {
	market    interfaces.MarketDataService
	rangeDays int
	logger    arbor.ILogger
}

func NewStockHandler(market interfaces.MarketDataService, rangeDays int, logger arbor.ILogger) *StockHandler {
	return &StockHandler{
		market:    market,
		rangeDays: rangeDays,
		logger:    logger,
	}
}

// HandleStockData returns a market snapshot for one symbol.
// GET /api/stock-data?symbol=AAPL&days=30
// GET /api/stock-data?symbol=AAPL&start_date=2026-01-01&end_date=2026-02-01
func (h *StockHandler) HandleStockData(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	start := r.URL.Query().Get("start_date")
	end := r.URL.Query().Get("end_date")

	if start != "" && end != "" {
		data, err := h.market.GetSnapshotByDateRange(r.Context(), symbol, start, end)
		if err != nil {
			WriteError(w, http.StatusBadGateway, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, data)
		return
	}

	days := h.rangeDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			WriteError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = parsed
	}

	data, err := h.market.GetSnapshot(r.Context(), symbol, days)
	if err != nil {
		WriteError(w, http.StatusBadGateway, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, data)
}
