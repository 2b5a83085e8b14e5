package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Analysis streams (SSE)
	mux.HandleFunc("/api/analyze", s.app.AnalyzeHandler.HandleAnalyze)
	mux.HandleFunc("/api/batch-analyze", s.app.AnalyzeHandler.HandleBatchAnalyze)
	mux.HandleFunc("/api/batch-analyze-selected", s.app.AnalyzeHandler.HandleBatchAnalyzeSelected)

	// Analysis stream (WebSocket)
	mux.HandleFunc("/ws/analyze", s.app.WSHandler.HandleAnalyze)

	// Chart / accuracy comparison over a cached result
	mux.HandleFunc("/api/extract-tickers-chart", s.app.ChartHandler.HandleExtractTickersChart)

	// Market data
	mux.HandleFunc("/api/stock-data", s.app.StockHandler.HandleStockData)

	// Channel listings
	mux.HandleFunc("/api/channel-videos", s.app.ChannelHandler.HandleChannelVideos)

	// Report downloads
	mux.HandleFunc("/api/download-markdown/", s.app.DownloadHandler.HandleDownloadMarkdown)
	mux.HandleFunc("/api/download-pdf/", s.app.DownloadHandler.HandleDownloadPDF)

	// Record log
	mux.HandleFunc("/api/records", s.app.RecordsHandler.HandleRecords)
	mux.HandleFunc("/api/records/", s.handleRecordRoutes)

	// System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleRecordRoutes routes /api/records/{cache_key} requests
func (s *Server) handleRecordRoutes(w http.ResponseWriter, r *http.Request) {
	if len(r.URL.Path) <= len("/api/records/") {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case "DELETE":
		s.app.RecordsHandler.HandleDeleteByCacheKey(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
