package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/specto/internal/models"
	"github.com/ternarybob/specto/internal/services/analysis"
)

// AnalyzeHandler streams analysis runs to clients over Server-Sent Events.
type AnalyzeHandler struct {
	orchestrator *analysis.Orchestrator
	logger       arbor.ILogger
}

func NewAnalyzeHandler(orchestrator *analysis.Orchestrator, logger arbor.ILogger) *AnalyzeHandler {
	return &AnalyzeHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// batchRequest is the payload for selected-video batch analysis.
type batchRequest struct {
	References     []string `json:"video_urls"`
	ReportLanguage string   `json:"report_language,omitempty"`
}

// HandleAnalyze runs a single-reference analysis and streams its events.
// POST /api/analyze
func (h *AnalyzeHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req models.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	h.streamEvents(w, r, h.orchestrator.RunAnalysis(r.Context(), &req))
}

// HandleBatchAnalyzeSelected analyzes an explicit list of references. Oversize
// lists are rejected, not clipped.
// POST /api/batch-analyze-selected
func (h *AnalyzeHandler) HandleBatchAnalyzeSelected(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	h.streamEvents(w, r, h.orchestrator.RunBatchAnalysis(r.Context(), req.References, req.ReportLanguage))
}

// HandleBatchAnalyze analyzes references gathered from a channel listing.
// Unlike the selected-video path, oversize lists are clipped to the batch
// limit.
// POST /api/batch-analyze
func (h *AnalyzeHandler) HandleBatchAnalyze(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	h.streamEvents(w, r, h.orchestrator.RunChannelBatchAnalysis(r.Context(), req.References, req.ReportLanguage))
}

// streamEvents forwards orchestrator events to the client as SSE frames.
// The stream closes when the run's event channel does.
func (h *AnalyzeHandler) streamEvents(w http.ResponseWriter, r *http.Request, events <-chan models.AnalysisEvent) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case event, open := <-events:
			if !open {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				h.logger.Error().Err(err).Msg("Failed to marshal analysis event")
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		case <-r.Context().Done():
			h.logger.Debug().Msg("Client disconnected from event stream")
			return
		}
	}
}
