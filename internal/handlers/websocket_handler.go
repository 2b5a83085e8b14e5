package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/specto/internal/models"
	"github.com/ternarybob/specto/internal/services/analysis"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Browser clients connect from the bundled UI; cross-origin is allowed
	// the same way the SSE endpoints are.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocketHandler runs analyses over a websocket connection. The client
// sends one analysis request as the first text message and receives the event
// stream back as JSON messages; the connection closes after the terminal
// event.
type WebSocketHandler struct {
	orchestrator *analysis.Orchestrator
	logger       arbor.ILogger
}

func NewWebSocketHandler(orchestrator *analysis.Orchestrator, logger arbor.ILogger) *WebSocketHandler {
	return &WebSocketHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// HandleAnalyze upgrades the connection and streams one analysis run.
// GET /ws/analyze
func (h *WebSocketHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	var req models.AnalysisRequest
	if err := conn.ReadJSON(&req); err != nil {
		h.writeEvent(conn, models.ErrorEvent("invalid analysis request"))
		return
	}

	events := h.orchestrator.RunAnalysis(r.Context(), &req)
	for event := range events {
		if !h.writeEvent(conn, event) {
			return
		}
	}
}

func (h *WebSocketHandler) writeEvent(conn *websocket.Conn, event models.AnalysisEvent) bool {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal websocket event")
		return true
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			h.logger.Warn().Err(err).Msg("WebSocket write failed")
		}
		return false
	}
	return true
}
