package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/specto/internal/services/records"
)

const defaultRecordLimit = 50

// RecordsHandler serves the append-only analysis record log.
type RecordsHandler struct {
	records *records.Service
	logger  arbor.ILogger
}

func NewRecordsHandler(recordService *records.Service, logger arbor.ILogger) *RecordsHandler {
	return &RecordsHandler{
		records: recordService,
		logger:  logger,
	}
}

// HandleRecords lists records newest first.
// GET /api/records?limit=50
func (h *RecordsHandler) HandleRecords(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	limit := defaultRecordLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			WriteError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	list, err := h.records.List(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list analysis records")
		WriteError(w, http.StatusInternalServerError, "failed to list records")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"records": list,
		"count":   len(list),
	})
}

// HandleDeleteByCacheKey removes every record sharing a cache key.
// DELETE /api/records/{cache_key}
func (h *RecordsHandler) HandleDeleteByCacheKey(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "DELETE") {
		return
	}

	cacheKey := strings.TrimPrefix(r.URL.Path, "/api/records/")
	if cacheKey == "" || strings.Contains(cacheKey, "/") {
		WriteError(w, http.StatusBadRequest, "cache key is required")
		return
	}

	removed, err := h.records.DeleteByCacheKey(r.Context(), cacheKey)
	if err != nil {
		h.logger.Error().Str("cache_key", cacheKey).Err(err).Msg("Failed to delete records")
		WriteError(w, http.StatusInternalServerError, "failed to delete records")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"deleted": removed,
	})
}
