package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/specto/internal/interfaces"
	"github.com/ternarybob/specto/internal/services/artifacts"
	"github.com/ternarybob/specto/internal/services/cache"
	"github.com/ternarybob/specto/internal/services/pdf"
)

// DownloadHandler serves rendered reports for download, addressed by cache
// key. Markdown comes from the artifact store; PDF is rendered on demand
// from the cached result.
type DownloadHandler struct {
	cache     *cache.Service
	artifacts *artifacts.Store
	pdf       *pdf.Service
	logger    arbor.ILogger
}

func NewDownloadHandler(cacheService *cache.Service, artifactStore *artifacts.Store, pdfService *pdf.Service, logger arbor.ILogger) *DownloadHandler {
	return &DownloadHandler{
		cache:     cacheService,
		artifacts: artifactStore,
		pdf:       pdfService,
		logger:    logger,
	}
}

// HandleDownloadMarkdown serves the stored markdown rendering.
// GET /api/download-markdown/{cache_key}
func (h *DownloadHandler) HandleDownloadMarkdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	key := strings.TrimPrefix(r.URL.Path, "/api/download-markdown/")
	if key == "" {
		WriteError(w, http.StatusBadRequest, "cache key is required")
		return
	}

	var markdown string
	if data, err := h.artifacts.Read(key); err == nil {
		markdown = string(data)
	} else {
		// The artifact store is best effort; fall back to the cached result.
		entry, cacheErr := h.cache.GetByKey(r.Context(), key)
		if cacheErr != nil {
			if cacheErr == interfaces.ErrCacheEntryNotFound {
				WriteError(w, http.StatusNotFound, "no report found for cache key")
			} else {
				WriteError(w, http.StatusInternalServerError, "failed to load report")
			}
			return
		}
		markdown = entry.Result.Report.RawMarkdown
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="analysis_%s.md"`, shortKey(key)))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(markdown))
}

// HandleDownloadPDF renders the cached report as a PDF.
// GET /api/download-pdf/{cache_key}
func (h *DownloadHandler) HandleDownloadPDF(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	key := strings.TrimPrefix(r.URL.Path, "/api/download-pdf/")
	if key == "" {
		WriteError(w, http.StatusBadRequest, "cache key is required")
		return
	}

	entry, err := h.cache.GetByKey(r.Context(), key)
	if err != nil {
		if err == interfaces.ErrCacheEntryNotFound {
			WriteError(w, http.StatusNotFound, "no report found for cache key")
		} else {
			WriteError(w, http.StatusInternalServerError, "failed to load report")
		}
		return
	}

	report := entry.Result.Report
	data, err := h.pdf.RenderReport(&report)
	if err != nil {
		h.logger.Error().Str("cache_key", key).Err(err).Msg("PDF rendering failed")
		WriteError(w, http.StatusInternalServerError, "failed to render PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="analysis_%s.pdf"`, shortKey(key)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// shortKey truncates a cache key for a readable filename.
func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
