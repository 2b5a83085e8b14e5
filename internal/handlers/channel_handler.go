package handlers

import (
	"net/http"
	"strconv"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/specto/internal/interfaces"
)

const defaultChannelVideoCount = 20

// ChannelHandler lists recent videos for a channel so the UI can offer them
// for batch analysis.
type ChannelHandler struct {
	titles interfaces.TitleLookup
	logger arbor.ILogger
}

func NewChannelHandler(titles interfaces.TitleLookup, logger arbor.ILogger) *ChannelHandler {
	return &ChannelHandler{
		titles: titles,
		logger: logger,
	}
}

// HandleChannelVideos returns recent channel videos, newest first.
// GET /api/channel-videos?channel_id=@finance&count=20
func (h *ChannelHandler) HandleChannelVideos(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	channelID := r.URL.Query().Get("channel_id")
	if channelID == "" {
		WriteError(w, http.StatusBadRequest, "channel_id is required")
		return
	}

	count := defaultChannelVideoCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			WriteError(w, http.StatusBadRequest, "count must be a positive integer")
			return
		}
		count = parsed
	}

	videos, err := h.titles.ListChannelVideos(r.Context(), channelID, count)
	if err != nil {
		h.logger.Error().Str("channel_id", channelID).Err(err).Msg("Channel video listing failed")
		WriteError(w, http.StatusBadGateway, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"videos": videos,
		"count":  len(videos),
	})
}
