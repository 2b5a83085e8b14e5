package interfaces

import (
	"context"

	"github.com/ternarybob/specto/internal/models"
)

// LogSink receives log lines a streaming-capable collaborator emits while a
// call is in flight. Level is one of "step", "info", "warning", "success",
// "error"; partial carries incremental response text when available and is
// empty otherwise. Implementations must be safe to call from the
// collaborator's goroutine and must never block for long.
type LogSink func(level, message, partial string)

// VideoUnderstanding is the AI collaborator that turns a video reference into
// structured content. Both capabilities stream intermediate log lines through
// the sink before returning the final payload, and fail with a transport
// error on network/API failure.
type VideoUnderstanding interface {
	// Summarize produces an investment-analysis narrative for one or more
	// video references. Multiple references are analyzed together in a
	// single combined pass.
	Summarize(ctx context.Context, references []string, language string, sink LogSink) (*models.ContentSummary, error)

	// ExtractTickers identifies tickers discussed in the video. An empty
	// slice with a nil error means the video mentioned no usable tickers;
	// the caller decides whether that is fatal.
	ExtractTickers(ctx context.Context, reference string, sink LogSink) ([]models.ExtractedTicker, error)
}

// MarketDataService is the market-data collaborator. Implementations return a
// typed no-data error when the symbol or window has nothing, and a distinct
// rate-limit error when the provider quota is exhausted.
type MarketDataService interface {
	// GetSnapshot fetches data for the trailing number of days.
	GetSnapshot(ctx context.Context, symbol string, days int) (*models.MarketData, error)

	// GetSnapshotByDateRange fetches data between two YYYY-MM-DD dates.
	GetSnapshotByDateRange(ctx context.Context, symbol, startDate, endDate string) (*models.MarketData, error)
}

// TitleLookup resolves best-effort display metadata for references. Failures
// are expected and must be tolerated by callers.
type TitleLookup interface {
	// LookupTitle resolves the display title for a single reference.
	LookupTitle(ctx context.Context, reference string) (*models.VideoInfo, error)

	// ListChannelVideos lists recent videos for a channel, newest first.
	ListChannelVideos(ctx context.Context, channelID string, count int) ([]models.VideoInfo, error)
}
