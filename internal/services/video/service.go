// Package video provides multimodal video understanding backed by the
// Gemini API. It produces analyst-style content summaries and structured
// ticker extractions from video references.
package video

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/specto/internal/common"
	"github.com/ternarybob/specto/internal/interfaces"
	"github.com/ternarybob/specto/internal/models"
	"github.com/ternarybob/specto/internal/services/llm"
	"google.golang.org/genai"
)

// Service implements the VideoUnderstanding interface using Gemini
// multimodal models.
type Service struct {
	config  *common.GeminiConfig
	logger  arbor.ILogger
	client  *genai.Client
	timeout time.Duration
	retry   *llm.RetryConfig
	now     func() time.Time
}

// NewService creates a new video understanding service.
func NewService(config *common.GeminiConfig, logger arbor.ILogger) (*Service, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required for video understanding (set via SPECTO_GEMINI_API_KEY, GEMINI_API_KEY, or gemini.api_key in config)")
	}

	if config.VideoModel == "" {
		config.VideoModel = "gemini-2.5-flash"
	}

	timeout := 300 * time.Second
	if config.Timeout != "" {
		parsed, err := time.ParseDuration(config.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout duration '%s': %w", config.Timeout, err)
		}
		timeout = parsed
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	logger.Info().
		Str("video_model", config.VideoModel).
		Dur("timeout", timeout).
		Msg("Video understanding service initialized")

	return &Service{
		config:  config,
		logger:  logger,
		client:  client,
		timeout: timeout,
		retry:   llm.NewDefaultRetryConfig(),
		now:     time.Now,
	}, nil
}

// Summarize produces an analyst-style content summary over one or more
// video references. Progress is reported through sink as the call moves
// through its stages.
func (s *Service) Summarize(ctx context.Context, references []string, language string, sink interfaces.LogSink) (*models.ContentSummary, error) {
	if len(references) == 0 {
		return nil, fmt.Errorf("at least one video reference is required")
	}

	emit(sink, "step", "Starting video content analysis...")

	var prompt string
	if len(references) == 1 {
		prompt = summaryPrompt(language, s.now())
	} else {
		prompt = batchSummaryPrompt(len(references), language, s.now())
	}

	parts := make([]*genai.Part, 0, len(references)+1)
	parts = append(parts, genai.NewPartFromText(prompt))
	for _, ref := range references {
		parts = append(parts, &genai.Part{
			FileData: &genai.FileData{FileURI: ref},
		})
	}

	emit(sink, "info", "Processing video content...")

	text, err := s.generate(ctx, parts)
	if err != nil {
		emit(sink, "error", fmt.Sprintf("Video analysis failed: %v", err))
		return nil, fmt.Errorf("video analysis failed: %w", err)
	}

	emit(sink, "success", "Video content analysis complete")

	return &models.ContentSummary{
		RawText:    text,
		Summary:    text,
		VideoCount: len(references),
	}, nil
}

// ExtractTickers asks the model for the stocks discussed in a single
// video. Returned items carry the model's raw vocabulary; callers
// validate symbols and confidences before use.
func (s *Service) ExtractTickers(ctx context.Context, reference string, sink interfaces.LogSink) ([]models.ExtractedTicker, error) {
	if strings.TrimSpace(reference) == "" {
		return nil, fmt.Errorf("video reference is required")
	}

	emit(sink, "step", "Extracting stock mentions from video...")

	parts := []*genai.Part{
		genai.NewPartFromText(extractionPrompt),
		{FileData: &genai.FileData{FileURI: reference}},
	}

	text, err := s.generate(ctx, parts)
	if err != nil {
		emit(sink, "error", fmt.Sprintf("Stock extraction failed: %v", err))
		return nil, fmt.Errorf("stock extraction failed: %w", err)
	}

	emit(sink, "info", "Parsing extraction result...")

	tickers, err := parseExtractionResponse(text)
	if err != nil {
		emit(sink, "error", fmt.Sprintf("Failed to parse extraction result: %v", err))
		return nil, err
	}

	emit(sink, "success", fmt.Sprintf("Stock extraction complete (%d candidates)", len(tickers)))

	return tickers, nil
}

// generate runs a single multimodal completion with rate limit retries.
func (s *Service) generate(ctx context.Context, parts []*genai.Part) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	contents := []*genai.Content{
		{Role: genai.RoleUser, Parts: parts},
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		resp, err := s.client.Models.GenerateContent(timeoutCtx, s.config.VideoModel, contents, nil)
		if err == nil {
			text := collectText(resp)
			if text == "" {
				return "", fmt.Errorf("empty response from video model")
			}
			return text, nil
		}

		lastErr = err
		if !llm.IsRateLimitError(err) || attempt >= s.retry.MaxRetries {
			return "", lastErr
		}

		backoff := s.retry.CalculateBackoff(attempt, llm.ExtractRetryDelay(err))
		s.logger.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Msg("Video model rate limit hit, backing off")

		select {
		case <-timeoutCtx.Done():
			return "", fmt.Errorf("video analysis cancelled during backoff: %w", timeoutCtx.Err())
		case <-time.After(backoff):
		}
	}
}

// collectText flattens candidate text parts into a single string.
func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				b.WriteString(part.Text)
			}
		}
		if b.Len() > 0 {
			break
		}
	}
	return b.String()
}

// emit forwards a progress message to the sink when one is attached.
func emit(sink interfaces.LogSink, level, message string) {
	if sink != nil {
		sink(level, message, "")
	}
}
