// Package titles resolves best-effort display metadata for video references.
// Titles come from the channel data API when a key is configured, with an
// HTML page scrape as fallback. Every failure is survivable by callers.
package titles

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/specto/internal/common"
	"github.com/ternarybob/specto/internal/models"
)

const defaultLookupTimeout = 15 * time.Second

// Service implements interfaces.TitleLookup against the channel data API,
// falling back to scraping the watch page when the API is unavailable.
type Service struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     arbor.ILogger
}

type Option func(*Service)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) {
		s.httpClient = client
	}
}

// WithBaseURL overrides the channel API base URL.
func WithBaseURL(baseURL string) Option {
	return func(s *Service) {
		s.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func NewService(cfg *common.VideoConfig, logger arbor.ILogger, opts ...Option) *Service {
	timeout := defaultLookupTimeout
	if cfg.LookupTimeout != "" {
		if parsed, err := time.ParseDuration(cfg.LookupTimeout); err == nil {
			timeout = parsed
		}
	}

	s := &Service{
		baseURL:    strings.TrimRight(cfg.ChannelAPIBaseURL, "/"),
		apiKey:     cfg.ChannelAPIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// LookupTitle resolves the display title for a reference. The channel API is
// tried first when configured; otherwise the watch page itself is scraped.
func (s *Service) LookupTitle(ctx context.Context, reference string) (*models.VideoInfo, error) {
	if s.apiKey != "" {
		if info, err := s.lookupViaAPI(ctx, reference); err == nil {
			return info, nil
		} else {
			s.logger.Debug().
				Str("reference", reference).
				Err(err).
				Msg("Channel API lookup failed, falling back to page scrape")
		}
	}

	return s.scrapeTitle(ctx, reference)
}

// videoDetailResponse is the shape of the channel API's video-info endpoint.
type videoDetailResponse struct {
	Data struct {
		VideoDetails struct {
			VideoID string `json:"videoId"`
			Title   string `json:"title"`
			Author  string `json:"author"`
		} `json:"videoDetails"`
	} `json:"data"`
}

func (s *Service) lookupViaAPI(ctx context.Context, reference string) (*models.VideoInfo, error) {
	videoID, err := extractVideoID(reference)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/api/v1/youtube/web/get_video_info_v2?video_id=%s", s.baseURL, url.QueryEscape(videoID))
	var detail videoDetailResponse
	if err := s.getJSON(ctx, endpoint, &detail); err != nil {
		return nil, err
	}

	if detail.Data.VideoDetails.Title == "" {
		return nil, fmt.Errorf("video detail response had no title for %s", videoID)
	}

	return &models.VideoInfo{
		ID:      videoID,
		Title:   detail.Data.VideoDetails.Title,
		URL:     reference,
		Channel: detail.Data.VideoDetails.Author,
	}, nil
}

// channelVideosResponse is the shape of the channel API's video-list endpoint.
type channelVideosResponse struct {
	Data struct {
		Items []struct {
			Type              string `json:"type"`
			ID                string `json:"id"`
			Title             string `json:"title"`
			LengthText        string `json:"lengthText"`
			PublishedTimeText string `json:"publishedTimeText"`
			ViewCountText     string `json:"viewCountText"`
			Thumbnails        []struct {
				URL string `json:"url"`
			} `json:"thumbnails"`
		} `json:"items"`
		NextToken string `json:"nextToken"`
	} `json:"data"`
}

// ListChannelVideos lists recent videos for a channel, newest first. Entries
// that are not plain videos (live streams, shorts shelves) are skipped.
func (s *Service) ListChannelVideos(ctx context.Context, channelID string, count int) ([]models.VideoInfo, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("channel API key not configured")
	}

	params := url.Values{}
	params.Set("channel_id", channelID)
	params.Set("sortBy", "newest")
	params.Set("contentType", "videos")

	endpoint := fmt.Sprintf("%s/api/v1/youtube/web/get_channel_videos_v2?%s", s.baseURL, params.Encode())
	var resp channelVideosResponse
	if err := s.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("failed to list channel videos: %w", err)
	}

	videos := make([]models.VideoInfo, 0, len(resp.Data.Items))
	for _, item := range resp.Data.Items {
		if item.Type != "video" {
			continue
		}

		thumbnail := ""
		if len(item.Thumbnails) > 2 {
			thumbnail = item.Thumbnails[2].URL
		} else if len(item.Thumbnails) > 0 {
			thumbnail = item.Thumbnails[0].URL
		}

		videos = append(videos, models.VideoInfo{
			ID:          item.ID,
			Title:       item.Title,
			URL:         fmt.Sprintf("https://www.youtube.com/watch?v=%s", item.ID),
			Thumbnail:   thumbnail,
			Duration:    item.LengthText,
			PublishedAt: item.PublishedTimeText,
			ViewCount:   item.ViewCountText,
		})

		if count > 0 && len(videos) >= count {
			break
		}
	}

	return videos, nil
}

func (s *Service) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("channel API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// scrapeTitle fetches the reference page and reads its <title> element.
func (s *Service) scrapeTitle(ctx context.Context, reference string) (*models.VideoInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reference, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid reference URL: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; specto/1.0)")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	title := CleanPageTitle(doc.Find("title").First().Text())
	if title == "" {
		return nil, fmt.Errorf("page had no title")
	}

	return &models.VideoInfo{
		Title: title,
		URL:   reference,
	}, nil
}

// CleanPageTitle normalizes a scraped <title>, trimming whitespace and the
// platform suffix sites append to watch pages.
func CleanPageTitle(raw string) string {
	title := strings.TrimSpace(raw)
	for _, suffix := range []string{" - YouTube", " | YouTube"} {
		title = strings.TrimSuffix(title, suffix)
	}
	return strings.TrimSpace(title)
}

// extractVideoID pulls the video ID out of a watch URL.
func extractVideoID(reference string) (string, error) {
	parsed, err := url.Parse(reference)
	if err != nil {
		return "", fmt.Errorf("invalid reference URL: %w", err)
	}

	if strings.Contains(parsed.Host, "youtu.be") {
		id := strings.Trim(parsed.Path, "/")
		if id != "" {
			return id, nil
		}
	}

	if id := parsed.Query().Get("v"); id != "" {
		return id, nil
	}

	return "", fmt.Errorf("could not extract video ID from %s", reference)
}
