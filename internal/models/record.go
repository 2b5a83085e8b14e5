package models

import "time"

// AnalysisRecord is one row in the append-only audit log of completed
// analyses. Only single-reference runs produce records; batch runs never do.
type AnalysisRecord struct {
	ID             string       `json:"id" badgerhold:"key"`
	ResourceTitle  string       `json:"video_title,omitempty"`
	Reference      string       `json:"video_url"`
	ChannelLabel   string       `json:"channel_name,omitempty"`
	CacheKey       string       `json:"cache_key" badgerholdIndex:"CacheKey"`
	ModeLabel      AnalysisMode `json:"analysis_type"`
	StartDate      string       `json:"start_date,omitempty"`
	EndDate        string       `json:"end_date,omitempty"`
	ReportLanguage string       `json:"report_language,omitempty"`
	CreatedAt      time.Time    `json:"created_at" badgerholdIndex:"CreatedAt"`
}

// VideoInfo is the best-effort metadata the title-lookup collaborator
// resolves for a reference.
type VideoInfo struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Channel     string `json:"channel,omitempty"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	Duration    string `json:"duration,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
	ViewCount   string `json:"view_count,omitempty"`
}
