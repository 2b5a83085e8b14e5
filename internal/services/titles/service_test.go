package titles

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/specto/internal/common"
)

func TestCleanPageTitle(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Market Outlook Q3 - YouTube", "Market Outlook Q3"},
		{"  Spaced Title  ", "Spaced Title"},
		{"Plain Title", "Plain Title"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := CleanPageTitle(tt.raw); got != tt.want {
			t.Errorf("CleanPageTitle(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		reference string
		want      string
		wantErr   bool
	}{
		{"https://www.youtube.com/watch?v=abc123", "abc123", false},
		{"https://www.youtube.com/watch?v=abc123&t=30s", "abc123", false},
		{"https://youtu.be/xyz789", "xyz789", false},
		{"https://example.com/video", "", true},
	}

	for _, tt := range tests {
		got, err := extractVideoID(tt.reference)
		if tt.wantErr {
			if err == nil {
				t.Errorf("extractVideoID(%q) expected error", tt.reference)
			}
			continue
		}
		if err != nil {
			t.Errorf("extractVideoID(%q): %v", tt.reference, err)
			continue
		}
		if got != tt.want {
			t.Errorf("extractVideoID(%q) = %q, want %q", tt.reference, got, tt.want)
		}
	}
}

func TestScrapeTitleFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Earnings Deep Dive - YouTube</title></head><body></body></html>`))
	}))
	defer server.Close()

	svc := NewService(&common.VideoConfig{}, arbor.NewLogger())

	info, err := svc.LookupTitle(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("LookupTitle: %v", err)
	}
	if info.Title != "Earnings Deep Dive" {
		t.Errorf("title = %q", info.Title)
	}
	if info.URL != server.URL {
		t.Errorf("url = %q", info.URL)
	}
}

func TestListChannelVideos(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.URL.Query().Get("channel_id"); got != "@finance" {
			t.Errorf("channel_id = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"items":[
			{"type":"video","id":"v1","title":"First","lengthText":"10:00"},
			{"type":"shelf","id":"s1","title":"Shorts"},
			{"type":"video","id":"v2","title":"Second"},
			{"type":"video","id":"v3","title":"Third"}
		]}}`))
	}))
	defer server.Close()

	svc := NewService(&common.VideoConfig{ChannelAPIKey: "test-key"}, arbor.NewLogger(), WithBaseURL(server.URL))

	videos, err := svc.ListChannelVideos(context.Background(), "@finance", 2)
	if err != nil {
		t.Fatalf("ListChannelVideos: %v", err)
	}
	if len(videos) != 2 {
		t.Fatalf("expected 2 videos, got %d", len(videos))
	}
	if videos[0].ID != "v1" || videos[1].ID != "v2" {
		t.Errorf("unexpected order: %+v", videos)
	}
	if videos[0].URL != "https://www.youtube.com/watch?v=v1" {
		t.Errorf("url = %q", videos[0].URL)
	}
}

func TestListChannelVideosRequiresKey(t *testing.T) {
	svc := NewService(&common.VideoConfig{}, arbor.NewLogger())
	if _, err := svc.ListChannelVideos(context.Background(), "@finance", 5); err == nil {
		t.Error("expected error without API key")
	}
}
