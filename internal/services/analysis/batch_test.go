package analysis

import (
	"context"
	"fmt"
	"testing"

	"github.com/ternarybob/specto/internal/models"
)

func references(n int) []string {
	refs := make([]string, n)
	for i := range refs {
		refs[i] = fmt.Sprintf("ref-%d", i)
	}
	return refs
}

func TestBatchRejectsElevenReferences(t *testing.T) {
	video := &mockVideo{}
	o := newTestOrchestrator(video, &mockMarket{}, newMemCache(), &recordingLog{})

	events := drain(o.RunBatchAnalysis(context.Background(), references(11), "en"))

	if terminal(events).Type != models.EventError {
		t.Fatal("expected error for 11 references")
	}
	if video.summarizeCalls != 0 {
		t.Error("precondition failure must precede collaborator calls")
	}
}

func TestBatchProcessesExactlyTen(t *testing.T) {
	video := &mockVideo{}
	store := newMemCache()
	log := &recordingLog{}
	o := newTestOrchestrator(video, &mockMarket{}, store, log)

	events := drain(o.RunBatchAnalysis(context.Background(), references(10), "en"))

	last := terminal(events)
	if last.Type != models.EventResult {
		t.Fatalf("expected result, got %v (%s)", last.Type, last.Message)
	}
	if len(video.lastReferences) != 10 {
		t.Errorf("summarize got %d references, want 10", len(video.lastReferences))
	}
	if last.Result.Mode != models.ModeBatchContent {
		t.Errorf("mode = %q", last.Result.Mode)
	}
	if last.Result.ReferenceCount != 10 {
		t.Errorf("reference count = %d", last.Result.ReferenceCount)
	}
	// Batch runs never produce audit records.
	if len(log.appended) != 0 {
		t.Errorf("batch run appended records: %+v", log.appended)
	}
}

func TestBatchRejectsSingleReference(t *testing.T) {
	o := newTestOrchestrator(&mockVideo{}, &mockMarket{}, newMemCache(), &recordingLog{})

	events := drain(o.RunBatchAnalysis(context.Background(), references(1), "en"))
	if terminal(events).Type != models.EventError {
		t.Error("expected error for a single reference")
	}
}

func TestChannelBatchClipsInsteadOfRejecting(t *testing.T) {
	video := &mockVideo{}
	o := newTestOrchestrator(video, &mockMarket{}, newMemCache(), &recordingLog{})

	events := drain(o.RunChannelBatchAnalysis(context.Background(), references(14), "en"))

	last := terminal(events)
	if last.Type != models.EventResult {
		t.Fatalf("expected result, got %v (%s)", last.Type, last.Message)
	}
	if len(video.lastReferences) != MaxBatchReferences {
		t.Errorf("summarize got %d references, want clip to %d", len(video.lastReferences), MaxBatchReferences)
	}
}

func TestBatchCacheHit(t *testing.T) {
	video := &mockVideo{}
	store := newMemCache()
	o := newTestOrchestrator(video, &mockMarket{}, store, &recordingLog{})

	refs := references(3)
	drain(o.RunBatchAnalysis(context.Background(), refs, "en"))

	// Same set in a different order must hit the same entry.
	reordered := []string{refs[2], refs[0], refs[1]}
	events := drain(o.RunBatchAnalysis(context.Background(), reordered, "en"))

	if video.summarizeCalls != 1 {
		t.Errorf("summarize calls = %d, want 1", video.summarizeCalls)
	}
	last := terminal(events)
	if last.Type != models.EventResult || !last.Result.FromCache {
		t.Error("expected cached result for reordered reference set")
	}
}
