package badger

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/specto/internal/interfaces"
	"github.com/ternarybob/specto/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

func newTestDB(t *testing.T) *BadgerDB {
	t.Helper()

	tmpDir := t.TempDir()

	options := badgerhold.DefaultOptions
	options.Dir = tmpDir
	options.ValueDir = tmpDir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return &BadgerDB{store: store}
}

func TestCacheStorageRoundTrip(t *testing.T) {
	db := newTestDB(t)
	logger := arbor.NewLogger()
	storage := NewCacheStorage(db, logger)

	ctx := context.Background()

	entry := &models.CachedEntry{
		CacheKey:        "abc123",
		InputReferences: []string{"https://example.com/v1", "https://example.com/v2"},
		Result: models.AnalysisResult{
			Mode:           models.ModeContentOnly,
			ReferenceCount: 2,
			CacheKey:       "abc123",
			Report: models.Report{
				Title:       "Test Report",
				RawMarkdown: "# Test",
			},
		},
	}

	if err := storage.Put(ctx, entry); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := storage.Get(ctx, "abc123")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Result.Report.Title != "Test Report" {
		t.Errorf("expected report title preserved, got %q", got.Result.Report.Title)
	}
	if got.Result.ReferenceCount != 2 {
		t.Errorf("expected reference count 2, got %d", got.Result.ReferenceCount)
	}
	if len(got.InputReferences) != 2 {
		t.Errorf("expected 2 input references, got %d", len(got.InputReferences))
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set on Put")
	}
}

func TestCacheStorageGetMissing(t *testing.T) {
	db := newTestDB(t)
	storage := NewCacheStorage(db, arbor.NewLogger())

	_, err := storage.Get(context.Background(), "nope")
	if !errors.Is(err, interfaces.ErrCacheEntryNotFound) {
		t.Fatalf("expected ErrCacheEntryNotFound, got %v", err)
	}
}

func TestCacheStorageCorruptedEntryDeleted(t *testing.T) {
	db := newTestDB(t)
	storage := NewCacheStorage(db, arbor.NewLogger())

	ctx := context.Background()

	// Write an entry whose result payload is not valid JSON
	stored := storedCacheEntry{
		CacheKey:        "corrupt",
		InputReferences: []string{"https://example.com/v1"},
		CreatedAt:       time.Now().UTC(),
		ResultJSON:      []byte("{not json"),
	}
	if err := db.Store().Upsert(stored.CacheKey, &stored); err != nil {
		t.Fatal(err)
	}

	// First read reports not found and removes the entry
	if _, err := storage.Get(ctx, "corrupt"); !errors.Is(err, interfaces.ErrCacheEntryNotFound) {
		t.Fatalf("expected ErrCacheEntryNotFound for corrupted entry, got %v", err)
	}

	// The underlying entry must be gone
	var check storedCacheEntry
	if err := db.Store().Get("corrupt", &check); !errors.Is(err, badgerhold.ErrNotFound) {
		t.Fatalf("expected corrupted entry to be deleted, got %v", err)
	}
}

func TestCacheStorageDelete(t *testing.T) {
	db := newTestDB(t)
	storage := NewCacheStorage(db, arbor.NewLogger())

	ctx := context.Background()

	entry := &models.CachedEntry{
		CacheKey: "del-me",
		Result:   models.AnalysisResult{Mode: models.ModeManualSymbol},
	}
	if err := storage.Put(ctx, entry); err != nil {
		t.Fatal(err)
	}

	n, err := storage.Delete(ctx, "del-me")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 entry deleted, got %d", n)
	}

	// Deleting again is a no-op
	n, err = storage.Delete(ctx, "del-me")
	if err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 entries deleted on second call, got %d", n)
	}
}

func TestRecordStorageAppendAndList(t *testing.T) {
	db := newTestDB(t)
	storage := NewRecordStorage(db, arbor.NewLogger())

	ctx := context.Background()

	for i, title := range []string{"first", "second", "third"} {
		id, err := storage.Append(ctx, &models.AnalysisRecord{
			ResourceTitle: title,
			Reference:     "https://example.com/v",
			CacheKey:      "key-1",
			ModeLabel:     models.ModeContentOnly,
			CreatedAt:     time.Now().UTC().Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("Append %q failed: %v", title, err)
		}
		if id == "" {
			t.Fatal("expected generated record ID")
		}
	}

	records, err := storage.List(ctx, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	// Newest first
	if records[0].ResourceTitle != "third" {
		t.Errorf("expected newest record first, got %q", records[0].ResourceTitle)
	}
}

func TestRecordStorageDeleteByCacheKey(t *testing.T) {
	db := newTestDB(t)
	storage := NewRecordStorage(db, arbor.NewLogger())

	ctx := context.Background()

	for _, key := range []string{"key-a", "key-a", "key-b"} {
		if _, err := storage.Append(ctx, &models.AnalysisRecord{
			Reference: "https://example.com/v",
			CacheKey:  key,
			ModeLabel: models.ModeTickerExtraction,
		}); err != nil {
			t.Fatal(err)
		}
	}

	n, err := storage.DeleteByCacheKey(ctx, "key-a")
	if err != nil {
		t.Fatalf("DeleteByCacheKey failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 records deleted, got %d", n)
	}

	remaining, err := storage.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 1 || remaining[0].CacheKey != "key-b" {
		t.Errorf("expected only key-b record to remain, got %+v", remaining)
	}
}

func TestRecordStorageRecordJSONShape(t *testing.T) {
	record := models.AnalysisRecord{
		ID:            "rec_1",
		ResourceTitle: "Market outlook",
		Reference:     "https://example.com/v",
		ChannelLabel:  "Finance Channel",
		CacheKey:      "key",
		ModeLabel:     models.ModeManualSymbol,
	}

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatal(err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if m["video_title"] != "Market outlook" {
		t.Errorf("expected video_title field, got %v", m)
	}
	if m["analysis_type"] != "manual_symbol" {
		t.Errorf("expected analysis_type field, got %v", m)
	}
}
