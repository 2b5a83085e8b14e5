package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/specto/internal/interfaces"
	"github.com/ternarybob/specto/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// storedCacheEntry is the persisted form of a cache entry. The analysis
// result is stored as raw JSON so a corrupted payload surfaces as an
// unmarshal failure on read rather than a decode panic.
type storedCacheEntry struct {
	CacheKey        string `badgerhold:"key"`
	InputReferences []string
	CreatedAt       time.Time
	ResultJSON      []byte
}

// CacheStorage implements the CacheStorage interface for Badger
type CacheStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCacheStorage creates a new CacheStorage instance
func NewCacheStorage(db *BadgerDB, logger arbor.ILogger) interfaces.CacheStorage {
	return &CacheStorage{
		db:     db,
		logger: logger,
	}
}

// Get retrieves a cached analysis entry by key.
// A corrupted entry is deleted and reported as not found so callers
// recompute instead of failing.
func (s *CacheStorage) Get(ctx context.Context, key string) (*models.CachedEntry, error) {
	var stored storedCacheEntry
	if err := s.db.Store().Get(key, &stored); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, interfaces.ErrCacheEntryNotFound
		}
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(stored.ResultJSON, &result); err != nil {
		s.logger.Warn().
			Err(err).
			Str("cache_key", key).
			Msg("Corrupted cache entry, deleting")

		if delErr := s.db.Store().Delete(key, &storedCacheEntry{}); delErr != nil && !errors.Is(delErr, badgerhold.ErrNotFound) {
			s.logger.Warn().Err(delErr).Str("cache_key", key).Msg("Failed to delete corrupted cache entry")
		}
		return nil, interfaces.ErrCacheEntryNotFound
	}

	return &models.CachedEntry{
		CacheKey:        stored.CacheKey,
		InputReferences: stored.InputReferences,
		CreatedAt:       stored.CreatedAt,
		Result:          result,
	}, nil
}

// Put stores a cache entry, replacing any existing entry for the key.
func (s *CacheStorage) Put(ctx context.Context, entry *models.CachedEntry) error {
	if entry.CacheKey == "" {
		return fmt.Errorf("cache key is required")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	resultJSON, err := json.Marshal(entry.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis result: %w", err)
	}

	stored := storedCacheEntry{
		CacheKey:        entry.CacheKey,
		InputReferences: entry.InputReferences,
		CreatedAt:       entry.CreatedAt,
		ResultJSON:      resultJSON,
	}

	if err := s.db.Store().Upsert(entry.CacheKey, &stored); err != nil {
		return fmt.Errorf("failed to save cache entry: %w", err)
	}
	return nil
}

// Delete removes a cache entry. Returns the number of entries removed.
func (s *CacheStorage) Delete(ctx context.Context, key string) (int, error) {
	if err := s.db.Store().Delete(key, &storedCacheEntry{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return 1, nil
}
