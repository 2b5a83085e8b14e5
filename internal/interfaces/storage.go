// Package interfaces provides service interfaces for dependency injection.
package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/specto/internal/models"
)

// ErrCacheEntryNotFound is returned when no entry exists for a cache key.
// Corrupted entries are deleted on read and reported with this same error.
var ErrCacheEntryNotFound = errors.New("cache entry not found")

// CacheStorage persists analysis cache entries keyed by cache key.
// Put is last-write-wins and idempotent under retry; writes are atomic per
// key so readers never observe a torn entry.
type CacheStorage interface {
	// Get retrieves the entry for a key. Returns ErrCacheEntryNotFound for
	// missing keys and for entries that fail to decode (the stored entry is
	// deleted before returning in that case).
	Get(ctx context.Context, key string) (*models.CachedEntry, error)

	// Put stores an entry under its key, replacing any previous entry.
	Put(ctx context.Context, entry *models.CachedEntry) error

	// Delete removes the entry for a key. Returns the number of entries
	// removed (0 or 1).
	Delete(ctx context.Context, key string) (int, error)
}

// RecordStorage persists the append-only analysis record log.
type RecordStorage interface {
	// Append inserts a record and returns its ID.
	Append(ctx context.Context, record *models.AnalysisRecord) (string, error)

	// List returns up to limit records ordered by creation time descending.
	List(ctx context.Context, limit int) ([]models.AnalysisRecord, error)

	// DeleteByCacheKey removes every record sharing the cache key and
	// returns the number removed.
	DeleteByCacheKey(ctx context.Context, cacheKey string) (int, error)
}

// StorageManager provides access to all storage backends.
type StorageManager interface {
	CacheStorage() CacheStorage
	RecordStorage() RecordStorage
	Close() error
}
