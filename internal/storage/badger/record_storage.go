package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/specto/internal/common"
	"github.com/ternarybob/specto/internal/interfaces"
	"github.com/ternarybob/specto/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// RecordStorage implements the RecordStorage interface for Badger
type RecordStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewRecordStorage creates a new RecordStorage instance
func NewRecordStorage(db *BadgerDB, logger arbor.ILogger) interfaces.RecordStorage {
	return &RecordStorage{
		db:     db,
		logger: logger,
	}
}

// Append stores a new analysis record and returns its generated ID.
func (s *RecordStorage) Append(ctx context.Context, record *models.AnalysisRecord) (string, error) {
	if record.ID == "" {
		record.ID = common.NewRecordID()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	if err := s.db.Store().Insert(record.ID, record); err != nil {
		return "", fmt.Errorf("failed to append analysis record: %w", err)
	}
	return record.ID, nil
}

// List returns records ordered newest first, up to limit. A limit of 0
// or less returns all records.
func (s *RecordStorage) List(ctx context.Context, limit int) ([]models.AnalysisRecord, error) {
	query := badgerhold.Where("CreatedAt").Ge(time.Time{}).SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []models.AnalysisRecord
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list analysis records: %w", err)
	}
	return records, nil
}

// DeleteByCacheKey removes all records linked to a cache key.
// Returns the number of records removed.
func (s *RecordStorage) DeleteByCacheKey(ctx context.Context, key string) (int, error) {
	var records []models.AnalysisRecord
	if err := s.db.Store().Find(&records, badgerhold.Where("CacheKey").Eq(key)); err != nil {
		return 0, fmt.Errorf("failed to find records for cache key: %w", err)
	}

	deleted := 0
	for i := range records {
		if err := s.db.Store().Delete(records[i].ID, &models.AnalysisRecord{}); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				continue
			}
			return deleted, fmt.Errorf("failed to delete record %s: %w", records[i].ID, err)
		}
		deleted++
	}
	return deleted, nil
}
