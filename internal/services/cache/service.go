// Package cache provides content-addressed caching of analysis results.
// Keys are derived from the full set of input references so identical
// requests reuse a completed analysis instead of re-running collaborators.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/specto/internal/interfaces"
	"github.com/ternarybob/specto/internal/models"
)

// Service wraps cache storage with key derivation and artifact handling.
type Service struct {
	storage   interfaces.CacheStorage
	artifacts ArtifactWriter
	logger    arbor.ILogger
}

// ArtifactWriter persists a human-readable rendering of a result,
// addressed by cache key. Write-once per key.
type ArtifactWriter interface {
	Write(key string, markdown string) error
}

// NewService creates a new cache service. artifacts may be nil when no
// artifact store is configured.
func NewService(storage interfaces.CacheStorage, artifacts ArtifactWriter, logger arbor.ILogger) *Service {
	return &Service{
		storage:   storage,
		artifacts: artifacts,
		logger:    logger,
	}
}

// DeriveKey computes the deterministic cache key for a set of input
// references: sort, pipe-join, SHA-256 hex. Identical sets in any order
// produce the same key.
func DeriveKey(references []string) string {
	sorted := make([]string, len(references))
	copy(sorted, references)
	sort.Strings(sorted)

	sum := sha256.Sum256([]byte(strings.Join(sorted, "|")))
	return hex.EncodeToString(sum[:])
}

// DeriveManualKey computes the cache key for a manual-symbol run. The
// symbol and date range are part of the input set, so changing any of
// them yields a different key.
func DeriveManualKey(reference, symbol, startDate, endDate string) string {
	return DeriveKey([]string{fmt.Sprintf("%s|%s|%s|%s", reference, symbol, startDate, endDate)})
}

// Get looks up a cached entry by the reference set.
func (s *Service) Get(ctx context.Context, references []string) (*models.CachedEntry, error) {
	return s.GetByKey(ctx, DeriveKey(references))
}

// GetByKey looks up a cached entry by a pre-derived key. Used by the
// chart and download flows, which address results independently of the
// original reference set.
func (s *Service) GetByKey(ctx context.Context, key string) (*models.CachedEntry, error) {
	entry, err := s.storage.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("cache_key", key).
		Str("created_at", entry.CreatedAt.Format(time.RFC3339)).
		Msg("Cache hit")

	return entry, nil
}

// Put stores a completed result under key and writes the rendered
// artifact. Last write wins; artifact failures are logged but do not
// fail the cache write.
func (s *Service) Put(ctx context.Context, key string, references []string, result *models.AnalysisResult) error {
	entry := &models.CachedEntry{
		CacheKey:        key,
		InputReferences: references,
		CreatedAt:       time.Now().UTC(),
		Result:          *result,
	}

	if err := s.storage.Put(ctx, entry); err != nil {
		return fmt.Errorf("failed to cache analysis result: %w", err)
	}

	if s.artifacts != nil && result.Report.RawMarkdown != "" {
		if err := s.artifacts.Write(key, result.Report.RawMarkdown); err != nil {
			s.logger.Warn().Err(err).Str("cache_key", key).Msg("Failed to write report artifact")
		}
	}

	s.logger.Debug().
		Str("cache_key", key).
		Int("references", len(references)).
		Msg("Analysis result cached")

	return nil
}

// Delete removes a cache entry. Returns the number of entries removed.
func (s *Service) Delete(ctx context.Context, key string) (int, error) {
	return s.storage.Delete(ctx, key)
}
