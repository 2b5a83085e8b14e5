package records

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/specto/internal/interfaces"
	"github.com/ternarybob/specto/internal/models"
)

// Service maintains the append-only log of completed analyses. Appends are
// best effort: a failed title lookup or storage write never fails the
// analysis that produced the record.
type Service struct {
	storage interfaces.RecordStorage
	titles  interfaces.TitleLookup
	logger  arbor.ILogger
}

func NewService(storage interfaces.RecordStorage, titles interfaces.TitleLookup, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		titles:  titles,
		logger:  logger,
	}
}

// RecordRequest carries the fields of a completed analysis worth logging.
type RecordRequest struct {
	Reference      string
	CacheKey       string
	Mode           models.AnalysisMode
	StartDate      string
	EndDate        string
	ReportLanguage string
}

// Append logs a completed analysis. The display title is resolved through the
// title-lookup collaborator with a short deadline; when lookup fails the
// record is written without a title. All errors are logged and swallowed.
func (s *Service) Append(ctx context.Context, req RecordRequest) {
	record := &models.AnalysisRecord{
		Reference:      req.Reference,
		CacheKey:       req.CacheKey,
		ModeLabel:      req.Mode,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		ReportLanguage: req.ReportLanguage,
		CreatedAt:      time.Now().UTC(),
	}

	if s.titles != nil {
		lookupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		info, err := s.titles.LookupTitle(lookupCtx, req.Reference)
		cancel()
		if err != nil {
			s.logger.Warn().
				Str("reference", req.Reference).
				Err(err).
				Msg("Title lookup failed, recording without title")
		} else if info != nil {
			record.ResourceTitle = info.Title
			record.ChannelLabel = info.Channel
		}
	}

	id, err := s.storage.Append(ctx, record)
	if err != nil {
		s.logger.Warn().
			Str("cache_key", req.CacheKey).
			Err(err).
			Msg("Failed to append analysis record")
		return
	}

	s.logger.Debug().
		Str("record_id", id).
		Str("cache_key", req.CacheKey).
		Msg("Analysis record appended")
}

// List returns up to limit records, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]models.AnalysisRecord, error) {
	return s.storage.List(ctx, limit)
}

// DeleteByCacheKey removes every record sharing the cache key.
func (s *Service) DeleteByCacheKey(ctx context.Context, cacheKey string) (int, error) {
	return s.storage.DeleteByCacheKey(ctx, cacheKey)
}
