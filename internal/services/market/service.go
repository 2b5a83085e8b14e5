// Package market builds stock snapshots from EODHD time-series data.
package market

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/specto/internal/common"
	"github.com/ternarybob/specto/internal/eodhd"
	"github.com/ternarybob/specto/internal/models"
)

// Service implements the MarketDataService interface backed by EODHD.
type Service struct {
	client *eodhd.Client
	logger arbor.ILogger
	now    func() time.Time
}

// NewService creates a new market data service.
func NewService(client *eodhd.Client, logger arbor.ILogger) *Service {
	return &Service{
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// GetSnapshot returns a market snapshot covering the last days calendar days.
func (s *Service) GetSnapshot(ctx context.Context, symbol string, days int) (*models.MarketData, error) {
	if days <= 0 {
		days = 30
	}

	end := s.now()
	start := end.AddDate(0, 0, -days)

	snapshot, err := s.fetch(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	snapshot.Period = fmt.Sprintf("%dd", days)
	return snapshot, nil
}

// GetSnapshotByDateRange returns a market snapshot for an explicit
// YYYY-MM-DD date range.
func (s *Service) GetSnapshotByDateRange(ctx context.Context, symbol, startDate, endDate string) (*models.MarketData, error) {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", startDate, err)
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", endDate, err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("end date %s is before start date %s", endDate, startDate)
	}

	snapshot, err := s.fetch(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	snapshot.Period = fmt.Sprintf("%s to %s", startDate, endDate)
	return snapshot, nil
}

// fetch retrieves the EOD series and assembles the snapshot.
func (s *Service) fetch(ctx context.Context, symbol string, start, end time.Time) (*models.MarketData, error) {
	normalized := common.NormalizeSymbol(symbol)
	if !common.ValidSymbol(normalized) {
		return nil, fmt.Errorf("invalid symbol %q", symbol)
	}

	series, err := s.client.GetEOD(ctx, normalized+".US",
		eodhd.WithDateRange(start, end),
		eodhd.WithOrder("a"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch market data for %s: %w", normalized, err)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("no market data for symbol %s in range", normalized)
	}

	snapshot, err := buildSnapshot(normalized, s.lookupName(ctx, normalized), "", series)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("symbol", normalized).
		Int("data_points", snapshot.DataPoints).
		Str("trend", snapshot.Trend).
		Msg("Market snapshot built")

	return snapshot, nil
}

// lookupName resolves the company display name. Known symbols resolve
// locally; others fall back to a best-effort fundamentals lookup.
func (s *Service) lookupName(ctx context.Context, symbol string) string {
	if name, ok := common.KnownSymbols[symbol]; ok {
		return name
	}

	fundamentals, err := s.client.GetFundamentals(ctx, symbol+".US")
	if err != nil || fundamentals.General == nil || fundamentals.General.Name == "" {
		if err != nil {
			s.logger.Debug().Err(err).Str("symbol", symbol).Msg("Fundamentals lookup failed, using symbol as name")
		}
		return symbol
	}
	return fundamentals.General.Name
}
