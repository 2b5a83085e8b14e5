package market

import (
	"math"
	"testing"

	"github.com/ternarybob/specto/internal/eodhd"
	"github.com/ternarybob/specto/internal/models"
)

func day(date string, close float64) eodhd.EODData {
	return eodhd.EODData{
		DateStr: date,
		Open:    close,
		High:    close,
		Low:     close,
		Close:   close,
		Volume:  1000,
	}
}

func TestBuildSnapshotBasics(t *testing.T) {
	series := eodhd.EODResponse{
		day("2026-08-25", 100),
		day("2026-08-26", 102),
		day("2026-08-27", 101),
		day("2026-08-28", 104),
	}

	snapshot, err := buildSnapshot("AAPL", "Apple Inc.", "30d", series)
	if err != nil {
		t.Fatalf("buildSnapshot failed: %v", err)
	}

	if snapshot.LatestPrice != 104 {
		t.Errorf("latest price = %v, want 104", snapshot.LatestPrice)
	}
	if snapshot.DataPoints != 4 {
		t.Errorf("data points = %d, want 4", snapshot.DataPoints)
	}
	if snapshot.StartDate != "2026-08-25" || snapshot.EndDate != "2026-08-28" {
		t.Errorf("unexpected date range %s..%s", snapshot.StartDate, snapshot.EndDate)
	}

	// Latest day change: 101 -> 104
	if math.Abs(snapshot.PriceChange-3) > 1e-9 {
		t.Errorf("price change = %v, want 3", snapshot.PriceChange)
	}
	wantPct := 3.0 / 101.0 * 100
	if math.Abs(snapshot.PctChange-wantPct) > 1e-9 {
		t.Errorf("pct change = %v, want %v", snapshot.PctChange, wantPct)
	}
}

func TestBuildSnapshotEmptySeries(t *testing.T) {
	if _, err := buildSnapshot("AAPL", "Apple Inc.", "30d", nil); err == nil {
		t.Fatal("expected error for empty series")
	}
}

func TestAnalyzeTrend(t *testing.T) {
	// Build a 10-day series ending at endClose, starting from 100 at the
	// 7-trading-day lookback point.
	mk := func(endClose float64) eodhd.EODResponse {
		series := eodhd.EODResponse{}
		for i := 0; i < 2; i++ {
			series = append(series, day("2026-08-01", 100))
		}
		series = append(series, day("2026-08-03", 100)) // lookback reference
		for i := 0; i < 6; i++ {
			series = append(series, day("2026-08-10", 100))
		}
		series = append(series, day("2026-08-20", endClose))
		return series
	}

	tests := []struct {
		name     string
		endClose float64
		want     string
	}{
		{"strong up", 106, TrendStrongUp},
		{"moderate up", 103, TrendModerateUp},
		{"sideways", 101, TrendSideways},
		{"moderate down", 97, TrendModerateDown},
		{"strong down", 94, TrendStrongDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := analyzeTrend(mk(tt.endClose)); got != tt.want {
				t.Errorf("analyzeTrend = %q, want %q", got, tt.want)
			}
		})
	}

	if got := analyzeTrend(eodhd.EODResponse{day("2026-08-01", 100)}); got != TrendUnknown {
		t.Errorf("single point trend = %q, want %q", got, TrendUnknown)
	}
}

func TestCalculateVolatility(t *testing.T) {
	// pct changes: 0, +2, -2 -> mean 0, population variance = 8/3
	points := []models.PricePoint{
		{PctChange: 0},
		{PctChange: 2},
		{PctChange: -2},
	}

	want := math.Round(math.Sqrt(8.0/3.0)*100) / 100
	if got := calculateVolatility(points); got != want {
		t.Errorf("volatility = %v, want %v", got, want)
	}

	if got := calculateVolatility(points[:1]); got != 0 {
		t.Errorf("volatility of single point = %v, want 0", got)
	}
}
