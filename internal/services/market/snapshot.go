package market

import (
	"fmt"
	"math"

	"github.com/ternarybob/specto/internal/eodhd"
	"github.com/ternarybob/specto/internal/models"
)

// Trend labels derived from the ~7 trading day price change.
const (
	TrendStrongUp     = "strong_uptrend"
	TrendModerateUp   = "moderate_uptrend"
	TrendSideways     = "sideways"
	TrendModerateDown = "moderate_downtrend"
	TrendStrongDown   = "strong_downtrend"
	TrendUnknown      = "insufficient_data"
)

// buildSnapshot assembles a MarketData summary from an ascending EOD
// series. Returns an error when the series is empty.
func buildSnapshot(symbol, name, period string, series eodhd.EODResponse) (*models.MarketData, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("no market data for symbol %s", symbol)
	}

	historical := make([]models.PricePoint, len(series))
	for i, day := range series {
		pct := 0.0
		if i > 0 && series[i-1].Close != 0 {
			pct = (day.Close - series[i-1].Close) / series[i-1].Close * 100
		}
		historical[i] = models.PricePoint{
			Date:      day.DateStr,
			Open:      day.Open,
			High:      day.High,
			Low:       day.Low,
			Close:     day.Close,
			Volume:    day.Volume,
			PctChange: pct,
		}
	}

	latest := series[len(series)-1]
	priceChange := 0.0
	pctChange := 0.0
	if len(series) > 1 {
		prev := series[len(series)-2]
		priceChange = latest.Close - prev.Close
		if prev.Close != 0 {
			pctChange = priceChange / prev.Close * 100
		}
	}

	return &models.MarketData{
		Symbol:      symbol,
		Name:        name,
		Period:      period,
		DataPoints:  len(series),
		LatestPrice: latest.Close,
		PriceChange: priceChange,
		PctChange:   pctChange,
		Volume:      latest.Volume,
		Volatility:  calculateVolatility(historical),
		Trend:       analyzeTrend(series),
		StartDate:   series[0].DateStr,
		EndDate:     latest.DateStr,
		Historical:  historical,
	}, nil
}

// analyzeTrend labels the price movement over roughly the last week of
// trading days.
func analyzeTrend(series eodhd.EODResponse) string {
	if len(series) < 2 {
		return TrendUnknown
	}

	latest := series[len(series)-1].Close
	lookback := 7
	if lookback > len(series)-1 {
		lookback = len(series) - 1
	}
	reference := series[len(series)-1-lookback].Close
	if reference == 0 {
		return TrendUnknown
	}

	changePct := (latest - reference) / reference * 100

	switch {
	case changePct > 5:
		return TrendStrongUp
	case changePct > 2:
		return TrendModerateUp
	case changePct > -2:
		return TrendSideways
	case changePct > -5:
		return TrendModerateDown
	default:
		return TrendStrongDown
	}
}

// calculateVolatility computes the population standard deviation of the
// daily percentage changes, rounded to two decimals.
func calculateVolatility(historical []models.PricePoint) float64 {
	if len(historical) < 2 {
		return 0
	}

	mean := 0.0
	for _, p := range historical {
		mean += p.PctChange
	}
	mean /= float64(len(historical))

	variance := 0.0
	for _, p := range historical {
		d := p.PctChange - mean
		variance += d * d
	}
	variance /= float64(len(historical))

	return math.Round(math.Sqrt(variance)*100) / 100
}
