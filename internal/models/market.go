package models

// PricePoint is one trading day in a historical series.
type PricePoint struct {
	Date      string  `json:"date"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    int64   `json:"volume"`
	PctChange float64 `json:"pct_change"`
}

// MarketData is the market snapshot the market-data collaborator returns for
// one symbol over a window.
type MarketData struct {
	Symbol      string       `json:"symbol"`
	Name        string       `json:"name,omitempty"`
	Period      string       `json:"period"`
	DataPoints  int          `json:"data_points"`
	LatestPrice float64      `json:"latest_price"`
	PriceChange float64      `json:"price_change"`
	PctChange   float64      `json:"pct_change"`
	Volume      int64        `json:"volume"`
	Volatility  float64      `json:"volatility"`
	Trend       string       `json:"price_trend"`
	StartDate   string       `json:"start_date,omitempty"`
	EndDate     string       `json:"end_date,omitempty"`
	Historical  []PricePoint `json:"historical_data"`
}
