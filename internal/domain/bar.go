package domain

import "time"

type Timeframe string

const (
	TimeframeH1 Timeframe = "H1"
	TimeframeM5 Timeframe = "M5"
)

// PriceBar is a single OHLCV bar for an instrument at a given timeframe.
// OpenTime is UTC and aligned to the start of the bar.
type PriceBar struct {
	Symbol    string    `json:"symbol"`
	Timeframe Timeframe `json:"timeframe"`
	OpenTime  time.Time `json:"open_time"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// DailyBar aggregates the hourly bars of one calendar date.
type DailyBar struct {
	Date      time.Time `json:"date"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	PctChange float64   `json:"pct_change"`
}
