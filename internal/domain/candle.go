package domain

import "time"

// Candle represents a single OHLC bar of one timeframe.
// Immutable once fetched; sequences are ordered most-recent-last.
type Candle struct {
	OpenTime time.Time // Start time of the bar
	Open     float64   // Opening price
	High     float64   // Highest price
	Low      float64   // Lowest price
	Close    float64   // Closing price
}
