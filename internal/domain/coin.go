// Package domain holds the value types shared by the bot, state and market packages.
package domain

import "time"

// CoinRef identifies a tradable asset. ID is the stable key used in selections and API calls.
type CoinRef struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// Quote is the current price of a coin with its 24-hour change in percent.
type Quote struct {
	CoinID    string
	Price     float64
	Change24h float64
}

// PricePoint is one sample of a historical price series.
type PricePoint struct {
	At    time.Time
	Price float64
}
