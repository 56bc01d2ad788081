package models

import "github.com/shopspring/decimal"

// TickDetails is one administrator-curated row of the tick reference table.
// Ticker is a symbol prefix; the longest matching prefix wins.
type TickDetails struct {
	Ticker    string          `json:"ticker" example:"MES"`
	TickValue decimal.Decimal `json:"tick_value" example:"1.25"`
	TickSize  decimal.Decimal `json:"tick_size" example:"0.25"`
}

// TickMetrics are the tick/point figures derived for a trade or a group of trades.
type TickMetrics struct {
	Ticks     int64           `json:"ticks" example:"5"`
	Points    decimal.Decimal `json:"points" example:"1.25"`
	TickValue decimal.Decimal `json:"tick_value" example:"1.25"`
	TickSize  decimal.Decimal `json:"tick_size" example:"0.25"`
}
