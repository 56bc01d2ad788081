package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeResponse is one reconciled trade as returned by GET /api/v1/trades.
//
// Monetary fields are decimal strings so no precision is lost in transit.
type TradeResponse struct {
	ID                    string          `json:"id" example:"4f1c2a9e-7b7d-5c3e-9a51-0d6f2b8c1e47"`
	AccountNumber         string          `json:"account_number" example:"APEX-40112"`
	Instrument            string          `json:"instrument" example:"MES"`
	Side                  string          `json:"side" example:"long"`
	Quantity              int64           `json:"quantity" example:"1"`
	EntryPrice            decimal.Decimal `json:"entry_price" swaggertype:"string" example:"5825.25"`
	ClosePrice            decimal.Decimal `json:"close_price" swaggertype:"string" example:"5826.50"`
	EntryDate             time.Time       `json:"entry_date" example:"2025-11-03T14:30:00Z"`
	CloseDate             time.Time       `json:"close_date" example:"2025-11-03T14:34:10Z"`
	TimeInPositionSeconds int64           `json:"time_in_position_seconds" example:"250"`
	PnL                   decimal.Decimal `json:"pnl" swaggertype:"string" example:"6.25"`
	Commission            decimal.Decimal `json:"commission" swaggertype:"string" example:"0.74"`
	NetPnL                decimal.Decimal `json:"net_pnl" swaggertype:"string" example:"5.51"`
	PnLPerContract        decimal.Decimal `json:"pnl_per_contract" swaggertype:"string" example:"6.25"`
	Ticks                 int64           `json:"ticks" example:"5"`
	Points                decimal.Decimal `json:"points" swaggertype:"string" example:"1.25"`
	TickValue             decimal.Decimal `json:"tick_value" swaggertype:"string" example:"1.25"`
	TickSize              decimal.Decimal `json:"tick_size" swaggertype:"string" example:"0.25"`
	Source                string          `json:"source" example:"rithmic"`
}

// TradeListResponse wraps GET /api/v1/trades.
type TradeListResponse struct {
	Count  int             `json:"count" example:"1"`
	Trades []TradeResponse `json:"trades"`
}

// SummaryRowResponse is one group of GET /api/v1/trades/summary.
type SummaryRowResponse struct {
	Key        string          `json:"key" example:"MES"`
	Trades     int             `json:"trades" example:"12"`
	Wins       int             `json:"wins" example:"7"`
	Losses     int             `json:"losses" example:"5"`
	Quantity   int64           `json:"quantity" example:"14"`
	PnL        decimal.Decimal `json:"pnl" swaggertype:"string" example:"87.50"`
	Commission decimal.Decimal `json:"commission" swaggertype:"string" example:"10.36"`
	NetPnL     decimal.Decimal `json:"net_pnl" swaggertype:"string" example:"77.14"`
	Ticks      int64           `json:"ticks" example:"70"`
	Points     decimal.Decimal `json:"points" swaggertype:"string" example:"17.50"`
}

// SummaryResponse wraps GET /api/v1/trades/summary.
type SummaryResponse struct {
	GroupBy string               `json:"group_by" example:"instrument"`
	Groups  []SummaryRowResponse `json:"groups"`
}
