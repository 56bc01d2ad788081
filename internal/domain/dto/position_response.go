package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionResponse is one open lot: quantity bought or sold that no later
// fill has closed yet. Negative quantities are short.
type PositionResponse struct {
	AccountNumber string          `json:"account_number" example:"APEX-40112"`
	Instrument    string          `json:"instrument" example:"MES"`
	Contract      string          `json:"contract" example:"MESZ5"`
	Side          string          `json:"side" example:"short"`
	Quantity      int64           `json:"quantity" example:"-3"`
	EntryPrice    decimal.Decimal `json:"entry_price" swaggertype:"string" example:"5830.00"`
	EntryDate     time.Time       `json:"entry_date" example:"2025-11-03T15:02:00Z"`
	Commission    decimal.Decimal `json:"commission" swaggertype:"string" example:"1.11"`
}

// PositionListResponse wraps GET /api/v1/positions.
type PositionListResponse struct {
	Count     int                `json:"count" example:"1"`
	Positions []PositionResponse `json:"positions"`
}
