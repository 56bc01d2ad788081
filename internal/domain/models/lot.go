package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OpenLot is a resting position slice inside the matching engine.
// QuantityRemaining carries the sign of the fill that opened it.
type OpenLot struct {
	AccountNumber              string
	Instrument                 string
	Contract                   string
	QuantityRemaining          int64
	EntryPrice                 decimal.Decimal
	EntryTimestamp             time.Time
	EntryFillRef               string
	AccumulatedEntryCommission decimal.Decimal
}

// Direction returns "long" or "short" for the lot.
func (l OpenLot) Direction() Direction {
	if l.QuantityRemaining < 0 {
		return DirectionShort
	}
	return DirectionLong
}
