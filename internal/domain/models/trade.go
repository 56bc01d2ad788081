package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the side of a round-trip trade, taken from its entry fill.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// Sign returns +1 for long and -1 for short.
func (d Direction) Sign() int64 {
	if d == DirectionShort {
		return -1
	}
	return 1
}

// Trade is a canonical round-trip: one closing fill matched against one or more
// opening lots.
//
// Fields:
//   - ID: deterministic content hash (see identity.DeriveID); stable across re-imports.
//   - Fingerprint: full 256-bit digest used to detect identity collisions.
//   - AccountNumber, EntryPrice, ClosePrice: encrypted at rest by the storage layer.
//   - Instrument: base symbol (expiry stripped).
//   - EntryPrice: quantity-weighted average of the consumed lots.
//   - EntryDate: timestamp of the earliest consumed lot.
//   - PnL: signed, before commission.
//   - Commission: entry share of the consumed lots plus the closing fill's share.
//   - EntryID, CloseID: source fill identifiers for traceability.
//
// Invariants: Quantity > 0 and CloseDate >= EntryDate.
type Trade struct {
	ID                    string
	Fingerprint           string
	UserID                string
	AccountNumber         string
	Instrument            string
	Side                  Direction
	Quantity              int64
	EntryPrice            decimal.Decimal
	ClosePrice            decimal.Decimal
	EntryDate             time.Time
	CloseDate             time.Time
	TimeInPositionSeconds int64
	PnL                   decimal.Decimal
	Commission            decimal.Decimal
	EntryID               string
	CloseID               string
	Source                SourceSystem
}

// NetPnL returns PnL after commission.
func (t Trade) NetPnL() decimal.Decimal {
	return t.PnL.Sub(t.Commission)
}
