package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of a single execution.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Sign returns +1 for BUY and -1 for SELL.
func (s Side) Sign() int64 {
	if s == SideSell {
		return -1
	}
	return 1
}

// SourceSystem identifies which broker shape a fill was normalized from.
type SourceSystem string

const (
	SourceRithmic   SourceSystem = "rithmic"
	SourceTradovate SourceSystem = "tradovate"
	SourceIBKR      SourceSystem = "ibkr"
	SourcePhoenix   SourceSystem = "phoenix"
	SourceCSV       SourceSystem = "csv"
)

// Valid reports whether s is one of the supported sources.
func (s SourceSystem) Valid() bool {
	switch s {
	case SourceRithmic, SourceTradovate, SourceIBKR, SourcePhoenix, SourceCSV:
		return true
	}
	return false
}

// NormalizedFill is one execution event in the canonical shape shared by every source.
//
// Fields:
//   - AccountNumber: broker account the execution belongs to (plaintext in memory).
//   - Instrument: base symbol with expiry and exchange stripped (e.g. "MES").
//   - Contract: exchange-stripped symbol with expiry kept (e.g. "MESZ5"); positions net per contract.
//   - RawSymbol: symbol exactly as the source reported it.
//   - SignedQuantity: positive for BUY, negative for SELL; never zero.
//   - Commission: never negative; zero when the source reports none.
//   - SourceOrderID: source order reference, not globally unique.
//   - SourceFillID: stable execution identifier (synthesized when the source has none).
//
// A NormalizedFill is immutable once produced.
type NormalizedFill struct {
	AccountNumber  string
	Instrument     string
	Contract       string
	RawSymbol      string
	Side           Side
	SignedQuantity int64
	Price          decimal.Decimal
	Timestamp      time.Time
	Commission     decimal.Decimal
	SourceOrderID  string
	SourceFillID   string
	Source         SourceSystem
}

// AbsQuantity returns the unsigned executed quantity.
func (f NormalizedFill) AbsQuantity() int64 {
	if f.SignedQuantity < 0 {
		return -f.SignedQuantity
	}
	return f.SignedQuantity
}

// Ref is the traceability reference stored as Trade.EntryID/CloseID.
func (f NormalizedFill) Ref() string {
	return f.SourceFillID
}

// GroupKey identifies the matching group a fill belongs to.
type GroupKey struct {
	AccountNumber string
	Contract      string
}

// Key returns the fill's matching group.
func (f NormalizedFill) Key() GroupKey {
	return GroupKey{AccountNumber: f.AccountNumber, Contract: f.Contract}
}
