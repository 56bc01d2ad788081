package normalize

import (
	"fmt"

	"github.com/guttosm/tradejournal/internal/domain/models"
)

// RawRecord is one source-specific record. Each variant carries its own field
// names; Normalize dispatches on the concrete type.
type RawRecord interface {
	Source() models.SourceSystem
	Ref() string
}

// RithmicFill is one fill from a Rithmic order-history export.
// TransactionType is "BUY"/"SELL" or the protocol codes "1"/"2".
type RithmicFill struct {
	FillID          string  `json:"fill_id"`
	OrderID         string  `json:"basket_id"`
	AccountID       string  `json:"account_id"`
	Symbol          string  `json:"symbol"`
	Exchange        string  `json:"exchange"`
	TransactionType string  `json:"transaction_type"`
	FillSize        int64   `json:"fill_size"`
	FillPrice       *string `json:"fill_price"`
	SSBOE           int64   `json:"ssboe"`
	USecs           int64   `json:"usecs"`
	Commission      string  `json:"commission"`
}

func (r RithmicFill) Source() models.SourceSystem { return models.SourceRithmic }
func (r RithmicFill) Ref() string                 { return ref(models.SourceRithmic, r.FillID, r.OrderID) }

// TradovateFill is one entry of a Tradovate fill list, with the contract name
// already resolved by the broker client.
type TradovateFill struct {
	ID           int64    `json:"id"`
	OrderID      int64    `json:"orderId"`
	AccountName  string   `json:"accountName"`
	ContractName string   `json:"contractName"`
	Timestamp    string   `json:"timestamp"`
	Action       string   `json:"action"`
	Qty          int64    `json:"qty"`
	Price        *float64 `json:"price"`
	Commission   float64  `json:"commission"`
	Active       *bool    `json:"active,omitempty"`
}

func (r TradovateFill) Source() models.SourceSystem { return models.SourceTradovate }
func (r TradovateFill) Ref() string {
	return ref(models.SourceTradovate, idString(r.ID), idString(r.OrderID))
}

// IBKRExecution is one execution row from an IBKR flex/CSV statement or its
// OCR'd PDF equivalent. Quantity may already be signed.
type IBKRExecution struct {
	ExecID     string `json:"exec_id"`
	OrderID    string `json:"order_id"`
	Account    string `json:"account"`
	Symbol     string `json:"symbol"`
	BuySell    string `json:"buy_sell"`
	Quantity   string `json:"quantity"`
	TradePrice string `json:"trade_price"`
	DateTime   string `json:"date_time"`
	Commission string `json:"ib_commission"`
}

func (r IBKRExecution) Source() models.SourceSystem { return models.SourceIBKR }
func (r IBKRExecution) Ref() string                 { return ref(models.SourceIBKR, r.ExecID, r.OrderID) }

// PhoenixOrder is one row of the Phoenix order table. TotalQty and FilledQty are
// signed: positive is BUY, negative is SELL.
type PhoenixOrder struct {
	ID           string   `json:"id"`
	AccountName  string   `json:"accountName"`
	Symbol       string   `json:"symbol"`
	Status       string   `json:"status"`
	TotalQty     int64    `json:"totalQty"`
	FilledQty    int64    `json:"filledQty"`
	AvgFillPrice *float64 `json:"avgFillPrice"`
	LimitPrice   *float64 `json:"limitPrice,omitempty"`
	UpdatedAt    string   `json:"updatedAt"`
	CreatedAt    string   `json:"createdAt"`
	Commission   float64  `json:"commission"`
}

func (r PhoenixOrder) Source() models.SourceSystem { return models.SourcePhoenix }
func (r PhoenixOrder) Ref() string                 { return ref(models.SourcePhoenix, r.ID, "") }

// ColumnMapping tells the CSV normalizer which column holds which field. It is
// produced outside this service (the mapping assistant) before import starts.
type ColumnMapping struct {
	AccountNumber string `json:"account_number"`
	Symbol        string `json:"symbol"`
	Side          string `json:"side"`
	Quantity      string `json:"quantity"`
	Price         string `json:"price"`
	Timestamp     string `json:"timestamp"`
	Commission    string `json:"commission,omitempty"`
	OrderID       string `json:"order_id,omitempty"`
	FillID        string `json:"fill_id,omitempty"`
	// TimeLayout is a Go time layout; RFC3339 and a few common layouts are tried when empty.
	TimeLayout string `json:"time_layout,omitempty"`
	// DefaultAccount is used when the export has no account column.
	DefaultAccount string `json:"default_account,omitempty"`
	// Delimiter is the field separator of the export file; "," when empty.
	Delimiter string `json:"delimiter,omitempty"`
	// DecimalComma marks exports written with "," as the decimal separator ("5012,25").
	DecimalComma bool `json:"decimal_comma,omitempty"`
}

// CSVRow is one row of a generic CSV export, keyed by header.
type CSVRow struct {
	Line    int
	Values  map[string]string
	Mapping ColumnMapping
}

func (r CSVRow) Source() models.SourceSystem { return models.SourceCSV }
func (r CSVRow) Ref() string {
	return fmt.Sprintf("%s:line-%d", models.SourceCSV, r.Line)
}

func ref(src models.SourceSystem, id, fallback string) string {
	if id == "" || id == "0" {
		id = fallback
	}
	if id == "" {
		id = "?"
	}
	return fmt.Sprintf("%s:%s", src, id)
}

func idString(v int64) string {
	if v == 0 {
		return ""
	}
	return fmt.Sprintf("%d", v)
}
