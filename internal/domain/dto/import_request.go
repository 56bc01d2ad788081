package dto

import (
	"encoding/json"

	"github.com/guttosm/tradejournal/internal/domain/models"
	"github.com/guttosm/tradejournal/internal/normalize"
)

// ImportRequest is the body of POST /api/v1/imports.
//
// Records keep the field names of their source; for source "csv" each record
// is an object of header -> cell and Mapping is required.
type ImportRequest struct {
	Source  string                   `json:"source" binding:"required" example:"rithmic"`
	Records []json.RawMessage        `json:"records" binding:"required" swaggertype:"array,object"`
	Mapping *normalize.ColumnMapping `json:"mapping,omitempty"`
}

// ImportResponse is the reconciliation report of one import.
type ImportResponse struct {
	Source string              `json:"source" example:"rithmic"`
	Report models.ImportReport `json:"report"`
}

// DeleteResponse reports how many trades were removed.
type DeleteResponse struct {
	AccountNumber string `json:"account_number" example:"APEX-40112"`
	Deleted       int64  `json:"deleted" example:"42"`
}

// SyncAccountResponse is the outcome of syncing one broker account.
type SyncAccountResponse struct {
	AccountID int64               `json:"account_id" example:"7"`
	Broker    string              `json:"broker" example:"tradovate"`
	Report    models.ImportReport `json:"report"`
	Error     string              `json:"error,omitempty" example:"broker re-authentication required"`
}

// SyncResponse is the result of POST /api/v1/sync.
type SyncResponse struct {
	Accounts  int                   `json:"accounts" example:"2"`
	Succeeded int                   `json:"succeeded" example:"1"`
	Failed    int                   `json:"failed" example:"1"`
	Reauth    int                   `json:"reauth" example:"1"`
	Results   []SyncAccountResponse `json:"results"`
}
