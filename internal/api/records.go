package api

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/guttosm/tradejournal/internal/domain/dto"
	"github.com/guttosm/tradejournal/internal/domain/models"
	"github.com/guttosm/tradejournal/internal/ingestion"
	"github.com/guttosm/tradejournal/internal/normalize"
)

// maxImportRecords caps one POST /imports body.
const maxImportRecords = 50000

// decodeRecords turns the raw JSON records of an import request into the
// tagged union the normalizer dispatches on. A record that does not decode
// fails the whole request: the payload shape is wrong, not the data.
func decodeRecords(req dto.ImportRequest) ([]normalize.RawRecord, error) {
	source := models.SourceSystem(strings.ToLower(strings.TrimSpace(req.Source)))
	if !source.Valid() {
		return nil, fmt.Errorf("unknown source %q", req.Source)
	}
	if len(req.Records) == 0 {
		return nil, fmt.Errorf("records must not be empty")
	}
	if len(req.Records) > maxImportRecords {
		return nil, fmt.Errorf("too many records: %d > %d", len(req.Records), maxImportRecords)
	}

	var mapping normalize.ColumnMapping
	if source == models.SourceCSV {
		if req.Mapping == nil {
			return nil, fmt.Errorf("mapping is required for csv records")
		}
		if err := ingestion.ValidateMapping(*req.Mapping); err != nil {
			return nil, err
		}
		mapping = *req.Mapping
	}

	out := make([]normalize.RawRecord, 0, len(req.Records))
	for i, raw := range req.Records {
		rec, err := decodeRecord(source, raw, i, mapping)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func decodeRecord(source models.SourceSystem, raw json.RawMessage, i int, mapping normalize.ColumnMapping) (normalize.RawRecord, error) {
	var (
		rec normalize.RawRecord
		err error
	)
	switch source {
	case models.SourceRithmic:
		var r normalize.RithmicFill
		err = json.Unmarshal(raw, &r)
		rec = r
	case models.SourceTradovate:
		var r normalize.TradovateFill
		err = json.Unmarshal(raw, &r)
		rec = r
	case models.SourceIBKR:
		var r normalize.IBKRExecution
		err = json.Unmarshal(raw, &r)
		rec = r
	case models.SourcePhoenix:
		var r normalize.PhoenixOrder
		err = json.Unmarshal(raw, &r)
		rec = r
	default:
		values := map[string]string{}
		err = json.Unmarshal(raw, &values)
		// Line numbers count the header row, like the file importer.
		rec = normalize.CSVRow{Line: i + 2, Values: values, Mapping: mapping}
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}
