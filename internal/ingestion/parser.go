package ingestion

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/guttosm/tradejournal/internal/normalize"
)

// LoadMapping reads a column mapping produced by the external mapping step.
// The mapping must at least name the symbol, quantity, price and timestamp columns.
func LoadMapping(path string) (normalize.ColumnMapping, error) {
	var m normalize.ColumnMapping
	raw, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("read mapping: %w", err)
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return m, fmt.Errorf("decode mapping: %w", err)
	}
	return m, ValidateMapping(m)
}

// ValidateMapping checks that m names every column the CSV normalizer needs.
func ValidateMapping(m normalize.ColumnMapping) error {
	var missing []string
	if m.Symbol == "" {
		missing = append(missing, "symbol")
	}
	if m.Quantity == "" {
		missing = append(missing, "quantity")
	}
	if m.Price == "" {
		missing = append(missing, "price")
	}
	if m.Timestamp == "" {
		missing = append(missing, "timestamp")
	}
	if m.AccountNumber == "" && m.DefaultAccount == "" {
		missing = append(missing, "account_number|default_account")
	}
	if len(missing) > 0 {
		return fmt.Errorf("mapping is missing columns: %s", strings.Join(missing, ", "))
	}
	if m.Delimiter != "" && utf8.RuneCountInString(m.Delimiter) != 1 {
		return fmt.Errorf("mapping delimiter must be a single character, got %q", m.Delimiter)
	}
	return nil
}

// parseExportFile reads a broker CSV export into raw records.
//
// It fails on:
//   - a header that lacks a column named by the mapping
//   - unrecoverable I/O or CSV syntax errors
//
// It tolerates:
//   - blank lines and rows with fewer cells (missing cells become empty and are
//     reported by the normalizer for that row only)
func parseExportFile(ctx context.Context, path string, m normalize.ColumnMapping) ([]normalize.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()
	return parseExport(ctx, f, m)
}

func parseExport(ctx context.Context, src io.Reader, m normalize.ColumnMapping) ([]normalize.RawRecord, error) {
	r := csv.NewReader(src)
	r.Comma = ','
	if m.Delimiter != "" {
		r.Comma, _ = utf8.DecodeRuneInString(m.Delimiter)
	}
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty file")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	if err := checkHeader(header, m); err != nil {
		return nil, err
	}

	var out []normalize.RawRecord
	line := 1
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line after %d: %w", line, err)
		}
		line++

		values := make(map[string]string, len(header))
		empty := true
		for i, h := range header {
			if i < len(rec) {
				values[h] = rec[i]
				if strings.TrimSpace(rec[i]) != "" {
					empty = false
				}
			}
		}
		if empty {
			continue
		}
		out = append(out, normalize.CSVRow{Line: line, Values: values, Mapping: m})
	}
	return out, nil
}

func checkHeader(header []string, m normalize.ColumnMapping) error {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	for _, col := range []string{m.AccountNumber, m.Symbol, m.Side, m.Quantity, m.Price, m.Timestamp, m.Commission, m.OrderID, m.FillID} {
		if col != "" && !present[col] {
			return fmt.Errorf("header has no column %q", col)
		}
	}
	return nil
}
