package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/guttosm/tradejournal/internal/domain/models"
)

// timeLayouts are tried in order for sources without a fixed timestamp format.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02, 15:04:05",
	"20060102;150405",
	"20060102 150405",
	"01/02/2006 15:04:05",
	"1/2/2006 3:04:05 PM",
}

// Normalize converts one raw record into the canonical fill shape.
//
// Returns:
//   - *NormalizationError for malformed records (bad timestamp, missing price or quantity).
//   - *SkipError for records that are valid but produce no execution.
//
// Source fill identifiers are kept as-is; when a source has none, a deterministic
// identifier is synthesized from the execution's content.
func Normalize(raw RawRecord) (models.NormalizedFill, error) {
	switch r := raw.(type) {
	case RithmicFill:
		return normalizeRithmic(r)
	case *RithmicFill:
		if r == nil {
			return models.NormalizedFill{}, fail(nilRef(models.SourceRithmic), "nil record")
		}
		return normalizeRithmic(*r)
	case TradovateFill:
		return normalizeTradovate(r)
	case *TradovateFill:
		if r == nil {
			return models.NormalizedFill{}, fail(nilRef(models.SourceTradovate), "nil record")
		}
		return normalizeTradovate(*r)
	case IBKRExecution:
		return normalizeIBKR(r)
	case *IBKRExecution:
		if r == nil {
			return models.NormalizedFill{}, fail(nilRef(models.SourceIBKR), "nil record")
		}
		return normalizeIBKR(*r)
	case PhoenixOrder:
		return normalizePhoenix(r)
	case *PhoenixOrder:
		if r == nil {
			return models.NormalizedFill{}, fail(nilRef(models.SourcePhoenix), "nil record")
		}
		return normalizePhoenix(*r)
	case CSVRow:
		return normalizeCSV(r)
	case *CSVRow:
		if r == nil {
			return models.NormalizedFill{}, fail(nilRef(models.SourceCSV), "nil record")
		}
		return normalizeCSV(*r)
	case nil:
		return models.NormalizedFill{}, fail("?", "nil record")
	default:
		return models.NormalizedFill{}, fail(safeRef(raw), "unsupported record type %T", raw)
	}
}

func nilRef(src models.SourceSystem) string { return string(src) + ":?" }

// safeRef returns raw.Ref(), or "?" when a typed nil with value receivers panics.
func safeRef(raw RawRecord) (ref string) {
	defer func() {
		if recover() != nil {
			ref = "?"
		}
	}()
	return raw.Ref()
}

func normalizeRithmic(r RithmicFill) (models.NormalizedFill, error) {
	id := r.Ref()
	side, err := parseSide(r.TransactionType)
	if err != nil {
		return models.NormalizedFill{}, fail(id, "%v", err)
	}
	if r.FillSize <= 0 {
		return models.NormalizedFill{}, fail(id, "missing quantity")
	}
	if r.FillPrice == nil || strings.TrimSpace(*r.FillPrice) == "" {
		return models.NormalizedFill{}, fail(id, "missing price")
	}
	price, err := parseDecimal(*r.FillPrice)
	if err != nil {
		return models.NormalizedFill{}, fail(id, "invalid price: %v", err)
	}
	if r.SSBOE <= 0 || r.USecs < 0 || r.USecs >= 1_000_000 {
		return models.NormalizedFill{}, fail(id, "malformed timestamp ssboe=%d usecs=%d", r.SSBOE, r.USecs)
	}
	commission, err := parseCommission(r.Commission, false)
	if err != nil {
		return models.NormalizedFill{}, fail(id, "invalid commission: %v", err)
	}

	return build(fillInput{
		source:     models.SourceRithmic,
		account:    r.AccountID,
		symbol:     r.Symbol,
		side:       side,
		quantity:   r.FillSize,
		price:      price,
		at:         time.Unix(r.SSBOE, r.USecs*int64(time.Microsecond)),
		commission: commission,
		orderID:    r.OrderID,
		fillID:     r.FillID,
	}, id)
}

func normalizeTradovate(r TradovateFill) (models.NormalizedFill, error) {
	id := r.Ref()
	if r.Active != nil && !*r.Active {
		return models.NormalizedFill{}, skip(id, "inactive fill")
	}
	side, err := parseSide(r.Action)
	if err != nil {
		return models.NormalizedFill{}, fail(id, "%v", err)
	}
	if r.Qty <= 0 {
		return models.NormalizedFill{}, fail(id, "missing quantity")
	}
	if r.Price == nil {
		return models.NormalizedFill{}, fail(id, "missing price")
	}
	at, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(r.Timestamp))
	if err != nil {
		return models.NormalizedFill{}, fail(id, "malformed timestamp %q", r.Timestamp)
	}

	return build(fillInput{
		source:     models.SourceTradovate,
		account:    r.AccountName,
		symbol:     r.ContractName,
		side:       side,
		quantity:   r.Qty,
		price:      decimal.NewFromFloat(*r.Price),
		at:         at,
		commission: decimal.NewFromFloat(math.Abs(r.Commission)),
		orderID:    idString(r.OrderID),
		fillID:     idString(r.ID),
	}, id)
}

func normalizeIBKR(r IBKRExecution) (models.NormalizedFill, error) {
	id := r.Ref()
	qty, err := parseQuantity(r.Quantity)
	if err != nil {
		return models.NormalizedFill{}, fail(id, "missing quantity")
	}
	if qty == 0 {
		return models.NormalizedFill{}, fail(id, "zero quantity")
	}

	var side models.Side
	if strings.TrimSpace(r.BuySell) != "" {
		if side, err = parseSide(r.BuySell); err != nil {
			return models.NormalizedFill{}, fail(id, "%v", err)
		}
	} else if qty < 0 {
		side = models.SideSell
	} else {
		side = models.SideBuy
	}

	if strings.TrimSpace(r.TradePrice) == "" {
		return models.NormalizedFill{}, fail(id, "missing price")
	}
	price, err := parseDecimal(r.TradePrice)
	if err != nil {
		return models.NormalizedFill{}, fail(id, "invalid price: %v", err)
	}
	at, err := parseTime(r.DateTime, "")
	if err != nil {
		return models.NormalizedFill{}, fail(id, "malformed timestamp %q", r.DateTime)
	}
	commission, err := parseCommission(r.Commission, false)
	if err != nil {
		return models.NormalizedFill{}, fail(id, "invalid commission: %v", err)
	}

	return build(fillInput{
		source:     models.SourceIBKR,
		account:    r.Account,
		symbol:     r.Symbol,
		side:       side,
		quantity:   abs(qty),
		price:      price,
		at:         at,
		commission: commission,
		orderID:    r.OrderID,
		fillID:     r.ExecID,
	}, id)
}

func normalizePhoenix(r PhoenixOrder) (models.NormalizedFill, error) {
	id := r.Ref()
	status := strings.ToLower(strings.NewReplacer("_", "", " ", "", "-", "").Replace(r.Status))

	qty := r.FilledQty
	switch status {
	case "filled":
		if qty == 0 {
			qty = r.TotalQty
		}
		if qty == 0 {
			return models.NormalizedFill{}, fail(id, "missing quantity")
		}
	case "working", "partiallyfilled", "open":
		if qty == 0 {
			return models.NormalizedFill{}, skip(id, "working order without fills")
		}
	case "cancelled", "canceled", "rejected", "expired":
		return models.NormalizedFill{}, skip(id, "order %s", status)
	default:
		return models.NormalizedFill{}, skip(id, "unsupported status %q", r.Status)
	}

	side := models.SideBuy
	if qty < 0 {
		side = models.SideSell
	}
	if r.AvgFillPrice == nil {
		return models.NormalizedFill{}, fail(id, "missing price")
	}

	stamp := r.UpdatedAt
	if strings.TrimSpace(stamp) == "" {
		stamp = r.CreatedAt
	}
	at, err := parseTime(stamp, "")
	if err != nil {
		return models.NormalizedFill{}, fail(id, "malformed timestamp %q", stamp)
	}

	return build(fillInput{
		source:     models.SourcePhoenix,
		account:    r.AccountName,
		symbol:     r.Symbol,
		side:       side,
		quantity:   abs(qty),
		price:      decimal.NewFromFloat(*r.AvgFillPrice),
		at:         at,
		commission: decimal.NewFromFloat(math.Abs(r.Commission)),
		orderID:    r.ID,
		fillID:     r.ID,
	}, id)
}

func normalizeCSV(r CSVRow) (models.NormalizedFill, error) {
	id := r.Ref()
	m := r.Mapping
	get := func(col string) string {
		if col == "" {
			return ""
		}
		return strings.TrimSpace(r.Values[col])
	}

	account := get(m.AccountNumber)
	if account == "" {
		account = m.DefaultAccount
	}

	qtyRaw := get(m.Quantity)
	if qtyRaw == "" {
		return models.NormalizedFill{}, fail(id, "missing quantity")
	}
	qty, err := parseQuantity(qtyRaw)
	if err != nil {
		return models.NormalizedFill{}, fail(id, "invalid quantity %q", qtyRaw)
	}
	if qty == 0 {
		return models.NormalizedFill{}, fail(id, "zero quantity")
	}

	var side models.Side
	if s := get(m.Side); s != "" {
		if side, err = parseSide(s); err != nil {
			return models.NormalizedFill{}, fail(id, "%v", err)
		}
	} else if qty < 0 {
		side = models.SideSell
	} else {
		side = models.SideBuy
	}

	priceRaw := get(m.Price)
	if priceRaw == "" {
		return models.NormalizedFill{}, fail(id, "missing price")
	}
	price, err := parseNumber(priceRaw, m.DecimalComma)
	if err != nil {
		return models.NormalizedFill{}, fail(id, "invalid price %q", priceRaw)
	}
	stamp := get(m.Timestamp)
	at, err := parseTime(stamp, m.TimeLayout)
	if err != nil {
		return models.NormalizedFill{}, fail(id, "malformed timestamp %q", stamp)
	}
	commission, err := parseCommission(get(m.Commission), m.DecimalComma)
	if err != nil {
		return models.NormalizedFill{}, fail(id, "invalid commission: %v", err)
	}

	return build(fillInput{
		source:     models.SourceCSV,
		account:    account,
		symbol:     get(m.Symbol),
		side:       side,
		quantity:   abs(qty),
		price:      price,
		at:         at,
		commission: commission,
		orderID:    get(m.OrderID),
		fillID:     get(m.FillID),
	}, id)
}

type fillInput struct {
	source     models.SourceSystem
	account    string
	symbol     string
	side       models.Side
	quantity   int64 // unsigned
	price      decimal.Decimal
	at         time.Time
	commission decimal.Decimal
	orderID    string
	fillID     string
}

// build applies the checks shared by every source and assembles the fill.
func build(in fillInput, id string) (models.NormalizedFill, error) {
	account := strings.TrimSpace(in.account)
	if account == "" {
		return models.NormalizedFill{}, fail(id, "missing account")
	}
	sym := NormalizeSymbol(in.symbol)
	if sym.Contract == "" {
		return models.NormalizedFill{}, fail(id, "missing symbol")
	}
	if in.quantity <= 0 {
		return models.NormalizedFill{}, fail(id, "missing quantity")
	}
	if in.price.IsNegative() {
		return models.NormalizedFill{}, fail(id, "negative price %s", in.price)
	}

	f := models.NormalizedFill{
		AccountNumber:  account,
		Instrument:     sym.Base,
		Contract:       sym.Contract,
		RawSymbol:      in.symbol,
		Side:           in.side,
		SignedQuantity: in.quantity * in.side.Sign(),
		Price:          in.price,
		Timestamp:      in.at.UTC(),
		Commission:     in.commission,
		SourceOrderID:  strings.TrimSpace(in.orderID),
		SourceFillID:   strings.TrimSpace(in.fillID),
		Source:         in.source,
	}
	if f.SourceFillID == "" {
		f.SourceFillID = SyntheticFillID(f)
	}
	if f.SourceOrderID == "" {
		f.SourceOrderID = f.SourceFillID
	}
	return f, nil
}

// SyntheticFillID derives a stable identifier for sources that never supply one,
// from the execution's timestamp, price, quantity and side (scoped by account and contract).
func SyntheticFillID(f models.NormalizedFill) string {
	key := strings.Join([]string{
		f.AccountNumber,
		f.Contract,
		f.Timestamp.UTC().Format(time.RFC3339Nano),
		f.Price.String(),
		strconv.FormatInt(f.AbsQuantity(), 10),
		string(f.Side),
	}, "|")
	sum := sha256.Sum256([]byte(key))
	return "syn-" + hex.EncodeToString(sum[:8])
}

func parseSide(s string) (models.Side, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY", "B", "BOT", "BOUGHT", "LONG", "1":
		return models.SideBuy, nil
	case "SELL", "S", "SLD", "SOLD", "SHORT", "2":
		return models.SideSell, nil
	default:
		return "", fmt.Errorf("unknown side %q", s)
	}
}

// parseDecimal accepts "1,234.50", "5,012", "1.234,50", "$12.5" and comma-decimal "10,50".
func parseDecimal(s string) (decimal.Decimal, error) {
	return parseNumber(s, false)
}

// parseNumber parses a price or cash amount. With decimalComma set, "," is the
// decimal separator and "." groups thousands. Otherwise the separator that comes
// last wins when both appear, and a lone comma groups thousands only when every
// group after it has exactly three digits ("5,012", "1,234,567").
func parseNumber(s string, decimalComma bool) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty value")
	}
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + strings.Trim(s, "()")
	}
	orig := s

	hasComma, hasDot := strings.Contains(s, ","), strings.Contains(s, ".")
	switch {
	case decimalComma:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case hasComma && hasDot:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		switch {
		case thousandsGrouped(s):
			s = strings.ReplaceAll(s, ",", "")
		case strings.Count(s, ",") == 1:
			s = strings.Replace(s, ",", ".", 1)
		default:
			return decimal.Zero, fmt.Errorf("malformed number %q", orig)
		}
	}
	return decimal.NewFromString(s)
}

// thousandsGrouped reports whether s is digits split by commas into a leading
// group of one to three digits (not "0") and trailing groups of exactly three.
func thousandsGrouped(s string) bool {
	groups := strings.Split(strings.TrimPrefix(s, "-"), ",")
	head := groups[0]
	if len(head) == 0 || len(head) > 3 || head == "0" || !allDigits(head) {
		return false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 || !allDigits(g) {
			return false
		}
	}
	return true
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// parseCommission treats empty as zero and reports the absolute value: some
// statements book commissions as negative cash.
func parseCommission(s string, decimalComma bool) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	v, err := parseNumber(s, decimalComma)
	if err != nil {
		return decimal.Zero, err
	}
	return v.Abs(), nil
}

// parseQuantity accepts integral values written as "2", "-3", "2.0" or "1,000".
func parseQuantity(s string) (int64, error) {
	v, err := parseDecimal(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if err != nil {
		return 0, err
	}
	if !v.Equal(v.Truncate(0)) {
		return 0, fmt.Errorf("fractional quantity %s", v)
	}
	return v.IntPart(), nil
}

func parseTime(s, layout string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if layout != "" {
		return time.Parse(layout, s)
	}
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, nil
		}
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil && sec > 0 {
		if sec > 1e12 {
			return time.UnixMilli(sec), nil
		}
		return time.Unix(sec, 0), nil
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
