package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/guttosm/tradejournal/internal/domain/models"
	"github.com/guttosm/tradejournal/internal/matching"
	"github.com/guttosm/tradejournal/internal/storage"
	"github.com/guttosm/tradejournal/internal/ticks"
)

// Summary grouping keys.
const (
	GroupByInstrument = "instrument"
	GroupByDay        = "day"
	GroupByAccount    = "account"
)

// TradeView is a stored trade enriched with its tick metrics.
type TradeView struct {
	Trade          models.Trade
	Metrics        models.TickMetrics
	PnLPerContract decimal.Decimal
}

// SummaryRow aggregates the trades sharing one grouping key.
type SummaryRow struct {
	Key        string
	Trades     int
	Wins       int
	Losses     int
	Quantity   int64
	PnL        decimal.Decimal
	Commission decimal.Decimal
	Metrics    models.TickMetrics
}

// NetPnL returns PnL after commission.
func (r SummaryRow) NetPnL() decimal.Decimal { return r.PnL.Sub(r.Commission) }

// AccountDeleter removes an account's history; implemented by the importer so
// deletions serialize with imports of the same account.
type AccountDeleter interface {
	DeleteAccount(ctx context.Context, userID, account string) (int64, error)
}

// TradeService is the read side of the journal.
type TradeService interface {
	ListTrades(ctx context.Context, filter storage.TradeFilter) ([]TradeView, error)
	Summary(ctx context.Context, filter storage.TradeFilter, groupBy string) ([]SummaryRow, error)
	OpenPositions(ctx context.Context, userID, account string) ([]models.OpenLot, error)
	DeleteAccount(ctx context.Context, userID, account string) (int64, error)
}

type tradeService struct {
	trades  storage.TradesRepository
	fills   storage.FillsRepository
	deleter AccountDeleter
	ref     *ticks.Reference
}

// NewTradeService wires the read service. ref may be nil (built-in tick table).
func NewTradeService(trades storage.TradesRepository, fills storage.FillsRepository, deleter AccountDeleter, ref *ticks.Reference) TradeService {
	return &tradeService{trades: trades, fills: fills, deleter: deleter, ref: ref}
}

func (s *tradeService) ListTrades(ctx context.Context, filter storage.TradeFilter) ([]TradeView, error) {
	trades, err := s.trades.ListTrades(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]TradeView, 0, len(trades))
	for _, t := range trades {
		out = append(out, TradeView{
			Trade:          t,
			Metrics:        ticks.Calculate(t, s.ref),
			PnLPerContract: ticks.PnLPerContract(t.PnL, t.Quantity),
		})
	}
	return out, nil
}

// Summary groups trades by instrument, close day (UTC) or account. Tick
// metrics of a group are the sum of its trades' metrics.
func (s *tradeService) Summary(ctx context.Context, filter storage.TradeFilter, groupBy string) ([]SummaryRow, error) {
	keyOf, err := groupKey(groupBy)
	if err != nil {
		return nil, err
	}
	views, err := s.ListTrades(ctx, filter)
	if err != nil {
		return nil, err
	}

	rows := map[string]*SummaryRow{}
	metrics := map[string][]models.TickMetrics{}
	for _, v := range views {
		k := keyOf(v.Trade)
		r, ok := rows[k]
		if !ok {
			r = &SummaryRow{Key: k, PnL: decimal.Zero, Commission: decimal.Zero}
			rows[k] = r
		}
		r.Trades++
		r.Quantity += v.Trade.Quantity
		r.PnL = r.PnL.Add(v.Trade.PnL)
		r.Commission = r.Commission.Add(v.Trade.Commission)
		switch v.Trade.PnL.Sign() {
		case 1:
			r.Wins++
		case -1:
			r.Losses++
		}
		metrics[k] = append(metrics[k], v.Metrics)
	}

	out := make([]SummaryRow, 0, len(rows))
	for k, r := range rows {
		r.Metrics = ticks.Aggregate(metrics[k]...)
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func groupKey(groupBy string) (func(models.Trade) string, error) {
	switch strings.ToLower(strings.TrimSpace(groupBy)) {
	case "", GroupByInstrument:
		return func(t models.Trade) string { return t.Instrument }, nil
	case GroupByDay:
		return func(t models.Trade) string { return t.CloseDate.UTC().Format("2006-01-02") }, nil
	case GroupByAccount:
		return func(t models.Trade) string { return t.AccountNumber }, nil
	default:
		return nil, &ValidationError{Field: "group_by", Reason: fmt.Sprintf("unsupported value %q", groupBy)}
	}
}

// OpenPositions matches the stored fill history and returns the lots still
// open. account may be empty for every account of the user.
func (s *tradeService) OpenPositions(ctx context.Context, userID, account string) ([]models.OpenLot, error) {
	history, err := s.fills.ListFills(ctx, userID, account)
	if err != nil {
		return nil, err
	}
	res, err := matching.MatchParallel(ctx, history, 0)
	if err != nil {
		return nil, err
	}
	return res.Unmatched, nil
}

func (s *tradeService) DeleteAccount(ctx context.Context, userID, account string) (int64, error) {
	if strings.TrimSpace(account) == "" {
		return 0, &ValidationError{Field: "account", Reason: "required"}
	}
	return s.deleter.DeleteAccount(ctx, userID, account)
}

// ValidationError reports a bad request parameter.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Reason }
