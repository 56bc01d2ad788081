// Package matching turns ordered fills into round-trip trades using FIFO lot
// matching. It is pure: no I/O, no shared state between groups.
package matching

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/guttosm/tradejournal/internal/domain/models"
)

// Result is the output of a matching pass.
//
// Trades holds one Trade per closing fill. Unmatched holds the lots still open
// after the last fill (open positions); they are never emitted as trades.
// Flips counts closing fills that reversed the position, kept for audit logs.
type Result struct {
	Trades    []models.Trade
	Unmatched []models.OpenLot
	Flips     int
}

// SortFills orders fills by (timestamp, source order ID, source fill ID). The
// ordering is total so the outcome never depends on fetch order.
func SortFills(fills []models.NormalizedFill) {
	sort.SliceStable(fills, func(i, j int) bool {
		a, b := fills[i], fills[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		if a.SourceOrderID != b.SourceOrderID {
			return a.SourceOrderID < b.SourceOrderID
		}
		return a.SourceFillID < b.SourceFillID
	})
}

// MatchGroup runs FIFO matching over the fills of one (account, contract)
// group. The input is copied and sorted; the caller's slice is left untouched.
//
// Behavior:
//   - A fill in the direction of the resting position (or on a flat book) opens a lot.
//   - An opposite fill consumes lots oldest first and emits exactly one Trade with
//     the weighted-average entry price and the earliest consumed entry date.
//   - Any excess quantity of a closing fill opens a new lot in the opposite
//     direction (flip); the closing Trade never spans the sign change.
//   - Commission of a partially consumed lot is allocated pro rata to the closed
//     units; a flipping fill's commission is split between the close and the new lot.
func MatchGroup(fills []models.NormalizedFill) Result {
	ordered := append([]models.NormalizedFill(nil), fills...)
	SortFills(ordered)

	var (
		res   Result
		queue []models.OpenLot
	)

	for _, f := range ordered {
		if f.SignedQuantity == 0 {
			continue
		}
		if len(queue) == 0 || sameSign(queue[0].QuantityRemaining, f.SignedQuantity) {
			queue = append(queue, openLot(f, f.SignedQuantity, f.Commission))
			continue
		}

		var c closing
		queue, c = closeAgainst(queue, f)
		res.Trades = append(res.Trades, c.trade)

		if c.excess != 0 {
			res.Flips++
			queue = append(queue, openLot(f, c.excess, f.Commission.Sub(c.closeCommission)))
		}
	}

	res.Unmatched = queue
	return res
}

type closing struct {
	trade           models.Trade
	excess          int64           // signed quantity of the fill left once the queue is empty
	closeCommission decimal.Decimal // part of the fill's commission charged to trade
}

// closeAgainst consumes lots from the head of queue with the closing fill f.
func closeAgainst(queue []models.OpenLot, f models.NormalizedFill) ([]models.OpenLot, closing) {
	dir := sign(queue[0].QuantityRemaining)
	remaining := f.AbsQuantity()

	var (
		closed         int64
		costBasis      = decimal.Zero // sum(entryPrice * units)
		pnl            = decimal.Zero
		entryComm      = decimal.Zero
		first          = queue[0]
		closeDirection = models.DirectionLong
	)
	if dir < 0 {
		closeDirection = models.DirectionShort
	}

	for remaining > 0 && len(queue) > 0 {
		lot := &queue[0]
		avail := abs(lot.QuantityRemaining)
		take := min(avail, remaining)
		units := decimal.NewFromInt(take)

		costBasis = costBasis.Add(lot.EntryPrice.Mul(units))
		pnl = pnl.Add(f.Price.Sub(lot.EntryPrice).Mul(units).Mul(decimal.NewFromInt(dir)))

		share := prorate(lot.AccumulatedEntryCommission, take, avail)
		entryComm = entryComm.Add(share)
		lot.AccumulatedEntryCommission = lot.AccumulatedEntryCommission.Sub(share)
		lot.QuantityRemaining -= take * dir

		closed += take
		remaining -= take
		if lot.QuantityRemaining == 0 {
			queue = queue[1:]
		}
	}

	closeComm := prorate(f.Commission, closed, f.AbsQuantity())
	entryPrice := costBasis.Div(decimal.NewFromInt(closed))

	tr := models.Trade{
		AccountNumber:         f.AccountNumber,
		Instrument:            f.Instrument,
		Side:                  closeDirection,
		Quantity:              closed,
		EntryPrice:            entryPrice,
		ClosePrice:            f.Price,
		EntryDate:             first.EntryTimestamp,
		CloseDate:             f.Timestamp,
		TimeInPositionSeconds: int64(f.Timestamp.Sub(first.EntryTimestamp).Seconds()),
		PnL:                   pnl,
		Commission:            entryComm.Add(closeComm),
		EntryID:               first.EntryFillRef,
		CloseID:               f.Ref(),
		Source:                f.Source,
	}

	c := closing{trade: tr, closeCommission: closeComm}
	if remaining > 0 {
		c.excess = -dir * remaining
	}
	return queue, c
}

func openLot(f models.NormalizedFill, qty int64, commission decimal.Decimal) models.OpenLot {
	return models.OpenLot{
		AccountNumber:              f.AccountNumber,
		Instrument:                 f.Instrument,
		Contract:                   f.Contract,
		QuantityRemaining:          qty,
		EntryPrice:                 f.Price,
		EntryTimestamp:             f.Timestamp,
		EntryFillRef:               f.Ref(),
		AccumulatedEntryCommission: commission,
	}
}

// prorate returns amount * part / whole, exact when part == whole.
func prorate(amount decimal.Decimal, part, whole int64) decimal.Decimal {
	if whole == 0 || amount.IsZero() {
		return decimal.Zero
	}
	if part == whole {
		return amount
	}
	return amount.Mul(decimal.NewFromInt(part)).Div(decimal.NewFromInt(whole))
}

func sameSign(a, b int64) bool { return (a > 0) == (b > 0) }

func sign(v int64) int64 {
	if v < 0 {
		return -1
	}
	return 1
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
