package ticks

import (
	"github.com/shopspring/decimal"

	"github.com/guttosm/tradejournal/internal/domain/models"
)

// Calculate derives ticks and points for a trade.
//
// Behavior:
//   - Looks up trade.Instrument in ref (longest prefix; defaults when unknown).
//   - pnlPerContract = PnL / Quantity.
//   - ticks = round(pnlPerContract / tickValue), half away from zero.
//   - points = ticks * tickSize, rounded to 2 decimals.
//   - A zero quantity or a zero tick value yields zero ticks and points instead of NaN.
func Calculate(trade models.Trade, ref *Reference) models.TickMetrics {
	details, _ := ref.Lookup(trade.Instrument)
	return CalculatePnL(trade.PnL, trade.Quantity, details)
}

// CalculatePnL is Calculate for a raw (pnl, quantity) pair.
func CalculatePnL(pnl decimal.Decimal, quantity int64, details models.TickDetails) models.TickMetrics {
	out := models.TickMetrics{
		Points:    decimal.Zero,
		TickValue: details.TickValue,
		TickSize:  details.TickSize,
	}
	if quantity == 0 || details.TickValue.IsZero() {
		return out
	}

	perContract := pnl.Div(decimal.NewFromInt(quantity))
	ticks := perContract.Div(details.TickValue).Round(0)
	out.Ticks = ticks.IntPart()
	out.Points = ticks.Mul(details.TickSize).Round(2)
	return out
}

// Aggregate sums ticks and points of constituent trades, as used for grouped
// trades in the read model. Tick value and size are taken from the first entry.
func Aggregate(metrics ...models.TickMetrics) models.TickMetrics {
	out := models.TickMetrics{Points: decimal.Zero}
	for i, m := range metrics {
		if i == 0 {
			out.TickValue = m.TickValue
			out.TickSize = m.TickSize
		}
		out.Ticks += m.Ticks
		out.Points = out.Points.Add(m.Points)
	}
	return out
}

// PnLPerContract returns pnl/quantity rounded to cents, or zero for a zero quantity.
func PnLPerContract(pnl decimal.Decimal, quantity int64) decimal.Decimal {
	if quantity == 0 {
		return decimal.Zero
	}
	return pnl.Div(decimal.NewFromInt(quantity)).Round(2)
}
