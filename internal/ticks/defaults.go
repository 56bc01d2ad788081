package ticks

import (
	"github.com/shopspring/decimal"

	"github.com/guttosm/tradejournal/internal/domain/models"
)

func row(ticker, value, size string) models.TickDetails {
	return models.TickDetails{
		Ticker:    ticker,
		TickValue: decimal.RequireFromString(value),
		TickSize:  decimal.RequireFromString(size),
	}
}

// Defaults is the built-in table for common CME Group futures. The administrator
// table stored in Postgres is layered on top of it at startup.
func Defaults() []models.TickDetails {
	return []models.TickDetails{
		// equity index
		row("ES", "12.5", "0.25"),
		row("MES", "1.25", "0.25"),
		row("NQ", "5", "0.25"),
		row("MNQ", "0.5", "0.25"),
		row("YM", "5", "1"),
		row("MYM", "0.5", "1"),
		row("RTY", "5", "0.1"),
		row("M2K", "0.5", "0.1"),
		// energy
		row("CL", "10", "0.01"),
		row("MCL", "1", "0.01"),
		row("NG", "10", "0.001"),
		// metals
		row("GC", "10", "0.1"),
		row("MGC", "1", "0.1"),
		row("SI", "25", "0.005"),
		row("HG", "12.5", "0.0005"),
		// fx
		row("6E", "6.25", "0.00005"),
		row("6J", "6.25", "0.0000005"),
		row("6B", "6.25", "0.0001"),
		// rates
		row("ZB", "31.25", "0.03125"),
		row("ZN", "15.625", "0.015625"),
	}
}
