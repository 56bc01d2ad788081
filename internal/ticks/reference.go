package ticks

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/guttosm/tradejournal/internal/domain/models"
)

var (
	// DefaultTickValue and DefaultTickSize apply when no ticker prefix matches.
	DefaultTickValue = decimal.NewFromInt(1)
	DefaultTickSize  = decimal.RequireFromString("0.01")
)

// Reference is a read-only tick table keyed by ticker prefix.
// It is safe for concurrent use once built.
type Reference struct {
	entries []models.TickDetails // sorted by ticker length, longest first
}

// NewReference builds a Reference from the given rows. Later rows with the same
// ticker replace earlier ones, so administrator rows can be layered over defaults.
func NewReference(rows ...[]models.TickDetails) *Reference {
	byTicker := make(map[string]models.TickDetails)
	for _, set := range rows {
		for _, r := range set {
			t := strings.ToUpper(strings.TrimSpace(r.Ticker))
			if t == "" {
				continue
			}
			r.Ticker = t
			byTicker[t] = r
		}
	}

	entries := make([]models.TickDetails, 0, len(byTicker))
	for _, r := range byTicker {
		entries = append(entries, r)
	}
	sort.Slice(entries, func(i, j int) bool {
		if len(entries[i].Ticker) != len(entries[j].Ticker) {
			return len(entries[i].Ticker) > len(entries[j].Ticker)
		}
		return entries[i].Ticker < entries[j].Ticker
	})
	return &Reference{entries: entries}
}

// Lookup returns the row whose ticker is the longest prefix of instrument.
// The second result is false when the defaults were used.
func (r *Reference) Lookup(instrument string) (models.TickDetails, bool) {
	sym := strings.ToUpper(strings.TrimSpace(instrument))
	if r != nil {
		for _, e := range r.entries {
			if strings.HasPrefix(sym, e.Ticker) {
				return e, true
			}
		}
	}
	return models.TickDetails{Ticker: sym, TickValue: DefaultTickValue, TickSize: DefaultTickSize}, false
}

// Len returns the number of tickers in the table.
func (r *Reference) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}
