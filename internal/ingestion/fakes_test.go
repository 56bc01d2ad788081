package ingestion

import (
	"context"
	"sort"
	"sync"

	"github.com/guttosm/tradejournal/internal/domain/models"
	"github.com/guttosm/tradejournal/internal/identity"
	"github.com/guttosm/tradejournal/internal/matching"
	"github.com/guttosm/tradejournal/internal/normalize"
	"github.com/guttosm/tradejournal/internal/storage"
)

// fakeFills keeps fills in memory, keyed like the fills table.
type fakeFills struct {
	mu      sync.Mutex
	rows    map[string]map[string]models.NormalizedFill // user|account -> fill key -> fill
	saveErr error
}

func newFakeFills() *fakeFills {
	return &fakeFills{rows: map[string]map[string]models.NormalizedFill{}}
}

func (f *fakeFills) SaveFills(_ context.Context, userID string, fills []models.NormalizedFill) (int64, error) {
	if f.saveErr != nil {
		return 0, f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fl := range fills {
		k := userID + "|" + fl.AccountNumber
		if f.rows[k] == nil {
			f.rows[k] = map[string]models.NormalizedFill{}
		}
		f.rows[k][normalize.FillKey(fl)] = fl
	}
	return int64(len(fills)), nil
}

func (f *fakeFills) ListFills(_ context.Context, userID, account string) ([]models.NormalizedFill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.NormalizedFill
	for k, rows := range f.rows {
		if account != "" && k != userID+"|"+account {
			continue
		}
		for _, fl := range rows {
			out = append(out, fl)
		}
	}
	matching.SortFills(out)
	return out, nil
}

// fakeTrades mimics the conditional upsert: a stored fingerprint that differs
// is reported as a collision and left untouched.
type fakeTrades struct {
	mu        sync.Mutex
	rows      map[string]map[string]models.Trade // user|account -> id -> trade
	forced    map[string]string                  // id -> stored fingerprint to collide with
	calls     int
	fills     *fakeFills // shares the account history delete, like the fills table
	deleteErr error
}

func newFakeTrades() *fakeTrades {
	return &fakeTrades{rows: map[string]map[string]models.Trade{}, forced: map[string]string{}}
}

// newFakeStore returns fakes that share one account history, as both tables do.
func newFakeStore() (*fakeFills, *fakeTrades) {
	fills, trades := newFakeFills(), newFakeTrades()
	trades.fills = fills
	return fills, trades
}

func (f *fakeTrades) ReplaceAccountTrades(_ context.Context, userID, account string, trades []models.Trade) (storage.UpsertResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	k := userID + "|" + account
	old := f.rows[k]
	next := map[string]models.Trade{}
	var res storage.UpsertResult
	for _, t := range trades {
		if fp, ok := f.forced[t.ID]; ok && fp != t.Fingerprint {
			res.Collisions = append(res.Collisions, &identity.CollisionError{ID: t.ID, Existing: fp, Incoming: t.Fingerprint})
			if stored, ok := old[t.ID]; ok {
				next[t.ID] = stored
			}
			continue
		}
		if _, ok := old[t.ID]; !ok {
			res.Inserted++
		}
		next[t.ID] = t
		res.Upserted++
	}
	for id := range old {
		if _, ok := next[id]; !ok {
			res.Pruned++
		}
	}
	f.rows[k] = next
	return res, nil
}

func (f *fakeTrades) ListTrades(_ context.Context, filter storage.TradeFilter) ([]models.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Trade
	for k, rows := range f.rows {
		if filter.AccountNumber != "" && k != filter.UserID+"|"+filter.AccountNumber {
			continue
		}
		for _, t := range rows {
			if t.UserID == filter.UserID {
				out = append(out, t)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CloseDate.Before(out[j].CloseDate) })
	return out, nil
}

func (f *fakeTrades) DeleteAccountHistory(_ context.Context, userID, account string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	if f.fills != nil {
		f.fills.mu.Lock()
		delete(f.fills.rows, userID+"|"+account)
		f.fills.mu.Unlock()
	}
	n := len(f.rows[userID+"|"+account])
	delete(f.rows, userID+"|"+account)
	return int64(n), nil
}

func (f *fakeTrades) all() []models.Trade {
	out, _ := f.ListTrades(context.Background(), storage.TradeFilter{UserID: "user-1"})
	return out
}
