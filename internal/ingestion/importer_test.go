package ingestion

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/guttosm/tradejournal/internal/domain/models"
	"github.com/guttosm/tradejournal/internal/normalize"
)

func f64p(v float64) *float64 { return &v }

func tradovate(id int64, action string, qty int64, price float64, at string) normalize.TradovateFill {
	return normalize.TradovateFill{
		ID: id, OrderID: id * 10, AccountName: "ACC-1", ContractName: "MESZ5",
		Timestamp: at, Action: action, Qty: qty, Price: f64p(price), Commission: 0.5,
	}
}

func fifoBatch() []normalize.RawRecord {
	return []normalize.RawRecord{
		tradovate(1, "Buy", 2, 100, "2025-11-03T14:30:00Z"),
		tradovate(2, "Buy", 3, 101, "2025-11-03T14:31:00Z"),
		tradovate(3, "Sell", 4, 105, "2025-11-03T14:35:00Z"),
		normalize.TradovateFill{ID: 4, AccountName: "ACC-1", ContractName: "MESZ5", Action: "Buy", Qty: 1, Timestamp: "2025-11-03T14:36:00Z"},
	}
}

func TestImport_FIFOAndReport(t *testing.T) {
	fills, trades := newFakeFills(), newFakeTrades()
	im := NewImporter(fills, trades, 2)

	rep, err := im.Import(context.Background(), "user-1", fifoBatch())
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if rep.Imported != 3 || rep.Failed != 1 || rep.Trades != 1 || rep.OpenPositions != 1 {
		t.Fatalf("unexpected report %+v", rep)
	}
	if len(rep.Errors) != 1 || rep.Errors[0].Reason != "missing price" {
		t.Fatalf("unexpected errors %+v", rep.Errors)
	}

	got := trades.all()
	if len(got) != 1 {
		t.Fatalf("stored trades=%d", len(got))
	}
	tr := got[0]
	if !tr.EntryPrice.Equal(decimal.RequireFromString("100.5")) || tr.Quantity != 4 || tr.UserID != "user-1" {
		t.Fatalf("unexpected trade %+v", tr)
	}
	if tr.ID == "" || len(tr.Fingerprint) != 64 {
		t.Fatalf("identity not assigned: %+v", tr)
	}
	if !tr.EntryDate.Equal(time.Date(2025, 11, 3, 14, 30, 0, 0, time.UTC)) {
		t.Fatalf("entry date=%v", tr.EntryDate)
	}
}

func TestImport_Idempotent(t *testing.T) {
	fills, trades := newFakeFills(), newFakeTrades()
	im := NewImporter(fills, trades, 0)
	ctx := context.Background()

	if _, err := im.Import(ctx, "user-1", fifoBatch()); err != nil {
		t.Fatalf("first import: %v", err)
	}
	first := trades.all()

	rep, err := im.Import(ctx, "user-1", fifoBatch())
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	second := trades.all()
	if rep.Trades != 0 || rep.OpenPositions != 1 {
		t.Fatalf("re-import must report no new trades: %+v", rep)
	}

	if len(first) != len(second) || first[0].ID != second[0].ID || first[0].Fingerprint != second[0].Fingerprint {
		t.Fatalf("re-import changed trades: %+v vs %+v", first, second)
	}
}

func TestImport_MatchesAgainstStoredHistory(t *testing.T) {
	fills, trades := newFakeFills(), newFakeTrades()
	im := NewImporter(fills, trades, 0)
	ctx := context.Background()

	rep, err := im.Import(ctx, "user-1", []normalize.RawRecord{tradovate(1, "Buy", 1, 100, "2025-11-03T14:30:00Z")})
	if err != nil || rep.Trades != 0 || rep.OpenPositions != 1 {
		t.Fatalf("opening import: rep=%+v err=%v", rep, err)
	}

	rep, err = im.Import(ctx, "user-1", []normalize.RawRecord{tradovate(2, "Sell", 1, 102, "2025-11-03T15:00:00Z")})
	if err != nil || rep.Trades != 1 || rep.OpenPositions != 0 {
		t.Fatalf("closing import: rep=%+v err=%v", rep, err)
	}
	if got := trades.all(); len(got) != 1 || !got[0].PnL.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("unexpected trades %+v", got)
	}
}

func TestImport_CollisionIsCountedNotOverwritten(t *testing.T) {
	fills, trades := newFakeFills(), newFakeTrades()
	im := NewImporter(fills, trades, 0)
	ctx := context.Background()

	if _, err := im.Import(ctx, "user-1", fifoBatch()); err != nil {
		t.Fatalf("import: %v", err)
	}
	id := trades.all()[0].ID
	trades.forced[id] = "someone-else"

	rep, err := im.Import(ctx, "user-1", fifoBatch())
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if rep.Collisions != 1 || rep.Trades != 0 {
		t.Fatalf("unexpected report %+v", rep)
	}
}

func TestImport_StorageErrorStopsRun(t *testing.T) {
	fills, trades := newFakeFills(), newFakeTrades()
	fills.saveErr = errors.New("db down")
	im := NewImporter(fills, trades, 0)

	rep, err := im.Import(context.Background(), "user-1", fifoBatch())
	if err == nil {
		t.Fatalf("expected error")
	}
	if rep.Failed != 1 {
		t.Fatalf("record errors must still be reported: %+v", rep)
	}
	if trades.calls != 0 {
		t.Fatalf("trades must not be touched when fills cannot be saved")
	}
}

func TestImport_EmptyBatch(t *testing.T) {
	im := NewImporter(newFakeFills(), newFakeTrades(), 0)
	rep, err := im.Import(context.Background(), "user-1", nil)
	if err != nil || rep.Imported != 0 || rep.Trades != 0 {
		t.Fatalf("rep=%+v err=%v", rep, err)
	}
}

func TestDeleteAccount(t *testing.T) {
	fills, trades := newFakeStore()
	im := NewImporter(fills, trades, 0)
	ctx := context.Background()
	if _, err := im.Import(ctx, "user-1", fifoBatch()); err != nil {
		t.Fatalf("import: %v", err)
	}

	n, err := im.DeleteAccount(ctx, "user-1", "ACC-1")
	if err != nil || n != 1 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	rep, err := im.Rematch(ctx, "user-1", "ACC-1")
	if err != nil || rep.Trades != 0 || rep.OpenPositions != 0 {
		t.Fatalf("history should be gone: rep=%+v err=%v", rep, err)
	}
}

func TestDeleteAccount_FailureKeepsHistory(t *testing.T) {
	fills, trades := newFakeStore()
	im := NewImporter(fills, trades, 0)
	ctx := context.Background()
	if _, err := im.Import(ctx, "user-1", fifoBatch()); err != nil {
		t.Fatalf("import: %v", err)
	}
	trades.deleteErr = errors.New("db down")

	if _, err := im.DeleteAccount(ctx, "user-1", "ACC-1"); err == nil {
		t.Fatalf("expected error")
	}
	history, _ := fills.ListFills(ctx, "user-1", "ACC-1")
	if len(history) != 3 || len(trades.all()) != 1 {
		t.Fatalf("partial delete: fills=%d trades=%d", len(history), len(trades.all()))
	}
}

func TestImportReport_OpenPositionsNotSummedPerAccount(t *testing.T) {
	fills, trades := newFakeStore()
	im := NewImporter(fills, trades, 0)
	ctx := context.Background()

	var total models.ImportReport
	for i, batch := range [][]normalize.RawRecord{
		{tradovate(1, "Buy", 2, 100, "2025-11-03T14:30:00Z")},
		{tradovate(2, "Buy", 3, 101, "2025-11-03T14:31:00Z")},
		{tradovate(3, "Sell", 4, 105, "2025-11-03T14:35:00Z")},
	} {
		rep, err := im.Import(ctx, "user-1", batch)
		if err != nil {
			t.Fatalf("import %d: %v", i, err)
		}
		total.Merge(rep)
	}
	if total.Imported != 3 || total.Trades != 1 || total.OpenPositions != 1 {
		t.Fatalf("unexpected merged report %+v", total)
	}

	// A stale snapshot merged late does not replace the newer one.
	older := models.ImportReport{}
	older.SetOpenPositions("ACC-1", 2, 1)
	total.Merge(older)
	if total.OpenPositions != 1 {
		t.Fatalf("stale snapshot won: %+v", total)
	}
}

func TestKeyedMutex_SerializesPerKey(t *testing.T) {
	km := newKeyedMutex()
	var active, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("user-1|ACC-1")
			n := atomic.AddInt32(&active, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
			unlock()
		}()
	}
	wg.Wait()
	if peak != 1 {
		t.Fatalf("peak concurrency=%d want 1", peak)
	}
	if km.size() != 0 {
		t.Fatalf("locks leaked: %d", km.size())
	}
}

func TestMask(t *testing.T) {
	if mask("ACC-12345") != "****2345" || mask("123") != "****" {
		t.Fatalf("unexpected masks")
	}
}
