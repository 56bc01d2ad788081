package storage

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"

	"github.com/guttosm/tradejournal/internal/domain/models"
)

func sampleFill(id string, qty int64) models.NormalizedFill {
	side := models.SideBuy
	if qty < 0 {
		side = models.SideSell
	}
	return models.NormalizedFill{
		AccountNumber:  "ACC-1",
		Instrument:     "MES",
		Contract:       "MESZ5",
		RawSymbol:      "MESZ5",
		Side:           side,
		SignedQuantity: qty,
		Price:          decimal.RequireFromString("5000.25"),
		Timestamp:      t0,
		Commission:     decimal.RequireFromString("0.62"),
		SourceOrderID:  "ord-" + id,
		SourceFillID:   id,
		Source:         models.SourceTradovate,
	}
}

func TestSaveFills_SQLMock(t *testing.T) {
	db, mock, c, done := newMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TEMP TABLE fills_staging")).WillReturnResult(sqlmock.NewResult(0, 0))
	// pq.CopyIn is driver specific; sqlmock only sees PREPARE plus one Exec per row and the final flush.
	prep := mock.ExpectPrepare(`COPY "fills_staging"`)
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO fills")).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	n, err := NewFillsRepository(db, c).SaveFills(context.Background(), "user-1",
		[]models.NormalizedFill{sampleFill("f1", 1), sampleFill("f2", -1)})
	if err != nil {
		t.Fatalf("SaveFills: %v", err)
	}
	if n != 2 {
		t.Fatalf("affected=%d want 2", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSaveFills_EmptyIsNoop(t *testing.T) {
	db, mock, c, done := newMock(t)
	defer done()

	n, err := NewFillsRepository(db, c).SaveFills(context.Background(), "user-1", nil)
	if err != nil || n != 0 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSaveFills_ErrorPaths(t *testing.T) {
	cases := []struct {
		name  string
		setup func(mock sqlmock.Sqlmock)
	}{
		{"begin", func(mock sqlmock.Sqlmock) {
			mock.ExpectBegin().WillReturnError(dummyErr{})
		}},
		{"staging", func(mock sqlmock.Sqlmock) {
			mock.ExpectBegin()
			mock.ExpectExec("CREATE TEMP TABLE").WillReturnError(dummyErr{})
			mock.ExpectRollback()
		}},
		{"row exec", func(mock sqlmock.Sqlmock) {
			mock.ExpectBegin()
			mock.ExpectExec("CREATE TEMP TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectPrepare(`COPY "fills_staging"`).ExpectExec().WillReturnError(dummyErr{})
			mock.ExpectRollback()
		}},
		{"merge", func(mock sqlmock.Sqlmock) {
			mock.ExpectBegin()
			mock.ExpectExec("CREATE TEMP TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
			prep := mock.ExpectPrepare(`COPY "fills_staging"`)
			prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
			prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectExec("INSERT INTO fills").WillReturnError(dummyErr{})
			mock.ExpectRollback()
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock, c, done := newMock(t)
			defer done()
			tc.setup(mock)

			if _, err := NewFillsRepository(db, c).SaveFills(context.Background(), "user-1",
				[]models.NormalizedFill{sampleFill("f1", 1)}); err == nil {
				t.Fatalf("expected error")
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}

func TestListFills_SQLMock(t *testing.T) {
	db, mock, c, done := newMock(t)
	defer done()

	cols := []string{"source", "account_number", "instrument", "contract", "raw_symbol", "side",
		"signed_quantity", "price", "ts", "commission", "order_id", "fill_id"}
	rows := sqlmock.NewRows(cols).
		AddRow("tradovate", mustEnc(t, c, "ACC-1"), "MES", "MESZ5", "MESZ5", "BUY", int64(2), mustEnc(t, c, "5000.25"), t0, "1.24", "o1", "f1").
		AddRow("tradovate", mustEnc(t, c, "ACC-1"), "MES", "MESZ5", "MESZ5", "SELL", int64(-2), mustEnc(t, c, "5001.5"), t0.Add(time.Minute), "1.24", "o2", "f2")

	mock.ExpectQuery(regexp.QuoteMeta("FROM fills")).
		WithArgs("user-1", c.BlindIndex("ACC-1")).
		WillReturnRows(rows)

	out, err := NewFillsRepository(db, c).ListFills(context.Background(), "user-1", "ACC-1")
	if err != nil {
		t.Fatalf("ListFills: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("fills=%d", len(out))
	}
	if out[0].AccountNumber != "ACC-1" || !out[0].Price.Equal(decimal.RequireFromString("5000.25")) || out[0].Side != models.SideBuy {
		t.Fatalf("unexpected first fill %+v", out[0])
	}
	if out[1].SignedQuantity != -2 || !out[1].Commission.Equal(decimal.RequireFromString("1.24")) || out[1].Source != models.SourceTradovate {
		t.Fatalf("unexpected second fill %+v", out[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListFills_AllAccounts(t *testing.T) {
	db, mock, c, done := newMock(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("FROM fills")).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"source"}))

	out, err := NewFillsRepository(db, c).ListFills(context.Background(), "user-1", "")
	if err != nil || len(out) != 0 {
		t.Fatalf("out=%v err=%v", out, err)
	}
}
