package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/guttosm/tradejournal/internal/brokersync"
	"github.com/guttosm/tradejournal/internal/domain/dto"
	"github.com/guttosm/tradejournal/internal/domain/models"
	"github.com/guttosm/tradejournal/internal/middleware"
	"github.com/guttosm/tradejournal/internal/normalize"
	"github.com/guttosm/tradejournal/internal/service"
	"github.com/guttosm/tradejournal/internal/storage"
)

type mockTradeService struct {
	views   []service.TradeView
	rows    []service.SummaryRow
	lots    []models.OpenLot
	deleted int64
	err     error

	gotFilter  storage.TradeFilter
	gotGroupBy string
}

func (m *mockTradeService) ListTrades(_ context.Context, f storage.TradeFilter) ([]service.TradeView, error) {
	m.gotFilter = f
	return m.views, m.err
}

func (m *mockTradeService) Summary(_ context.Context, f storage.TradeFilter, groupBy string) ([]service.SummaryRow, error) {
	m.gotFilter, m.gotGroupBy = f, groupBy
	return m.rows, m.err
}

func (m *mockTradeService) OpenPositions(context.Context, string, string) ([]models.OpenLot, error) {
	return m.lots, m.err
}

func (m *mockTradeService) DeleteAccount(_ context.Context, _ string, account string) (int64, error) {
	if account == " " {
		return 0, &service.ValidationError{Field: "account", Reason: "required"}
	}
	return m.deleted, m.err
}

var _ service.TradeService = (*mockTradeService)(nil)

type mockImporter struct {
	report  models.ImportReport
	err     error
	userID  string
	records []normalize.RawRecord
}

func (m *mockImporter) Import(_ context.Context, userID string, records []normalize.RawRecord) (models.ImportReport, error) {
	m.userID, m.records = userID, records
	return m.report, m.err
}

type mockSyncer struct {
	report brokersync.SweepReport
	err    error
}

func (m *mockSyncer) SyncUser(context.Context, string) (brokersync.SweepReport, error) {
	return m.report, m.err
}

func setupRouterWithMocks(svc service.TradeService, imp Importer, syncer Syncer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc, imp, syncer)
	r := gin.New()
	v1 := r.Group("/api/v1", middleware.UserID())
	v1.POST("/imports", h.PostImport)
	v1.GET("/trades", h.ListTrades)
	v1.GET("/trades/summary", h.Summary)
	v1.GET("/positions", h.ListPositions)
	v1.DELETE("/accounts/:account/trades", h.DeleteAccountTrades)
	v1.POST("/sync", h.PostSync)
	return r
}

func do(r http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.UserIDHeader, "user-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestListTrades_TableDriven(t *testing.T) {
	view := service.TradeView{
		Trade: models.Trade{
			ID: "id-1", AccountNumber: "APEX-1", Instrument: "MES", Side: models.DirectionLong, Quantity: 1,
			EntryPrice: d("5825.25"), ClosePrice: d("5826.50"), PnL: d("6.25"), Commission: d("0.74"),
		},
		Metrics:        models.TickMetrics{Ticks: 5, Points: d("1.25"), TickValue: d("1.25"), TickSize: d("0.25")},
		PnLPerContract: d("6.25"),
	}
	cases := []struct {
		name   string
		svc    *mockTradeService
		query  string
		status int
		assert func(t *testing.T, svc *mockTradeService, body []byte)
	}{
		{name: "invalid from", svc: &mockTradeService{}, query: "/api/v1/trades?from=2025/11/01", status: http.StatusBadRequest},
		{name: "from after to", svc: &mockTradeService{}, query: "/api/v1/trades?from=2025-11-05&to=2025-11-01", status: http.StatusBadRequest},
		{name: "service error", svc: &mockTradeService{err: errors.New("db down")}, query: "/api/v1/trades", status: http.StatusInternalServerError},
		{
			name:   "success",
			svc:    &mockTradeService{views: []service.TradeView{view}},
			query:  "/api/v1/trades?instrument=mes&account=APEX-1&from=2025-11-01&to=2025-11-03",
			status: http.StatusOK,
			assert: func(t *testing.T, svc *mockTradeService, body []byte) {
				f := svc.gotFilter
				if f.UserID != "user-1" || f.Instrument != "MES" || f.AccountNumber != "APEX-1" {
					t.Fatalf("unexpected filter %+v", f)
				}
				if !f.To.Equal(time.Date(2025, 11, 4, 0, 0, 0, 0, time.UTC)) {
					t.Fatalf("date-only to must be inclusive, got %v", f.To)
				}
				var out dto.TradeListResponse
				if err := json.Unmarshal(body, &out); err != nil {
					t.Fatalf("invalid json: %v", err)
				}
				if out.Count != 1 || out.Trades[0].Ticks != 5 || !out.Trades[0].NetPnL.Equal(d("5.51")) {
					t.Fatalf("unexpected body: %+v", out)
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := setupRouterWithMocks(tc.svc, &mockImporter{}, nil)
			w := do(r, http.MethodGet, tc.query, nil)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, w.Code, w.Body.String())
			}
			if tc.assert != nil {
				tc.assert(t, tc.svc, w.Body.Bytes())
			}
		})
	}
}

func TestMissingUserHeader(t *testing.T) {
	r := setupRouterWithMocks(&mockTradeService{}, &mockImporter{}, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/trades", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestSummary(t *testing.T) {
	svc := &mockTradeService{rows: []service.SummaryRow{{Key: "MES", Trades: 2, PnL: d("10"), Commission: d("1"), Metrics: models.TickMetrics{Ticks: 8, Points: d("2")}}}}
	r := setupRouterWithMocks(svc, &mockImporter{}, nil)

	w := do(r, http.MethodGet, "/api/v1/trades/summary?group_by=day", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if svc.gotGroupBy != "day" {
		t.Fatalf("group_by not forwarded: %q", svc.gotGroupBy)
	}
	var out dto.SummaryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(out.Groups) != 1 || !out.Groups[0].NetPnL.Equal(d("9")) || out.Groups[0].Ticks != 8 {
		t.Fatalf("unexpected body %+v", out)
	}

	bad := setupRouterWithMocks(&mockTradeService{err: &service.ValidationError{Field: "group_by", Reason: "unsupported"}}, &mockImporter{}, nil)
	if w := do(bad, http.MethodGet, "/api/v1/trades/summary?group_by=week", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestPostImport(t *testing.T) {
	rithmic := []byte(`{"source":"Rithmic","records":[{"fill_id":"f1","basket_id":"o1","account_id":"A","symbol":"MESZ5","transaction_type":"BUY","fill_size":1,"fill_price":"100","ssboe":1762180200}]}`)
	csvNoMapping := []byte(`{"source":"csv","records":[{"Symbol":"MESZ5"}]}`)
	csvOK := []byte(`{"source":"csv","mapping":{"account_number":"Account","symbol":"Symbol","side":"Side","quantity":"Qty","price":"Price","timestamp":"Time"},"records":[{"Account":"A","Symbol":"MESZ5","Side":"BUY","Qty":"1","Price":"100","Time":"2025-11-03T14:30:00Z"}]}`)

	cases := []struct {
		name   string
		body   []byte
		imp    *mockImporter
		status int
		check  func(t *testing.T, imp *mockImporter)
	}{
		{name: "malformed json", body: []byte(`{`), imp: &mockImporter{}, status: http.StatusBadRequest},
		{name: "unknown source", body: []byte(`{"source":"mt4","records":[{}]}`), imp: &mockImporter{}, status: http.StatusBadRequest},
		{name: "empty records", body: []byte(`{"source":"ibkr","records":[]}`), imp: &mockImporter{}, status: http.StatusBadRequest},
		{name: "wrong record shape", body: []byte(`{"source":"tradovate","records":[{"id":"not-a-number"}]}`), imp: &mockImporter{}, status: http.StatusBadRequest},
		{name: "csv without mapping", body: csvNoMapping, imp: &mockImporter{}, status: http.StatusBadRequest},
		{name: "importer failure", body: rithmic, imp: &mockImporter{err: errors.New("db down")}, status: http.StatusInternalServerError},
		{
			name: "rithmic", body: rithmic, status: http.StatusOK,
			imp: &mockImporter{report: models.ImportReport{Imported: 1}},
			check: func(t *testing.T, imp *mockImporter) {
				if imp.userID != "user-1" || len(imp.records) != 1 {
					t.Fatalf("importer got user %q and %d records", imp.userID, len(imp.records))
				}
				if _, ok := imp.records[0].(normalize.RithmicFill); !ok {
					t.Fatalf("expected RithmicFill, got %T", imp.records[0])
				}
			},
		},
		{
			name: "csv", body: csvOK, status: http.StatusOK, imp: &mockImporter{},
			check: func(t *testing.T, imp *mockImporter) {
				row, ok := imp.records[0].(normalize.CSVRow)
				if !ok || row.Line != 2 || row.Values["Symbol"] != "MESZ5" || row.Mapping.Price != "Price" {
					t.Fatalf("unexpected csv row %+v", imp.records[0])
				}
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := setupRouterWithMocks(&mockTradeService{}, tc.imp, nil)
			w := do(r, http.MethodPost, "/api/v1/imports", tc.body)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, w.Code, w.Body.String())
			}
			if tc.check != nil {
				tc.check(t, tc.imp)
			}
		})
	}
}

func TestListPositions(t *testing.T) {
	svc := &mockTradeService{lots: []models.OpenLot{{AccountNumber: "A", Instrument: "MES", Contract: "MESZ5", QuantityRemaining: -3, EntryPrice: d("110")}}}
	r := setupRouterWithMocks(svc, &mockImporter{}, nil)
	w := do(r, http.MethodGet, "/api/v1/positions", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var out dto.PositionListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if out.Count != 1 || out.Positions[0].Side != "short" || out.Positions[0].Quantity != -3 {
		t.Fatalf("unexpected body %+v", out)
	}
}

func TestDeleteAccountTrades(t *testing.T) {
	r := setupRouterWithMocks(&mockTradeService{deleted: 4}, &mockImporter{}, nil)
	w := do(r, http.MethodDelete, "/api/v1/accounts/APEX-1/trades", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var out dto.DeleteResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if out.AccountNumber != "APEX-1" || out.Deleted != 4 {
		t.Fatalf("unexpected body %+v", out)
	}

	if w := do(r, http.MethodDelete, "/api/v1/accounts/%20/trades", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestPostSync(t *testing.T) {
	r := setupRouterWithMocks(&mockTradeService{}, &mockImporter{}, nil)
	if w := do(r, http.MethodPost, "/api/v1/sync", nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without syncer, got %d", w.Code)
	}

	syncer := &mockSyncer{report: brokersync.SweepReport{
		Accounts: 2, Succeeded: 1, Failed: 1, Reauth: 1,
		Results: []brokersync.AccountResult{
			{AccountID: 1, Broker: models.SourceTradovate, Report: models.ImportReport{Imported: 3}},
			{AccountID: 2, Broker: models.SourceRithmic, Err: brokersync.ErrReauthRequired},
		},
	}}
	r = setupRouterWithMocks(&mockTradeService{}, &mockImporter{}, syncer)
	w := do(r, http.MethodPost, "/api/v1/sync", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var out dto.SyncResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if out.Failed != 1 || len(out.Results) != 2 || out.Results[1].Error == "" || out.Results[0].Report.Imported != 3 {
		t.Fatalf("unexpected body %+v", out)
	}

	failing := setupRouterWithMocks(&mockTradeService{}, &mockImporter{}, &mockSyncer{err: errors.New("list accounts")})
	if w := do(failing, http.MethodPost, "/api/v1/sync", nil); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestParseBound(t *testing.T) {
	cases := []struct {
		in       string
		want     time.Time
		dateOnly bool
		wantErr  bool
	}{
		{in: "2025-11-03", want: time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC), dateOnly: true},
		{in: "2025-11-03T10:00:00-03:00", want: time.Date(2025, 11, 3, 13, 0, 0, 0, time.UTC)},
		{in: "03/11/2025", wantErr: true},
	}
	for _, tc := range cases {
		got, dateOnly, err := parseBound(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("%s: err=%v", tc.in, err)
		}
		if err == nil && (!got.Equal(tc.want) || dateOnly != tc.dateOnly) {
			t.Fatalf("%s: got %v dateOnly=%v", tc.in, got, dateOnly)
		}
	}
}
