package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/tradejournal/internal/brokersync"
	"github.com/guttosm/tradejournal/internal/domain/dto"
	"github.com/guttosm/tradejournal/internal/domain/models"
	"github.com/guttosm/tradejournal/internal/middleware"
	"github.com/guttosm/tradejournal/internal/normalize"
	"github.com/guttosm/tradejournal/internal/service"
	"github.com/guttosm/tradejournal/internal/storage"
)

// Importer runs the reconciliation pipeline for a batch of raw records.
type Importer interface {
	Import(ctx context.Context, userID string, records []normalize.RawRecord) (models.ImportReport, error)
}

// Syncer runs an on-demand broker sync for one user.
type Syncer interface {
	SyncUser(ctx context.Context, userID string) (brokersync.SweepReport, error)
}

// Handler provides the HTTP handlers of /api/v1.
//
// Responsibilities:
//   - Validate headers, query parameters and bodies
//   - Call the read service, the importer or the sync manager
//   - Translate results into response DTOs
type Handler struct {
	svc      service.TradeService
	importer Importer
	syncer   Syncer
}

// NewHandler constructs a Handler. syncer may be nil, in which case
// POST /sync answers 503.
func NewHandler(svc service.TradeService, importer Importer, syncer Syncer) *Handler {
	return &Handler{svc: svc, importer: importer, syncer: syncer}
}

// PostImport godoc
// @Summary      Import raw broker records
// @Description  Normalizes, persists and re-matches the records of one source. Bad records are reported, never fatal.
// @Tags         imports
// @Accept       json
// @Produce      json
// @Param        X-User-ID  header    string             true  "Authenticated user"
// @Param        request    body      dto.ImportRequest  true  "Records of one source"
// @Success      200        {object}  dto.ImportResponse
// @Failure      400        {object}  dto.ErrorResponse
// @Failure      401        {object}  dto.ErrorResponse
// @Failure      500        {object}  dto.ErrorResponse
// @Router       /api/v1/imports [post]
func (h *Handler) PostImport(c *gin.Context) {
	var req dto.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid import request", err)
		return
	}
	records, err := decodeRecords(req)
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid import request", err)
		return
	}

	report, err := h.importer.Import(c.Request.Context(), c.GetString(middleware.UserIDKey), records)
	if err != nil {
		middleware.AbortWithError(c, http.StatusInternalServerError, "import failed", err)
		return
	}
	c.JSON(http.StatusOK, dto.ImportResponse{Source: strings.ToLower(req.Source), Report: report})
}

// ListTrades godoc
// @Summary      List reconciled trades
// @Description  Trades closed in [from, to), with tick metrics. Dates are YYYY-MM-DD (to is inclusive) or RFC3339.
// @Tags         trades
// @Produce      json
// @Param        X-User-ID   header    string  true   "Authenticated user"
// @Param        account     query     string  false  "Account number"
// @Param        instrument  query     string  false  "Base symbol" example(MES)
// @Param        from        query     string  false  "Close date lower bound" example(2025-11-01)
// @Param        to          query     string  false  "Close date upper bound" example(2025-11-30)
// @Success      200         {object}  dto.TradeListResponse
// @Failure      400         {object}  dto.ErrorResponse
// @Failure      500         {object}  dto.ErrorResponse
// @Router       /api/v1/trades [get]
func (h *Handler) ListTrades(c *gin.Context) {
	filter, err := tradeFilter(c)
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid query", err)
		return
	}
	views, err := h.svc.ListTrades(c.Request.Context(), filter)
	if err != nil {
		middleware.AbortWithError(c, http.StatusInternalServerError, "failed to list trades", err)
		return
	}

	resp := dto.TradeListResponse{Count: len(views), Trades: make([]dto.TradeResponse, 0, len(views))}
	for _, v := range views {
		resp.Trades = append(resp.Trades, toTradeResponse(v))
	}
	c.JSON(http.StatusOK, resp)
}

// Summary godoc
// @Summary      Summarize trades
// @Description  Trade counts, PnL and summed tick metrics per instrument, close day or account.
// @Tags         trades
// @Produce      json
// @Param        X-User-ID   header    string  true   "Authenticated user"
// @Param        group_by    query     string  false  "instrument (default), day or account"
// @Param        account     query     string  false  "Account number"
// @Param        instrument  query     string  false  "Base symbol"
// @Param        from        query     string  false  "Close date lower bound"
// @Param        to          query     string  false  "Close date upper bound"
// @Success      200         {object}  dto.SummaryResponse
// @Failure      400         {object}  dto.ErrorResponse
// @Failure      500         {object}  dto.ErrorResponse
// @Router       /api/v1/trades/summary [get]
func (h *Handler) Summary(c *gin.Context) {
	filter, err := tradeFilter(c)
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid query", err)
		return
	}
	groupBy := c.DefaultQuery("group_by", service.GroupByInstrument)
	rows, err := h.svc.Summary(c.Request.Context(), filter, groupBy)
	if err != nil {
		h.serviceError(c, "failed to summarize trades", err)
		return
	}

	resp := dto.SummaryResponse{GroupBy: strings.ToLower(groupBy), Groups: make([]dto.SummaryRowResponse, 0, len(rows))}
	for _, r := range rows {
		resp.Groups = append(resp.Groups, dto.SummaryRowResponse{
			Key:        r.Key,
			Trades:     r.Trades,
			Wins:       r.Wins,
			Losses:     r.Losses,
			Quantity:   r.Quantity,
			PnL:        r.PnL,
			Commission: r.Commission,
			NetPnL:     r.NetPnL(),
			Ticks:      r.Metrics.Ticks,
			Points:     r.Metrics.Points,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// ListPositions godoc
// @Summary      List open positions
// @Description  Lots not closed by any later fill, from the stored fill history.
// @Tags         trades
// @Produce      json
// @Param        X-User-ID  header    string  true   "Authenticated user"
// @Param        account    query     string  false  "Account number"
// @Success      200        {object}  dto.PositionListResponse
// @Failure      500        {object}  dto.ErrorResponse
// @Router       /api/v1/positions [get]
func (h *Handler) ListPositions(c *gin.Context) {
	lots, err := h.svc.OpenPositions(c.Request.Context(), c.GetString(middleware.UserIDKey), strings.TrimSpace(c.Query("account")))
	if err != nil {
		middleware.AbortWithError(c, http.StatusInternalServerError, "failed to list positions", err)
		return
	}

	resp := dto.PositionListResponse{Count: len(lots), Positions: make([]dto.PositionResponse, 0, len(lots))}
	for _, l := range lots {
		resp.Positions = append(resp.Positions, dto.PositionResponse{
			AccountNumber: l.AccountNumber,
			Instrument:    l.Instrument,
			Contract:      l.Contract,
			Side:          string(l.Direction()),
			Quantity:      l.QuantityRemaining,
			EntryPrice:    l.EntryPrice,
			EntryDate:     l.EntryTimestamp,
			Commission:    l.AccumulatedEntryCommission,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteAccountTrades godoc
// @Summary      Delete an account's history
// @Description  Removes the stored fills and trades of one account, e.g. after the broker connection is removed.
// @Tags         trades
// @Produce      json
// @Param        X-User-ID  header    string  true  "Authenticated user"
// @Param        account    path      string  true  "Account number"
// @Success      200        {object}  dto.DeleteResponse
// @Failure      400        {object}  dto.ErrorResponse
// @Failure      500        {object}  dto.ErrorResponse
// @Router       /api/v1/accounts/{account}/trades [delete]
func (h *Handler) DeleteAccountTrades(c *gin.Context) {
	account := c.Param("account")
	n, err := h.svc.DeleteAccount(c.Request.Context(), c.GetString(middleware.UserIDKey), account)
	if err != nil {
		h.serviceError(c, "failed to delete account", err)
		return
	}
	c.JSON(http.StatusOK, dto.DeleteResponse{AccountNumber: account, Deleted: n})
}

// PostSync godoc
// @Summary      Sync broker accounts now
// @Description  Renews tokens and imports new executions for every connected account of the user. One account failing never fails the others.
// @Tags         sync
// @Produce      json
// @Param        X-User-ID  header    string  true  "Authenticated user"
// @Success      200        {object}  dto.SyncResponse
// @Failure      500        {object}  dto.ErrorResponse
// @Failure      503        {object}  dto.ErrorResponse
// @Router       /api/v1/sync [post]
func (h *Handler) PostSync(c *gin.Context) {
	if h.syncer == nil {
		middleware.AbortWithError(c, http.StatusServiceUnavailable, "broker sync is not configured", nil)
		return
	}
	rep, err := h.syncer.SyncUser(c.Request.Context(), c.GetString(middleware.UserIDKey))
	if err != nil {
		middleware.AbortWithError(c, http.StatusInternalServerError, "sync failed", err)
		return
	}

	resp := dto.SyncResponse{
		Accounts:  rep.Accounts,
		Succeeded: rep.Succeeded,
		Failed:    rep.Failed,
		Reauth:    rep.Reauth,
		Results:   make([]dto.SyncAccountResponse, 0, len(rep.Results)),
	}
	for _, r := range rep.Results {
		out := dto.SyncAccountResponse{AccountID: r.AccountID, Broker: string(r.Broker), Report: r.Report}
		if r.Err != nil {
			out.Error = r.Err.Error()
		}
		resp.Results = append(resp.Results, out)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) serviceError(c *gin.Context, message string, err error) {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		middleware.AbortWithError(c, http.StatusBadRequest, message, err)
		return
	}
	middleware.AbortWithError(c, http.StatusInternalServerError, message, err)
}

func toTradeResponse(v service.TradeView) dto.TradeResponse {
	t := v.Trade
	return dto.TradeResponse{
		ID:                    t.ID,
		AccountNumber:         t.AccountNumber,
		Instrument:            t.Instrument,
		Side:                  string(t.Side),
		Quantity:              t.Quantity,
		EntryPrice:            t.EntryPrice,
		ClosePrice:            t.ClosePrice,
		EntryDate:             t.EntryDate,
		CloseDate:             t.CloseDate,
		TimeInPositionSeconds: t.TimeInPositionSeconds,
		PnL:                   t.PnL,
		Commission:            t.Commission,
		NetPnL:                t.NetPnL(),
		PnLPerContract:        v.PnLPerContract,
		Ticks:                 v.Metrics.Ticks,
		Points:                v.Metrics.Points,
		TickValue:             v.Metrics.TickValue,
		TickSize:              v.Metrics.TickSize,
		Source:                string(t.Source),
	}
}

// tradeFilter reads the common trade query parameters.
func tradeFilter(c *gin.Context) (storage.TradeFilter, error) {
	f := storage.TradeFilter{
		UserID:        c.GetString(middleware.UserIDKey),
		AccountNumber: strings.TrimSpace(c.Query("account")),
		Instrument:    strings.ToUpper(strings.TrimSpace(c.Query("instrument"))),
	}
	if s := c.Query("from"); s != "" {
		from, _, err := parseBound(s)
		if err != nil {
			return f, fmt.Errorf("from: %w", err)
		}
		f.From = &from
	}
	if s := c.Query("to"); s != "" {
		to, dateOnly, err := parseBound(s)
		if err != nil {
			return f, fmt.Errorf("to: %w", err)
		}
		if dateOnly {
			to = to.AddDate(0, 0, 1)
		}
		f.To = &to
	}
	if f.From != nil && f.To != nil && !f.From.Before(*f.To) {
		return f, errors.New("from must be before to")
	}
	return f, nil
}

// parseBound accepts YYYY-MM-DD (UTC midnight) or RFC3339.
func parseBound(s string) (time.Time, bool, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("expected YYYY-MM-DD or RFC3339, got %q", s)
	}
	return t.UTC(), false, nil
}
