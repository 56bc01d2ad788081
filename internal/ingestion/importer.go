package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/guttosm/tradejournal/internal/domain/models"
	"github.com/guttosm/tradejournal/internal/identity"
	"github.com/guttosm/tradejournal/internal/logger"
	"github.com/guttosm/tradejournal/internal/matching"
	"github.com/guttosm/tradejournal/internal/normalize"
	"github.com/guttosm/tradejournal/internal/storage"
)

// Importer runs the reconciliation pipeline for one batch of raw records:
// normalize, persist fills, re-match the full account history, derive
// identities and replace the account's trades.
//
// Imports of the same (user, account) are serialized; different accounts run
// independently. An Importer is safe for concurrent use.
type Importer struct {
	fills    storage.FillsRepository
	trades   storage.TradesRepository
	parallel int
	locks    *keyedMutex
	seq      atomic.Uint64 // orders re-matches; taken under the account lock
	log      zerolog.Logger
}

// NewImporter wires an Importer. parallel bounds the number of matching groups
// processed at once (<= 0 means one goroutine per group).
func NewImporter(fills storage.FillsRepository, trades storage.TradesRepository, parallel int) *Importer {
	return &Importer{
		fills:    fills,
		trades:   trades,
		parallel: parallel,
		locks:    newKeyedMutex(),
		log:      logger.With("ingestion"),
	}
}

// Import reconciles records for userID.
//
// Behavior:
//   - Bad records never abort the batch; they are counted as failed or skipped
//     and listed in the report.
//   - Fills are grouped by account; each account is persisted and re-matched
//     under its own lock.
//   - Identity collisions are logged at error level, counted as failed and
//     never overwrite the stored trade.
//
// Returns the report and the first infrastructure error, if any. Accounts
// processed before the error keep their results.
func (im *Importer) Import(ctx context.Context, userID string, records []normalize.RawRecord) (models.ImportReport, error) {
	start := time.Now()
	batch := normalize.NormalizeBatch(records)

	report := models.ImportReport{
		Imported: len(batch.Fills),
		Failed:   len(batch.Failed),
		Skipped:  len(batch.Skipped),
	}
	report.Errors = append(report.Errors, batch.Failed...)
	report.Errors = append(report.Errors, batch.Skipped...)

	for _, e := range batch.Failed {
		im.log.Warn().Str("user_id", userID).Str("ref", e.Ref).Str("reason", e.Reason).Msg("record rejected")
	}

	byAccount := make(map[string][]models.NormalizedFill)
	for _, f := range batch.Fills {
		byAccount[f.AccountNumber] = append(byAccount[f.AccountNumber], f)
	}
	accounts := make([]string, 0, len(byAccount))
	for a := range byAccount {
		accounts = append(accounts, a)
	}
	sort.Strings(accounts)

	for _, account := range accounts {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		part, err := im.importAccount(ctx, userID, account, byAccount[account])
		report.Merge(part)
		if err != nil {
			return report, fmt.Errorf("account %s: %w", mask(account), err)
		}
	}

	im.log.Info().
		Str("user_id", userID).
		Int("records", len(records)).
		Int("imported", report.Imported).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Int("trades", report.Trades).
		Int("open_positions", report.OpenPositions).
		Dur("elapsed", time.Since(start)).
		Msg("import done")
	return report, nil
}

func (im *Importer) importAccount(ctx context.Context, userID, account string, fills []models.NormalizedFill) (models.ImportReport, error) {
	unlock := im.locks.Lock(userID + "|" + account)
	defer unlock()

	if _, err := im.fills.SaveFills(ctx, userID, fills); err != nil {
		return models.ImportReport{}, fmt.Errorf("save fills: %w", err)
	}
	return im.rematch(ctx, userID, account)
}

// Rematch re-runs matching over the stored history of one account and
// replaces its trades. Used after imports and by the sync manager.
func (im *Importer) Rematch(ctx context.Context, userID, account string) (models.ImportReport, error) {
	unlock := im.locks.Lock(userID + "|" + account)
	defer unlock()
	return im.rematch(ctx, userID, account)
}

func (im *Importer) rematch(ctx context.Context, userID, account string) (models.ImportReport, error) {
	var report models.ImportReport

	history, err := im.fills.ListFills(ctx, userID, account)
	if err != nil {
		return report, fmt.Errorf("load fill history: %w", err)
	}

	res, err := matching.MatchParallel(ctx, history, im.parallel)
	if err != nil {
		return report, fmt.Errorf("match: %w", err)
	}
	if res.Flips > 0 {
		im.log.Info().Str("user_id", userID).Str("account", mask(account)).Int("flips", res.Flips).Msg("position flips while matching")
	}

	guard := identity.NewGuard()
	trades := make([]models.Trade, 0, len(res.Trades))
	for _, t := range res.Trades {
		t.UserID = userID
		t = identity.Assign(t)

		dup, err := guard.Check(t)
		if err != nil {
			im.collision(&report, userID, err)
			continue
		}
		if dup {
			continue
		}
		trades = append(trades, t)
	}

	up, err := im.trades.ReplaceAccountTrades(ctx, userID, account, trades)
	if err != nil {
		return report, fmt.Errorf("store trades: %w", err)
	}
	for _, c := range up.Collisions {
		im.collision(&report, userID, c)
	}

	report.Trades += up.Inserted
	report.SetOpenPositions(account, len(res.Unmatched), im.seq.Add(1))
	return report, nil
}

func (im *Importer) collision(report *models.ImportReport, userID string, err error) {
	var ce *identity.CollisionError
	ref := "?"
	if errors.As(err, &ce) {
		ref = ce.ID
	}
	im.log.Error().Str("user_id", userID).Str("trade_id", ref).Err(err).Msg("identity collision")
	report.Collisions++
	report.Failed++
	report.Errors = append(report.Errors, models.RecordError{Ref: ref, Reason: "identity collision"})
}

// DeleteAccount removes the fill history and trades of one account. Both go
// in one transaction.
func (im *Importer) DeleteAccount(ctx context.Context, userID, account string) (int64, error) {
	unlock := im.locks.Lock(userID + "|" + account)
	defer unlock()

	n, err := im.trades.DeleteAccountHistory(ctx, userID, account)
	if err != nil {
		return 0, err
	}
	im.log.Info().Str("user_id", userID).Str("account", mask(account)).Int64("trades", n).Msg("account deleted")
	return n, nil
}

// mask keeps the last four characters of an account number for logs.
func mask(account string) string {
	if len(account) <= 4 {
		return "****"
	}
	return "****" + account[len(account)-4:]
}
