package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	pq "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/guttosm/tradejournal/internal/domain/models"
	"github.com/guttosm/tradejournal/internal/identity"
)

// TradesRepository defines contract for trade persistence.
type TradesRepository interface {
	ReplaceAccountTrades(ctx context.Context, userID, accountNumber string, trades []models.Trade) (UpsertResult, error)
	ListTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error)
	DeleteAccountHistory(ctx context.Context, userID, accountNumber string) (int64, error)
}

// TradeFilter narrows ListTrades. Zero values mean "no filter".
type TradeFilter struct {
	UserID        string
	AccountNumber string
	Instrument    string
	From          *time.Time // inclusive, on close_date
	To            *time.Time // exclusive, on close_date
}

// UpsertResult reports the outcome of ReplaceAccountTrades.
//
// Upserted counts every stored trade, Inserted only those whose ID was not
// stored before. Collisions are trades whose ID already exists with a different
// fingerprint; the stored row is left untouched.
type UpsertResult struct {
	Upserted   int
	Inserted   int
	Pruned     int64
	Collisions []*identity.CollisionError
}

type tradesRepository struct {
	db     *sql.DB
	cipher FieldCipher
}

// NewTradesRepository returns a Postgres-backed TradesRepository that
// encrypts account number and prices at rest.
func NewTradesRepository(db *sql.DB, cipher FieldCipher) TradesRepository {
	return &tradesRepository{db: db, cipher: cipher}
}

const upsertTradeSQL = `
	INSERT INTO trades (
		id, fingerprint, user_id, account_key, account_number, instrument, side, quantity,
		entry_price, close_price, entry_date, close_date, time_in_position,
		pnl, commission, entry_id, close_id, source
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
	ON CONFLICT (id) DO UPDATE SET
		account_number = EXCLUDED.account_number,
		entry_price    = EXCLUDED.entry_price,
		close_price    = EXCLUDED.close_price,
		pnl            = EXCLUDED.pnl,
		commission     = EXCLUDED.commission,
		source         = EXCLUDED.source,
		updated_at     = NOW()
	WHERE trades.fingerprint = EXCLUDED.fingerprint
	RETURNING (xmax = 0) AS inserted`

// ReplaceAccountTrades makes the stored trades of one account equal to trades.
//
// Behavior:
//   - Runs in a single transaction.
//   - Each trade is upserted by ID; an existing row is only updated when its
//     fingerprint matches. A mismatch is reported in UpsertResult.Collisions.
//   - Trades of the account whose ID is not in trades (nor a collision) are
//     deleted: the caller always passes the result of matching the full history.
func (r *tradesRepository) ReplaceAccountTrades(ctx context.Context, userID, accountNumber string, trades []models.Trade) (UpsertResult, error) {
	var res UpsertResult
	accountKey := r.cipher.BlindIndex(accountNumber)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	keep := make([]string, 0, len(trades))
	for _, t := range trades {
		enc, err := encryptAll(r.cipher, accountNumber, t.EntryPrice.String(), t.ClosePrice.String())
		if err != nil {
			return res, fmt.Errorf("encrypt trade %s: %w", t.ID, err)
		}

		var inserted bool
		err = tx.QueryRowContext(ctx, upsertTradeSQL,
			t.ID, t.Fingerprint, userID, accountKey, enc[0], t.Instrument, string(t.Side), t.Quantity,
			enc[1], enc[2], t.EntryDate.UTC(), t.CloseDate.UTC(), t.TimeInPositionSeconds,
			t.PnL, t.Commission, t.EntryID, t.CloseID, string(t.Source),
		).Scan(&inserted)
		keep = append(keep, t.ID)

		if errors.Is(err, sql.ErrNoRows) {
			var stored string
			if err := tx.QueryRowContext(ctx, `SELECT fingerprint FROM trades WHERE id = $1`, t.ID).Scan(&stored); err != nil {
				return res, fmt.Errorf("load fingerprint %s: %w", t.ID, err)
			}
			res.Collisions = append(res.Collisions, &identity.CollisionError{ID: t.ID, Existing: stored, Incoming: t.Fingerprint})
			continue
		}
		if err != nil {
			return res, fmt.Errorf("upsert trade %s: %w", t.ID, err)
		}
		res.Upserted++
		if inserted {
			res.Inserted++
		}
	}

	out, err := tx.ExecContext(ctx,
		`DELETE FROM trades WHERE user_id = $1 AND account_key = $2 AND NOT (id = ANY($3::uuid[]))`,
		userID, accountKey, pq.Array(keep))
	if err != nil {
		return res, fmt.Errorf("prune stale trades: %w", err)
	}
	res.Pruned, _ = out.RowsAffected()

	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("commit: %w", err)
	}
	return res, nil
}

// ListTrades returns the trades matching filter, ordered by close date, with
// encrypted columns decrypted.
func (r *tradesRepository) ListTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error) {
	// $1 is always the user. Subsequent placeholders depend on the filter.
	conditions := []string{"user_id = $1"}
	args := []interface{}{filter.UserID}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}
	if filter.AccountNumber != "" {
		add("account_key = $%d", r.cipher.BlindIndex(filter.AccountNumber))
	}
	if filter.Instrument != "" {
		add("instrument = $%d", strings.ToUpper(filter.Instrument))
	}
	if filter.From != nil {
		add("close_date >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("close_date < $%d", *filter.To)
	}

	query := fmt.Sprintf(`
		SELECT id, fingerprint, user_id, account_number, instrument, side, quantity,
		       entry_price, close_price, entry_date, close_date, time_in_position,
		       pnl, commission, entry_id, close_id, source
		FROM trades
		WHERE %s
		ORDER BY close_date, id`, strings.Join(conditions, " AND "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Trade
	for rows.Next() {
		var (
			t                         models.Trade
			account, entryPx, closePx string
			side, source              string
		)
		if err := rows.Scan(&t.ID, &t.Fingerprint, &t.UserID, &account, &t.Instrument, &side, &t.Quantity,
			&entryPx, &closePx, &t.EntryDate, &t.CloseDate, &t.TimeInPositionSeconds,
			&t.PnL, &t.Commission, &t.EntryID, &t.CloseID, &source); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		t.Side = models.Direction(side)
		t.Source = models.SourceSystem(source)

		if t.AccountNumber, err = r.cipher.Decrypt(account); err != nil {
			return nil, fmt.Errorf("decrypt account of trade %s: %w", t.ID, err)
		}
		if t.EntryPrice, err = r.decryptDecimal(entryPx); err != nil {
			return nil, fmt.Errorf("decrypt entry price of trade %s: %w", t.ID, err)
		}
		if t.ClosePrice, err = r.decryptDecimal(closePx); err != nil {
			return nil, fmt.Errorf("decrypt close price of trade %s: %w", t.ID, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteAccountHistory removes the fills and trades of one account in a single
// transaction, e.g. when the broker connection is removed. Returns the number
// of trades deleted.
func (r *tradesRepository) DeleteAccountHistory(ctx context.Context, userID, accountNumber string) (int64, error) {
	accountKey := r.cipher.BlindIndex(accountNumber)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM fills WHERE user_id = $1 AND account_key = $2`, userID, accountKey); err != nil {
		return 0, fmt.Errorf("delete fills: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM trades WHERE user_id = $1 AND account_key = $2`, userID, accountKey)
	if err != nil {
		return 0, fmt.Errorf("delete trades: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

func (r *tradesRepository) decryptDecimal(v string) (decimal.Decimal, error) {
	plain, err := r.cipher.Decrypt(v)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(plain)
}
