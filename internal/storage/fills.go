package storage

import (
	"context"
	"database/sql"
	"fmt"

	pq "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/guttosm/tradejournal/internal/domain/models"
)

// FillsRepository persists normalized fills so every import can re-match the
// complete history of an account.
type FillsRepository interface {
	SaveFills(ctx context.Context, userID string, fills []models.NormalizedFill) (int64, error)
	ListFills(ctx context.Context, userID, accountNumber string) ([]models.NormalizedFill, error)
}

type fillsRepository struct {
	db     *sql.DB
	cipher FieldCipher
}

// NewFillsRepository returns a Postgres-backed FillsRepository.
func NewFillsRepository(db *sql.DB, cipher FieldCipher) FillsRepository {
	return &fillsRepository{db: db, cipher: cipher}
}

var fillColumns = []string{
	"user_id", "source", "account_key", "account_number", "instrument", "contract", "raw_symbol",
	"side", "signed_quantity", "price", "ts", "commission", "order_id", "fill_id",
}

// SaveFills bulk-loads fills and merges them into the fills table.
//
// Behavior:
//   - Rows are streamed with COPY into a transaction-scoped staging table.
//   - Staged rows are merged on (user_id, source, account_key, fill_id); a fill
//     seen again replaces the stored one (latest observation wins).
//   - Account number and price are encrypted; account_key is the blind index.
//
// Returns the number of rows inserted or updated.
func (r *fillsRepository) SaveFills(ctx context.Context, userID string, fills []models.NormalizedFill) (int64, error) {
	if len(fills) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, `CREATE TEMP TABLE fills_staging (LIKE fills INCLUDING DEFAULTS) ON COMMIT DROP`); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("create staging: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("fills_staging", fillColumns...))
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("prepare copy: %w", err)
	}

	for _, f := range fills {
		enc, err := encryptAll(r.cipher, f.AccountNumber, f.Price.String())
		if err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return 0, fmt.Errorf("encrypt fill %s: %w", f.SourceFillID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			userID,
			string(f.Source),
			r.cipher.BlindIndex(f.AccountNumber),
			enc[0],
			f.Instrument,
			f.Contract,
			f.RawSymbol,
			string(f.Side),
			f.SignedQuantity,
			enc[1],
			f.Timestamp.UTC(),
			f.Commission.String(),
			f.SourceOrderID,
			f.SourceFillID,
		); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return 0, fmt.Errorf("copy fill %s: %w", f.SourceFillID, err)
		}
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		_ = tx.Rollback()
		return 0, fmt.Errorf("flush copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO fills (
			user_id, source, account_key, account_number, instrument, contract, raw_symbol,
			side, signed_quantity, price, ts, commission, order_id, fill_id
		)
		SELECT DISTINCT ON (user_id, source, account_key, fill_id)
			user_id, source, account_key, account_number, instrument, contract, raw_symbol,
			side, signed_quantity, price, ts, commission, order_id, fill_id
		FROM fills_staging
		ORDER BY user_id, source, account_key, fill_id
		ON CONFLICT (user_id, source, account_key, fill_id) DO UPDATE SET
			account_number  = EXCLUDED.account_number,
			instrument      = EXCLUDED.instrument,
			contract        = EXCLUDED.contract,
			raw_symbol      = EXCLUDED.raw_symbol,
			side            = EXCLUDED.side,
			signed_quantity = EXCLUDED.signed_quantity,
			price           = EXCLUDED.price,
			ts              = EXCLUDED.ts,
			commission      = EXCLUDED.commission,
			order_id        = EXCLUDED.order_id,
			updated_at      = NOW()`)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("merge staged fills: %w", err)
	}
	n, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// ListFills returns the full fill history of a user, optionally restricted to
// one account, ordered for matching. Encrypted columns are decrypted.
func (r *fillsRepository) ListFills(ctx context.Context, userID, accountNumber string) ([]models.NormalizedFill, error) {
	query := `
		SELECT source, account_number, instrument, contract, raw_symbol, side,
		       signed_quantity, price, ts, commission, order_id, fill_id
		FROM fills
		WHERE user_id = $1`
	args := []interface{}{userID}
	if accountNumber != "" {
		query += ` AND account_key = $2`
		args = append(args, r.cipher.BlindIndex(accountNumber))
	}
	query += ` ORDER BY ts, order_id, fill_id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query fills: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.NormalizedFill
	for rows.Next() {
		var (
			f                         models.NormalizedFill
			source, side, account, px string
		)
		if err := rows.Scan(&source, &account, &f.Instrument, &f.Contract, &f.RawSymbol, &side,
			&f.SignedQuantity, &px, &f.Timestamp, &f.Commission, &f.SourceOrderID, &f.SourceFillID); err != nil {
			return nil, fmt.Errorf("scan fill: %w", err)
		}
		f.Source = models.SourceSystem(source)
		f.Side = models.Side(side)
		f.Timestamp = f.Timestamp.UTC()

		if f.AccountNumber, err = r.cipher.Decrypt(account); err != nil {
			return nil, fmt.Errorf("decrypt account of fill %s: %w", f.SourceFillID, err)
		}
		plain, err := r.cipher.Decrypt(px)
		if err != nil {
			return nil, fmt.Errorf("decrypt price of fill %s: %w", f.SourceFillID, err)
		}
		if f.Price, err = decimal.NewFromString(plain); err != nil {
			return nil, fmt.Errorf("price of fill %s: %w", f.SourceFillID, err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
