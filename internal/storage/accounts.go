package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/guttosm/tradejournal/internal/domain/models"
)

// AccountsRepository is the broker_accounts token store used by the sync manager.
type AccountsRepository interface {
	ListConnectedAccounts(ctx context.Context) ([]models.BrokerAccount, error)
	UpdateToken(ctx context.Context, accountID int64, token string, expiresAt time.Time) error
	ClearToken(ctx context.Context, accountID int64) error
	MarkSynced(ctx context.Context, accountID int64, at time.Time) error
}

type accountsRepository struct {
	db     *sql.DB
	cipher FieldCipher
}

// NewAccountsRepository returns a Postgres-backed AccountsRepository. Account
// numbers and tokens are encrypted at rest.
func NewAccountsRepository(db *sql.DB, cipher FieldCipher) AccountsRepository {
	return &accountsRepository{db: db, cipher: cipher}
}

// ListConnectedAccounts returns every account still connected to a broker,
// including accounts whose token was cleared and must re-authenticate.
func (r *accountsRepository) ListConnectedAccounts(ctx context.Context) ([]models.BrokerAccount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, broker, account_number, token, token_expires_at, last_synced_at
		FROM broker_accounts
		WHERE connected
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.BrokerAccount
	for rows.Next() {
		var (
			a                 models.BrokerAccount
			broker, account   string
			token             sql.NullString
			expires, lastSync sql.NullTime
		)
		if err := rows.Scan(&a.ID, &a.UserID, &broker, &account, &token, &expires, &lastSync); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		a.Broker = models.SourceSystem(broker)
		if a.AccountNumber, err = r.cipher.Decrypt(account); err != nil {
			return nil, fmt.Errorf("decrypt account %d: %w", a.ID, err)
		}
		if token.Valid && token.String != "" {
			plain, err := r.cipher.Decrypt(token.String)
			if err != nil {
				return nil, fmt.Errorf("decrypt token of account %d: %w", a.ID, err)
			}
			a.Token = &plain
		}
		if expires.Valid {
			t := expires.Time.UTC()
			a.TokenExpiresAt = &t
		}
		if lastSync.Valid {
			t := lastSync.Time.UTC()
			a.LastSyncedAt = &t
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateToken stores a renewed token and its expiry.
func (r *accountsRepository) UpdateToken(ctx context.Context, accountID int64, token string, expiresAt time.Time) error {
	enc, err := r.cipher.Encrypt(token)
	if err != nil {
		return fmt.Errorf("encrypt token: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE broker_accounts SET token = $2, token_expires_at = $3 WHERE id = $1`,
		accountID, enc, expiresAt.UTC())
	return err
}

// ClearToken forces re-authentication of the account.
func (r *accountsRepository) ClearToken(ctx context.Context, accountID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE broker_accounts SET token = NULL, token_expires_at = NULL WHERE id = $1`, accountID)
	return err
}

// MarkSynced records the time of the last successful sync.
func (r *accountsRepository) MarkSynced(ctx context.Context, accountID int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE broker_accounts SET last_synced_at = $2 WHERE id = $1`, accountID, at.UTC())
	return err
}
