// Package brokersync keeps broker-connected accounts in sync: it renews access
// tokens before they expire, fetches new executions and feeds them to the
// import pipeline, on a schedule or on demand.
package brokersync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/guttosm/tradejournal/internal/domain/models"
	"github.com/guttosm/tradejournal/internal/logger"
	"github.com/guttosm/tradejournal/internal/normalize"
)

// BrokerClient is the network side of one broker. Implementations live outside
// this service; they only need to renew tokens and list executions.
type BrokerClient interface {
	RenewToken(ctx context.Context, account models.BrokerAccount) (token string, expiresAt time.Time, err error)
	FetchExecutions(ctx context.Context, account models.BrokerAccount) ([]normalize.RawRecord, error)
}

// TokenStore persists account tokens and sync timestamps.
type TokenStore interface {
	ListConnectedAccounts(ctx context.Context) ([]models.BrokerAccount, error)
	UpdateToken(ctx context.Context, accountID int64, token string, expiresAt time.Time) error
	ClearToken(ctx context.Context, accountID int64) error
	MarkSynced(ctx context.Context, accountID int64, at time.Time) error
}

// Importer runs the reconciliation pipeline for fetched records.
type Importer interface {
	Import(ctx context.Context, userID string, records []normalize.RawRecord) (models.ImportReport, error)
}

var (
	// ErrReauthRequired means the account holds no token; the user must log in again.
	ErrReauthRequired = errors.New("broker re-authentication required")
	// ErrNoClient means no BrokerClient is registered for the account's broker.
	ErrNoClient = errors.New("no client for broker")
)

// TokenRenewalFailure reports a failed renewal. The stored token has been
// cleared so the account must re-authenticate.
type TokenRenewalFailure struct {
	AccountID int64
	Broker    models.SourceSystem
	Err       error
}

func (e *TokenRenewalFailure) Error() string {
	return fmt.Sprintf("token renewal failed for %s account %d: %v", e.Broker, e.AccountID, e.Err)
}

func (e *TokenRenewalFailure) Unwrap() error { return e.Err }

// Config tunes the manager. Zero values fall back to the defaults below.
type Config struct {
	RenewalWindow  time.Duration // renew when less than this remains (default 15m)
	AccountTimeout time.Duration // budget for one account (default 2m)
	Parallel       int           // accounts synced at once (default 4)
	BrokerRPS      float64       // broker calls per second across accounts; <= 0 means unlimited
}

const (
	defaultRenewalWindow  = 15 * time.Minute
	defaultAccountTimeout = 2 * time.Minute
	defaultParallel       = 4
	clearTokenTimeout     = 5 * time.Second
)

// Manager drives token renewal and execution sync for every connected account.
type Manager struct {
	clients  map[models.SourceSystem]BrokerClient
	store    TokenStore
	importer Importer
	cfg      Config
	limiter  *rate.Limiter
	nowFn    func() time.Time
	log      zerolog.Logger
}

// NewManager builds a Manager. clients maps each broker to its client.
func NewManager(clients map[models.SourceSystem]BrokerClient, store TokenStore, importer Importer, cfg Config) *Manager {
	if cfg.RenewalWindow <= 0 {
		cfg.RenewalWindow = defaultRenewalWindow
	}
	if cfg.AccountTimeout <= 0 {
		cfg.AccountTimeout = defaultAccountTimeout
	}
	if cfg.Parallel <= 0 {
		cfg.Parallel = defaultParallel
	}
	limit := rate.Inf
	if cfg.BrokerRPS > 0 {
		limit = rate.Limit(cfg.BrokerRPS)
	}
	return &Manager{
		clients:  clients,
		store:    store,
		importer: importer,
		cfg:      cfg,
		limiter:  rate.NewLimiter(limit, 1),
		nowFn:    time.Now,
		log:      logger.With("sync"),
	}
}

// EnsureToken returns account with a token valid for at least the renewal
// window, renewing it when needed.
//
// Behavior:
//   - No token at all: ErrReauthRequired, nothing is called.
//   - Expiry further than the window: returned unchanged.
//   - Otherwise the broker renews the token and the store is updated. On
//     failure the stored token is cleared and *TokenRenewalFailure returned;
//     there is no retry.
func (m *Manager) EnsureToken(ctx context.Context, account models.BrokerAccount) (models.BrokerAccount, error) {
	if !account.HasToken() {
		return account, ErrReauthRequired
	}
	now := m.nowFn()
	if account.TokenExpiresAt != nil && account.TokenExpiresAt.Sub(now) >= m.cfg.RenewalWindow {
		return account, nil
	}

	client, ok := m.clients[account.Broker]
	if !ok {
		return account, fmt.Errorf("%w %q", ErrNoClient, account.Broker)
	}
	if err := m.limiter.Wait(ctx); err != nil {
		return account, err
	}

	token, expiresAt, err := client.RenewToken(ctx, account)
	if err != nil {
		// The renewal may have failed because ctx expired; the clear must still land.
		clearCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), clearTokenTimeout)
		defer cancel()
		if clearErr := m.store.ClearToken(clearCtx, account.ID); clearErr != nil {
			m.log.Error().Int64("account_id", account.ID).Err(clearErr).Msg("clear token failed")
		}
		account.Token, account.TokenExpiresAt = nil, nil
		return account, &TokenRenewalFailure{AccountID: account.ID, Broker: account.Broker, Err: err}
	}
	if err := m.store.UpdateToken(ctx, account.ID, token, expiresAt); err != nil {
		return account, fmt.Errorf("store renewed token: %w", err)
	}

	m.log.Info().Int64("account_id", account.ID).Str("broker", string(account.Broker)).Time("expires_at", expiresAt).Msg("token renewed")
	account.Token, account.TokenExpiresAt = &token, &expiresAt
	return account, nil
}

// AccountResult is the outcome of syncing one account.
type AccountResult struct {
	AccountID int64
	UserID    string
	Broker    models.SourceSystem
	Report    models.ImportReport
	Err       error
}

// SyncAccount renews the token if needed, fetches executions and imports them.
// The whole operation is bounded by the configured account timeout.
func (m *Manager) SyncAccount(ctx context.Context, account models.BrokerAccount) AccountResult {
	res := AccountResult{AccountID: account.ID, UserID: account.UserID, Broker: account.Broker}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.AccountTimeout)
	defer cancel()

	client, ok := m.clients[account.Broker]
	if !ok {
		res.Err = fmt.Errorf("%w %q", ErrNoClient, account.Broker)
		return res
	}

	account, err := m.EnsureToken(ctx, account)
	if err != nil {
		res.Err = err
		return res
	}

	if err := m.limiter.Wait(ctx); err != nil {
		res.Err = err
		return res
	}
	records, err := client.FetchExecutions(ctx, account)
	if err != nil {
		res.Err = fmt.Errorf("fetch executions: %w", err)
		return res
	}

	res.Report, err = m.importer.Import(ctx, account.UserID, records)
	if err != nil {
		res.Err = fmt.Errorf("import: %w", err)
		return res
	}

	if err := m.store.MarkSynced(ctx, account.ID, m.nowFn()); err != nil {
		res.Err = fmt.Errorf("mark synced: %w", err)
	}
	return res
}
