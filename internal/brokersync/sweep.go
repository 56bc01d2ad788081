package brokersync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/guttosm/tradejournal/internal/domain/models"
)

// SweepReport summarises one sweep over connected accounts.
type SweepReport struct {
	Accounts  int
	Succeeded int
	Failed    int
	Reauth    int // accounts without a token, or whose renewal failed
	Results   []AccountResult
}

// Sweep syncs every connected account.
//
// Accounts run concurrently (bounded by Config.Parallel) and independently:
// a failing account never cancels the others. The only error returned is
// failing to list accounts.
func (m *Manager) Sweep(ctx context.Context) (SweepReport, error) {
	return m.sweep(ctx, func(models.BrokerAccount) bool { return true })
}

// SyncUser runs a sweep restricted to the accounts of one user.
func (m *Manager) SyncUser(ctx context.Context, userID string) (SweepReport, error) {
	return m.sweep(ctx, func(a models.BrokerAccount) bool { return a.UserID == userID })
}

func (m *Manager) sweep(ctx context.Context, keep func(models.BrokerAccount) bool) (SweepReport, error) {
	start := m.nowFn()
	all, err := m.store.ListConnectedAccounts(ctx)
	if err != nil {
		return SweepReport{}, fmt.Errorf("list accounts: %w", err)
	}
	var accounts []models.BrokerAccount
	for _, a := range all {
		if keep(a) {
			accounts = append(accounts, a)
		}
	}

	results := make([]AccountResult, len(accounts))
	var g errgroup.Group
	g.SetLimit(m.cfg.Parallel)
	for i, a := range accounts {
		g.Go(func() error {
			results[i] = m.SyncAccount(ctx, a)
			return nil
		})
	}
	_ = g.Wait()

	rep := SweepReport{Accounts: len(accounts), Results: results}
	for _, r := range results {
		if r.Err == nil {
			rep.Succeeded++
			continue
		}
		rep.Failed++
		var renewal *TokenRenewalFailure
		if errors.Is(r.Err, ErrReauthRequired) || errors.As(r.Err, &renewal) {
			rep.Reauth++
		}
		m.log.Warn().Int64("account_id", r.AccountID).Str("broker", string(r.Broker)).Err(r.Err).Msg("account sync failed")
	}

	m.log.Info().
		Int("accounts", rep.Accounts).
		Int("succeeded", rep.Succeeded).
		Int("failed", rep.Failed).
		Int("reauth", rep.Reauth).
		Dur("elapsed", m.nowFn().Sub(start)).
		Msg("sweep done")
	return rep, nil
}

// Run sweeps immediately and then every interval until ctx is done. Sweep
// errors are logged and the loop keeps going.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("invalid sync interval %s", interval)
	}
	m.log.Info().Dur("interval", interval).Msg("sync loop started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := m.Sweep(ctx); err != nil {
			m.log.Error().Err(err).Msg("sweep failed")
		}
		select {
		case <-ctx.Done():
			m.log.Info().Msg("sync loop stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
