package app

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/guttosm/tradejournal/config"
	"github.com/guttosm/tradejournal/internal/brokersync"
	"github.com/guttosm/tradejournal/internal/domain/models"
	"github.com/guttosm/tradejournal/internal/encryption"
	"github.com/guttosm/tradejournal/internal/ingestion"
	"github.com/guttosm/tradejournal/internal/logger"
	"github.com/guttosm/tradejournal/internal/service"
	"github.com/guttosm/tradejournal/internal/storage"
	"github.com/guttosm/tradejournal/internal/ticks"
)

// Services is the dependency graph shared by every run mode.
type Services struct {
	Cipher   *encryption.Cipher
	Fills    storage.FillsRepository
	Trades   storage.TradesRepository
	Accounts storage.AccountsRepository
	Ticks    *ticks.Reference
	Importer *ingestion.Importer
	Sync     *brokersync.Manager
	Reader   service.TradeService
}

var (
	clientsMu sync.Mutex
	clients   = map[models.SourceSystem]brokersync.BrokerClient{}
)

// RegisterBrokerClient makes a broker client available to the sync manager.
// Must be called before BuildServices.
func RegisterBrokerClient(source models.SourceSystem, c brokersync.BrokerClient) {
	clientsMu.Lock()
	defer clientsMu.Unlock()
	clients[source] = c
}

func registeredClients() map[models.SourceSystem]brokersync.BrokerClient {
	clientsMu.Lock()
	defer clientsMu.Unlock()
	out := make(map[models.SourceSystem]brokersync.BrokerClient, len(clients))
	for k, v := range clients {
		out[k] = v
	}
	return out
}

// BuildServices wires repositories, the import pipeline, the tick reference
// and the sync manager on top of db.
func BuildServices(ctx context.Context, db *sql.DB, cfg config.Config) (*Services, error) {
	cipher, err := encryption.New([]byte(cfg.Encryption.Key))
	if err != nil {
		return nil, fmt.Errorf("encryption: %w", err)
	}

	s := &Services{
		Cipher:   cipher,
		Fills:    storage.NewFillsRepository(db, cipher),
		Trades:   storage.NewTradesRepository(db, cipher),
		Accounts: storage.NewAccountsRepository(db, cipher),
		Ticks:    LoadTickReference(ctx, storage.NewTickRepository(db)),
	}
	s.Importer = ingestion.NewImporter(s.Fills, s.Trades, cfg.Import.Parallel)
	s.Sync = brokersync.NewManager(registeredClients(), s.Accounts, s.Importer, brokersync.Config{
		RenewalWindow:  cfg.Sync.RenewalWindow,
		AccountTimeout: cfg.Sync.AccountTimeout,
		Parallel:       cfg.Sync.Parallel,
		BrokerRPS:      cfg.Sync.BrokerRPS,
	})
	s.Reader = service.NewTradeService(s.Trades, s.Fills, s.Importer, s.Ticks)
	return s, nil
}

// LoadTickReference layers the administrator tick table over the built-in
// defaults. A failing read keeps the defaults and logs a warning.
func LoadTickReference(ctx context.Context, repo storage.TickRepository) *ticks.Reference {
	rows, err := repo.ListTickDetails(ctx)
	if err != nil {
		logger.L().Warn().Err(err).Msg("tick table unavailable, using built-in defaults")
		return ticks.NewReference(ticks.Defaults())
	}
	ref := ticks.NewReference(ticks.Defaults(), rows)
	logger.L().Info().Int("overrides", len(rows)).Int("tickers", ref.Len()).Msg("tick reference loaded")
	return ref
}
