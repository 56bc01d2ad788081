package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver for database/sql

	"github.com/guttosm/tradejournal/config"
)

const (
	pingTimeout  = 5 * time.Second
	maxOpenConns = 20
	maxIdleConns = 5
	connLifetime = 30 * time.Minute
)

// sqlOpener is an indirection for unit testing; defaults to sql.Open
var sqlOpener = sql.Open

// InitPostgres opens the connection pool described by cfg.Postgres and pings it.
//
// Behavior:
//   - Builds the DSN with config.DSN.
//   - Bounds the pool (imports run several accounts in parallel, each holding a transaction).
//   - Pings with a short timeout so a wrong host fails fast at startup.
//
// Returns:
//   - *sql.DB: an open database connection pool (safe for concurrent use).
//   - error: if opening or pinging the database fails.
func InitPostgres(cfg config.Config) (*sql.DB, error) {
	db, err := sqlOpener("postgres", config.DSN(cfg.Postgres))
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return db, nil
}

// postgresOpener is an indirection used by InitializeApp; overridden in tests to avoid real connections.
var postgresOpener = InitPostgres
