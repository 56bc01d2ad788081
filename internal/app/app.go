package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/tradejournal/config"
	"github.com/guttosm/tradejournal/internal/api"
)

// InitializeApp sets up all application dependencies and returns
// a fully configured Gin router, a cleanup function for graceful shutdown,
// and any error encountered during initialization.
//
// Responsibilities:
//   - Connects to PostgreSQL using InitPostgres().
//   - Builds the service graph (BuildServices).
//   - Creates the HTTP handler layer and configures the Gin router.
//   - Registers health and readiness probes.
//   - Provides a cleanup function to close resources (e.g., DB connection).
//
// Returns:
//   - *gin.Engine: the configured Gin HTTP router.
//   - *Services: the service graph, e.g. to run the background sync loop.
//   - func(): cleanup function to be executed on shutdown.
//   - error: any initialization error that occurred.
func InitializeApp() (*gin.Engine, *Services, func(), error) {
	cfg := config.AppConfig

	db, err := postgresOpener(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	svcs, err := BuildServices(context.Background(), db, cfg)
	if err != nil {
		_ = db.Close()
		return nil, nil, nil, err
	}

	handler := api.NewHandler(svcs.Reader, svcs.Importer, svcs.Sync)
	router := api.NewRouter(handler, cfg.Server.RateLimit)

	api.NewHealthHandler(db.PingContext).Register(router)

	cleanup := func() {
		_ = db.Close()
	}

	return router, svcs, cleanup, nil
}
