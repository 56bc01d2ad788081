package main

//
//  @title           tradejournal API
//  @version         1.0
//  @description     Broker fill reconciliation: imports raw executions and serves round-trip trades with PnL and tick metrics.
//  @termsOfService  https://github.com/guttosm/tradejournal
//  @contact.name    API Support
//  @contact.url     https://github.com/guttosm/tradejournal
//  @contact.email   support@example.com
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:8080
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        imports
//  @tag.description Raw broker record ingestion
//
//  @tag.name        trades
//  @tag.description Reconciled trades, summaries and open positions
//
//  @tag.name        sync
//  @tag.description On-demand broker sync
//
//  @tag.name        health
//  @tag.description Liveness and readiness probes

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guttosm/tradejournal/config"
	_ "github.com/guttosm/tradejournal/docs" // swagger docs
	"github.com/guttosm/tradejournal/internal/app"
	"github.com/guttosm/tradejournal/internal/ingestion"
	"github.com/guttosm/tradejournal/internal/logger"
)

// startServer initializes and starts the HTTP server in a separate goroutine.
//
// Parameters:
//   - router (http.Handler): The HTTP router (Gin Engine) configured with all routes.
//   - port (string): The port where the server will listen for incoming requests.
//
// Returns:
//   - *http.Server: The initialized HTTP server instance.
func startServer(router http.Handler, port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown gracefully terminates the HTTP server and cleans up resources
// when an OS interrupt signal (SIGINT, SIGTERM) is received.
//
// Parameters:
//   - ctx (context.Context): A context with timeout for graceful shutdown.
//   - server (*http.Server): The HTTP server instance to shut down.
//   - cleanup (func()): Cleanup callback to release resources (e.g., DB connections).
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Fatal().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// runImport imports every CSV export of dir for one user.
func runImport(ctx context.Context, db *sql.DB, dir, mappingPath, userID string, parallel int) error {
	mapping, err := ingestion.LoadMapping(mappingPath)
	if err != nil {
		return err
	}
	svcs, err := app.BuildServices(ctx, db, config.AppConfig)
	if err != nil {
		return err
	}
	report, err := ingestion.ProcessDirectory(ctx, dir, db, svcs.Cipher, ingestion.DirectoryOptions{
		UserID:   userID,
		Mapping:  mapping,
		Parallel: parallel,
	})
	logger.L().Info().
		Int("imported", report.Imported).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Int("trades", report.Trades).
		Int("open_positions", report.OpenPositions).
		Msg("import report")
	return err
}

// runSync runs one sweep, or sweeps every interval until ctx is done.
func runSync(ctx context.Context, db *sql.DB, loop bool) error {
	svcs, err := app.BuildServices(ctx, db, config.AppConfig)
	if err != nil {
		return err
	}
	if loop {
		if err := svcs.Sync.Run(ctx, config.AppConfig.Sync.Interval); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
	rep, err := svcs.Sync.Sweep(ctx)
	if err != nil {
		return err
	}
	logger.L().Info().
		Int("accounts", rep.Accounts).
		Int("succeeded", rep.Succeeded).
		Int("failed", rep.Failed).
		Int("reauth", rep.Reauth).
		Msg("sync report")
	return nil
}

// main is the entry point of the tradejournal application.
//
// Modes (selected via --mode flag):
//   - api:    Starts the REST API (optionally with the periodic broker sync, --sync-loop).
//   - import: Imports a directory of CSV exports with a JSON column mapping.
//   - sync:   Runs one broker sync sweep, or keeps sweeping with --loop.
func main() {
	config.LoadConfig()
	logger.Init()

	mode := flag.String("mode", "api", "Mode: api, import or sync")
	dir := flag.String("dir", "./data/input", "Directory with CSV exports (import mode)")
	mappingPath := flag.String("mapping", "./data/mapping.json", "JSON column mapping (import mode)")
	userID := flag.String("user", "", "Owner of the imported fills (import mode)")
	parallel := flag.Int("parallel", 0, "How many files to process concurrently (0=auto up to CPU, max 8)")
	loop := flag.Bool("loop", false, "Keep sweeping every SYNC_INTERVAL (sync mode)")
	syncLoop := flag.Bool("sync-loop", false, "Run the periodic broker sync next to the API (api mode)")
	port := flag.String("port", config.AppConfig.Server.Port, "Port for API mode")
	flag.Parse()

	switch *mode {
	case "import", "sync":
		ctx, stop := signalContext()
		defer stop()

		db, err := app.InitPostgres(config.AppConfig)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("db connect error")
		}
		defer func() { _ = db.Close() }()

		if *mode == "import" {
			logger.L().Info().Str("dir", *dir).Msg("running import")
			err = runImport(ctx, db, *dir, *mappingPath, *userID, *parallel)
		} else {
			logger.L().Info().Bool("loop", *loop).Msg("running broker sync")
			err = runSync(ctx, db, *loop)
		}
		if err != nil {
			logger.L().Error().Err(err).Str("mode", *mode).Msg("run failed")
			_ = db.Close()
			os.Exit(1)
		}
		logger.L().Info().Str("mode", *mode).Msg("completed successfully")

	case "api":
		logger.L().Info().Msg("starting API server")

		router, svcs, cleanup, err := app.InitializeApp()
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		syncCtx, stopSync := context.WithCancel(context.Background())
		if *syncLoop {
			go func() {
				if err := svcs.Sync.Run(syncCtx, config.AppConfig.Sync.Interval); err != nil && !errors.Is(err, context.Canceled) {
					logger.L().Error().Err(err).Msg("sync loop stopped")
				}
			}()
		}

		server := startServer(router, *port)
		gracefulShutdown(context.Background(), server, func() {
			stopSync()
			cleanup()
		})

	default:
		logger.L().Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}
