package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"

	"github.com/guttosm/tradejournal/internal/encryption"
)

// Config holds the full application configuration loaded from environment variables or .env file.
//
// Example ENV:
//
//	SERVER_PORT=8080
//	HTTP_RATE_LIMIT=60
//	POSTGRES_HOST=localhost
//	POSTGRES_PORT=5432
//	POSTGRES_USER=admin
//	POSTGRES_PASSWORD=secret
//	POSTGRES_DB=tradejournal
//	POSTGRES_SSLMODE=disable
//	ENCRYPTION_KEY=0123456789abcdef0123456789abcdef
//	SYNC_INTERVAL=5m
//	IMPORT_PARALLEL=0
type Config struct {
	Server     ServerConfig
	Postgres   PostgresConfig
	Encryption EncryptionConfig
	Sync       SyncConfig
	Import     ImportConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port      string // The TCP port the HTTP server will listen on (e.g., "8080")
	RateLimit int    // Requests per client IP per minute; 0 disables the limiter
}

// PostgresConfig defines connection details for PostgreSQL.
//
// Fields:
//   - Host: hostname of the database server.
//   - Port: port number of the database server (default 5432).
//   - User: username for authentication.
//   - Password: password for authentication.
//   - DBName: target database name.
//   - SSLMode: SSL mode (e.g., "disable", "require").
//   - URL: computed DSN used by database/sql to connect.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	URL      string
}

// EncryptionConfig carries the raw field-encryption key (exactly 32 bytes).
type EncryptionConfig struct {
	Key string
}

// SyncConfig tunes the broker sync manager.
type SyncConfig struct {
	Interval       time.Duration
	RenewalWindow  time.Duration
	AccountTimeout time.Duration
	Parallel       int
	BrokerRPS      float64
}

// ImportConfig tunes the import pipeline.
type ImportConfig struct {
	Parallel int // matching groups processed at once; 0 means one goroutine per group
}

// AppConfig is the globally accessible configuration instance, populated once by LoadConfig.
var AppConfig Config

// LoadConfig initializes the global AppConfig by reading from .env file
// or directly from environment variables.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from .env file (if present).
//  3. Environment variables.
//
// Fatal exit:
//   - If required variables are missing or invalid (including an ENCRYPTION_KEY
//     that is not exactly 32 bytes), validateConfig() terminates the app.
func LoadConfig() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("HTTP_RATE_LIMIT", 60)

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_PASSWORD", "postgres")
	viper.SetDefault("POSTGRES_DB", "tradejournal")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")

	viper.SetDefault("SYNC_INTERVAL", "5m")
	viper.SetDefault("SYNC_RENEWAL_WINDOW", "15m")
	viper.SetDefault("SYNC_ACCOUNT_TIMEOUT", "2m")
	viper.SetDefault("SYNC_PARALLEL", 4)
	viper.SetDefault("SYNC_BROKER_RPS", 5)
	viper.SetDefault("IMPORT_PARALLEL", 0)

	// Optionally read from .env if present (common in local dev)
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()

	AppConfig = Config{
		Server: ServerConfig{
			Port:      viper.GetString("SERVER_PORT"),
			RateLimit: viper.GetInt("HTTP_RATE_LIMIT"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("POSTGRES_HOST"),
			Port:     viper.GetInt("POSTGRES_PORT"),
			User:     viper.GetString("POSTGRES_USER"),
			Password: viper.GetString("POSTGRES_PASSWORD"),
			DBName:   viper.GetString("POSTGRES_DB"),
			SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		},
		Encryption: EncryptionConfig{
			Key: viper.GetString("ENCRYPTION_KEY"),
		},
		Sync: SyncConfig{
			Interval:       viper.GetDuration("SYNC_INTERVAL"),
			RenewalWindow:  viper.GetDuration("SYNC_RENEWAL_WINDOW"),
			AccountTimeout: viper.GetDuration("SYNC_ACCOUNT_TIMEOUT"),
			Parallel:       viper.GetInt("SYNC_PARALLEL"),
			BrokerRPS:      viper.GetFloat64("SYNC_BROKER_RPS"),
		},
		Import: ImportConfig{
			Parallel: viper.GetInt("IMPORT_PARALLEL"),
		},
	}

	AppConfig.Postgres.URL = DSN(AppConfig.Postgres)

	validateConfig()
}

// DSN builds the database/sql connection string for p.
func DSN(p PostgresConfig) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode)
}

// validateConfig terminates the application with log.Fatalf when problems()
// reports missing or invalid keys.
func validateConfig() {
	if bad := problems(AppConfig); len(bad) > 0 {
		log.Fatalf("invalid configuration: %v\n", bad)
	}
}

// problems lists the keys of cfg that are missing or invalid.
func problems(cfg Config) []string {
	var bad []string

	if cfg.Server.Port == "" {
		bad = append(bad, "SERVER_PORT")
	}
	if cfg.Server.RateLimit < 0 {
		bad = append(bad, "HTTP_RATE_LIMIT")
	}
	if cfg.Postgres.Host == "" {
		bad = append(bad, "POSTGRES_HOST")
	}
	if cfg.Postgres.Port == 0 {
		bad = append(bad, "POSTGRES_PORT")
	}
	if cfg.Postgres.User == "" {
		bad = append(bad, "POSTGRES_USER")
	}
	if cfg.Postgres.Password == "" {
		bad = append(bad, "POSTGRES_PASSWORD")
	}
	if cfg.Postgres.DBName == "" {
		bad = append(bad, "POSTGRES_DB")
	}
	if _, err := encryption.New([]byte(cfg.Encryption.Key)); err != nil {
		bad = append(bad, "ENCRYPTION_KEY ("+err.Error()+")")
	}
	if cfg.Sync.Interval <= 0 {
		bad = append(bad, "SYNC_INTERVAL")
	}
	if cfg.Sync.RenewalWindow <= 0 {
		bad = append(bad, "SYNC_RENEWAL_WINDOW")
	}
	if cfg.Sync.AccountTimeout <= 0 {
		bad = append(bad, "SYNC_ACCOUNT_TIMEOUT")
	}
	if cfg.Sync.Parallel < 1 {
		bad = append(bad, "SYNC_PARALLEL")
	}
	if cfg.Import.Parallel < 0 {
		bad = append(bad, "IMPORT_PARALLEL")
	}

	return bad
}
