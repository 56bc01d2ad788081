package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu    sync.RWMutex
	base  zerolog.Logger
	ready bool
)

// Init configures the process-wide JSON logger on stdout.
//
// Environment variables (optional):
//   - LOG_LEVEL: debug|info|warn|error (default: info)
//   - LOG_PRETTY: true|false (default: false)
//   - LOG_SERVICE: value of the "service" field (default: tradejournal)
func Init() {
	InitWithWriter(os.Stdout)
}

// InitWithWriter is Init with an explicit sink; tests use it to capture output.
func InitWithWriter(out io.Writer) {
	level := parseLevel(getenv("LOG_LEVEL", "info"))
	pretty := strings.EqualFold(getenv("LOG_PRETTY", "false"), "true")

	zerolog.TimeFieldFormat = time.RFC3339Nano
	w := out
	if pretty {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	l := zerolog.New(w).With().
		Timestamp().
		Str("service", getenv("LOG_SERVICE", "tradejournal")).
		Logger().
		Level(level)

	mu.Lock()
	base, ready = l, true
	mu.Unlock()
}

// L returns the global logger, initializing it on first use.
func L() *zerolog.Logger {
	mu.RLock()
	ok := ready
	mu.RUnlock()
	if !ok {
		Init()
	}
	mu.RLock()
	defer mu.RUnlock()
	return &base
}

// With returns a child of the global logger tagged with component, e.g.
// logger.With("sync") for every line emitted by the sync manager.
func With(component string) zerolog.Logger {
	return L().With().Str("component", component).Logger()
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error", "err":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
