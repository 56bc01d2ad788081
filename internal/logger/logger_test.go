package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"ERR", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"something", zerolog.InfoLevel},
	}
	for _, c := range cases {
		if got := parseLevel(c.in); got != c.want {
			t.Fatalf("parseLevel(%q)=%v, want %v", c.in, got, c.want)
		}
	}
}

func TestGetenv(t *testing.T) {
	t.Setenv("X", "val")
	if v := getenv("X", "def"); v != "val" {
		t.Fatalf("getenv returned %q, want 'val'", v)
	}
	if v := getenv("Y_UNSET_FOR_TEST", "def"); v != "def" {
		t.Fatalf("getenv returned %q, want 'def'", v)
	}
}

func TestInitAndL(t *testing.T) {
	_ = os.Unsetenv("LOG_LEVEL")
	_ = os.Unsetenv("LOG_PRETTY")
	Init()
	if L() == nil {
		t.Fatalf("L() returned nil")
	}

	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_PRETTY", "true")
	Init()
	if L().GetLevel() != zerolog.DebugLevel {
		t.Fatalf("expected debug level, got %v", L().GetLevel())
	}
}

func TestLoggerAccessor_NotNil(t *testing.T) {
	mu.Lock()
	base, ready = zerolog.Logger{}, false
	mu.Unlock()

	lg := L()
	if lg == nil {
		t.Fatalf("logger is nil")
	}
	if lg.GetLevel() == zerolog.NoLevel {
		t.Fatalf("logger level not initialized")
	}
}

func TestWith_TagsComponentAndService(t *testing.T) {
	t.Setenv("LOG_LEVEL", "info")
	t.Setenv("LOG_PRETTY", "false")
	t.Setenv("LOG_SERVICE", "tj-test")

	var buf bytes.Buffer
	InitWithWriter(&buf)
	t.Cleanup(Init)

	lg := With("matching")
	lg.Info().Int("trades", 3).Msg("matched")
	lg.Debug().Msg("filtered out")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("not json: %v", err)
	}
	if entry["component"] != "matching" || entry["service"] != "tj-test" || entry["message"] != "matched" {
		t.Fatalf("unexpected entry %v", entry)
	}
}
