package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/tradejournal/internal/logger"
)

func TestToString(t *testing.T) {
	if s := toString(nil); s != "" {
		t.Fatalf("nil -> %q, want empty", s)
	}
	if s := toString("abc"); s != "abc" {
		t.Fatalf("string -> %q, want 'abc'", s)
	}
	if s := toString(123); s != "" {
		t.Fatalf("non-string -> %q, want empty", s)
	}
}

func TestRequestLogger_Levels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name   string
		status int
		level  string
	}{
		{name: "ok", status: 200, level: "info"},
		{name: "client error", status: 404, level: "warn"},
		{name: "server error", status: 503, level: "error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger.InitWithWriter(&buf)
			defer logger.Init()

			r := gin.New()
			r.Use(RequestID(), RequestLogger())
			r.GET("/x", func(c *gin.Context) { c.Status(tc.status) })

			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			req.Header.Set(UserIDHeader, "u-1")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			line := strings.TrimSpace(buf.String())
			var entry map[string]any
			if err := json.Unmarshal([]byte(line), &entry); err != nil {
				t.Fatalf("log is not json: %q", line)
			}
			if entry["level"] != tc.level || entry["path"] != "/x" || entry["component"] != "http" {
				t.Fatalf("unexpected entry %v", entry)
			}
			if entry["request_id"] != w.Header().Get(RequestIDHeader) {
				t.Fatalf("request_id mismatch: %v", entry["request_id"])
			}
		})
	}
}
