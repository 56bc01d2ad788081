package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/tradejournal/internal/logger"
)

// RequestLogger is a Gin middleware that logs one structured line per request.
//
// Behavior:
//   - Captures start time before request handling.
//   - After the request is processed, logs method, path, status, latency in ms,
//     client IP, request_id and user_id (when set by RequestID and UserID).
//   - 5xx responses are logged at error level, 4xx at warn, everything else at info.
//
// Example log output:
//
//	{"level":"info","component":"http","request_id":"123e...","method":"GET","path":"/api/v1/trades","status":200,"latency_ms":15,"message":"http_request"}
func RequestLogger() gin.HandlerFunc {
	log := logger.With("http")
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		rid, _ := c.Get(RequestIDKey)
		uid, _ := c.Get(UserIDKey)

		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		ev.Str("request_id", toString(rid)).
			Str("user_id", toString(uid)).
			Str("method", method).
			Str("path", path).
			Int("status", status).
			Int64("latency_ms", time.Since(start).Milliseconds()).
			Str("client_ip", c.ClientIP()).
			Msg("http_request")
	}
}

func toString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
