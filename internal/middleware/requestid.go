package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDKey    = "request_id"
	RequestIDHeader = "X-Request-ID"
	UserIDKey       = "user_id"
	UserIDHeader    = "X-User-ID"
)

// RequestID is a Gin middleware that tags each request with an identifier.
//
// Behavior:
//   - Reuses a well-formed UUID sent in X-Request-ID, otherwise generates a new one.
//   - Stores it in the Gin context under "request_id".
//   - Echoes it in the X-Request-ID response header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}
}

// UserID requires the X-User-ID header set by the authenticating proxy and
// stores it under "user_id". Requests without it get 401.
func UserID() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if uid == "" {
			AbortWithError(c, http.StatusUnauthorized, "missing "+UserIDHeader+" header", nil)
			return
		}
		c.Set(UserIDKey, uid)
		c.Next()
	}
}
