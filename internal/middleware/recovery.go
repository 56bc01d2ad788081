package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/tradejournal/internal/domain/dto"
	"github.com/guttosm/tradejournal/internal/logger"
)

// RecoveryMiddleware recovers from panics in later handlers, logs the panic
// with its stack and request id, and answers 500 with an ErrorResponse.
// Panic values are never echoed to the client; they may carry decrypted data.
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			rid, _ := c.Get(RequestIDKey)
			logger.L().Error().
				Str("request_id", toString(rid)).
				Str("panic", fmt.Sprintf("%v", r)).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponse("internal server error", nil))
		}()

		c.Next()
	}
}
