package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/guttosm/tradejournal/internal/middleware"
)

// requestTimeout bounds every /api/v1 request, imports included.
const requestTimeout = 30 * time.Second

// NewRouter creates a Gin engine with the API routes configured.
//
// Responsibilities:
//   - Registers global middlewares (RequestID, Logger, Recovery, ErrorHandler, RateLimiter).
//   - Adds a per-request context timeout.
//   - Mounts Swagger docs (/swagger/*any).
//   - Configures API v1 routes (/api/v1), all of which require X-User-ID.
//
// Health and readiness endpoints are registered in app.InitializeApp().
//
// Parameters:
//   - handler (*Handler): The HTTP handler with business logic.
//   - ratePerMinute (int): Requests allowed per client IP per minute; <= 0 disables the limit.
func NewRouter(handler *Handler, ratePerMinute int) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.RecoveryMiddleware(),
		middleware.ErrorHandler,
		middleware.RateLimiter(ratePerMinute),
	)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1", timeout(requestTimeout), middleware.UserID())
	{
		v1.POST("/imports", handler.PostImport)
		v1.GET("/trades", handler.ListTrades)
		v1.GET("/trades/summary", handler.Summary)
		v1.GET("/positions", handler.ListPositions)
		v1.DELETE("/accounts/:account/trades", handler.DeleteAccountTrades)
		v1.POST("/sync", handler.PostSync)
	}

	return router
}

func timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
