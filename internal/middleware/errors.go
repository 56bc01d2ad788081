package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/tradejournal/internal/domain/dto"
)

// ErrorHandler turns errors attached with c.Error into a 500 ErrorResponse
// when the handler did not write a response itself.
func ErrorHandler(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("internal server error", c.Errors.Last().Err))
}

// AbortWithError stops the chain and writes status with an ErrorResponse.
// err is attached to the context so RequestLogger records it.
func AbortWithError(c *gin.Context, status int, message string, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(message, err))
}
