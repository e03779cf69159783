package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	apperrors "github.com/promptreel/server/internal/shared/errors"
	"github.com/promptreel/server/internal/shared/logger"
)

// Recovery turns a handler panic into a 500 with the standard error body.
// A nil log falls back to the default logger.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.New(nil)
	}

	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			log.ErrorContext(c.Request.Context(), "Panic recovered",
				"error", fmt.Sprint(rec),
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"stack", string(debug.Stack()),
			)

			// Headers may already be on the wire for streamed video content.
			if c.Writer.Written() {
				c.Abort()
				return
			}
			appErr := apperrors.Internal("internal server error", nil)
			c.AbortWithStatusJSON(http.StatusInternalServerError, appErr.ToResponse())
		}()
		c.Next()
	}
}
