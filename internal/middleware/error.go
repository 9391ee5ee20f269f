package middleware

import (
	"github.com/gin-gonic/gin"

	apperrors "pennywise/internal/errors"
	"pennywise/internal/logger"
)

// ErrorHandler returns a Gin middleware that renders the last error set on the
// Gin context, unless a handler already wrote a response.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		WriteError(c, c.Errors.Last().Err)
	}
}

// WriteError writes err as the standard JSON error envelope and aborts the
// chain. Internal causes are logged with the request-scoped logger and never
// sent to the client.
func WriteError(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	if appErr.Internal != nil {
		logger.FromContext(c.Request.Context()).Errorw("request failed",
			"code", appErr.Code,
			"internal", appErr.Internal.Error(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
	}
	c.AbortWithStatusJSON(appErr.StatusCode, appErr.Response())
}
