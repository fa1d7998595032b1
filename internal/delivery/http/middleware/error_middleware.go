package middleware

import (
	"errors"
	"net/http"

	"securechain-api/internal/delivery/http/response"
	"securechain-api/pkg/apperror"
	"securechain-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandler renders errors attached with c.Error using the response envelope
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			if appErr.Err != nil {
				logger.Log.Warn("request failed",
					zap.String("request_id", GetRequestID(c)),
					zap.Int("status", appErr.Code),
					zap.Error(appErr.Err),
				)
			}
			response.Error(c, appErr.Code, appErr.Message, appErr.Message)
			return
		}

		// Never expose internal error details to clients
		logger.Log.Error("internal server error",
			zap.String("request_id", GetRequestID(c)),
			zap.Error(err),
		)
		internal := apperror.Internal(err)
		response.Error(c, internal.Code, internal.Message, nil)
	}
}

// Recovery turns a panic in a handler into a 500 envelope
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Log.Error("panic recovered",
			zap.String("request_id", GetRequestID(c)),
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", recovered),
			zap.Stack("stack"),
		)
		response.Error(c, http.StatusInternalServerError, "An unexpected error occurred. Please try again later.", nil)
		c.Abort()
	})
}
