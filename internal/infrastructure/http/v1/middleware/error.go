package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
	"github.com/hasapchy/back-sub001/pkg/logger"
)

// ErrorHandler renders the last gin error as the JSON error body and marks
// a pending idempotency key as failed with that same body. Internal causes
// are logged, never returned.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		status := http.StatusInternalServerError
		var body gin.H
		if appErr, ok := apperror.AsAppError(err); ok {
			if appErr.Err != nil {
				logger.Error(c.Request.Context(), "request error", "code", appErr.Code, "cause", appErr.Err)
			}
			status = appErr.HTTPStatus
			body = gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
				"details": appErr.Details,
			}
		} else {
			logger.Error(c.Request.Context(), "unhandled error", "error", err)
			body = gin.H{
				"code":    apperror.CodeInternal,
				"message": "internal server error",
				"details": map[string]any{"request_id": c.GetString("request_id")},
			}
		}

		if store, key := idempotencyOf(c); store != nil {
			if ferr := store.FailKey(c.Request.Context(), key, status, "application/json", body); ferr != nil {
				logger.Warn(c.Request.Context(), "idempotency fail key", "key", key, "error", ferr)
			}
		}
		c.JSON(status, body)
	}
}
