// Package middleware holds the gin middleware of the v1 API.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
	"github.com/hasapchy/back-sub001/pkg/logger"
)

// Recovery converts a panicking handler into an INTERNAL error for
// ErrorHandler. An open posting transaction is rolled back by the tx
// manager's deferred rollback while the panic unwinds.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			logger.FromContext(c.Request.Context()).Errorw("handler panicked",
				"panic", r,
				"route", c.FullPath(),
				"stack", string(debug.Stack()),
			)
			appErr := apperror.NewInternal(fmt.Errorf("panic: %v", r))
			if rid := c.GetString("request_id"); rid != "" {
				appErr = appErr.WithDetail("request_id", rid)
			}
			_ = c.Error(appErr)
			c.Abort()
		}()
		c.Next()
	}
}
