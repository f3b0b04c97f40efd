package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hasapchy/back-sub001/pkg/logger"
)

// Logger puts log into the request context and writes one access line per
// request once the handlers are done. Tenant and caller fields come from the
// context the later middleware built.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Request = c.Request.WithContext(logger.WithLogger(c.Request.Context(), log))

		c.Next()

		status := c.Writer.Status()
		line := logger.FromContext(c.Request.Context()).With(
			"method", c.Request.Method,
			"route", c.FullPath(),
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", time.Since(started).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if status < 400 {
			line.Infow("request")
			return
		}
		line = line.With("error", c.Errors.String())
		if status >= 500 {
			line.Errorw("request")
		} else {
			line.Warnw("request")
		}
	}
}
