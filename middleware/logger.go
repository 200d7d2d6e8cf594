package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Logger logs one line per request. Errors attached with c.Error (internal
// failures only) are logged here, once, with the request id.
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := []zap.Field{
			zap.String("request_id", GetRequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if user := CurrentUser(c); user != nil {
			fields = append(fields, zap.Uint("caller_id", user.ID))
		}

		if len(c.Errors) > 0 {
			for _, e := range c.Errors {
				logger.Error("request failed", append(fields, zap.Error(e.Err))...)
			}
			return
		}
		logger.Info("HTTP request", fields...)
	}
}
