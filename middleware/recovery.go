package middleware

import (
	"net/http"

	"book-a-meal-api/apperrors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recovery turns a panic into a 500 in the error envelope
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					zap.String("request_id", GetRequestID(c)),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Any("error", err),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"errors": []string{apperrors.InternalMessage}})
			}
		}()
		c.Next()
	}
}
