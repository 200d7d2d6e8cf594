package handlers

import (
	"net/http"

	"book-a-meal-api/policy"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Health reports whether the database answers
func (h *Handler) Health(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "service": "Book-A-Meal API"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "Book-A-Meal API", "version": "1.0.0"})
}

func (h *Handler) Welcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":  "Welcome to the Book-A-Meal API",
		"health":   "/health",
		"policies": "/api/v1/policies",
		"roles":    []string{"caterer", "customer"},
	})
}

// Policies lists the authorization table
func (h *Handler) Policies(c *gin.Context) {
	rules := policy.Table()
	c.JSON(http.StatusOK, gin.H{"num_results": len(rules), "objects": rules})
}
