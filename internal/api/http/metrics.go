package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Status returns the tracked counters as JSON.
func (h *Handlers) Status(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "metrics disabled"})
		return
	}
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}

// Prometheus serves the metrics registry in the text exposition format.
func (h *Handlers) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusNotFound)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}
