package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware for metrics collection
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		// Route template keeps plugin ids out of label cardinality.
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// Timer measures how long a plugin takes to settle a query.
type Timer struct {
	start    time.Time
	metrics  *Metrics
	pluginID string
}

// NewTimer starts a timer for pluginID.
func NewTimer(metrics *Metrics, pluginID string) *Timer {
	return &Timer{
		start:    time.Now(),
		metrics:  metrics,
		pluginID: pluginID,
	}
}

// Stop records the elapsed time. A nil receiver or metrics is a no-op.
func (t *Timer) Stop() {
	if t == nil || t.metrics == nil {
		return
	}
	t.metrics.ObserveTranslate(t.pluginID, time.Since(t.start))
}
