package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsIsolated(t *testing.T) {
	// Two collectors must not collide on registration.
	a := NewMetrics()
	b := NewMetrics()

	a.RecordQuery()
	assert.Equal(t, float64(1), testutil.ToFloat64(a.Queries))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.Queries))
}

func TestRecordResult(t *testing.T) {
	m := NewMetrics()

	m.RecordResult("p1", true)
	m.RecordResult("p1", false)
	m.RecordResult("p2", false)
	m.RecordBlocked("p2")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Results.WithLabelValues("p1", "true")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Results.WithLabelValues("p2", "false")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.BlockedResults.WithLabelValues("p2")))

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.Results)
	assert.Equal(t, int64(2), snap.FailedResults)
	assert.Equal(t, int64(1), snap.BlockedResults)
}

func TestStatusLabels(t *testing.T) {
	m := NewMetrics()

	m.RecordDetection("bing", nil)
	m.RecordDetection("google", errors.New("token"))
	m.RecordFetch("dicthub.org", nil, 10*time.Millisecond)
	m.RecordUpdateCheck("plugins", errors.New("offline"))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Detections.WithLabelValues("bing", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Detections.WithLabelValues("google", "error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Fetches.WithLabelValues("dicthub.org", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.UpdateChecks.WithLabelValues("plugins", "error")))
}

func TestPortsGauge(t *testing.T) {
	m := NewMetrics()
	m.IncPorts()
	m.IncPorts()
	m.DecPorts()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.PortsActive))
	assert.Equal(t, int64(1), m.Snapshot().ActivePorts)
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/plugins/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plugins/abc", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/plugins/:id", "204")))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dicthub_http_requests_total")
	assert.Contains(t, w.Body.String(), "dicthub_uptime_seconds")
}

func TestTimerNilSafe(t *testing.T) {
	var timer *Timer
	timer.Stop()

	m := NewMetrics()
	NewTimer(m, "p1").Stop()
	assert.Equal(t, 1, testutil.CollectAndCount(m.TranslateTiming))
}
