package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP server metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Translation metrics
	Queries         prometheus.Counter
	Results         *prometheus.CounterVec
	BlockedResults  *prometheus.CounterVec
	Detections      *prometheus.CounterVec
	PluginsLoaded   prometheus.Gauge
	PluginFailures  *prometheus.CounterVec
	TranslateTiming *prometheus.HistogramVec

	// Outbound metrics
	Fetches       *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec

	// Messaging metrics
	PortsActive prometheus.Gauge
	Packets     *prometheus.CounterVec

	// Update metrics
	UpdateChecks *prometheus.CounterVec

	startTime time.Time

	mu       sync.RWMutex
	snapshot Snapshot
}

// Snapshot holds current values for the JSON status endpoint.
type Snapshot struct {
	Queries        int64   `json:"queries"`
	Results        int64   `json:"results"`
	FailedResults  int64   `json:"failed_results"`
	BlockedResults int64   `json:"blocked_results"`
	PluginsLoaded  int64   `json:"plugins_loaded"`
	ActivePorts    int64   `json:"active_ports"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
}

// NewMetrics creates a metrics collector backed by its own registry, so
// several hosts (and tests) can coexist in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dicthub_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dicthub_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		Queries: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dicthub_queries_total",
				Help: "Total number of queries dispatched to the sandbox",
			},
		),
		Results: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dicthub_translation_results_total",
				Help: "Translation results delivered, by plugin and outcome",
			},
			[]string{"plugin", "success"},
		),
		BlockedResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dicthub_translation_results_blocked_total",
				Help: "Translation results replaced because they carried scripts",
			},
			[]string{"plugin"},
		),
		Detections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dicthub_lang_detections_total",
				Help: "Language detection attempts, by detector and outcome",
			},
			[]string{"detector", "status"},
		),
		PluginsLoaded: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "dicthub_plugins_loaded",
				Help: "Number of plugins instantiated in the sandbox",
			},
		),
		PluginFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dicthub_plugin_failures_total",
				Help: "Plugin failures, by plugin and stage",
			},
			[]string{"plugin", "stage"},
		),
		TranslateTiming: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dicthub_translate_duration_seconds",
				Help:    "Time from query dispatch to plugin settlement",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"plugin"},
		),

		Fetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dicthub_fetches_total",
				Help: "Outbound HTTP fetches, by host and status",
			},
			[]string{"host", "status"},
		),
		FetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dicthub_fetch_duration_seconds",
				Help:    "Outbound HTTP fetch duration in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"host"},
		),

		PortsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "dicthub_ports_active",
				Help: "Number of connected messaging ports",
			},
		),
		Packets: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dicthub_packets_total",
				Help: "Packets routed between host and sandbox",
			},
			[]string{"direction", "command"},
		),

		UpdateChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dicthub_update_checks_total",
				Help: "Plugin and extension update checks, by kind and outcome",
			},
			[]string{"kind", "status"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "dicthub_uptime_seconds",
			Help: "Process uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records an inbound HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordQuery counts a query handed to the sandbox.
func (m *Metrics) RecordQuery() {
	m.Queries.Inc()
	m.mu.Lock()
	m.snapshot.Queries++
	m.mu.Unlock()
}

// RecordResult counts a translation result forwarded to a consumer.
func (m *Metrics) RecordResult(pluginID string, success bool) {
	label := "false"
	if success {
		label = "true"
	}
	m.Results.WithLabelValues(pluginID, label).Inc()

	m.mu.Lock()
	m.snapshot.Results++
	if !success {
		m.snapshot.FailedResults++
	}
	m.mu.Unlock()
}

// RecordBlocked counts a result rejected by the security filter.
func (m *Metrics) RecordBlocked(pluginID string) {
	m.BlockedResults.WithLabelValues(pluginID).Inc()
	m.mu.Lock()
	m.snapshot.BlockedResults++
	m.mu.Unlock()
}

// RecordDetection counts a language detection attempt.
func (m *Metrics) RecordDetection(detector string, err error) {
	m.Detections.WithLabelValues(detector, statusLabel(err)).Inc()
}

// SetPluginsLoaded records how many providers the sandbox holds.
func (m *Metrics) SetPluginsLoaded(n int) {
	m.PluginsLoaded.Set(float64(n))
	m.mu.Lock()
	m.snapshot.PluginsLoaded = int64(n)
	m.mu.Unlock()
}

// RecordPluginFailure counts a plugin failure at the given stage
// ("instantiate", "translate").
func (m *Metrics) RecordPluginFailure(pluginID, stage string) {
	m.PluginFailures.WithLabelValues(pluginID, stage).Inc()
}

// ObserveTranslate records how long a plugin took to settle a query.
func (m *Metrics) ObserveTranslate(pluginID string, d time.Duration) {
	m.TranslateTiming.WithLabelValues(pluginID).Observe(d.Seconds())
}

// RecordFetch records an outbound HTTP call.
func (m *Metrics) RecordFetch(host string, err error, d time.Duration) {
	m.Fetches.WithLabelValues(host, statusLabel(err)).Inc()
	m.FetchDuration.WithLabelValues(host).Observe(d.Seconds())
}

// RecordPacket counts a routed packet; direction is "in" or "out".
func (m *Metrics) RecordPacket(direction, command string) {
	m.Packets.WithLabelValues(direction, command).Inc()
}

// RecordUpdateCheck counts a plugin or extension update check.
func (m *Metrics) RecordUpdateCheck(kind string, err error) {
	m.UpdateChecks.WithLabelValues(kind, statusLabel(err)).Inc()
}

// IncPorts increments connected ports
func (m *Metrics) IncPorts() {
	m.PortsActive.Inc()
	m.mu.Lock()
	m.snapshot.ActivePorts++
	m.mu.Unlock()
}

// DecPorts decrements connected ports
func (m *Metrics) DecPorts() {
	m.PortsActive.Dec()
	m.mu.Lock()
	m.snapshot.ActivePorts--
	m.mu.Unlock()
}

// Snapshot returns a copy of the tracked counters.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	s := m.snapshot
	m.mu.RUnlock()
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
