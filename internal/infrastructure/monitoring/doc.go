/*
Package monitoring provides Prometheus metrics for DictHub.

Each Metrics value owns a private registry. The server exposes it on /metrics
through Handler, and a JSON Snapshot backs the status endpoint.

Tracked:
  - Inbound HTTP requests by route template
  - Queries, translation results per plugin, blocked results
  - Language detection attempts per detector
  - Plugin instantiation and translate failures
  - Outbound fetches per host
  - Routed packets and connected ports
  - Plugin and extension update checks

Usage:

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring
