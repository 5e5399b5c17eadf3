// Package config provides 12-factor configuration management for the DictHub backend.
//
// Configuration starts from Default(), is optionally overlaid with a YAML or TOML
// file, and finally with environment variables.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, allowed WebSocket origins)
//   - Storage: key-value store driver and path
//   - HTTP: outbound client timeout, retries, rate limit
//   - Sandbox: plugin script evaluation limits
//   - Host: update check cadence, stale result handling, running version
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - DICTHUB_PORT, DICTHUB_HOST, DICTHUB_ALLOWED_ORIGINS
//   - DICTHUB_STORAGE_DRIVER, DICTHUB_STORAGE_PATH, DICTHUB_STORAGE_COMPRESS
//   - DICTHUB_HTTP_TIMEOUT, DICTHUB_HTTP_RETRIES, DICTHUB_HTTP_RPS
//   - DICTHUB_PLUGIN_CHECK_INTERVAL, DICTHUB_VERSION_CHECK_INTERVAL, DICTHUB_DISCARD_STALE
//   - DICTHUB_LOG_LEVEL, DICTHUB_LOG_DEV
//   - DICTHUB_RATE_LIMIT_RPS, DICTHUB_RATE_LIMIT_BURST, DICTHUB_RATE_LIMIT_ENABLED
package config
