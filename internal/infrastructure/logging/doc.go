// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Logs go to stderr by default so that CLI commands can keep stdout for results.
//
// Components receive a named *zap.Logger:
//
//	logger := logging.NewDefault()
//	sb := sandbox.New(port, sandbox.WithLogger(logger.Component("sandbox")))
//	logger.Warn("Plugin failed to load", zap.String("plugin_id", id), zap.Error(err))
package logging
