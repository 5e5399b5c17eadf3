// Package middleware provides the HTTP middleware of the DictHub server.
//
// Middleware stack includes:
//   - CORS: Cross-origin resource sharing restricted to the configured origins
//   - RateLimit: Per-IP token bucket rate limiting with idle client eviction
//
// OriginAllowed applies the same origin list to WebSocket upgrades, which
// CORS does not cover.
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.CORSFromOrigins(cfg.Server.AllowedOrigins)))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
