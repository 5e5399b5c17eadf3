// Package storage implements the key-value store behind preferences, plugin
// caches, update bookkeeping and detector tokens.
//
// Two drivers: Memory for tests and one-shot commands, and SQLite for the
// long-running server, which zstd-compresses large values such as plugin
// sources. Well-known key names live in keys.go.
package storage
