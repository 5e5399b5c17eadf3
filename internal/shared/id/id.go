// Package id provides ID generation for queries and host sessions.
//
// IDs are random (v4) UUIDs with a short type prefix so logs stay readable:
//
//	q_3b2f...   a translation query
//	sess_91ac.. a host/sandbox session
package id

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// QueryID identifies one submitted translation query
type QueryID string

// SessionID identifies a host/sandbox session
type SessionID string

const (
	QueryPrefix   = "q"
	SessionPrefix = "sess"
)

// NewQueryID generates a new query ID
func NewQueryID() QueryID {
	return QueryID(withPrefix(QueryPrefix))
}

// NewSessionID generates a new session ID
func NewSessionID() SessionID {
	return SessionID(withPrefix(SessionPrefix))
}

func (id QueryID) String() string   { return string(id) }
func (id SessionID) String() string { return string(id) }

// IsValid reports whether s is a prefixed UUID produced by this package.
func IsValid(s string) bool {
	prefix, rest, ok := strings.Cut(s, "_")
	if !ok || (prefix != QueryPrefix && prefix != SessionPrefix) {
		return false
	}
	_, err := uuid.Parse(rest)
	return err == nil
}

func withPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, uuid.NewString())
}
