package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash returns the hex SHA-256 of s.
func ContentHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
