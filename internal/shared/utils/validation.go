package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Size limits (in bytes)
const (
	MaxPacketSize     = 4 * 1024 * 1024 // 4MB - a single frame read from a WebSocket client
	MaxQueryTextBytes = 16 * 1024       // 16KB - a single selection submitted for translation
)

// String length limits
const (
	MaxIDLength         = 128
	MaxOptionNameLength = 64
	MaxURLLength        = 2048
)

// Regular expressions for validation
var (
	// PluginIDPattern allows alphanumeric, hyphens, underscores and dots
	PluginIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
	// OptionNamePattern allows identifiers usable as JSON keys without escaping
	OptionNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidatePluginID validates a plugin id as used in store keys and factory names
func ValidatePluginID(id string) error {
	if err := ValidateString(id, "plugin id", 1, MaxIDLength, true); err != nil {
		return err
	}
	if !PluginIDPattern.MatchString(id) {
		return fmt.Errorf("plugin id contains invalid characters (only alphanumeric, dots, hyphens, and underscores allowed)")
	}
	return nil
}

// ValidateOptionName validates a plugin option key
func ValidateOptionName(name string) error {
	if err := ValidateString(name, "option name", 1, MaxOptionNameLength, true); err != nil {
		return err
	}
	if !OptionNamePattern.MatchString(name) {
		return fmt.Errorf("option name %q is not a valid identifier", name)
	}
	return nil
}

// ValidateQueryText validates user supplied query text
func ValidateQueryText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("query text is required")
	}
	if len(text) > MaxQueryTextBytes {
		return fmt.Errorf("query text exceeds maximum %d bytes", MaxQueryTextBytes)
	}
	if !utf8.ValidString(text) {
		return fmt.Errorf("query text is not valid UTF-8")
	}
	return nil
}

// ValidateRepositoryURL validates a plugin repository URL
func ValidateRepositoryURL(raw string) error {
	if err := ValidateString(raw, "repository url", 1, MaxURLLength, true); err != nil {
		return err
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid repository url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("repository url must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("repository url has no host")
	}
	return nil
}
