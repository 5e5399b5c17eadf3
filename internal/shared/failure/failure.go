// Package failure defines the error taxonomy shared by detectors, plugin stores,
// the sandbox and the host.
//
// Callers wrap these sentinels with context using fmt.Errorf("...: %w", ...) and
// match them with errors.Is.
package failure

import "errors"

var (
	// ErrDetection means no detector could classify the text.
	ErrDetection = errors.New("language detection failed")
	// ErrFetch means a network call failed or returned a non-200 status.
	ErrFetch = errors.New("fetch failed")
	// ErrToken means the expected session token was not found in a scraped page.
	ErrToken = errors.New("token not found")
	// ErrParse means a response or payload had an unexpected shape.
	ErrParse = errors.New("malformed response")
	// ErrPluginInstantiation means plugin source threw or did not export its factory.
	ErrPluginInstantiation = errors.New("plugin instantiation failed")
	// ErrSecurityViolation marks a result that carried an embedded script.
	ErrSecurityViolation = errors.New("insecure translation script blocked")
	// ErrUnknownLang means a language code is not in the supported set.
	ErrUnknownLang = errors.New("unknown language code")
)
