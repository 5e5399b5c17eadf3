// Package preference holds the user preference aggregate.
//
// The aggregate is loaded once (defaulted when absent) and every setter
// synchronously persists the whole record under the userPreference key.
// There is no batching or dirty tracking; each field write is its own commit.
package preference
