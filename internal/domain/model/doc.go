// Package model defines the value types exchanged between the host, the
// sandbox and the plugin stores: manifests, cached plugin sources, options,
// queries and translation results. JSON field names match the plugin
// repository format and the packet wire format.
package model
