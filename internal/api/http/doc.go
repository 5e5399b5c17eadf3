// Package http provides the REST handlers of the DictHub server: preference
// editing, the plugin catalog, enabling and configuring plugins, update and
// version checks, language detection and metrics.
package http
