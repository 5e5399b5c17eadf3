// Package plugin manages the plugin catalog and local plugin state.
//
// Index merges manifest lists from one or more repositories. ContentStore
// caches plugin sources by version and OptionsStore keeps user option values.
// UpdateChecker and VersionChecker report catalog and extension updates, and
// Manager combines the pieces for enable and upgrade flows.
package plugin
