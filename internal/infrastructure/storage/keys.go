package storage

// Well-known keys. The literal values are shared with existing installs and
// must not change.
const (
	KeyUserPreference                = "userPreference"
	KeyLastCheckTime                 = "lastCheckTime"
	KeyLastAvailablePlugins          = "lastAvailablePlugins"
	KeyLastExtensionVersionCheckTime = "LastExtensionVersionCheckTime"
	KeyBingToken                     = "bing_token_igg"
	KeyGoogleToken                   = "extension-googletranslation-token"

	pluginContentPrefix = "PLUGIN_CONTENT_"
	pluginOptionsPrefix = "PLUGIN_OPTIONS_"
)

// PluginContentKey is the key holding a plugin's cached source.
func PluginContentKey(id string) string {
	return pluginContentPrefix + id
}

// PluginOptionsKey is the key holding a plugin's option values.
func PluginOptionsKey(id string) string {
	return pluginOptionsPrefix + id
}
