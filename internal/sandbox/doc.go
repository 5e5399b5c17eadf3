// Package sandbox runs translation plugins in an embedded goja VM.
//
// A Sandbox talks to its host only through a messaging.Port:
//
//	CREATED -> STARTED (sends SANDBOX_START)
//	        -> LOADING_PLUGINS (on PLUGINS)
//	        -> READY (sends SANDBOX_READY)
//	        -> QUERY_SERVING (on QUERY, one TRANSLATION_RESULT per settled provider)
//
// Plugin source is evaluated and the provider is built by calling its
// create_<id> factory. Plugins see console, setTimeout/clearTimeout and an
// http object with get and post; require, process, module and exports are
// undefined. Each synchronous entry into plugin code is interrupted after
// Config.ScriptTimeout.
//
// The VM is not goroutine safe. Run owns it, and HTTP completions and timers
// are posted back to the Run goroutine before they touch it.
package sandbox
