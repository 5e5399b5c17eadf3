// Package ws serves the translation stream over WebSocket.
//
// Each connection gets its own host and sandbox. Packets use the same
// {"cmd","payload"} envelope as the host and sandbox exchange internally:
//
//	-> {"cmd":"QUERY","payload":{"text":"hola","from":"es","to":"en"}}
//	<- {"cmd":"SANDBOX_READY","payload":{}}
//	<- {"cmd":"TRANSLATION_RESULT","payload":{"pluginId":"p1",...}}
package ws
