// Package messaging defines the packets exchanged between the translation
// host and the plugin sandbox, and the ports that carry them.
//
// A packet is {"cmd": <command>, "payload": <object>}. Decode maps each
// command to exactly one Message type and validates it; unknown commands and
// malformed payloads fail with failure.ErrParse, and ports drop them after a
// debug log.
//
// Two ports are provided: an in-process Pipe whose ends exchange serialized
// copies, and WebSocketPort for browser clients.
package messaging
