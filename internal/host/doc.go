// Package host is the translation side of the sandbox protocol.
//
// A Host answers SANDBOX_START with the user preference and the enabled
// plugins, keeps only the latest query until SANDBOX_READY, and passes every
// TRANSLATION_RESULT through Filter before handing it to Results. A result
// whose html carries a script element is replaced by a warning and marked
// unsuccessful.
//
// Session joins a Host and a sandbox.Sandbox over an in-process pipe.
// Background runs the daily extension and plugin update checks.
package host
