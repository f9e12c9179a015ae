// Package validate gates rendered artifacts behind an external pass/fail
// checker (promtool by default) before they become the active daemon
// configuration.
//
// The gate itself has no opinion about configuration semantics: it invokes
// the configured tool per artifact kind, and translates a non-zero exit into
// a ValidationError carrying the tool's diagnostics verbatim. A policy flag
// allows skipping the gate entirely.
package validate
