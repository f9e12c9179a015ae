// Package lifecycle sequences one daemon's configuration activations.
//
// An apply attempt walks a fixed protocol: prune the document, render it
// with secret bindings to an owner-only artifact, run every artifact past
// the validation gate, then either start the daemon (first bring-up, via an
// injected Starter) or perform the signal/confirm reload handshake against
// the running one. Any failure stops the attempt where it stands — the
// running daemon is never pointed at an unvalidated artifact and is never
// touched when materialization or validation fails.
//
// The supervisor never retries; each attempt yields a single Result with a
// caller-facing code (0 applied, 1 validation failed, 2 reload failed or
// undeliverable, 3 materialization I/O error) and enough diagnostic text to
// act on. Retry and alerting policy belong to the outer activation tool.
package lifecycle
