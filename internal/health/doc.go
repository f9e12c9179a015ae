// Package health cross-checks reload results against the daemon's own
// self-metrics.
//
// The log handshake confirms that a reload completed; this prober asks the
// daemon directly, via its /metrics endpoint, whether the last reload it
// applied was successful and when. It also backs the status subcommand.
package health
