// Package reload converts the daemon's asynchronous signal-based
// configuration reload into a synchronous, confirmable handshake.
//
// The daemon's reload is non-transactional: SIGHUP returns immediately, the
// actual reload happens on the daemon's schedule, and an internally-rejected
// configuration leaves the daemon running on its old one with no completion
// message. The Coordinator closes that gap with three moves:
//
//  1. capture a cursor into the daemon's log stream,
//  2. deliver the signal,
//  3. read the stream forward from the cursor until the well-known
//     "configuration load complete" message appears or a finite,
//     caller-supplied timeout elapses.
//
// Capturing the cursor before signaling is the load-bearing ordering: a
// completion message written before the cursor belongs to an earlier reload
// and is never matched.
//
// FileLogStream implements the stream over the daemon's log file using
// follow-and-reopen tailing; ProcessSignaler and PIDFileSignaler deliver
// SIGHUP. Both are behind interfaces so the handshake is testable without a
// live daemon.
package reload
