package reload

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
)

// Outcome is the terminal result of one reload attempt.
type Outcome int

const (
	// Confirmed means the daemon emitted the completion marker after the
	// signal was delivered.
	Confirmed Outcome = iota
	// TimedOut means the signal was delivered but no completion marker
	// appeared within the deadline. The daemon keeps running on whatever
	// configuration it had before.
	TimedOut
	// SignalFailed means the reload signal could not be delivered (or the
	// log position could not be captured, so no signal was attempted).
	SignalFailed
	// Cancelled means the caller aborted the confirmation wait.
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Confirmed:
		return "confirmed"
	case TimedOut:
		return "timed-out"
	case SignalFailed:
		return "signal-failed"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Cursor is an opaque position in the daemon's log stream. Cursors are only
// meaningful against the same daemon process instance: a restart invalidates
// every cursor captured before it.
type Cursor int64

// Record is one entry from the daemon's log stream.
type Record struct {
	Time    time.Time
	Message string
}

// LogStream is the daemon's append-only log, readable from a position
// forward.
type LogStream interface {
	// Position returns a cursor such that every record written at or after
	// the call is observable from it.
	Position() (Cursor, error)

	// Follow returns a channel of records starting at from, delivering new
	// records as the daemon writes them. The channel is closed when ctx is
	// cancelled or the stream ends.
	Follow(ctx context.Context, from Cursor) (<-chan Record, error)
}

// Signaler delivers the daemon's asynchronous reload notification.
type Signaler interface {
	Reload() error
}

// Marker matches the daemon's "configuration load complete" log message,
// either by substring or by regular expression.
type Marker struct {
	substr  string
	pattern *regexp.Regexp
}

// MarkerSubstring matches any record whose message contains s.
func MarkerSubstring(s string) Marker { return Marker{substr: s} }

// MarkerPattern matches records against a regular expression.
func MarkerPattern(expr string) (Marker, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Marker{}, fmt.Errorf("reload: compile marker pattern: %w", err)
	}
	return Marker{pattern: re}, nil
}

// Matches reports whether msg is the completion marker.
func (m Marker) Matches(msg string) bool {
	if m.pattern != nil {
		return m.pattern.MatchString(msg)
	}
	return m.substr != "" && strings.Contains(msg, m.substr)
}

// Coordinator turns the daemon's asynchronous signal-based reload into a
// synchronous, confirmable operation.
type Coordinator struct {
	Stream LogStream
	Signal Signaler
	Marker Marker
}

// Reload captures the current log position, delivers the reload signal, then
// reads the stream forward from the captured position until the completion
// marker appears or timeout elapses.
//
// The position is captured strictly before signaling. That ordering is what
// keeps a marker left over from a previous reload from being mistaken for
// this one's confirmation.
//
// The returned error is nil only for Confirmed; otherwise it explains the
// outcome. The wait holds no locks and ends early if ctx is cancelled.
func (c *Coordinator) Reload(ctx context.Context, timeout time.Duration) (Outcome, error) {
	if timeout <= 0 {
		return SignalFailed, fmt.Errorf("reload: timeout must be positive, got %v", timeout)
	}

	cursor, err := c.Stream.Position()
	if err != nil {
		return SignalFailed, fmt.Errorf("reload: capture log position: %w", err)
	}

	if err := c.Signal.Reload(); err != nil {
		return SignalFailed, fmt.Errorf("reload: deliver signal: %w", err)
	}
	slog.Info("reload: signal delivered, waiting for confirmation",
		"cursor", int64(cursor), "timeout", timeout)

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	records, err := c.Stream.Follow(waitCtx, cursor)
	if err != nil {
		return TimedOut, fmt.Errorf("reload: follow log stream: %w", err)
	}

	for {
		select {
		case rec, ok := <-records:
			if !ok {
				return TimedOut, fmt.Errorf("reload: log stream ended before confirmation")
			}
			if c.Marker.Matches(rec.Message) {
				slog.Info("reload: confirmed", "message", rec.Message)
				return Confirmed, nil
			}
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return Cancelled, fmt.Errorf("reload: %w", ctx.Err())
			}
			return TimedOut, fmt.Errorf("reload: timed out waiting for reload confirmation after %v", timeout)
		}
	}
}
