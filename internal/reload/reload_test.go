package reload

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeStream is an in-memory append-only log. Position is the index of the
// next record; Follow replays records from a given index and then forwards
// live appends.
type fakeStream struct {
	mu       sync.Mutex
	records  []Record
	live     chan Record
	followed bool
}

func newFakeStream(preseeded ...string) *fakeStream {
	s := &fakeStream{live: make(chan Record, 16)}
	for _, msg := range preseeded {
		s.records = append(s.records, Record{Time: time.Now(), Message: msg})
	}
	return s
}

func (s *fakeStream) Append(msg string) {
	s.mu.Lock()
	rec := Record{Time: time.Now(), Message: msg}
	s.records = append(s.records, rec)
	s.mu.Unlock()
	s.live <- rec
}

func (s *fakeStream) Position() (Cursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Cursor(len(s.records)), nil
}

func (s *fakeStream) Follow(ctx context.Context, from Cursor) (<-chan Record, error) {
	s.mu.Lock()
	replay := append([]Record(nil), s.records[from:]...)
	s.followed = true
	s.mu.Unlock()

	out := make(chan Record)
	go func() {
		defer close(out)
		for _, rec := range replay {
			select {
			case out <- rec:
			case <-ctx.Done():
				return
			}
		}
		for {
			select {
			case rec := <-s.live:
				select {
				case out <- rec:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// fakeSignaler records delivery and optionally simulates the daemon's
// reaction to the signal.
type fakeSignaler struct {
	err      error
	onSignal func()
	called   bool
}

func (f *fakeSignaler) Reload() error {
	f.called = true
	if f.err != nil {
		return f.err
	}
	if f.onSignal != nil {
		go f.onSignal()
	}
	return nil
}

const completionMsg = "Completed loading of configuration file"

func TestReload_Confirmed(t *testing.T) {
	stream := newFakeStream("Server is ready to receive web requests.")
	sig := &fakeSignaler{onSignal: func() {
		stream.Append("Loading configuration file")
		stream.Append(completionMsg)
	}}
	c := &Coordinator{Stream: stream, Signal: sig, Marker: MarkerSubstring(completionMsg)}

	outcome, err := c.Reload(context.Background(), 5*time.Second)
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if outcome != Confirmed {
		t.Errorf("outcome = %v, want Confirmed", outcome)
	}
}

func TestReload_StaleMarkerNeverConfirms(t *testing.T) {
	// A completion message from a previous reload sits in the stream before
	// the cursor is captured. It must be ignored.
	stream := newFakeStream(completionMsg)
	sig := &fakeSignaler{}
	c := &Coordinator{Stream: stream, Signal: sig, Marker: MarkerSubstring(completionMsg)}

	outcome, err := c.Reload(context.Background(), 300*time.Millisecond)
	if outcome != TimedOut {
		t.Errorf("outcome = %v (err %v), want TimedOut — stale marker matched", outcome, err)
	}
}

func TestReload_SignalFailed(t *testing.T) {
	stream := newFakeStream()
	sig := &fakeSignaler{err: errors.New("no such process")}
	c := &Coordinator{Stream: stream, Signal: sig, Marker: MarkerSubstring(completionMsg)}

	outcome, err := c.Reload(context.Background(), time.Second)
	if outcome != SignalFailed {
		t.Errorf("outcome = %v, want SignalFailed", outcome)
	}
	if err == nil {
		t.Error("SignalFailed with nil error")
	}
	if stream.followed {
		t.Error("stream followed after signal delivery failed")
	}
}

func TestReload_TimedOutAfterDeadline(t *testing.T) {
	stream := newFakeStream()
	sig := &fakeSignaler{onSignal: func() {
		stream.Append("Loading configuration file")
		// The daemon rejects the new config internally: no completion
		// message is ever written.
	}}
	c := &Coordinator{Stream: stream, Signal: sig, Marker: MarkerSubstring(completionMsg)}

	start := time.Now()
	outcome, err := c.Reload(context.Background(), time.Second)
	elapsed := time.Since(start)

	if outcome != TimedOut {
		t.Fatalf("outcome = %v (err %v), want TimedOut", outcome, err)
	}
	if elapsed < time.Second {
		t.Errorf("returned after %v, before the 1s deadline", elapsed)
	}
	if elapsed > 3*time.Second {
		t.Errorf("returned after %v, deadline not enforced", elapsed)
	}
}

func TestReload_Cancelled(t *testing.T) {
	stream := newFakeStream()
	sig := &fakeSignaler{}
	c := &Coordinator{Stream: stream, Signal: sig, Marker: MarkerSubstring(completionMsg)}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	outcome, _ := c.Reload(ctx, 10*time.Second)
	if outcome != Cancelled {
		t.Errorf("outcome = %v, want Cancelled", outcome)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("cancellation did not interrupt the wait")
	}
}

func TestReload_RejectsNonPositiveTimeout(t *testing.T) {
	c := &Coordinator{Stream: newFakeStream(), Signal: &fakeSignaler{}, Marker: MarkerSubstring("x")}
	if _, err := c.Reload(context.Background(), 0); err == nil {
		t.Error("zero timeout accepted")
	}
}

func TestMarker_Matching(t *testing.T) {
	sub := MarkerSubstring("load complete")
	if !sub.Matches("config load complete ok") {
		t.Error("substring marker missed")
	}
	if sub.Matches("still loading") {
		t.Error("substring marker false positive")
	}
	if (Marker{}).Matches("anything") {
		t.Error("zero marker matched")
	}

	pat, err := MarkerPattern(`Completed loading of configuration file`)
	if err != nil {
		t.Fatal(err)
	}
	if !pat.Matches(`msg="Completed loading of configuration file" filename=/etc/daemon.yml`) {
		t.Error("pattern marker missed")
	}

	if _, err := MarkerPattern(`(`); err == nil {
		t.Error("invalid pattern accepted")
	}
}
