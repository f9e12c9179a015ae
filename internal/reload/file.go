package reload

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hpcloud/tail"
)

// FileLogStream reads a daemon's log file as a LogStream. The cursor is the
// byte offset at capture time; Follow tails the file from that offset and
// keeps following across rotation.
type FileLogStream struct {
	Path string

	// Poll forces polling instead of inotify. Mainly for tests and for
	// filesystems without inotify support.
	Poll bool
}

// Position returns the current end of the log file. A file that does not
// exist yet positions at zero: every record the daemon writes later is
// observable from there.
func (s *FileLogStream) Position() (Cursor, error) {
	fi, err := os.Stat(s.Path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reload: stat log %s: %w", s.Path, err)
	}
	return Cursor(fi.Size()), nil
}

// Follow tails the log file from the given cursor, delivering one Record
// per line until ctx is cancelled.
func (s *FileLogStream) Follow(ctx context.Context, from Cursor) (<-chan Record, error) {
	t, err := tail.TailFile(s.Path, tail.Config{
		Location: &tail.SeekInfo{Offset: int64(from), Whence: io.SeekStart},
		Follow:   true,
		ReOpen:   true,
		Poll:     s.Poll,
		Logger:   tail.DiscardingLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("reload: tail log %s: %w", s.Path, err)
	}

	out := make(chan Record)
	go func() {
		defer close(out)
		defer func() {
			_ = t.Stop()
			t.Cleanup()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case line, ok := <-t.Lines:
				if !ok {
					return
				}
				if line == nil || line.Err != nil {
					continue
				}
				rec := parseRecord(line.Text)
				if rec.Time.IsZero() {
					rec.Time = line.Time
				}
				select {
				case out <- rec:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// jsonRecord covers the fields shared by JSON-logging daemons: Prometheus
// and friends emit {"ts": ..., "msg": ..., ...}.
type jsonRecord struct {
	TS  string `json:"ts"`
	Msg string `json:"msg"`
}

// parseRecord extracts the timestamp and message from one log line. JSON
// lines yield their msg field; anything else is taken whole as the message,
// so marker matching works against plain and logfmt output too.
func parseRecord(line string) Record {
	if len(line) > 0 && line[0] == '{' {
		var jr jsonRecord
		if err := json.Unmarshal([]byte(line), &jr); err == nil && jr.Msg != "" {
			rec := Record{Message: jr.Msg}
			if ts, err := time.Parse(time.RFC3339Nano, jr.TS); err == nil {
				rec.Time = ts
			}
			return rec
		}
	}
	return Record{Message: line}
}
