package reload

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// ProcessSignaler delivers SIGHUP to a daemon identified by PID.
type ProcessSignaler struct {
	PID int
}

func (s *ProcessSignaler) Reload() error {
	proc, err := os.FindProcess(s.PID)
	if err != nil {
		return fmt.Errorf("reload: find process %d: %w", s.PID, err)
	}
	if err := proc.Signal(syscall.SIGHUP); err != nil {
		return fmt.Errorf("reload: signal process %d: %w", s.PID, err)
	}
	return nil
}

// PIDFileSignaler resolves the daemon's PID from a pidfile on every attempt,
// so a supervisor-restarted daemon is signaled at its current identity.
type PIDFileSignaler struct {
	Path string
}

func (s *PIDFileSignaler) Reload() error {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return fmt.Errorf("reload: read pidfile %s: %w", s.Path, err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return fmt.Errorf("reload: parse pidfile %s: %w", s.Path, err)
	}
	return (&ProcessSignaler{PID: pid}).Reload()
}
