package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pulsegate/pulsegate/internal/configtree"
	"github.com/pulsegate/pulsegate/internal/materialize"
	"github.com/pulsegate/pulsegate/internal/reload"
	"github.com/pulsegate/pulsegate/internal/validate"
)

// State is the supervisor's position in the activation protocol.
type State int

const (
	Idle State = iota
	Materialized
	Validated
	Active
	ReloadPending
	ReloadFailed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Materialized:
		return "materialized"
	case Validated:
		return "validated"
	case Active:
		return "active"
	case ReloadPending:
		return "reload-pending"
	case ReloadFailed:
		return "reload-failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Caller-facing result codes for one apply attempt.
const (
	CodeOK               = 0
	CodeValidationFailed = 1
	CodeReloadFailed     = 2
	CodeMaterializeError = 3
)

// Starter brings the daemon up for the first time, pointed at the rendered
// artifact. Process supervision beyond this single call is out of scope.
type Starter interface {
	Start(ctx context.Context, artifactPath string) error
}

// Reloader performs the signal/confirm handshake against a running daemon.
type Reloader interface {
	Reload(ctx context.Context, timeout time.Duration) (reload.Outcome, error)
}

// Verifier optionally cross-checks a confirmed reload against the daemon
// itself (its self-metrics, typically).
type Verifier interface {
	Verify(ctx context.Context) error
}

// Config wires the supervisor's collaborators for one daemon instance.
type Config struct {
	// ArtifactPath is where the rendered configuration is written.
	ArtifactPath string

	// BindingsPath names the NAME=value secrets file; empty means no
	// bindings (placeholders pass through verbatim).
	BindingsPath string

	// RuleFiles are auxiliary artifacts validated with the rules-file check
	// before activation.
	RuleFiles []string

	Gate     *validate.Gate
	Reloader Reloader

	// Starter, when non-nil, is invoked on the first apply instead of a
	// reload. When nil the daemon is assumed to already be running.
	Starter Starter

	// Verifier, when non-nil, runs after a confirmed reload.
	Verifier Verifier

	// ReloadTimeout bounds the confirmation wait. Must be positive.
	ReloadTimeout time.Duration
}

// Result is the single outcome of one apply attempt. Err carries the cause
// when Code is non-zero.
type Result struct {
	State   State
	Code    int
	Detail  string
	Err     error

	// Reloaded reports whether a reload handshake was attempted;
	// Outcome is only meaningful when it is true.
	Reloaded bool
	Outcome  reload.Outcome
}

// Supervisor sequences materialize → validate → start-or-reload → confirm
// for a single daemon instance. It owns no cross-call state beyond whether
// the daemon has been brought up; callers must serialize Apply invocations.
type Supervisor struct {
	cfg     Config
	state   State
	started bool
}

// New builds a Supervisor. The zero state is Idle.
func New(cfg Config) (*Supervisor, error) {
	if cfg.ArtifactPath == "" {
		return nil, fmt.Errorf("lifecycle: artifact path is required")
	}
	if cfg.Gate == nil {
		return nil, fmt.Errorf("lifecycle: validation gate is required")
	}
	if cfg.Reloader == nil && cfg.Starter == nil {
		return nil, fmt.Errorf("lifecycle: either a starter or a reloader is required")
	}
	if cfg.ReloadTimeout <= 0 {
		return nil, fmt.Errorf("lifecycle: reload timeout must be positive")
	}
	return &Supervisor{cfg: cfg, state: Idle}, nil
}

// State reports the supervisor's current protocol state.
func (s *Supervisor) State() State { return s.state }

// Apply runs one activation attempt for doc: prune, render with secret
// bindings, validate every artifact kind, then either start the daemon
// (first apply with a Starter) or reload it and wait for confirmation.
//
// Apply is idempotent from the caller's perspective: re-applying an already
// active document re-renders, re-validates, and reloads into the same
// configuration. Failures are never retried here; the returned Result
// carries the caller-facing code and diagnostic detail.
func (s *Supervisor) Apply(ctx context.Context, doc *configtree.Node) *Result {
	// Materialize. The running daemon, if any, is untouched on failure.
	var bindings materialize.Bindings
	if s.cfg.BindingsPath != "" {
		b, err := materialize.LoadBindings(s.cfg.BindingsPath)
		if err != nil {
			return s.fail(CodeMaterializeError, err)
		}
		bindings = b
	}

	pruned := configtree.Prune(doc)
	artifact, err := materialize.Render(pruned, s.cfg.ArtifactPath, bindings)
	if err != nil {
		return s.fail(CodeMaterializeError, err)
	}
	s.state = Materialized

	// Validate. The daemon is never pointed at an unvalidated artifact.
	if err := s.cfg.Gate.Validate(ctx, validate.KindMainConfig, artifact.Path); err != nil {
		return s.failValidation(err)
	}
	for _, rf := range s.cfg.RuleFiles {
		if err := s.cfg.Gate.Validate(ctx, validate.KindRulesFile, rf); err != nil {
			return s.failValidation(err)
		}
	}
	s.state = Validated

	// First bring-up: the process-start collaborator owns this transition.
	if !s.started && s.cfg.Starter != nil {
		if err := s.cfg.Starter.Start(ctx, artifact.Path); err != nil {
			return s.fail(CodeReloadFailed, fmt.Errorf("lifecycle: start daemon: %w", err))
		}
		s.started = true
		s.state = Active
		slog.Info("lifecycle: daemon started", "artifact", artifact.Path)
		return &Result{State: Active, Code: CodeOK}
	}

	// Reload handshake against the already-running daemon.
	if s.cfg.Reloader == nil {
		return s.fail(CodeReloadFailed, fmt.Errorf("lifecycle: daemon started but no reloader configured"))
	}
	s.state = ReloadPending
	outcome, err := s.cfg.Reloader.Reload(ctx, s.cfg.ReloadTimeout)
	if outcome != reload.Confirmed {
		s.state = ReloadFailed
		res := s.fail(CodeReloadFailed, err)
		res.Reloaded = true
		res.Outcome = outcome
		return res
	}

	if s.cfg.Verifier != nil {
		if verr := s.cfg.Verifier.Verify(ctx); verr != nil {
			// The handshake confirmed, but the daemon itself reports the
			// reload unsuccessful: it keeps running on its prior
			// configuration.
			s.state = ReloadFailed
			res := s.fail(CodeReloadFailed, fmt.Errorf("lifecycle: reload confirmed but rejected by daemon: %w", verr))
			res.Reloaded = true
			res.Outcome = reload.Confirmed
			return res
		}
	}

	s.state = Active
	slog.Info("lifecycle: configuration applied", "artifact", artifact.Path)
	return &Result{State: Active, Code: CodeOK, Reloaded: true, Outcome: reload.Confirmed}
}

func (s *Supervisor) failValidation(err error) *Result {
	var ve *validate.ValidationError
	if errors.As(err, &ve) {
		res := s.fail(CodeValidationFailed, err)
		res.Detail = ve.Output
		return res
	}
	// The validator tool itself could not run; still a validation-stage
	// failure from the caller's point of view.
	return s.fail(CodeValidationFailed, err)
}

func (s *Supervisor) fail(code int, err error) *Result {
	slog.Error("lifecycle: apply failed", "state", s.state, "code", code, "err", err)
	res := &Result{State: s.state, Code: code, Err: err}
	if err != nil {
		res.Detail = err.Error()
	}
	return res
}
