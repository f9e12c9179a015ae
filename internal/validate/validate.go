package validate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Kind selects which external check is run against an artifact.
type Kind string

const (
	// KindMainConfig is the daemon's primary configuration file.
	KindMainConfig Kind = "main-config"
	// KindRulesFile is an auxiliary recording/alerting rules file referenced
	// by the main configuration.
	KindRulesFile Kind = "rules-file"
)

// ValidationError reports that the external validator rejected an artifact.
// Output carries the tool's diagnostic text verbatim.
type ValidationError struct {
	Kind   Kind
	Path   string
	Output string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate: %s %s rejected: %s", e.Kind, e.Path, strings.TrimSpace(e.Output))
}

// Gate runs an external pass/fail validator against rendered artifacts
// before they are promoted to active use. The validator is a black box:
// exit 0 means pass, anything else means fail.
type Gate struct {
	// Commands maps each artifact kind to the argv prefix of its check
	// command. The artifact path is appended as the final argument.
	Commands map[Kind][]string

	// Skip disables validation entirely. When set, Validate reports ok
	// without invoking any tool — the caller is trusted.
	Skip bool
}

// NewGate builds a Gate from two command lines, split on whitespace.
// Empty strings select the default promtool invocations.
func NewGate(checkConfigCmd, checkRulesCmd string, skip bool) *Gate {
	if checkConfigCmd == "" {
		checkConfigCmd = "promtool check config"
	}
	if checkRulesCmd == "" {
		checkRulesCmd = "promtool check rules"
	}
	return &Gate{
		Commands: map[Kind][]string{
			KindMainConfig: strings.Fields(checkConfigCmd),
			KindRulesFile:  strings.Fields(checkRulesCmd),
		},
		Skip: skip,
	}
}

// Validate runs the check command for kind against the artifact at path.
// A non-zero exit from the tool yields a *ValidationError carrying its
// combined output; any other failure to run the tool is an ordinary error.
//
// Validators that dereference externally-filed secrets (password files and
// the like) can fail spuriously when those files are not visible to the
// validator's execution context; that is a known limitation of the tool,
// not something this gate works around.
func (g *Gate) Validate(ctx context.Context, kind Kind, path string) error {
	if g.Skip {
		slog.Warn("validate: skipped by policy", "kind", kind, "path", path)
		return nil
	}

	argv, ok := g.Commands[kind]
	if !ok || len(argv) == 0 {
		return fmt.Errorf("validate: no check command for kind %q", kind)
	}

	cmd := exec.CommandContext(ctx, argv[0], append(argv[1:], path)...)
	out, err := cmd.CombinedOutput()
	if err == nil {
		slog.Info("validate: artifact passed", "kind", kind, "path", path)
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ValidationError{Kind: kind, Path: path, Output: string(out)}
	}
	return fmt.Errorf("validate: run %s: %w", argv[0], err)
}
