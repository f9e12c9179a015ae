package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pulsegate/pulsegate/internal/daemoncfg"
	"github.com/pulsegate/pulsegate/internal/health"
	"github.com/pulsegate/pulsegate/internal/lifecycle"
	"github.com/pulsegate/pulsegate/internal/reload"
	"github.com/pulsegate/pulsegate/internal/validate"
)

const defaultMarker = "Completed loading of configuration file"

func main() {
	var (
		specPath     = flag.String("config", "pulsegate.yaml", "path to the daemon configuration spec")
		artifactPath = flag.String("out", "/etc/prometheus/prometheus.yml", "path the rendered artifact is written to")
		bindingsPath = flag.String("bindings", "", "NAME=value secrets file substituted into the artifact")
		pidfile      = flag.String("pidfile", "", "daemon pidfile used to deliver the reload signal")
		pid          = flag.Int("pid", 0, "daemon pid (alternative to -pidfile)")
		daemonLog    = flag.String("daemon-log", "", "daemon log file followed for reload confirmation")
		marker       = flag.String("marker", defaultMarker, "log message confirming a completed reload")
		timeout      = flag.Duration("timeout", 30*time.Second, "how long to wait for reload confirmation")
		checkCmd     = flag.String("check-cmd", "", "validator command for the main config (default: promtool check config)")
		rulesCmd     = flag.String("rules-check-cmd", "", "validator command for rules files (default: promtool check rules)")
		ruleFiles    = flag.String("rule-files", "", "comma-separated rules files to validate before activation")
		skipValidate = flag.Bool("skip-validation", false, "trust the caller and skip the validation gate")
		healthURL    = flag.String("health-url", "", "daemon metrics URL for post-reload verification and status")
		watch        = flag.Bool("watch", false, "re-apply whenever the spec file changes")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("pulsegate starting", "config", *specPath, "out", *artifactPath)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if flag.Arg(0) == "status" {
		os.Exit(runStatus(ctx, *healthURL))
	}

	sup, coordErr := buildSupervisor(supervisorOptions{
		artifactPath: *artifactPath,
		bindingsPath: *bindingsPath,
		pidfile:      *pidfile,
		pid:          *pid,
		daemonLog:    *daemonLog,
		marker:       *marker,
		timeout:      *timeout,
		checkCmd:     *checkCmd,
		rulesCmd:     *rulesCmd,
		ruleFiles:    splitList(*ruleFiles),
		skipValidate: *skipValidate,
		healthURL:    *healthURL,
	})
	if coordErr != nil {
		slog.Error("pulsegate: invalid invocation", "err", coordErr)
		os.Exit(lifecycle.CodeMaterializeError)
	}

	spec, err := daemoncfg.Load(*specPath)
	if err != nil {
		slog.Error("pulsegate: load spec failed", "path", *specPath, "err", err)
		os.Exit(lifecycle.CodeMaterializeError)
	}

	res := sup.Apply(ctx, spec.ToNode())
	report(res)
	if !*watch {
		os.Exit(res.Code)
	}
	if res.Code != lifecycle.CodeOK {
		slog.Warn("pulsegate: initial apply failed, watching for a corrected spec")
	}

	// Watch mode: one activation in flight at a time; changes arriving while
	// an apply runs are handled by the next event.
	err = daemoncfg.Watch(ctx, *specPath, func(updated *daemoncfg.Spec) {
		report(sup.Apply(ctx, updated.ToNode()))
	})
	if err != nil {
		slog.Error("pulsegate: watcher stopped", "err", err)
		os.Exit(lifecycle.CodeMaterializeError)
	}
	os.Exit(lifecycle.CodeOK)
}

type supervisorOptions struct {
	artifactPath string
	bindingsPath string
	pidfile      string
	pid          int
	daemonLog    string
	marker       string
	timeout      time.Duration
	checkCmd     string
	rulesCmd     string
	ruleFiles    []string
	skipValidate bool
	healthURL    string
}

func buildSupervisor(opts supervisorOptions) (*lifecycle.Supervisor, error) {
	if opts.daemonLog == "" {
		return nil, fmt.Errorf("-daemon-log is required")
	}

	var signaler reload.Signaler
	switch {
	case opts.pidfile != "":
		signaler = &reload.PIDFileSignaler{Path: opts.pidfile}
	case opts.pid > 0:
		signaler = &reload.ProcessSignaler{PID: opts.pid}
	default:
		return nil, fmt.Errorf("one of -pidfile or -pid is required")
	}

	coordinator := &reload.Coordinator{
		Stream: &reload.FileLogStream{Path: opts.daemonLog},
		Signal: signaler,
		Marker: reload.MarkerSubstring(opts.marker),
	}

	cfg := lifecycle.Config{
		ArtifactPath:  opts.artifactPath,
		BindingsPath:  opts.bindingsPath,
		RuleFiles:     opts.ruleFiles,
		Gate:          validate.NewGate(opts.checkCmd, opts.rulesCmd, opts.skipValidate),
		Reloader:      coordinator,
		ReloadTimeout: opts.timeout,
	}
	if opts.healthURL != "" {
		cfg.Verifier = health.NewProber(opts.healthURL)
	}
	return lifecycle.New(cfg)
}

func runStatus(ctx context.Context, healthURL string) int {
	if healthURL == "" {
		slog.Error("pulsegate: status requires -health-url")
		return lifecycle.CodeMaterializeError
	}
	st, err := health.NewProber(healthURL).Probe(ctx)
	if err != nil {
		slog.Error("pulsegate: status probe failed", "err", err)
		return lifecycle.CodeReloadFailed
	}
	slog.Info("pulsegate: daemon status",
		"reload_successful", st.ReloadSuccessful,
		"last_reload", st.LastReload,
	)
	if !st.ReloadSuccessful {
		return lifecycle.CodeReloadFailed
	}
	return lifecycle.CodeOK
}

func report(res *lifecycle.Result) {
	if res.Code == lifecycle.CodeOK {
		slog.Info("pulsegate: configuration active",
			"state", res.State.String(), "reloaded", res.Reloaded)
		return
	}
	attrs := []any{"state", res.State.String(), "code", res.Code}
	if res.Reloaded {
		attrs = append(attrs, "outcome", res.Outcome.String())
	}
	if res.Detail != "" {
		attrs = append(attrs, "detail", res.Detail)
	}
	slog.Error("pulsegate: apply failed", attrs...)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
