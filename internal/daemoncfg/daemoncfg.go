package daemoncfg

import (
	"fmt"
	"os"

	"github.com/prometheus/common/model"
	"gopkg.in/yaml.v3"
)

// Spec is the structured source of the daemon's configuration. Only fields
// the operator sets end up in the rendered artifact; everything left at its
// zero value lowers to an unset node and the daemon's own defaults apply.
//
// Secret-bearing fields (bearer tokens, passwords) hold ${NAME} placeholders
// resolved from the bindings file at render time, never literal secrets.
type Spec struct {
	Global        GlobalSpec        `yaml:"global"`
	RuleFiles     []string          `yaml:"rule_files"`
	ScrapeConfigs []ScrapeConfig    `yaml:"scrape_configs"`
	Alerting      AlertingSpec      `yaml:"alerting"`
	RemoteWrite   []RemoteWriteSpec `yaml:"remote_write"`
}

// GlobalSpec holds daemon-wide scrape and evaluation settings.
type GlobalSpec struct {
	// ScrapeInterval is how often targets are scraped by default.
	ScrapeInterval model.Duration `yaml:"scrape_interval"`

	// ScrapeTimeout bounds each individual scrape.
	ScrapeTimeout model.Duration `yaml:"scrape_timeout"`

	// EvaluationInterval is how often rules are evaluated.
	EvaluationInterval model.Duration `yaml:"evaluation_interval"`

	// ExternalLabels are attached to any metric leaving the daemon.
	ExternalLabels map[string]string `yaml:"external_labels"`
}

// ScrapeConfig describes one scrape job.
type ScrapeConfig struct {
	// JobName is the unique job identifier. Required.
	JobName string `yaml:"job_name"`

	// Scheme is http or https; empty defers to the daemon's default.
	Scheme string `yaml:"scheme"`

	// MetricsPath overrides the default /metrics path.
	MetricsPath string `yaml:"metrics_path"`

	// ScrapeInterval overrides the global interval for this job.
	ScrapeInterval model.Duration `yaml:"scrape_interval"`

	// BearerToken authenticates scrapes; normally a ${NAME} placeholder.
	BearerToken string `yaml:"bearer_token"`

	// BasicAuth authenticates scrapes with username/password.
	BasicAuth *BasicAuth `yaml:"basic_auth"`

	// StaticConfigs lists statically addressed target groups.
	StaticConfigs []StaticConfig `yaml:"static_configs"`
}

// BasicAuth carries scrape credentials. Password is normally a ${NAME}
// placeholder resolved at render time.
type BasicAuth struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// StaticConfig is one group of statically addressed targets.
type StaticConfig struct {
	Targets []string          `yaml:"targets"`
	Labels  map[string]string `yaml:"labels"`
}

// AlertingSpec names the alertmanager instances the daemon pushes alerts to.
type AlertingSpec struct {
	Alertmanagers []AlertmanagerSpec `yaml:"alertmanagers"`
}

// AlertmanagerSpec is one alertmanager target group.
type AlertmanagerSpec struct {
	Scheme  string   `yaml:"scheme"`
	Targets []string `yaml:"targets"`
}

// RemoteWriteSpec is one remote-write destination.
type RemoteWriteSpec struct {
	URL         string `yaml:"url"`
	BearerToken string `yaml:"bearer_token"`
}

// Load reads and parses the spec file at path, then validates it.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("daemoncfg: read file: %w", err)
	}

	spec := &Spec{}
	if err := yaml.Unmarshal(data, spec); err != nil {
		return nil, fmt.Errorf("daemoncfg: parse yaml: %w", err)
	}

	if err := validate(spec); err != nil {
		return nil, fmt.Errorf("daemoncfg: %w", err)
	}
	return spec, nil
}

// validate checks required fields and structural constraints. Semantic
// validation of the rendered artifact belongs to the external validator,
// not here — this only rejects specs that cannot be lowered at all.
func validate(spec *Spec) error {
	seen := map[string]bool{}
	for i, sc := range spec.ScrapeConfigs {
		if sc.JobName == "" {
			return fmt.Errorf("scrape_configs[%d]: job_name is required", i)
		}
		if seen[sc.JobName] {
			return fmt.Errorf("scrape_configs[%d]: duplicate job_name %q", i, sc.JobName)
		}
		seen[sc.JobName] = true
		switch sc.Scheme {
		case "", "http", "https":
		default:
			return fmt.Errorf("scrape_configs[%d] %q: unknown scheme %q", i, sc.JobName, sc.Scheme)
		}
		for j, st := range sc.StaticConfigs {
			if len(st.Targets) == 0 {
				return fmt.Errorf("scrape_configs[%d] %q: static_configs[%d]: targets is required", i, sc.JobName, j)
			}
		}
	}
	for i, rw := range spec.RemoteWrite {
		if rw.URL == "" {
			return fmt.Errorf("remote_write[%d]: url is required", i)
		}
	}
	return nil
}
