package daemoncfg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/common/model"

	"github.com/pulsegate/pulsegate/internal/configtree"
)

func loadFromString(t *testing.T, yaml string) *Spec {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spec.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	spec, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return spec
}

func loadStringErr(t *testing.T, yaml string) error {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spec.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	return err
}

func TestLoad_Valid(t *testing.T) {
	spec := loadFromString(t, `
global:
  scrape_interval: 15s
  external_labels:
    cluster: prod
rule_files:
  - alerts.rules.yml
scrape_configs:
  - job_name: node
    scheme: https
    bearer_token: "${NODE_TOKEN}"
    static_configs:
      - targets: ["node1:9100", "node2:9100"]
`)

	if time.Duration(spec.Global.ScrapeInterval) != 15*time.Second {
		t.Errorf("scrape_interval = %v", spec.Global.ScrapeInterval)
	}
	if len(spec.ScrapeConfigs) != 1 {
		t.Fatalf("scrape_configs = %d, want 1", len(spec.ScrapeConfigs))
	}
	sc := spec.ScrapeConfigs[0]
	if sc.JobName != "node" || sc.Scheme != "https" {
		t.Errorf("job = %q scheme = %q", sc.JobName, sc.Scheme)
	}
	if sc.BearerToken != "${NODE_TOKEN}" {
		t.Errorf("bearer_token = %q, placeholder must load verbatim", sc.BearerToken)
	}
	if len(sc.StaticConfigs[0].Targets) != 2 {
		t.Errorf("targets = %v", sc.StaticConfigs[0].Targets)
	}
}

func TestLoad_MissingJobName(t *testing.T) {
	err := loadStringErr(t, `
scrape_configs:
  - static_configs:
      - targets: ["a:1"]
`)
	if err == nil || !strings.Contains(err.Error(), "job_name") {
		t.Errorf("err = %v, want job_name complaint", err)
	}
}

func TestLoad_DuplicateJobName(t *testing.T) {
	err := loadStringErr(t, `
scrape_configs:
  - job_name: node
    static_configs: [{targets: ["a:1"]}]
  - job_name: node
    static_configs: [{targets: ["b:1"]}]
`)
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("err = %v, want duplicate complaint", err)
	}
}

func TestLoad_UnknownScheme(t *testing.T) {
	err := loadStringErr(t, `
scrape_configs:
  - job_name: node
    scheme: gopher
    static_configs: [{targets: ["a:1"]}]
`)
	if err == nil || !strings.Contains(err.Error(), "scheme") {
		t.Errorf("err = %v, want scheme complaint", err)
	}
}

func TestToNode_OnlySetFieldsSurvivePruning(t *testing.T) {
	spec := &Spec{
		Global: GlobalSpec{ScrapeInterval: model.Duration(30 * time.Second)},
		ScrapeConfigs: []ScrapeConfig{{
			JobName:       "node",
			StaticConfigs: []StaticConfig{{Targets: []string{"node1:9100"}}},
		}},
	}

	doc := configtree.Prune(spec.ToNode())
	out, err := configtree.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	text := string(out)

	for _, want := range []string{"scrape_interval: 30s", "job_name: node", "node1:9100"} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}
	// Unset fields must not appear: the daemon's defaults apply.
	for _, absent := range []string{"scrape_timeout", "evaluation_interval", "bearer_token", "alerting", "remote_write", "rule_files", "metrics_path"} {
		if strings.Contains(text, absent) {
			t.Errorf("unset field %q leaked into:\n%s", absent, text)
		}
	}
}

func TestToNode_Deterministic(t *testing.T) {
	spec := &Spec{
		Global: GlobalSpec{ExternalLabels: map[string]string{
			"zone": "eu", "cluster": "prod", "env": "live",
		}},
		ScrapeConfigs: []ScrapeConfig{{
			JobName:       "node",
			StaticConfigs: []StaticConfig{{Targets: []string{"a:1"}}},
		}},
	}

	a, err := configtree.Marshal(configtree.Prune(spec.ToNode()))
	if err != nil {
		t.Fatal(err)
	}
	b, err := configtree.Marshal(configtree.Prune(spec.ToNode()))
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Errorf("lowering not deterministic:\n%s\nvs\n%s", a, b)
	}
}
