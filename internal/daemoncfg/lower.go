package daemoncfg

import (
	"sort"

	"github.com/prometheus/common/model"

	"github.com/pulsegate/pulsegate/internal/configtree"
)

// ToNode lowers the spec into a configuration document. Every field the
// operator left at its zero value becomes an unset node, so pruning the
// result yields a document carrying only explicitly set values.
func (s *Spec) ToNode() *configtree.Node {
	root := configtree.Map()
	root.Set("global", s.Global.toNode())
	root.Set("rule_files", optStrList(s.RuleFiles))

	scrapes := configtree.List()
	for _, sc := range s.ScrapeConfigs {
		scrapes.Append(sc.toNode())
	}
	if len(s.ScrapeConfigs) == 0 {
		root.Set("scrape_configs", configtree.Unset())
	} else {
		root.Set("scrape_configs", scrapes)
	}

	root.Set("alerting", s.Alerting.toNode())

	if len(s.RemoteWrite) == 0 {
		root.Set("remote_write", configtree.Unset())
	} else {
		rw := configtree.List()
		for _, r := range s.RemoteWrite {
			rw.Append(configtree.Map().
				Set("url", optStr(r.URL)).
				Set("bearer_token", optStr(r.BearerToken)))
		}
		root.Set("remote_write", rw)
	}
	return root
}

func (g GlobalSpec) toNode() *configtree.Node {
	return configtree.Map().
		Set("scrape_interval", optDur(g.ScrapeInterval)).
		Set("scrape_timeout", optDur(g.ScrapeTimeout)).
		Set("evaluation_interval", optDur(g.EvaluationInterval)).
		Set("external_labels", optStrMap(g.ExternalLabels))
}

func (sc ScrapeConfig) toNode() *configtree.Node {
	n := configtree.Map().
		Set("job_name", configtree.String(sc.JobName)).
		Set("scheme", optStr(sc.Scheme)).
		Set("metrics_path", optStr(sc.MetricsPath)).
		Set("scrape_interval", optDur(sc.ScrapeInterval)).
		Set("bearer_token", optStr(sc.BearerToken))

	if sc.BasicAuth != nil {
		n.Set("basic_auth", configtree.Map().
			Set("username", optStr(sc.BasicAuth.Username)).
			Set("password", optStr(sc.BasicAuth.Password)))
	} else {
		n.Set("basic_auth", configtree.Unset())
	}

	if len(sc.StaticConfigs) == 0 {
		n.Set("static_configs", configtree.Unset())
	} else {
		static := configtree.List()
		for _, st := range sc.StaticConfigs {
			static.Append(configtree.Map().
				Set("targets", optStrList(st.Targets)).
				Set("labels", optStrMap(st.Labels)))
		}
		n.Set("static_configs", static)
	}
	return n
}

func (a AlertingSpec) toNode() *configtree.Node {
	if len(a.Alertmanagers) == 0 {
		return configtree.Unset()
	}
	ams := configtree.List()
	for _, am := range a.Alertmanagers {
		ams.Append(configtree.Map().
			Set("scheme", optStr(am.Scheme)).
			Set("static_configs", configtree.List(
				configtree.Map().Set("targets", optStrList(am.Targets)))))
	}
	return configtree.Map().Set("alertmanagers", ams)
}

// optStr lowers a string: empty means "not set".
func optStr(v string) *configtree.Node {
	if v == "" {
		return configtree.Unset()
	}
	return configtree.String(v)
}

// optDur lowers a duration: zero means "not set".
func optDur(d model.Duration) *configtree.Node {
	if d == 0 {
		return configtree.Unset()
	}
	return configtree.String(d.String())
}

func optStrList(vs []string) *configtree.Node {
	if len(vs) == 0 {
		return configtree.Unset()
	}
	list := configtree.List()
	for _, v := range vs {
		list.Append(configtree.String(v))
	}
	return list
}

func optStrMap(m map[string]string) *configtree.Node {
	if len(m) == 0 {
		return configtree.Unset()
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Deterministic output for rebuilt documents.
	sort.Strings(keys)
	node := configtree.Map()
	for _, k := range keys {
		node.Set(k, configtree.String(m[k]))
	}
	return node
}
