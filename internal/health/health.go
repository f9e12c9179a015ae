package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// Daemon self-metrics consulted after a reload.
const (
	// Gauge: 1 if the last configuration reload succeeded, 0 otherwise.
	reloadSuccessMetric = "prometheus_config_last_reload_successful"

	// Gauge: unix time of the last successful configuration reload.
	reloadTimeMetric = "prometheus_config_last_reload_success_timestamp_seconds"
)

const defaultProbeTimeout = 10 * time.Second

// Status is the daemon's own view of its configuration state, read from its
// metrics endpoint.
type Status struct {
	ReloadSuccessful bool
	LastReload       time.Time
}

// Prober reads the daemon's /metrics endpoint to cross-check reload results.
type Prober struct {
	URL    string
	Client *http.Client
}

// NewProber builds a Prober for the daemon's metrics URL.
func NewProber(url string) *Prober {
	return &Prober{
		URL:    url,
		Client: &http.Client{Timeout: defaultProbeTimeout},
	}
}

// Probe fetches and parses the daemon's self-metrics.
func (p *Prober) Probe(ctx context.Context) (*Status, error) {
	mfs, err := fetchMetrics(ctx, p.Client, p.URL)
	if err != nil {
		return nil, fmt.Errorf("health: probe %s: %w", p.URL, err)
	}

	st := &Status{}
	if v, ok := gaugeValue(mfs[reloadSuccessMetric]); ok {
		st.ReloadSuccessful = v == 1
	}
	if v, ok := gaugeValue(mfs[reloadTimeMetric]); ok && v > 0 {
		sec := int64(v)
		st.LastReload = time.Unix(sec, int64((v-float64(sec))*1e9)).UTC()
	}
	return st, nil
}

// Verify probes the daemon and reports an error unless it confirms the last
// reload succeeded. Used as a second confirmation after the log handshake.
func (p *Prober) Verify(ctx context.Context) error {
	st, err := p.Probe(ctx)
	if err != nil {
		return err
	}
	if !st.ReloadSuccessful {
		return fmt.Errorf("health: daemon reports last configuration reload unsuccessful")
	}
	return nil
}

// fetchMetrics performs an HTTP GET to url and returns parsed metric families.
func fetchMetrics(ctx context.Context, client *http.Client, url string) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return parseMetrics(resp.Body)
}

// parseMetrics decodes a Prometheus text exposition from r into metric
// families. A partial result with a non-fatal parse warning is still
// returned successfully.
func parseMetrics(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("parse prometheus text: %w", err)
	}
	return mfs, nil
}

// gaugeValue returns the value of the first gauge or untyped metric in mf.
func gaugeValue(mf *dto.MetricFamily) (float64, bool) {
	if mf == nil || len(mf.GetMetric()) == 0 {
		return 0, false
	}
	m := mf.GetMetric()[0]
	switch {
	case m.GetGauge() != nil:
		return m.GetGauge().GetValue(), true
	case m.GetUntyped() != nil:
		return m.GetUntyped().GetValue(), true
	default:
		return 0, false
	}
}
