package telemetry

import (
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Registration is checked via Describe() rather than DefaultGatherer.Gather()
// because Gather() only returns series observed at least once; *Vec metrics
// with no label combinations yet used are absent from Gather output even
// though they are correctly registered.
func TestMetrics_AllRegistered(t *testing.T) {
	type describer interface {
		Describe(chan<- *prometheus.Desc)
	}

	cases := []struct {
		name string
		c    describer
	}{
		{"http_requests_total", HTTPRequestsTotal},
		{"http_request_duration_seconds", HTTPRequestDuration},
		{"registry_artifact_downloads_total", ArtifactDownloadsTotal},
		{"registry_artifact_uploads_total", ArtifactUploadsTotal},
		{"registry_db_connections_open", DBConnectionsOpen},
		{"registry_db_connections_in_use", DBConnectionsInUse},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ch := make(chan *prometheus.Desc, 10)
			tc.c.Describe(ch)
			close(ch)
			for desc := range ch {
				if strings.Contains(desc.String(), `"`+tc.name+`"`) {
					return
				}
			}
			t.Errorf("metric %q: Describe() returned no descriptor with this fqName", tc.name)
		})
	}
}

func TestMetrics_ArtifactDownloadsTotal_CanBeIncremented(t *testing.T) {
	before := counterValue(t, "registry_artifact_downloads_total", "acme")
	ArtifactDownloadsTotal.WithLabelValues("acme").Inc()
	after := counterValue(t, "registry_artifact_downloads_total", "acme")

	if after != before+1 {
		t.Errorf("counter = %v after Inc, want %v", after, before+1)
	}
}

// counterValue gathers the default registry and returns the counter value for
// the single-label series with the given label value (0 when absent).
func counterValue(t *testing.T, name, label string) float64 {
	t.Helper()
	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if matchLabel(m, label) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

// The collector loops until stop closes, so a direct call would block its
// caller indefinitely. cmd/server must start it with go.
func TestStartDBPoolCollector_RunsUntilStopped(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		StartDBPoolCollector(db, 10*time.Millisecond, stop)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("collector returned while stop was still open")
	case <-time.After(50 * time.Millisecond):
	}

	close(stop)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not return after stop closed")
	}
}

func matchLabel(m *dto.Metric, value string) bool {
	for _, lp := range m.GetLabel() {
		if lp.GetValue() == value {
			return true
		}
	}
	return false
}
