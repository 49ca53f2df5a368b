package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	if r.HTTPRequestsTotal == nil {
		t.Error("HTTPRequestsTotal not initialized")
	}
	if r.DescriptorsParsedTotal == nil {
		t.Error("DescriptorsParsedTotal not initialized")
	}
	if r.LevelNodes == nil {
		t.Error("LevelNodes not initialized")
	}
	if r.registry == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	r1 := DefaultRegistry()
	r2 := DefaultRegistry()

	if r1 != r2 {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	r := NewRegistry()

	r.RecordHTTPRequest("GET", "/api/levels", "200", 100*time.Millisecond)
	r.RecordHTTPRequest("PUT", "/api/levels/{name}", "422", 20*time.Millisecond)
	r.RecordHTTPRequest("GET", "/api/levels", "200", 50*time.Millisecond)

	counter, err := r.HTTPRequestsTotal.GetMetricWithLabelValues("GET", "/api/levels", "200")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 2 {
		t.Errorf("Counter value = %v, want 2", metric.Counter.GetValue())
	}
}

func TestRecordParse(t *testing.T) {
	r := NewRegistry()

	r.RecordParse(ResultOK, time.Millisecond, 4)
	r.RecordParse(ResultOK, time.Millisecond, 2)
	r.RecordParse("bad_link", time.Millisecond, 0)

	var metric dto.Metric

	ok, _ := r.DescriptorsParsedTotal.GetMetricWithLabelValues(ResultOK)
	ok.Write(&metric)
	if metric.Counter.GetValue() != 2 {
		t.Errorf("ok counter = %v, want 2", metric.Counter.GetValue())
	}

	bad, _ := r.DescriptorsParsedTotal.GetMetricWithLabelValues("bad_link")
	bad.Write(&metric)
	if metric.Counter.GetValue() != 1 {
		t.Errorf("bad_link counter = %v, want 1", metric.Counter.GetValue())
	}

	var hist dto.Metric
	if err := r.DescriptorNodes.Write(&hist); err != nil {
		t.Fatalf("Failed to write histogram: %v", err)
	}
	if got := hist.Histogram.GetSampleCount(); got != 2 {
		t.Errorf("node histogram samples = %d, want 2", got)
	}
	if got := hist.Histogram.GetSampleSum(); got != 6 {
		t.Errorf("node histogram sum = %v, want 6", got)
	}
}

func TestLevelGauges(t *testing.T) {
	r := NewRegistry()

	r.SetLevel("test01", 4, 3)

	var metric dto.Metric
	nodes, _ := r.LevelNodes.GetMetricWithLabelValues("test01")
	nodes.Write(&metric)
	if metric.Gauge.GetValue() != 4 {
		t.Errorf("nodes gauge = %v, want 4", metric.Gauge.GetValue())
	}

	r.RemoveLevel("test01")

	families, err := r.GetPrometheusRegistry().Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}
	for _, f := range families {
		if f.GetName() == "netgraph_level_nodes" && len(f.GetMetric()) != 0 {
			t.Errorf("level_nodes still has %d series after RemoveLevel", len(f.GetMetric()))
		}
	}
}

func TestHandler(t *testing.T) {
	r := NewRegistry()
	r.RecordParse(ResultOK, time.Millisecond, 1)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `netgraph_descriptors_parsed_total{result="ok"} 1`) {
		t.Errorf("exposition missing parse counter:\n%s", rec.Body.String())
	}
}

func TestMetricNaming(t *testing.T) {
	r := NewRegistry()
	r.RecordHTTPRequest("GET", "/health", "200", time.Millisecond)
	r.SetLevel("x", 1, 0)

	families, err := r.GetPrometheusRegistry().Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	for _, m := range families {
		if !strings.HasPrefix(m.GetName(), "netgraph_") {
			t.Errorf("Metric %s does not have netgraph_ prefix", m.GetName())
		}
	}
}

func BenchmarkRecordParse(b *testing.B) {
	r := NewRegistry()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.RecordParse(ResultOK, time.Millisecond, 4)
	}
}
