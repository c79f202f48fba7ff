package metrics_test

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"mixdown/internal/metrics"
)

func TestJobCounters(t *testing.T) {
	m := metrics.New()

	m.RecordJobStarted()
	m.RecordJobStarted()
	m.RecordJobCompleted(2*time.Second, 4096, 1)
	m.RecordJobFailed("decode", time.Second, 0)

	if got := testutil.ToFloat64(m.JobsStarted); got != 2 {
		t.Fatalf("started = %v", got)
	}
	if got := testutil.ToFloat64(m.JobsCompleted); got != 1 {
		t.Fatalf("completed = %v", got)
	}
	if got := testutil.ToFloat64(m.JobsFailed.WithLabelValues("decode")); got != 1 {
		t.Fatalf("failed{decode} = %v", got)
	}
	if got := testutil.ToFloat64(m.ActiveJobs); got != 0 {
		t.Fatalf("active = %v", got)
	}
	if got := testutil.ToFloat64(m.CleanupWarnings); got != 1 {
		t.Fatalf("cleanup warnings = %v", got)
	}
}

func TestEngineAndProbeMetrics(t *testing.T) {
	m := metrics.New()
	m.RecordEngineLoad(10*time.Millisecond, errors.New("boom"))
	m.RecordEngineLoad(5*time.Millisecond, nil)
	m.RecordProbeCache("auto", false)
	m.RecordProbeCache("auto", true)
	m.RecordProbeCache("auto", true)

	if got := testutil.ToFloat64(m.EngineLoads.WithLabelValues("failure")); got != 1 {
		t.Fatalf("engine failures = %v", got)
	}
	if got := testutil.ToFloat64(m.ProbeCacheLookups.WithLabelValues("auto", "hit")); got != 2 {
		t.Fatalf("probe hits = %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := metrics.New()
	m.RecordHTTPRequest("POST", "/api/combine", 200, 30*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`mixdown_http_requests_total{endpoint="/api/combine",method="POST",status_code="200"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("expected %q in exposition", want)
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *metrics.Metrics
	m.RecordJobStarted()
	m.RecordJobCompleted(time.Second, 1, 0)
	m.RecordEngineLoad(time.Second, nil)
	m.RecordHTTPRequest("GET", "/", 200, time.Second)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 404 {
		t.Fatalf("expected 404 from nil metrics handler, got %d", rec.Code)
	}
}
