package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInMemoryRecorder(t *testing.T) {
	t.Parallel()

	m := NewInMemory()
	m.ObserveRequest("GET", "/api/jokes/random", 200, 5*time.Millisecond)
	m.ObserveRequest("GET", "/api/jokes/random", 429, time.Millisecond)
	m.IncRateLimited("daily")
	m.IncProviderFailure("tenor")
	m.IncProviderFailure("tenor")
	m.IncFallbackExhausted("search")
	m.IncLedgerAppendFailure()
	m.IncLinkCreated()
	m.IncRedirect()

	s := m.Snapshot()
	if s.Requests != 2 || s.RequestDurationNs != int64(6*time.Millisecond) {
		t.Errorf("requests = %d/%d", s.Requests, s.RequestDurationNs)
	}
	if s.RateLimited["daily"] != 1 || s.ProviderFailures["tenor"] != 2 || s.FallbacksExhausted["search"] != 1 {
		t.Errorf("labelled counters = %+v", s)
	}
	if s.LedgerAppendFailures != 1 || s.LinksCreated != 1 || s.Redirects != 1 {
		t.Errorf("counters = %+v", s)
	}
}

func TestPrometheusRecorder(t *testing.T) {
	t.Parallel()

	p := NewPrometheus()
	p.ObserveRequest("GET", "/api/gemini", 200, 10*time.Millisecond)
	p.IncRateLimited("redirect")
	p.IncProviderFailure("gemini")

	if got := testutil.ToFloat64(p.requestsTotal.WithLabelValues("GET", "/api/gemini", "200")); got != 1 {
		t.Errorf("requests_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.rateLimitHits.WithLabelValues("redirect")); got != 1 {
		t.Errorf("rate_limit_hits = %v, want 1", got)
	}

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "nightapi_provider_failures_total") {
		t.Error("exposition should include provider failures")
	}
}

func TestNoopRecorder(t *testing.T) {
	t.Parallel()

	var r Recorder = NewNoop()
	r.ObserveRequest("GET", "/", 200, time.Second)
	r.IncRedirect()
}
