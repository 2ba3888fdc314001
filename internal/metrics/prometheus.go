package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder exposes gateway metrics on its own registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	rateLimitHits    *prometheus.CounterVec
	ledgerFailures   prometheus.Counter
	providerFailures *prometheus.CounterVec
	fallbackExhaust  *prometheus.CounterVec
	linksCreated     prometheus.Counter
	redirects        prometheus.Counter
}

// NewPrometheus registers the gateway collectors, plus Go runtime and
// process collectors, on a fresh registry.
func NewPrometheus() *PrometheusRecorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &PrometheusRecorder{
		registry: reg,
		requestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nightapi_requests_total",
			Help: "Total number of handled requests",
		}, []string{"method", "route", "status_code"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nightapi_request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 120},
		}, []string{"method", "route"}),
		rateLimitHits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nightapi_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		}, []string{"scope"}),
		ledgerFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "nightapi_usage_ledger_append_failures_total",
			Help: "Usage ledger appends that failed and were dropped",
		}),
		providerFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nightapi_provider_failures_total",
			Help: "Failed calls to upstream providers",
		}, []string{"provider"}),
		fallbackExhaust: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nightapi_fallback_exhausted_total",
			Help: "Fallback chains where every provider failed",
		}, []string{"chain"}),
		linksCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "nightapi_short_urls_created_total",
			Help: "Short URLs created",
		}),
		redirects: f.NewCounter(prometheus.CounterOpts{
			Name: "nightapi_redirects_total",
			Help: "Short URL redirects served",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Gatherer exposes the registry for tests.
func (p *PrometheusRecorder) Gatherer() prometheus.Gatherer {
	return p.registry
}

func (p *PrometheusRecorder) ObserveRequest(method, route string, status int, duration time.Duration) {
	p.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (p *PrometheusRecorder) IncRateLimited(scope string) {
	p.rateLimitHits.WithLabelValues(scope).Inc()
}

func (p *PrometheusRecorder) IncLedgerAppendFailure() { p.ledgerFailures.Inc() }

func (p *PrometheusRecorder) IncProviderFailure(provider string) {
	p.providerFailures.WithLabelValues(provider).Inc()
}

func (p *PrometheusRecorder) IncFallbackExhausted(chain string) {
	p.fallbackExhaust.WithLabelValues(chain).Inc()
}

func (p *PrometheusRecorder) IncLinkCreated() { p.linksCreated.Inc() }

func (p *PrometheusRecorder) IncRedirect() { p.redirects.Inc() }
