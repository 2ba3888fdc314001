package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	Requests             uint64
	RequestDurationNs    int64
	RateLimited          map[string]uint64
	LedgerAppendFailures uint64
	ProviderFailures     map[string]uint64
	FallbacksExhausted   map[string]uint64
	LinksCreated         uint64
	Redirects            uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	requests             uint64
	requestDurationNs    int64
	ledgerAppendFailures uint64
	linksCreated         uint64
	redirects            uint64

	mu                 sync.Mutex
	rateLimited        map[string]uint64
	providerFailures   map[string]uint64
	fallbacksExhausted map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		rateLimited:        make(map[string]uint64),
		providerFailures:   make(map[string]uint64),
		fallbacksExhausted: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Requests:             atomic.LoadUint64(&m.requests),
		RequestDurationNs:    atomic.LoadInt64(&m.requestDurationNs),
		RateLimited:          copyCounts(m.rateLimited),
		LedgerAppendFailures: atomic.LoadUint64(&m.ledgerAppendFailures),
		ProviderFailures:     copyCounts(m.providerFailures),
		FallbacksExhausted:   copyCounts(m.fallbacksExhausted),
		LinksCreated:         atomic.LoadUint64(&m.linksCreated),
		Redirects:            atomic.LoadUint64(&m.redirects),
	}
}

func copyCounts(in map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (m *InMemoryRecorder) inc(counts map[string]uint64, key string) {
	m.mu.Lock()
	counts[key]++
	m.mu.Unlock()
}

// ObserveRequest records one handled request.
func (m *InMemoryRecorder) ObserveRequest(_, _ string, _ int, duration time.Duration) {
	atomic.AddUint64(&m.requests, 1)
	atomic.AddInt64(&m.requestDurationNs, duration.Nanoseconds())
}

func (m *InMemoryRecorder) IncRateLimited(scope string) { m.inc(m.rateLimited, scope) }

func (m *InMemoryRecorder) IncLedgerAppendFailure() {
	atomic.AddUint64(&m.ledgerAppendFailures, 1)
}

func (m *InMemoryRecorder) IncProviderFailure(provider string) { m.inc(m.providerFailures, provider) }

func (m *InMemoryRecorder) IncFallbackExhausted(chain string) { m.inc(m.fallbacksExhausted, chain) }

func (m *InMemoryRecorder) IncLinkCreated() { atomic.AddUint64(&m.linksCreated, 1) }

func (m *InMemoryRecorder) IncRedirect() { atomic.AddUint64(&m.redirects, 1) }
