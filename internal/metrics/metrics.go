// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the gateway.
// Implementations can expose these to Prometheus or keep them in memory.
type Recorder interface {
	// Request pipeline
	ObserveRequest(method, route string, status int, duration time.Duration)
	IncRateLimited(scope string) // scope: "daily" or "redirect"
	IncLedgerAppendFailure()

	// Upstream collaborators
	IncProviderFailure(provider string)
	IncFallbackExhausted(chain string)

	// Short links
	IncLinkCreated()
	IncRedirect()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
