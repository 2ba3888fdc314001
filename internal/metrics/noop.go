package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) ObserveRequest(string, string, int, time.Duration) {}
func (n *NoopRecorder) IncRateLimited(string)                             {}
func (n *NoopRecorder) IncLedgerAppendFailure()                           {}
func (n *NoopRecorder) IncProviderFailure(string)                         {}
func (n *NoopRecorder) IncFallbackExhausted(string)                       {}
func (n *NoopRecorder) IncLinkCreated()                                   {}
func (n *NoopRecorder) IncRedirect()                                      {}
