package outbox

// Metrics is the narrow set of observations the publisher makes, mirroring
// internal/inventory.Metrics's shape: the interface lives with the
// component, a concrete Prometheus-backed implementation lives in
// internal/metrics.
type Metrics interface {
	PublishSucceeded(eventType string)
	PublishFailed(eventType string)
	PublishSkippedRetriesExhausted(eventType string)
}

// NopMetrics discards every observation.
type NopMetrics struct{}

func (NopMetrics) PublishSucceeded(string)               {}
func (NopMetrics) PublishFailed(string)                  {}
func (NopMetrics) PublishSkippedRetriesExhausted(string) {}
