package inventory

import "time"

// Metrics is the narrow set of observations the engine makes, per spec
// §4.1 ("Implementation may expose these; tests assert counter semantics
// only where observable."). A concrete Prometheus-backed implementation
// lives in internal/metrics so this package stays free of the prometheus
// dependency.
type Metrics interface {
	HoldSucceeded(n int)
	HoldFailed()
	ReleaseFailed()
	DirectPathTaken()
	BatchSizeObserved(size int)
	QueueDepthObserved(depth int)
	HoldLatencyObserved(d time.Duration)
}

// NopMetrics discards every observation; used when the caller doesn't
// wire a concrete Metrics implementation.
type NopMetrics struct{}

func (NopMetrics) HoldSucceeded(int)                 {}
func (NopMetrics) HoldFailed()                       {}
func (NopMetrics) ReleaseFailed()                    {}
func (NopMetrics) DirectPathTaken()                  {}
func (NopMetrics) BatchSizeObserved(int)             {}
func (NopMetrics) QueueDepthObserved(int)            {}
func (NopMetrics) HoldLatencyObserved(time.Duration) {}
