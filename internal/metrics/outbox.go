package metrics

import "github.com/prometheus/client_golang/prometheus"

// OutboxMetrics implements outbox.Metrics against Prometheus collectors.
type OutboxMetrics struct {
	publishTotal *prometheus.CounterVec
}

// NewOutboxMetrics registers and returns the outbox publisher's collectors
// against reg.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	m := &OutboxMetrics{
		publishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "outbox_publish_total",
			Help: "Count of outbox dispatch outcomes by event type and result.",
		}, []string{"event_type", "result"}),
	}
	reg.MustRegister(m.publishTotal)
	return m
}

func (m *OutboxMetrics) PublishSucceeded(eventType string) {
	m.publishTotal.WithLabelValues(eventType, "success").Inc()
}

func (m *OutboxMetrics) PublishFailed(eventType string) {
	m.publishTotal.WithLabelValues(eventType, "failure").Inc()
}

func (m *OutboxMetrics) PublishSkippedRetriesExhausted(eventType string) {
	m.publishTotal.WithLabelValues(eventType, "retries_exhausted").Inc()
}
