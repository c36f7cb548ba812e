package outbox

import (
	"context"

	"airline-booking-system/internal/domain"
)

// publisher is the narrow view of pkg/kafka.Producer this package depends
// on, so it can be tested against a fake without a live broker.
type publisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
}

// KafkaDispatcher routes each outbox entry to a topic by its event-type
// family, generalizing the teacher's two hardcoded
// SendPaymentEvent/SendSeatUpdateEvent topics into a lookup table covering
// every event tag in internal/domain/events.go.
type KafkaDispatcher struct {
	producer publisher
	topics   map[string]string
}

// NewKafkaDispatcher builds a dispatcher. topicOverrides may remap any
// event type to a non-default topic; omitted types fall back to
// DefaultTopics().
func NewKafkaDispatcher(producer publisher, topicOverrides map[string]string) *KafkaDispatcher {
	topics := DefaultTopics()
	for eventType, topic := range topicOverrides {
		topics[eventType] = topic
	}
	return &KafkaDispatcher{producer: producer, topics: topics}
}

// DefaultTopics groups event types into topic families: seat-inventory
// events, booking-lifecycle events, and ticketing events.
func DefaultTopics() map[string]string {
	return map[string]string{
		domain.EventSeatsHeld:        "flight-inventory-events",
		domain.EventSeatsReleased:    "flight-inventory-events",
		domain.EventBookingCreated:   "booking-events",
		domain.EventBookingConfirmed: "booking-events",
		domain.EventBookingCancelled: "booking-events",
		domain.EventBookingExpired:   "booking-events",
		domain.EventTicketIssued:     "ticketing-events",
	}
}

func (d *KafkaDispatcher) Dispatch(ctx context.Context, entry Entry) error {
	topic, ok := d.topics[entry.EventType]
	if !ok {
		topic = "unclassified-events"
	}
	return d.producer.Publish(ctx, topic, entry.AggregateID, entry.Payload)
}
