package kafka

import (
	"context"
	"fmt"

	"airline-booking-system/internal/config"

	"github.com/segmentio/kafka-go"
)

// Producer handles Kafka message production. Generalized from the
// teacher's two hardcoded SendPaymentEvent/SendSeatUpdateEvent methods into
// a single Publish keyed by topic, so the outbox publisher (C7) can route
// by event-type family without this package knowing about domain events.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates a new Kafka producer.
func NewProducer(cfg *config.KafkaConfig) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Balancer: &kafka.LeastBytes{},
	}

	return &Producer{writer: writer}
}

// Publish writes one message to topic, keyed by key (typically the
// aggregate id, so a consumer group partitions by aggregate).
func (p *Producer) Publish(ctx context.Context, topic, key string, payload []byte) error {
	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("publish to topic %s: %w", topic, err)
	}
	return nil
}

// Close closes the producer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
