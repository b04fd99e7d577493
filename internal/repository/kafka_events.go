package repository

import (
	"context"

	"RiskGate/internal/domain/models"
	"RiskGate/internal/domain/repository"
	pkgkafka "RiskGate/pkg/kafka"
)

// KafkaEventPublisher emits breaker transitions to Kafka, keyed by scope so
// per-symbol transitions stay ordered within a partition.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaEventPublisher creates a Kafka event publisher.
func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) repository.EventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func eventPayload(ev *models.BreakerEvent) map[string]interface{} {
	return map[string]interface{}{
		"type":      ev.Type.String(),
		"scope":     ev.Scope,
		"status":    ev.Status.String(),
		"reason":    ev.Reason,
		"active":    ev.Active,
		"timestamp": ev.Timestamp.UnixMilli(),
	}
}

func (p *KafkaEventPublisher) PublishEvent(ctx context.Context, ev *models.BreakerEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.Scope), eventPayload(ev))
}

func (p *KafkaEventPublisher) PublishEvents(ctx context.Context, evs []*models.BreakerEvent) error {
	if len(evs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(evs))
	for i, ev := range evs {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(ev.Scope),
			Value: eventPayload(ev),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
