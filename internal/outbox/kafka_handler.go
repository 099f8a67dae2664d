package outbox

import (
	"context"

	"github.com/freshmart/grocery-api/internal/models"
	"github.com/freshmart/grocery-api/pkg/logger"
)

// EventPublisher is the broker-facing side of the Kafka producer.
type EventPublisher interface {
	SendMessage(topic, key string, value []byte) error
}

// KafkaHandler publishes outbox payloads to a Kafka topic, keyed by the
// aggregate ID so events for the same order stay ordered within a partition.
type KafkaHandler struct {
	publisher EventPublisher
	topic     string
	logger    logger.Logger
}

// NewKafkaHandler creates a KafkaHandler bound to one topic.
func NewKafkaHandler(publisher EventPublisher, topic string, logger logger.Logger) *KafkaHandler {
	return &KafkaHandler{publisher: publisher, topic: topic, logger: logger}
}

// Handle forwards the stored envelope to the broker as-is.
func (h *KafkaHandler) Handle(_ context.Context, msg *models.OutboxMessage) error {
	if err := h.publisher.SendMessage(h.topic, msg.AggregateID, msg.Payload); err != nil {
		return err
	}
	h.logger.Debug("Event published to Kafka",
		"topic", h.topic,
		"eventType", msg.EventType,
		"aggregateID", msg.AggregateID)
	return nil
}
