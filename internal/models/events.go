package models

import (
	"encoding/json"
	"time"
)

// OutboxStatus of a message awaiting dispatch.
type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusProcessing OutboxStatus = "processing"
	OutboxStatusCompleted  OutboxStatus = "completed"
	OutboxStatusFailed     OutboxStatus = "failed"
)

// Event types emitted by the order and delivery workflows.
const (
	EventOrderPlaced        = "order_placed"
	EventOrderCancelled     = "order_cancelled"
	EventOrderStatusChanged = "order_status_changed"
	EventDeliveryAssigned   = "delivery_assigned"
)

// OutboxMessage is a domain event persisted in the same transaction as the
// state change it describes, published asynchronously by the outbox
// processor.
type OutboxMessage struct {
	ID                 int64        `db:"id" json:"id"`
	AggregateType      string       `db:"aggregate_type" json:"aggregate_type"`
	AggregateID        string       `db:"aggregate_id" json:"aggregate_id"`
	EventType          string       `db:"event_type" json:"event_type"`
	Payload            []byte       `db:"payload" json:"payload"`
	CreatedAt          time.Time    `db:"created_at" json:"created_at"`
	ProcessedAt        *time.Time   `db:"processed_at" json:"processed_at,omitempty"`
	ProcessingAttempts int          `db:"processing_attempts" json:"processing_attempts"`
	LastError          *string      `db:"last_error" json:"last_error,omitempty"`
	Status             OutboxStatus `db:"status" json:"status"`
}

// EventEnvelope is the serialized payload shape shared by all events.
type EventEnvelope struct {
	EventType   string      `json:"event_type"`
	EventID     string      `json:"event_id"`
	AggregateID string      `json:"aggregate_id"`
	OccurredAt  time.Time   `json:"occurred_at"`
	Data        interface{} `json:"data"`
}

func newOutboxMessage(aggregateType, aggregateID, eventType string, data interface{}) (*OutboxMessage, error) {
	envelope := EventEnvelope{
		EventType:   eventType,
		EventID:     GenerateID("evt"),
		AggregateID: aggregateID,
		OccurredAt:  Now(),
		Data:        data,
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, err
	}

	return &OutboxMessage{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     Now(),
		Status:        OutboxStatusPending,
	}, nil
}

// NewOrderPlacedEvent records a freshly placed order and its items.
func NewOrderPlacedEvent(order *Order, items []OrderItem) (*OutboxMessage, error) {
	return newOutboxMessage("order", order.ID, EventOrderPlaced, map[string]interface{}{
		"order": order,
		"items": items,
	})
}

// NewOrderCancelledEvent records a cancellation.
func NewOrderCancelledEvent(order *Order) (*OutboxMessage, error) {
	return newOutboxMessage("order", order.ID, EventOrderCancelled, order)
}

// NewOrderStatusChangedEvent records a status transition.
func NewOrderStatusChangedEvent(order *Order, oldStatus OrderStatus) (*OutboxMessage, error) {
	return newOutboxMessage("order", order.ID, EventOrderStatusChanged, map[string]interface{}{
		"order_id":     order.ID,
		"customer_id":  order.CustomerID,
		"old_status":   oldStatus,
		"new_status":   order.Status,
		"total_amount": order.TotalAmount,
	})
}

// NewDeliveryAssignedEvent records a courier assignment.
func NewDeliveryAssignedEvent(delivery *Delivery) (*OutboxMessage, error) {
	return newOutboxMessage("delivery", delivery.ID, EventDeliveryAssigned, delivery)
}

// OrderStatusChangedData is the payload shape of an order_status_changed
// event, used by consumers.
type OrderStatusChangedData struct {
	OrderID     string      `json:"order_id"`
	CustomerID  string      `json:"customer_id"`
	OldStatus   OrderStatus `json:"old_status"`
	NewStatus   OrderStatus `json:"new_status"`
	TotalAmount float64     `json:"total_amount"`
}
