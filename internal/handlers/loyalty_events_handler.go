package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Shopify/sarama"

	"github.com/freshmart/grocery-api/internal/models"
	"github.com/freshmart/grocery-api/internal/repository"
	"github.com/freshmart/grocery-api/pkg/logger"
)

// LoyaltyStore persists point awards.
type LoyaltyStore interface {
	Create(ctx context.Context, tx *models.LoyaltyTransaction) error
}

// LoyaltyEventsHandler consumes order events from Kafka and awards loyalty
// points when an order completes. The unique (customer_id, order_id)
// constraint makes redelivered events a no-op.
type LoyaltyEventsHandler struct {
	loyalty LoyaltyStore
	logger  logger.Logger
}

// NewLoyaltyEventsHandler creates a LoyaltyEventsHandler.
func NewLoyaltyEventsHandler(loyalty LoyaltyStore, logger logger.Logger) *LoyaltyEventsHandler {
	return &LoyaltyEventsHandler{loyalty: loyalty, logger: logger}
}

// HandleMessage awards points for order_status_changed events that moved an
// order to Completed. All other event types on the topic are ignored.
func (h *LoyaltyEventsHandler) HandleMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var envelope models.EventEnvelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		// A malformed payload will never parse on redelivery either.
		h.logger.Error("Dropping undecodable event", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		return nil
	}

	if envelope.EventType != models.EventOrderStatusChanged {
		return nil
	}

	raw, err := json.Marshal(envelope.Data)
	if err != nil {
		return fmt.Errorf("re-encode event data: %w", err)
	}
	var data models.OrderStatusChangedData
	if err := json.Unmarshal(raw, &data); err != nil {
		h.logger.Error("Dropping malformed status change event", "eventID", envelope.EventID, "error", err)
		return nil
	}

	if data.NewStatus != models.OrderStatusCompleted {
		return nil
	}

	points := models.PointsForTotal(data.TotalAmount)
	if points <= 0 {
		return nil
	}

	transaction := &models.LoyaltyTransaction{
		CustomerID: data.CustomerID,
		OrderID:    data.OrderID,
		Points:     points,
		CreatedAt:  models.Now(),
	}

	if err := h.loyalty.Create(ctx, transaction); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			h.logger.Debug("Points already awarded", "orderID", data.OrderID)
			return nil
		}
		return err
	}

	h.logger.Info("Loyalty points awarded",
		"customerID", data.CustomerID,
		"orderID", data.OrderID,
		"points", points)
	return nil
}
