package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Shopify/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshmart/grocery-api/internal/models"
	"github.com/freshmart/grocery-api/internal/repository"
	"github.com/freshmart/grocery-api/pkg/logger"
)

type recordingLoyaltyStore struct {
	created []*models.LoyaltyTransaction
	err     error
}

func (s *recordingLoyaltyStore) Create(_ context.Context, tx *models.LoyaltyTransaction) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, tx)
	return nil
}

func statusChangedMessage(t *testing.T, newStatus models.OrderStatus, total float64) *sarama.ConsumerMessage {
	t.Helper()

	payload, err := json.Marshal(models.EventEnvelope{
		EventType:   models.EventOrderStatusChanged,
		EventID:     "evt-1",
		AggregateID: "ord-1",
		Data: models.OrderStatusChangedData{
			OrderID:     "ord-1",
			CustomerID:  "cus-1",
			OldStatus:   models.OrderStatusReadyForDelivery,
			NewStatus:   newStatus,
			TotalAmount: total,
		},
	})
	require.NoError(t, err)

	return &sarama.ConsumerMessage{Topic: "freshmart.orders", Value: payload}
}

func TestAwardsPointsOnCompletedOrder(t *testing.T) {
	store := &recordingLoyaltyStore{}
	h := NewLoyaltyEventsHandler(store, logger.New("error"))

	err := h.HandleMessage(context.Background(), statusChangedMessage(t, models.OrderStatusCompleted, 1450))
	require.NoError(t, err)

	require.Len(t, store.created, 1)
	assert.Equal(t, "cus-1", store.created[0].CustomerID)
	assert.Equal(t, "ord-1", store.created[0].OrderID)
	// One point per 100 currency units, floored.
	assert.Equal(t, 14, store.created[0].Points)
}

func TestIgnoresNonCompletedTransitions(t *testing.T) {
	store := &recordingLoyaltyStore{}
	h := NewLoyaltyEventsHandler(store, logger.New("error"))

	err := h.HandleMessage(context.Background(), statusChangedMessage(t, models.OrderStatusCancelled, 1450))
	require.NoError(t, err)
	assert.Empty(t, store.created)
}

func TestIgnoresOtherEventTypes(t *testing.T) {
	store := &recordingLoyaltyStore{}
	h := NewLoyaltyEventsHandler(store, logger.New("error"))

	payload, err := json.Marshal(models.EventEnvelope{EventType: models.EventOrderPlaced, AggregateID: "ord-1"})
	require.NoError(t, err)

	err = h.HandleMessage(context.Background(), &sarama.ConsumerMessage{Value: payload})
	require.NoError(t, err)
	assert.Empty(t, store.created)
}

func TestSkipsZeroPointOrders(t *testing.T) {
	store := &recordingLoyaltyStore{}
	h := NewLoyaltyEventsHandler(store, logger.New("error"))

	err := h.HandleMessage(context.Background(), statusChangedMessage(t, models.OrderStatusCompleted, 99))
	require.NoError(t, err)
	assert.Empty(t, store.created)
}

func TestRedeliveredEventIsIdempotent(t *testing.T) {
	store := &recordingLoyaltyStore{err: repository.ErrDuplicate}
	h := NewLoyaltyEventsHandler(store, logger.New("error"))

	// A duplicate award means the points already exist; the message must be
	// acknowledged, not retried.
	err := h.HandleMessage(context.Background(), statusChangedMessage(t, models.OrderStatusCompleted, 1450))
	assert.NoError(t, err)
}

func TestStoreFailurePropagatesForRetry(t *testing.T) {
	store := &recordingLoyaltyStore{err: errors.New("connection refused")}
	h := NewLoyaltyEventsHandler(store, logger.New("error"))

	err := h.HandleMessage(context.Background(), statusChangedMessage(t, models.OrderStatusCompleted, 1450))
	assert.Error(t, err)
}

func TestDropsMalformedPayload(t *testing.T) {
	store := &recordingLoyaltyStore{}
	h := NewLoyaltyEventsHandler(store, logger.New("error"))

	err := h.HandleMessage(context.Background(), &sarama.ConsumerMessage{Value: []byte("{not json")})
	assert.NoError(t, err)
	assert.Empty(t, store.created)
}
