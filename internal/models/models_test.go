package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateIDUsesUppercasePrefix(t *testing.T) {
	id := GenerateID("ord")

	assert.True(t, strings.HasPrefix(id, "ORD-"))
	assert.Len(t, id, len("ORD-")+8)
	assert.NotEqual(t, id, GenerateID("ord"))
}

func TestOrderStatusTerminality(t *testing.T) {
	assert.True(t, OrderStatusCompleted.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.False(t, OrderStatusPending.IsTerminal())
	assert.False(t, OrderStatusProcessing.IsTerminal())
	assert.False(t, OrderStatusReadyForDelivery.IsTerminal())
}

func TestPaymentMethodValidity(t *testing.T) {
	assert.True(t, PaymentMethodCashOnDelivery.IsValid())
	assert.True(t, PaymentMethodOnline.IsValid())
	assert.False(t, PaymentMethod("Cheque").IsValid())
	assert.False(t, PaymentMethod("").IsValid())
}

func TestPointsForTotalFloors(t *testing.T) {
	assert.Equal(t, 0, PointsForTotal(0))
	assert.Equal(t, 0, PointsForTotal(99.99))
	assert.Equal(t, 1, PointsForTotal(100))
	assert.Equal(t, 14, PointsForTotal(1450))
	assert.Equal(t, 0, PointsForTotal(-500))
}

func TestNewDeliveryEstimatesDeliveryTime(t *testing.T) {
	d := NewDelivery("ord-1", "stf-1")

	assert.Equal(t, DeliveryStatusPending, d.DeliveryStatus)
	assert.Equal(t, EstimatedDeliveryOffset, d.EstimatedDeliveryTime.Sub(d.DeliveryDate))
}
