package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshmart/grocery-api/internal/models"
	apperrors "github.com/freshmart/grocery-api/pkg/errors"
)

// placeAssigned places an order with a seeded courier and returns the
// delivery produced by the assignment.
func placeAssigned(t *testing.T, f *orderFixture) (*models.Staff, *models.Order, *models.Delivery) {
	t.Helper()

	courier := f.addCourier(t)
	rice := f.addProduct(t, "Rice 5kg", 450, 10)

	placed, err := f.svc.PlaceOrder(context.Background(), f.customer.ID, codOrder(
		CartItem{ProductID: rice.ID, Quantity: 1},
	))
	require.NoError(t, err)
	require.NotNil(t, placed.Order.Delivery)

	return courier, &placed.Order.Order, placed.Order.Delivery
}

func TestAssignToOrderReportsNoStaff(t *testing.T) {
	f := newOrderFixture(t)
	order := models.NewOrder(f.customer.ID, 650, models.PaymentMethodCashOnDelivery, "12 Galle Road", nil)

	result := f.delivery.AssignToOrder(context.Background(), order)

	assert.Equal(t, AssignmentNoStaffAvailable, result.Outcome)
	assert.Nil(t, result.Delivery)
	assert.NoError(t, result.Err)
}

func TestAssignToOrderSkipsInactiveCouriers(t *testing.T) {
	f := newOrderFixture(t)
	inactive := models.NewStaff("Retired", "retired@example.com", models.RoleDeliveryStaff)
	inactive.IsActive = false
	require.NoError(t, f.staff.Create(context.Background(), inactive))

	order := models.NewOrder(f.customer.ID, 650, models.PaymentMethodCashOnDelivery, "12 Galle Road", nil)
	result := f.delivery.AssignToOrder(context.Background(), order)

	assert.Equal(t, AssignmentNoStaffAvailable, result.Outcome)
}

func TestAssignToOrderEmitsAssignmentEvent(t *testing.T) {
	f := newOrderFixture(t)
	placeAssigned(t, f)

	assert.Contains(t, f.outbox.eventTypes(), models.EventDeliveryAssigned)
}

func TestUpdateStatusWalksLifecycle(t *testing.T) {
	f := newOrderFixture(t)
	courier, order, delivery := placeAssigned(t, f)

	updated, err := f.delivery.UpdateStatus(context.Background(), delivery.ID, models.DeliveryStatusInTransit, nil, courier.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryStatusInTransit, updated.DeliveryStatus)

	updated, err = f.delivery.UpdateStatus(context.Background(), delivery.ID, models.DeliveryStatusDelivered, nil, courier.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryStatusDelivered, updated.DeliveryStatus)

	// Delivering completes the owning order.
	stored, err := f.orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, stored.Status)
	assert.Contains(t, f.outbox.eventTypes(), models.EventOrderStatusChanged)
}

func TestUpdateStatusRejectsInvalidTransition(t *testing.T) {
	f := newOrderFixture(t)
	courier, _, delivery := placeAssigned(t, f)

	_, err := f.delivery.UpdateStatus(context.Background(), delivery.ID, models.DeliveryStatusDelivered, nil, courier.ID)
	require.NoError(t, err)

	// Delivered is final.
	_, err = f.delivery.UpdateStatus(context.Background(), delivery.ID, models.DeliveryStatusInTransit, nil, courier.ID)
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.StatusCode(err))
}

func TestUpdateStatusFailedRequiresReason(t *testing.T) {
	f := newOrderFixture(t)
	courier, _, delivery := placeAssigned(t, f)

	_, err := f.delivery.UpdateStatus(context.Background(), delivery.ID, models.DeliveryStatusFailed, nil, courier.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failure reason is required")

	reason := "Customer not home"
	updated, err := f.delivery.UpdateStatus(context.Background(), delivery.ID, models.DeliveryStatusFailed, &reason, courier.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.FailureReason)
	assert.Equal(t, reason, *updated.FailureReason)
}

func TestUpdateStatusEnforcesCourierOwnership(t *testing.T) {
	f := newOrderFixture(t)
	_, _, delivery := placeAssigned(t, f)

	_, err := f.delivery.UpdateStatus(context.Background(), delivery.ID, models.DeliveryStatusInTransit, nil, "stf-other")
	require.Error(t, err)
	assert.Equal(t, 403, apperrors.StatusCode(err))

	// An empty actor (admin path) bypasses the ownership check.
	_, err = f.delivery.UpdateStatus(context.Background(), delivery.ID, models.DeliveryStatusInTransit, nil, "")
	assert.NoError(t, err)
}

func TestUpdateStatusUnknownDelivery(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.delivery.UpdateStatus(context.Background(), "dlv-missing", models.DeliveryStatusInTransit, nil, "")
	require.Error(t, err)
	assert.Equal(t, 404, apperrors.StatusCode(err))
}

func TestDeliveredOrderStaysCompletedOnRedelivery(t *testing.T) {
	f := newOrderFixture(t)
	courier, order, delivery := placeAssigned(t, f)

	_, err := f.delivery.UpdateStatus(context.Background(), delivery.ID, models.DeliveryStatusDelivered, nil, courier.ID)
	require.NoError(t, err)

	// Cancel after delivery must not be possible through the order side.
	_, err = f.svc.CancelOrder(context.Background(), f.customer.ID, order.ID)
	require.Error(t, err)

	stored, err := f.orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, stored.Status)
}

func TestListForStaffFiltersByCourier(t *testing.T) {
	f := newOrderFixture(t)
	courier, _, _ := placeAssigned(t, f)

	mine, err := f.delivery.ListForStaff(context.Background(), courier.ID, 20, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	none, err := f.delivery.ListForStaff(context.Background(), "stf-other", 20, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}
