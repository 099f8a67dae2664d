package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/freshmart/grocery-api/internal/models"
	"github.com/freshmart/grocery-api/internal/repository"
	apperrors "github.com/freshmart/grocery-api/pkg/errors"
	"github.com/freshmart/grocery-api/pkg/logger"
)

// AssignmentOutcome classifies the result of a best-effort delivery
// assignment, so operational tooling can distinguish "nobody available"
// from "something broke".
type AssignmentOutcome int

const (
	AssignmentAssigned AssignmentOutcome = iota
	AssignmentNoStaffAvailable
	AssignmentFailed
)

func (o AssignmentOutcome) String() string {
	switch o {
	case AssignmentAssigned:
		return "assigned"
	case AssignmentNoStaffAvailable:
		return "no_staff_available"
	case AssignmentFailed:
		return "assignment_failed"
	}
	return "unknown"
}

// AssignmentResult is the typed outcome of AssignToOrder.
type AssignmentResult struct {
	Outcome  AssignmentOutcome
	Delivery *models.Delivery
	Err      error
}

// DeliveryAssigner is the best-effort assignment dependency of the order
// workflow.
type DeliveryAssigner interface {
	AssignToOrder(ctx context.Context, order *models.Order) AssignmentResult
}

// DeliveryService manages courier assignments and delivery lifecycle.
type DeliveryService struct {
	deliveries DeliveryStore
	orders     OrderStore
	staff      StaffStore
	outbox     OutboxStore
	tx         TxRunner
	logger     logger.Logger
}

// NewDeliveryService creates a DeliveryService.
func NewDeliveryService(
	deliveries DeliveryStore,
	orders OrderStore,
	staff StaffStore,
	outbox OutboxStore,
	tx TxRunner,
	logger logger.Logger,
) *DeliveryService {
	return &DeliveryService{
		deliveries: deliveries,
		orders:     orders,
		staff:      staff,
		outbox:     outbox,
		tx:         tx,
		logger:     logger,
	}
}

// AssignToOrder attempts to assign an active courier to a freshly placed
// order. It never returns an error: failures are captured in the result and
// the order proceeds unassigned.
func (s *DeliveryService) AssignToOrder(ctx context.Context, order *models.Order) AssignmentResult {
	courier, err := s.staff.FindActiveByRole(ctx, models.RoleDeliveryStaff)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return AssignmentResult{Outcome: AssignmentNoStaffAvailable}
		}
		return AssignmentResult{Outcome: AssignmentFailed, Err: err}
	}

	delivery := models.NewDelivery(order.ID, courier.ID)

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.deliveries.Create(ctx, delivery); err != nil {
			return err
		}
		if err := s.orders.UpdateStatus(ctx, order.ID, models.OrderStatusReadyForDelivery); err != nil {
			return err
		}

		event, err := models.NewDeliveryAssignedEvent(delivery)
		if err != nil {
			return err
		}
		return s.outbox.Create(ctx, event)
	})
	if err != nil {
		return AssignmentResult{Outcome: AssignmentFailed, Err: err}
	}

	s.logger.Info("Delivery assigned",
		"deliveryID", delivery.ID,
		"orderID", order.ID,
		"staffID", courier.ID,
		"estimatedDeliveryTime", delivery.EstimatedDeliveryTime)

	return AssignmentResult{Outcome: AssignmentAssigned, Delivery: delivery}
}

// UpdateStatus transitions a delivery. actorStaffID, when non-empty, must
// match the assigned courier. Marking a delivery Delivered completes the
// owning order in the same transaction; Failed requires a reason.
func (s *DeliveryService) UpdateStatus(ctx context.Context, deliveryID string, status models.DeliveryStatus, failureReason *string, actorStaffID string) (*models.Delivery, error) {
	delivery, err := s.deliveries.GetByID(ctx, deliveryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("Delivery not found")
		}
		return nil, err
	}

	if actorStaffID != "" && delivery.StaffID != actorStaffID {
		return nil, apperrors.NewForbiddenError("Delivery is assigned to a different staff member")
	}

	if err := validateDeliveryTransition(delivery.DeliveryStatus, status); err != nil {
		return nil, err
	}

	if status == models.DeliveryStatusFailed && (failureReason == nil || *failureReason == "") {
		return nil, apperrors.NewInvalidInputError("A failure reason is required")
	}
	if status != models.DeliveryStatusFailed {
		failureReason = nil
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.deliveries.UpdateStatus(ctx, deliveryID, status, failureReason); err != nil {
			return err
		}

		if status != models.DeliveryStatusDelivered {
			return nil
		}

		// A delivered order is complete and thereafter immutable.
		order, err := s.orders.GetByID(ctx, delivery.OrderID)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return nil
		}

		oldStatus := order.Status
		if err := s.orders.UpdateStatus(ctx, order.ID, models.OrderStatusCompleted); err != nil {
			return err
		}

		order.Status = models.OrderStatusCompleted
		event, err := models.NewOrderStatusChangedEvent(order, oldStatus)
		if err != nil {
			return err
		}
		return s.outbox.Create(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	delivery.DeliveryStatus = status
	delivery.FailureReason = failureReason

	s.logger.Info("Delivery status updated",
		"deliveryID", deliveryID,
		"status", status,
		"orderID", delivery.OrderID)

	return delivery, nil
}

// ListForStaff returns a courier's deliveries.
func (s *DeliveryService) ListForStaff(ctx context.Context, staffID string, limit, offset int) ([]*models.Delivery, error) {
	return s.deliveries.GetByStaffID(ctx, staffID, limit, offset)
}

func validateDeliveryTransition(from, to models.DeliveryStatus) error {
	allowed := map[models.DeliveryStatus][]models.DeliveryStatus{
		models.DeliveryStatusPending:   {models.DeliveryStatusInTransit, models.DeliveryStatusDelivered, models.DeliveryStatusFailed},
		models.DeliveryStatusInTransit: {models.DeliveryStatusDelivered, models.DeliveryStatusFailed},
	}

	for _, candidate := range allowed[from] {
		if candidate == to {
			return nil
		}
	}

	return apperrors.New(apperrors.ErrConflict,
		fmt.Sprintf("Cannot transition delivery from %q to %q", from, to), 400, false)
}
