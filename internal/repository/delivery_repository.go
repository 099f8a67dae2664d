package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/freshmart/grocery-api/internal/database"
	"github.com/freshmart/grocery-api/internal/models"
	"github.com/freshmart/grocery-api/pkg/logger"
)

// DeliveryRepository handles database operations for deliveries.
type DeliveryRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewDeliveryRepository creates a DeliveryRepository.
func NewDeliveryRepository(db *database.Database, logger logger.Logger) *DeliveryRepository {
	return &DeliveryRepository{db: db, logger: logger}
}

// Create inserts a new delivery.
func (r *DeliveryRepository) Create(ctx context.Context, delivery *models.Delivery) error {
	query := `
		INSERT INTO deliveries (id, order_id, staff_id, delivery_date, estimated_delivery_time,
		                        delivery_status, failure_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := ext(ctx, r.db).ExecContext(
		ctx,
		query,
		delivery.ID,
		delivery.OrderID,
		delivery.StaffID,
		delivery.DeliveryDate,
		delivery.EstimatedDeliveryTime,
		delivery.DeliveryStatus,
		delivery.FailureReason,
		delivery.CreatedAt,
		delivery.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		r.logger.Error("Failed to create delivery", "error", err, "deliveryID", delivery.ID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// GetByID retrieves a delivery by its ID.
func (r *DeliveryRepository) GetByID(ctx context.Context, id string) (*models.Delivery, error) {
	query := deliverySelect + ` WHERE id = $1`

	var delivery models.Delivery
	if err := sqlxGet(ctx, r.db, &delivery, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get delivery", "error", err, "deliveryID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &delivery, nil
}

// GetByOrderID retrieves the delivery for an order, or ErrNotFound when the
// order has none.
func (r *DeliveryRepository) GetByOrderID(ctx context.Context, orderID string) (*models.Delivery, error) {
	query := deliverySelect + ` WHERE order_id = $1 ORDER BY created_at DESC LIMIT 1`

	var delivery models.Delivery
	if err := sqlxGet(ctx, r.db, &delivery, query, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get delivery for order", "error", err, "orderID", orderID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &delivery, nil
}

// GetByStaffID retrieves a courier's deliveries, newest first.
func (r *DeliveryRepository) GetByStaffID(ctx context.Context, staffID string, limit, offset int) ([]*models.Delivery, error) {
	query := deliverySelect + ` WHERE staff_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	var deliveries []*models.Delivery
	if err := sqlxSelect(ctx, r.db, &deliveries, query, staffID, limit, offset); err != nil {
		r.logger.Error("Failed to list deliveries for staff", "error", err, "staffID", staffID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return deliveries, nil
}

// UpdateStatus transitions a delivery, recording the failure reason when
// present.
func (r *DeliveryRepository) UpdateStatus(ctx context.Context, id string, status models.DeliveryStatus, failureReason *string) error {
	query := `
		UPDATE deliveries
		SET delivery_status = $1, failure_reason = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := ext(ctx, r.db).ExecContext(ctx, query, status, failureReason, models.Now(), id)
	if err != nil {
		r.logger.Error("Failed to update delivery status", "error", err, "deliveryID", id)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return requireRowsAffected(result)
}

const deliverySelect = `
	SELECT id, order_id, staff_id, delivery_date, estimated_delivery_time,
	       delivery_status, failure_reason, created_at, updated_at
	FROM deliveries`
