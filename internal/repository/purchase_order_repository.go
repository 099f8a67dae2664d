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

// PurchaseOrderRepository handles database operations for purchase orders.
type PurchaseOrderRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewPurchaseOrderRepository creates a PurchaseOrderRepository.
func NewPurchaseOrderRepository(db *database.Database, logger logger.Logger) *PurchaseOrderRepository {
	return &PurchaseOrderRepository{db: db, logger: logger}
}

// Create inserts a new purchase order.
func (r *PurchaseOrderRepository) Create(ctx context.Context, po *models.PurchaseOrder) error {
	query := `
		INSERT INTO purchase_orders (id, product_id, quantity_ordered, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := ext(ctx, r.db).ExecContext(ctx, query, po.ID, po.ProductID, po.QuantityOrdered, po.Status, po.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		r.logger.Error("Failed to create purchase order", "error", err, "purchaseOrderID", po.ID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// GetByID retrieves a purchase order by ID.
func (r *PurchaseOrderRepository) GetByID(ctx context.Context, id string) (*models.PurchaseOrder, error) {
	query := `SELECT id, product_id, quantity_ordered, status, created_at, received_at FROM purchase_orders WHERE id = $1`

	var po models.PurchaseOrder
	if err := sqlxGet(ctx, r.db, &po, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get purchase order", "error", err, "purchaseOrderID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &po, nil
}

// GetAll retrieves purchase orders, newest first.
func (r *PurchaseOrderRepository) GetAll(ctx context.Context, limit, offset int) ([]*models.PurchaseOrder, error) {
	query := `
		SELECT id, product_id, quantity_ordered, status, created_at, received_at
		FROM purchase_orders
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	var pos []*models.PurchaseOrder
	if err := sqlxSelect(ctx, r.db, &pos, query, limit, offset); err != nil {
		r.logger.Error("Failed to list purchase orders", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return pos, nil
}

// HasOpenForProduct reports whether an un-received purchase order already
// exists for the product, so auto-generation does not double-order.
func (r *PurchaseOrderRepository) HasOpenForProduct(ctx context.Context, productID string) (bool, error) {
	query := `SELECT COUNT(*) FROM purchase_orders WHERE product_id = $1 AND status = $2`

	var count int
	if err := sqlxGet(ctx, r.db, &count, query, productID, models.PurchaseOrderStatusOrdered); err != nil {
		r.logger.Error("Failed to count open purchase orders", "error", err, "productID", productID)
		return false, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return count > 0, nil
}

// MarkReceived transitions a purchase order to Received.
func (r *PurchaseOrderRepository) MarkReceived(ctx context.Context, id string) error {
	query := `
		UPDATE purchase_orders
		SET status = $1, received_at = $2
		WHERE id = $3 AND status = $4
	`

	result, err := ext(ctx, r.db).ExecContext(ctx, query, models.PurchaseOrderStatusReceived, models.Now(), id, models.PurchaseOrderStatusOrdered)
	if err != nil {
		r.logger.Error("Failed to mark purchase order received", "error", err, "purchaseOrderID", id)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return requireRowsAffected(result)
}
