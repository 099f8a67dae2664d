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

// OrderRepository handles database operations for orders and their items.
type OrderRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewOrderRepository creates an OrderRepository.
func NewOrderRepository(db *database.Database, logger logger.Logger) *OrderRepository {
	return &OrderRepository{db: db, logger: logger}
}

// Create inserts a new order. Returns ErrDuplicate on an ID collision so
// the caller can retry with a fresh identifier.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (id, customer_id, status, total_amount, payment_status, payment_method,
		                    delivery_address, special_instructions, ordered_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := ext(ctx, r.db).ExecContext(
		ctx,
		query,
		order.ID,
		order.CustomerID,
		order.Status,
		order.TotalAmount,
		order.PaymentStatus,
		order.PaymentMethod,
		order.DeliveryAddress,
		order.SpecialInstructions,
		order.OrderedAt,
		order.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		r.logger.Error("Failed to create order", "error", err, "orderID", order.ID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// CreateItem inserts one order line item.
func (r *OrderRepository) CreateItem(ctx context.Context, item *models.OrderItem) error {
	query := `
		INSERT INTO order_items (order_id, product_id, quantity, subtotal)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	if err := ext(ctx, r.db).QueryRowxContext(ctx, query, item.OrderID, item.ProductID, item.Quantity, item.Subtotal).Scan(&item.ID); err != nil {
		r.logger.Error("Failed to create order item", "error", err, "orderID", item.OrderID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// GetByID retrieves an order by its ID.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	query := `
		SELECT id, customer_id, status, total_amount, payment_status, payment_method,
		       delivery_address, special_instructions, ordered_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var order models.Order
	if err := sqlxGet(ctx, r.db, &order, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get order", "error", err, "orderID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &order, nil
}

// GetByCustomerID retrieves a customer's orders, newest first.
func (r *OrderRepository) GetByCustomerID(ctx context.Context, customerID string, limit, offset int) ([]*models.Order, error) {
	query := `
		SELECT id, customer_id, status, total_amount, payment_status, payment_method,
		       delivery_address, special_instructions, ordered_at, updated_at
		FROM orders
		WHERE customer_id = $1
		ORDER BY ordered_at DESC
		LIMIT $2 OFFSET $3
	`

	var orders []*models.Order
	if err := sqlxSelect(ctx, r.db, &orders, query, customerID, limit, offset); err != nil {
		r.logger.Error("Failed to list orders for customer", "error", err, "customerID", customerID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return orders, nil
}

// GetItems retrieves an order's line items joined with live product data
// for display. Subtotals remain the order-time snapshot.
func (r *OrderRepository) GetItems(ctx context.Context, orderID string) ([]models.OrderItemDetail, error) {
	query := `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.subtotal,
		       p.name AS product_name, p.price AS current_price
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id ASC
	`

	var items []models.OrderItemDetail
	if err := sqlxSelect(ctx, r.db, &items, query, orderID); err != nil {
		r.logger.Error("Failed to get order items", "error", err, "orderID", orderID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return items, nil
}

// UpdateStatus transitions an order to a new status.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`

	result, err := ext(ctx, r.db).ExecContext(ctx, query, status, models.Now(), id)
	if err != nil {
		r.logger.Error("Failed to update order status", "error", err, "orderID", id)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return requireRowsAffected(result)
}

// UpdateDetails mutates the only caller-editable fields: delivery address
// and special instructions.
func (r *OrderRepository) UpdateDetails(ctx context.Context, id string, address *string, instructions *string) error {
	query := `
		UPDATE orders
		SET delivery_address = COALESCE($1, delivery_address),
		    special_instructions = COALESCE($2, special_instructions),
		    updated_at = $3
		WHERE id = $4
	`

	result, err := ext(ctx, r.db).ExecContext(ctx, query, address, instructions, models.Now(), id)
	if err != nil {
		r.logger.Error("Failed to update order details", "error", err, "orderID", id)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return requireRowsAffected(result)
}
