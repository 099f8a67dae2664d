package repository

import (
	"context"
	"fmt"

	"github.com/freshmart/grocery-api/internal/database"
	"github.com/freshmart/grocery-api/internal/models"
	"github.com/freshmart/grocery-api/pkg/logger"
)

// LoyaltyRepository handles database operations for loyalty points.
type LoyaltyRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewLoyaltyRepository creates a LoyaltyRepository.
func NewLoyaltyRepository(db *database.Database, logger logger.Logger) *LoyaltyRepository {
	return &LoyaltyRepository{db: db, logger: logger}
}

// Create records a points award. ErrDuplicate when points were already
// awarded for this order, which callers treat as success under event
// redelivery.
func (r *LoyaltyRepository) Create(ctx context.Context, tx *models.LoyaltyTransaction) error {
	query := `
		INSERT INTO loyalty_transactions (customer_id, order_id, points, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := ext(ctx, r.db).QueryRowxContext(ctx, query, tx.CustomerID, tx.OrderID, tx.Points, tx.CreatedAt).Scan(&tx.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		r.logger.Error("Failed to create loyalty transaction", "error", err, "orderID", tx.OrderID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// GetByCustomerID retrieves a customer's loyalty transactions, newest first.
func (r *LoyaltyRepository) GetByCustomerID(ctx context.Context, customerID string, limit, offset int) ([]*models.LoyaltyTransaction, error) {
	query := `
		SELECT id, customer_id, order_id, points, created_at
		FROM loyalty_transactions
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	var txs []*models.LoyaltyTransaction
	if err := sqlxSelect(ctx, r.db, &txs, query, customerID, limit, offset); err != nil {
		r.logger.Error("Failed to list loyalty transactions", "error", err, "customerID", customerID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return txs, nil
}

// GetBalance returns a customer's total points.
func (r *LoyaltyRepository) GetBalance(ctx context.Context, customerID string) (int, error) {
	query := `SELECT COALESCE(SUM(points), 0) FROM loyalty_transactions WHERE customer_id = $1`

	var balance int
	if err := sqlxGet(ctx, r.db, &balance, query, customerID); err != nil {
		r.logger.Error("Failed to get loyalty balance", "error", err, "customerID", customerID)
		return 0, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return balance, nil
}
