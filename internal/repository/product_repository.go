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

// ProductRepository handles database operations for the product catalog.
type ProductRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewProductRepository creates a ProductRepository.
func NewProductRepository(db *database.Database, logger logger.Logger) *ProductRepository {
	return &ProductRepository{db: db, logger: logger}
}

// Create inserts a new product.
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	query := `
		INSERT INTO products (id, name, category, price, quantity_in_stock, reorder_level, reorder_quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := ext(ctx, r.db).ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Category,
		product.Price,
		product.QuantityInStock,
		product.ReorderLevel,
		product.ReorderQuantity,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		r.logger.Error("Failed to create product", "error", err, "productID", product.ID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	query := `
		SELECT id, name, category, price, quantity_in_stock, reorder_level, reorder_quantity, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	var product models.Product
	if err := sqlxGet(ctx, r.db, &product, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get product", "error", err, "productID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &product, nil
}

// GetAll retrieves products ordered by name.
func (r *ProductRepository) GetAll(ctx context.Context, limit, offset int) ([]*models.Product, error) {
	query := `
		SELECT id, name, category, price, quantity_in_stock, reorder_level, reorder_quantity, created_at, updated_at
		FROM products
		ORDER BY name ASC
		LIMIT $1 OFFSET $2
	`

	var products []*models.Product
	if err := sqlxSelect(ctx, r.db, &products, query, limit, offset); err != nil {
		r.logger.Error("Failed to list products", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return products, nil
}

// Update rewrites a product's mutable fields.
func (r *ProductRepository) Update(ctx context.Context, product *models.Product) error {
	query := `
		UPDATE products
		SET name = $1, category = $2, price = $3, quantity_in_stock = $4,
		    reorder_level = $5, reorder_quantity = $6, updated_at = $7
		WHERE id = $8
	`

	result, err := ext(ctx, r.db).ExecContext(
		ctx,
		query,
		product.Name,
		product.Category,
		product.Price,
		product.QuantityInStock,
		product.ReorderLevel,
		product.ReorderQuantity,
		models.Now(),
		product.ID,
	)

	if err != nil {
		r.logger.Error("Failed to update product", "error", err, "productID", product.ID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return requireRowsAffected(result)
}

// Delete removes a product.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	result, err := ext(ctx, r.db).ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete product", "error", err, "productID", id)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return requireRowsAffected(result)
}

// DecrementStock atomically subtracts quantity from a product's stock,
// failing with ErrInsufficientStock when the remaining stock does not cover
// the request. The condition and the decrement are a single statement, so
// concurrent orders cannot oversell.
func (r *ProductRepository) DecrementStock(ctx context.Context, id string, quantity int) error {
	query := `
		UPDATE products
		SET quantity_in_stock = quantity_in_stock - $1, updated_at = $2
		WHERE id = $3 AND quantity_in_stock >= $1
	`

	result, err := ext(ctx, r.db).ExecContext(ctx, query, quantity, models.Now(), id)
	if err != nil {
		r.logger.Error("Failed to decrement stock", "error", err, "productID", id)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	if rows == 0 {
		return ErrInsufficientStock
	}

	return nil
}

// IncrementStock adds quantity back to a product's stock (cancellation,
// purchase-order receipt).
func (r *ProductRepository) IncrementStock(ctx context.Context, id string, quantity int) error {
	query := `
		UPDATE products
		SET quantity_in_stock = quantity_in_stock + $1, updated_at = $2
		WHERE id = $3
	`

	result, err := ext(ctx, r.db).ExecContext(ctx, query, quantity, models.Now(), id)
	if err != nil {
		r.logger.Error("Failed to increment stock", "error", err, "productID", id)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return requireRowsAffected(result)
}

// GetLowStock retrieves products at or below their reorder level.
func (r *ProductRepository) GetLowStock(ctx context.Context) ([]*models.Product, error) {
	query := `
		SELECT id, name, category, price, quantity_in_stock, reorder_level, reorder_quantity, created_at, updated_at
		FROM products
		WHERE quantity_in_stock <= reorder_level
		ORDER BY quantity_in_stock ASC
	`

	var products []*models.Product
	if err := sqlxSelect(ctx, r.db, &products, query); err != nil {
		r.logger.Error("Failed to list low-stock products", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return products, nil
}
