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

// CustomerRepository handles database operations for customer accounts.
type CustomerRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewCustomerRepository creates a CustomerRepository.
func NewCustomerRepository(db *database.Database, logger logger.Logger) *CustomerRepository {
	return &CustomerRepository{db: db, logger: logger}
}

// Create inserts a new customer. ErrDuplicate when the email is taken.
func (r *CustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	query := `
		INSERT INTO customers (id, name, email, password_hash, phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := ext(ctx, r.db).ExecContext(ctx, query, customer.ID, customer.Name, customer.Email, customer.PasswordHash, customer.Phone, customer.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		r.logger.Error("Failed to create customer", "error", err, "customerID", customer.ID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// GetByID retrieves a customer by ID.
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*models.Customer, error) {
	query := `SELECT id, name, email, password_hash, phone, created_at FROM customers WHERE id = $1`

	var customer models.Customer
	if err := sqlxGet(ctx, r.db, &customer, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get customer", "error", err, "customerID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &customer, nil
}

// GetByEmail retrieves a customer by email for login.
func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*models.Customer, error) {
	query := `SELECT id, name, email, password_hash, phone, created_at FROM customers WHERE email = $1`

	var customer models.Customer
	if err := sqlxGet(ctx, r.db, &customer, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get customer by email", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &customer, nil
}
