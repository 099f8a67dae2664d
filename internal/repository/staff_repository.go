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

// StaffRepository handles database operations for the staff directory.
type StaffRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewStaffRepository creates a StaffRepository.
func NewStaffRepository(db *database.Database, logger logger.Logger) *StaffRepository {
	return &StaffRepository{db: db, logger: logger}
}

// Create inserts a new staff member.
func (r *StaffRepository) Create(ctx context.Context, staff *models.Staff) error {
	query := `
		INSERT INTO staff (id, name, email, role, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := ext(ctx, r.db).ExecContext(ctx, query, staff.ID, staff.Name, staff.Email, staff.Role, staff.IsActive, staff.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		r.logger.Error("Failed to create staff member", "error", err, "staffID", staff.ID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// GetByID retrieves a staff member by ID.
func (r *StaffRepository) GetByID(ctx context.Context, id string) (*models.Staff, error) {
	query := `SELECT id, name, email, role, is_active, created_at FROM staff WHERE id = $1`

	var staff models.Staff
	if err := sqlxGet(ctx, r.db, &staff, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get staff member", "error", err, "staffID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &staff, nil
}

// GetAll retrieves the staff directory.
func (r *StaffRepository) GetAll(ctx context.Context, limit, offset int) ([]*models.Staff, error) {
	query := `SELECT id, name, email, role, is_active, created_at FROM staff ORDER BY name ASC LIMIT $1 OFFSET $2`

	var staff []*models.Staff
	if err := sqlxSelect(ctx, r.db, &staff, query, limit, offset); err != nil {
		r.logger.Error("Failed to list staff", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return staff, nil
}

// FindActiveByRole returns one active staff member with the given role, or
// ErrNotFound when none exists. Couriers with the fewest open deliveries
// are preferred, so assignments spread across the team.
func (r *StaffRepository) FindActiveByRole(ctx context.Context, role string) (*models.Staff, error) {
	query := `
		SELECT s.id, s.name, s.email, s.role, s.is_active, s.created_at
		FROM staff s
		LEFT JOIN deliveries d ON d.staff_id = s.id AND d.delivery_status IN ('Pending', 'In Transit')
		WHERE s.role = $1 AND s.is_active = TRUE
		GROUP BY s.id
		ORDER BY COUNT(d.id) ASC, s.created_at ASC
		LIMIT 1
	`

	var staff models.Staff
	if err := sqlxGet(ctx, r.db, &staff, query, role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to find active staff by role", "error", err, "role", role)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &staff, nil
}
