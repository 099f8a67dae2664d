package models

import (
	"time"
)

// RoleDeliveryStaff is the role the assignment workflow filters on.
const RoleDeliveryStaff = "Delivery Staff"

// Staff is a back-office or delivery worker record.
type Staff struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Role      string    `db:"role" json:"role"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NewStaff creates an active staff member.
func NewStaff(name, email, role string) *Staff {
	return &Staff{
		ID:        GenerateID("stf"),
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  true,
		CreatedAt: Now(),
	}
}
