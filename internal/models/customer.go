package models

import (
	"time"
)

// Customer is a storefront account. PasswordHash is bcrypt and never
// serialized.
type Customer struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Phone        *string   `db:"phone" json:"phone,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// NewCustomer creates a customer with a generated identifier.
func NewCustomer(name, email, passwordHash string, phone *string) *Customer {
	return &Customer{
		ID:           GenerateID("cus"),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Phone:        phone,
		CreatedAt:    Now(),
	}
}
