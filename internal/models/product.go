package models

import (
	"time"
)

// Product is a catalog entry. Price is authoritative at the moment an order
// is placed; quantity_in_stock never goes negative (enforced by conditional
// decrement and a database check constraint).
type Product struct {
	ID              string    `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Category        string    `db:"category" json:"category,omitempty"`
	Price           float64   `db:"price" json:"price"`
	QuantityInStock int       `db:"quantity_in_stock" json:"quantity_in_stock"`
	ReorderLevel    int       `db:"reorder_level" json:"reorder_level"`
	ReorderQuantity int       `db:"reorder_quantity" json:"reorder_quantity"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// NewProduct creates a product with a generated identifier.
func NewProduct(name, category string, price float64, stock, reorderLevel, reorderQuantity int) *Product {
	now := Now()

	return &Product{
		ID:              GenerateID("prd"),
		Name:            name,
		Category:        category,
		Price:           price,
		QuantityInStock: stock,
		ReorderLevel:    reorderLevel,
		ReorderQuantity: reorderQuantity,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
