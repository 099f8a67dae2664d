package models

import (
	"time"
)

// PurchaseOrderStatus of a replenishment order sent to a supplier.
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusOrdered   PurchaseOrderStatus = "Ordered"
	PurchaseOrderStatusReceived  PurchaseOrderStatus = "Received"
	PurchaseOrderStatusCancelled PurchaseOrderStatus = "Cancelled"
)

// PurchaseOrder requests restocking of one product.
type PurchaseOrder struct {
	ID              string              `db:"id" json:"id"`
	ProductID       string              `db:"product_id" json:"product_id"`
	QuantityOrdered int                 `db:"quantity_ordered" json:"quantity_ordered"`
	Status          PurchaseOrderStatus `db:"status" json:"status"`
	CreatedAt       time.Time           `db:"created_at" json:"created_at"`
	ReceivedAt      *time.Time          `db:"received_at" json:"received_at,omitempty"`
}

// NewPurchaseOrder creates an open purchase order for a product.
func NewPurchaseOrder(productID string, quantity int) *PurchaseOrder {
	return &PurchaseOrder{
		ID:              GenerateID("pon"),
		ProductID:       productID,
		QuantityOrdered: quantity,
		Status:          PurchaseOrderStatusOrdered,
		CreatedAt:       Now(),
	}
}
