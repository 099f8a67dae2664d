package models

import (
	"time"
)

// DeliveryStatus of a fulfillment record.
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "Pending"
	DeliveryStatusInTransit DeliveryStatus = "In Transit"
	DeliveryStatusDelivered DeliveryStatus = "Delivered"
	DeliveryStatusFailed    DeliveryStatus = "Failed"
)

// EstimatedDeliveryOffset is added to the assignment time to produce the
// estimated delivery time.
const EstimatedDeliveryOffset = 2 * time.Hour

// Delivery tracks a courier's assignment for one order.
type Delivery struct {
	ID                    string         `db:"id" json:"id"`
	OrderID               string         `db:"order_id" json:"order_id"`
	StaffID               string         `db:"staff_id" json:"staff_id"`
	DeliveryDate          time.Time      `db:"delivery_date" json:"delivery_date"`
	EstimatedDeliveryTime time.Time      `db:"estimated_delivery_time" json:"estimated_delivery_time"`
	DeliveryStatus        DeliveryStatus `db:"delivery_status" json:"delivery_status"`
	FailureReason         *string        `db:"failure_reason" json:"failure_reason,omitempty"`
	CreatedAt             time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time      `db:"updated_at" json:"updated_at"`
}

// NewDelivery creates a pending delivery assigned to a staff member.
func NewDelivery(orderID, staffID string) *Delivery {
	now := Now()

	return &Delivery{
		ID:                    GenerateID("dlv"),
		OrderID:               orderID,
		StaffID:               staffID,
		DeliveryDate:          now,
		EstimatedDeliveryTime: now.Add(EstimatedDeliveryOffset),
		DeliveryStatus:        DeliveryStatusPending,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}
