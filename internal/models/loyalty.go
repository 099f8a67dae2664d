package models

import (
	"time"
)

// LoyaltyPointsPerCurrency: one point is awarded per 100 currency units of
// a completed order's total.
const LoyaltyPointsPerCurrency = 100

// LoyaltyTransaction records points awarded to a customer for one order.
// The (customer_id, order_id) pair is unique, which makes awarding
// idempotent under event redelivery.
type LoyaltyTransaction struct {
	ID         int64     `db:"id" json:"id"`
	CustomerID string    `db:"customer_id" json:"customer_id"`
	OrderID    string    `db:"order_id" json:"order_id"`
	Points     int       `db:"points" json:"points"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// PointsForTotal computes the points awarded for an order total.
func PointsForTotal(total float64) int {
	if total <= 0 {
		return 0
	}
	return int(total) / LoyaltyPointsPerCurrency
}
