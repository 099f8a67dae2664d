package models

import (
	"time"
)

// OrderStatus is the lifecycle state of an order. Transitions are
// one-directional except cancellation, which is reachable from any
// non-terminal state. Completed and Cancelled are terminal.
type OrderStatus string

const (
	OrderStatusPending          OrderStatus = "Pending"
	OrderStatusProcessing       OrderStatus = "Processing"
	OrderStatusReadyForDelivery OrderStatus = "Ready for Delivery"
	OrderStatusCompleted        OrderStatus = "Completed"
	OrderStatusCancelled        OrderStatus = "Cancelled"
)

// IsTerminal reports whether the status admits no further transitions.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// PaymentStatus of an order.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "Pending"
	PaymentStatusPaid    PaymentStatus = "Paid"
	PaymentStatusFailed  PaymentStatus = "Failed"
)

// PaymentMethod chosen at checkout.
type PaymentMethod string

const (
	PaymentMethodCashOnDelivery PaymentMethod = "Cash on Delivery"
	PaymentMethodOnline         PaymentMethod = "Online Payment"
)

// IsValid reports whether the method is one of the accepted values.
func (m PaymentMethod) IsValid() bool {
	return m == PaymentMethodCashOnDelivery || m == PaymentMethodOnline
}

// Order is a customer's checkout transaction.
type Order struct {
	ID                  string        `db:"id" json:"id"`
	CustomerID          string        `db:"customer_id" json:"customer_id"`
	Status              OrderStatus   `db:"status" json:"status"`
	TotalAmount         float64       `db:"total_amount" json:"total_amount"`
	PaymentStatus       PaymentStatus `db:"payment_status" json:"payment_status"`
	PaymentMethod       PaymentMethod `db:"payment_method" json:"payment_method"`
	DeliveryAddress     string        `db:"delivery_address" json:"delivery_address"`
	SpecialInstructions *string       `db:"special_instructions" json:"special_instructions,omitempty"`
	OrderedAt           time.Time     `db:"ordered_at" json:"ordered_at"`
	UpdatedAt           time.Time     `db:"updated_at" json:"updated_at"`
}

// OrderItem is a line-item snapshot of one product within an order. The
// subtotal is priced at order time and never recomputed from the current
// catalog price.
type OrderItem struct {
	ID        int64   `db:"id" json:"id"`
	OrderID   string  `db:"order_id" json:"order_id"`
	ProductID string  `db:"product_id" json:"product_id"`
	Quantity  int     `db:"quantity" json:"quantity"`
	Subtotal  float64 `db:"subtotal" json:"subtotal"`
}

// OrderItemDetail is an order item enriched with live product data for
// display. The snapshot fields stay authoritative for money.
type OrderItemDetail struct {
	OrderItem
	ProductName  string  `db:"product_name" json:"product_name"`
	CurrentPrice float64 `db:"current_price" json:"current_price"`
}

// OrderView is the composite shape returned to callers: the order joined
// with customer details, item details and the delivery when one exists.
type OrderView struct {
	Order
	CustomerName  string            `json:"customer_name,omitempty"`
	CustomerEmail string            `json:"customer_email,omitempty"`
	OrderItems    []OrderItemDetail `json:"order_items"`
	Delivery      *Delivery         `json:"delivery,omitempty"`
}

// NewOrder creates a pending order for a customer.
func NewOrder(customerID string, totalAmount float64, method PaymentMethod, address string, instructions *string) *Order {
	now := Now()

	return &Order{
		ID:                  GenerateID("ord"),
		CustomerID:          customerID,
		Status:              OrderStatusPending,
		TotalAmount:         totalAmount,
		PaymentStatus:       PaymentStatusPending,
		PaymentMethod:       method,
		DeliveryAddress:     address,
		SpecialInstructions: instructions,
		OrderedAt:           now,
		UpdatedAt:           now,
	}
}
