package service

import (
	"context"

	"github.com/freshmart/grocery-api/internal/models"
)

// The services depend on narrow store interfaces rather than the concrete
// sqlx repositories, so the workflow logic can be exercised against
// in-memory fakes. The repository package satisfies all of them.

// TxRunner executes fn inside a database transaction carried in the context.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// OrderStore persists orders and their line items.
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	CreateItem(ctx context.Context, item *models.OrderItem) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	GetByCustomerID(ctx context.Context, customerID string, limit, offset int) ([]*models.Order, error)
	GetItems(ctx context.Context, orderID string) ([]models.OrderItemDetail, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error
	UpdateDetails(ctx context.Context, id string, address *string, instructions *string) error
}

// ProductStore reads and mutates the catalog.
type ProductStore interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id string) (*models.Product, error)
	GetAll(ctx context.Context, limit, offset int) ([]*models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
	DecrementStock(ctx context.Context, id string, quantity int) error
	IncrementStock(ctx context.Context, id string, quantity int) error
	GetLowStock(ctx context.Context) ([]*models.Product, error)
}

// DeliveryStore persists deliveries.
type DeliveryStore interface {
	Create(ctx context.Context, delivery *models.Delivery) error
	GetByID(ctx context.Context, id string) (*models.Delivery, error)
	GetByOrderID(ctx context.Context, orderID string) (*models.Delivery, error)
	GetByStaffID(ctx context.Context, staffID string, limit, offset int) ([]*models.Delivery, error)
	UpdateStatus(ctx context.Context, id string, status models.DeliveryStatus, failureReason *string) error
}

// StaffStore reads the staff directory.
type StaffStore interface {
	Create(ctx context.Context, staff *models.Staff) error
	GetByID(ctx context.Context, id string) (*models.Staff, error)
	GetAll(ctx context.Context, limit, offset int) ([]*models.Staff, error)
	FindActiveByRole(ctx context.Context, role string) (*models.Staff, error)
}

// CustomerStore persists customer accounts.
type CustomerStore interface {
	Create(ctx context.Context, customer *models.Customer) error
	GetByID(ctx context.Context, id string) (*models.Customer, error)
	GetByEmail(ctx context.Context, email string) (*models.Customer, error)
}

// PurchaseOrderStore persists replenishment orders.
type PurchaseOrderStore interface {
	Create(ctx context.Context, po *models.PurchaseOrder) error
	GetByID(ctx context.Context, id string) (*models.PurchaseOrder, error)
	GetAll(ctx context.Context, limit, offset int) ([]*models.PurchaseOrder, error)
	HasOpenForProduct(ctx context.Context, productID string) (bool, error)
	MarkReceived(ctx context.Context, id string) error
}

// LoyaltyStore persists loyalty transactions.
type LoyaltyStore interface {
	Create(ctx context.Context, tx *models.LoyaltyTransaction) error
	GetByCustomerID(ctx context.Context, customerID string, limit, offset int) ([]*models.LoyaltyTransaction, error)
	GetBalance(ctx context.Context, customerID string) (int, error)
}

// OutboxStore appends domain events inside the ambient transaction.
type OutboxStore interface {
	Create(ctx context.Context, message *models.OutboxMessage) error
}

// ProductCache is the optional catalog read cache.
type ProductCache interface {
	Get(ctx context.Context, id string) (*models.Product, error)
	Set(ctx context.Context, product *models.Product) error
	Invalidate(ctx context.Context, id string) error
}

// PaymentGateway opens payment intents for online-payment orders.
type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, req *PaymentIntentRequest) (*PaymentIntentResponse, error)
}

// PaymentIntentRequest mirrors the gateway client request.
type PaymentIntentRequest struct {
	OrderID    string  `json:"order_id"`
	CustomerID string  `json:"customer_id"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
}

// PaymentIntentResponse mirrors the gateway client response.
type PaymentIntentResponse struct {
	IntentID   string `json:"intent_id,omitempty"`
	Status     string `json:"status,omitempty"`
	PaymentURL string `json:"payment_url,omitempty"`
}
