package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/freshmart/grocery-api/internal/models"
	"github.com/freshmart/grocery-api/internal/repository"
	apperrors "github.com/freshmart/grocery-api/pkg/errors"
	"github.com/freshmart/grocery-api/pkg/logger"
)

const (
	// DeliveryFee is the flat fee added to every order total.
	DeliveryFee = 200.0
	// CashOnDeliveryLimit caps the total (fee included) eligible for COD.
	// Exactly this amount is still accepted.
	CashOnDeliveryLimit = 2000.0

	// createOrderMaxAttempts bounds retries on a generated-ID collision.
	createOrderMaxAttempts = 3
)

// PlaceOrderInput is a validated-on-entry cart plus delivery metadata.
type PlaceOrderInput struct {
	Items               []CartItem
	DeliveryAddress     string
	SpecialInstructions *string
	PaymentMethod       models.PaymentMethod
}

// CartItem is one product/quantity pair in the request.
type CartItem struct {
	ProductID string
	Quantity  int
}

// PlacedOrder is the composite result of a successful placement.
type PlacedOrder struct {
	Order      models.OrderView   `json:"order"`
	OrderItems []models.OrderItem `json:"order_items"`
	Assignment AssignmentResult   `json:"-"`
}

// OrderService implements the order placement and fulfillment assignment
// workflow.
type OrderService struct {
	orders     OrderStore
	products   ProductStore
	customers  CustomerStore
	deliveries DeliveryStore
	outbox     OutboxStore
	assigner   DeliveryAssigner
	payments   PaymentGateway
	tx         TxRunner
	logger     logger.Logger
}

// NewOrderService creates an OrderService. payments may be nil when no
// gateway is configured.
func NewOrderService(
	orders OrderStore,
	products ProductStore,
	customers CustomerStore,
	deliveries DeliveryStore,
	outbox OutboxStore,
	assigner DeliveryAssigner,
	payments PaymentGateway,
	tx TxRunner,
	logger logger.Logger,
) *OrderService {
	return &OrderService{
		orders:     orders,
		products:   products,
		customers:  customers,
		deliveries: deliveries,
		outbox:     outbox,
		assigner:   assigner,
		payments:   payments,
		tx:         tx,
		logger:     logger,
	}
}

// stagedItem carries the order-time snapshot through the write phase.
type stagedItem struct {
	product  *models.Product
	quantity int
	subtotal float64
}

// PlaceOrder validates and prices the cart, persists the order, its items
// and the stock decrements in one transaction, then attempts best-effort
// payment-intent creation and delivery assignment.
func (s *OrderService) PlaceOrder(ctx context.Context, customerID string, input PlaceOrderInput) (*PlacedOrder, error) {
	staged, totalAmount, err := s.validateAndPrice(ctx, input)
	if err != nil {
		return nil, err
	}

	order := models.NewOrder(customerID, totalAmount, input.PaymentMethod, input.DeliveryAddress, input.SpecialInstructions)

	items, err := s.persistOrder(ctx, order, staged)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order placed",
		"orderID", order.ID,
		"customerID", customerID,
		"totalAmount", order.TotalAmount,
		"paymentMethod", order.PaymentMethod)

	if order.PaymentMethod == models.PaymentMethodOnline {
		s.createPaymentIntent(ctx, order)
	}

	assignment := s.assigner.AssignToOrder(ctx, order)
	switch assignment.Outcome {
	case AssignmentAssigned:
		order.Status = models.OrderStatusReadyForDelivery
	case AssignmentNoStaffAvailable:
		s.logger.Info("No active delivery staff, order left unassigned", "orderID", order.ID)
	case AssignmentFailed:
		s.logger.Error("Delivery assignment failed, order left unassigned",
			"orderID", order.ID,
			"error", assignment.Err)
	}

	view, err := s.composeView(ctx, order)
	if err != nil {
		return nil, err
	}

	return &PlacedOrder{Order: *view, OrderItems: items, Assignment: assignment}, nil
}

// validateAndPrice runs steps 1-5 of the workflow. No writes happen here,
// so every rejection leaves no partial state.
func (s *OrderService) validateAndPrice(ctx context.Context, input PlaceOrderInput) ([]stagedItem, float64, error) {
	if len(input.Items) == 0 {
		return nil, 0, apperrors.NewInvalidInputError("Order must contain at least one item")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, 0, apperrors.NewInvalidInputError(fmt.Sprintf(
			"Payment method must be %q or %q", models.PaymentMethodCashOnDelivery, models.PaymentMethodOnline))
	}
	if input.DeliveryAddress == "" {
		return nil, 0, apperrors.NewInvalidInputError("Delivery address is required")
	}

	staged := make([]stagedItem, 0, len(input.Items))
	var totalAmount float64

	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, 0, apperrors.NewInvalidInputError(fmt.Sprintf("Invalid quantity for product %s", item.ProductID))
		}

		product, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, 0, apperrors.NewInvalidInputError(fmt.Sprintf("Product %s not found", item.ProductID))
			}
			return nil, 0, err
		}

		if item.Quantity > product.QuantityInStock {
			return nil, 0, apperrors.NewInvalidInputError(fmt.Sprintf(
				"Insufficient stock for %s. Available: %d", product.Name, product.QuantityInStock))
		}

		subtotal := product.Price * float64(item.Quantity)
		totalAmount += subtotal
		staged = append(staged, stagedItem{product: product, quantity: item.Quantity, subtotal: subtotal})
	}

	totalAmount += DeliveryFee

	if input.PaymentMethod == models.PaymentMethodCashOnDelivery && totalAmount > CashOnDeliveryLimit {
		return nil, 0, apperrors.NewInvalidInputError(fmt.Sprintf(
			"Cash on Delivery is not available for orders above %.0f (your total is %.2f). Please use Online Payment",
			CashOnDeliveryLimit, totalAmount))
	}

	return staged, totalAmount, nil
}

// persistOrder writes the order, its items, the stock decrements and the
// placement event atomically. An ID collision rolls the transaction back
// and retries with a fresh identifier.
func (s *OrderService) persistOrder(ctx context.Context, order *models.Order, staged []stagedItem) ([]models.OrderItem, error) {
	var items []models.OrderItem

	for attempt := 1; ; attempt++ {
		items = nil

		err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
			if err := s.orders.Create(ctx, order); err != nil {
				return err
			}

			for _, st := range staged {
				item := models.OrderItem{
					OrderID:   order.ID,
					ProductID: st.product.ID,
					Quantity:  st.quantity,
					Subtotal:  st.subtotal,
				}
				if err := s.orders.CreateItem(ctx, &item); err != nil {
					return err
				}
				items = append(items, item)
			}

			for _, st := range staged {
				if err := s.products.DecrementStock(ctx, st.product.ID, st.quantity); err != nil {
					if errors.Is(err, repository.ErrInsufficientStock) {
						// A concurrent order won the remaining stock between
						// validation and the conditional decrement.
						return apperrors.NewInvalidInputError(fmt.Sprintf(
							"Insufficient stock for %s", st.product.Name))
					}
					return err
				}
			}

			event, err := models.NewOrderPlacedEvent(order, items)
			if err != nil {
				return err
			}
			return s.outbox.Create(ctx, event)
		})

		if err == nil {
			return items, nil
		}

		if errors.Is(err, repository.ErrDuplicate) && attempt < createOrderMaxAttempts {
			s.logger.Warn("Order ID collision, retrying with fresh ID", "orderID", order.ID, "attempt", attempt)
			order.ID = models.GenerateID("ord")
			continue
		}

		return nil, err
	}
}

// createPaymentIntent is best-effort: a gateway failure leaves the order
// payment-pending and is only logged.
func (s *OrderService) createPaymentIntent(ctx context.Context, order *models.Order) {
	if s.payments == nil {
		return
	}

	resp, err := s.payments.CreatePaymentIntent(ctx, &PaymentIntentRequest{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		Amount:     order.TotalAmount,
		Currency:   "LKR",
	})
	if err != nil {
		s.logger.Error("Failed to create payment intent", "orderID", order.ID, "error", err)
		return
	}

	s.logger.Info("Payment intent created", "orderID", order.ID, "intentID", resp.IntentID)
}

// CancelOrder cancels a non-terminal, non-delivered order: stock is
// restored, the order is marked Cancelled, and any delivery is failed.
func (s *OrderService) CancelOrder(ctx context.Context, customerID, orderID string) (*models.OrderView, error) {
	order, delivery, err := s.guardMutable(ctx, customerID, orderID)
	if err != nil {
		return nil, err
	}

	items, err := s.orders.GetItems(ctx, orderID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		for _, item := range items {
			if err := s.products.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		if err := s.orders.UpdateStatus(ctx, orderID, models.OrderStatusCancelled); err != nil {
			return err
		}

		if delivery != nil {
			reason := "Order cancelled by customer"
			if err := s.deliveries.UpdateStatus(ctx, delivery.ID, models.DeliveryStatusFailed, &reason); err != nil {
				return err
			}
		}

		order.Status = models.OrderStatusCancelled
		event, err := models.NewOrderCancelledEvent(order)
		if err != nil {
			return err
		}
		return s.outbox.Create(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order cancelled", "orderID", orderID, "customerID", customerID)
	return s.composeView(ctx, order)
}

// UpdateOrder mutates the delivery address and special instructions only,
// under the same guard as cancellation.
func (s *OrderService) UpdateOrder(ctx context.Context, customerID, orderID string, address *string, instructions *string) (*models.OrderView, error) {
	order, _, err := s.guardMutable(ctx, customerID, orderID)
	if err != nil {
		return nil, err
	}

	if address == nil && instructions == nil {
		return nil, apperrors.NewInvalidInputError("Nothing to update")
	}
	if address != nil && *address == "" {
		return nil, apperrors.NewInvalidInputError("Delivery address cannot be empty")
	}

	if err := s.orders.UpdateDetails(ctx, orderID, address, instructions); err != nil {
		return nil, err
	}

	if address != nil {
		order.DeliveryAddress = *address
	}
	if instructions != nil {
		order.SpecialInstructions = instructions
	}

	return s.composeView(ctx, order)
}

// GetOrder returns one of the caller's orders, fully joined.
func (s *OrderService) GetOrder(ctx context.Context, customerID, orderID string) (*models.OrderView, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("Order not found")
		}
		return nil, err
	}

	if order.CustomerID != customerID {
		return nil, apperrors.NewForbiddenError("Order belongs to a different customer")
	}

	return s.composeView(ctx, order)
}

// ListOrders returns the caller's orders, fully joined, newest first.
func (s *OrderService) ListOrders(ctx context.Context, customerID string, limit, offset int) ([]*models.OrderView, error) {
	orders, err := s.orders.GetByCustomerID(ctx, customerID, limit, offset)
	if err != nil {
		return nil, err
	}

	views := make([]*models.OrderView, 0, len(orders))
	for _, order := range orders {
		view, err := s.composeView(ctx, order)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}

	return views, nil
}

// guardMutable loads an order and enforces ownership plus the shared
// cancel/update guard: not terminal, and not already delivered.
func (s *OrderService) guardMutable(ctx context.Context, customerID, orderID string) (*models.Order, *models.Delivery, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, apperrors.NewNotFoundError("Order not found")
		}
		return nil, nil, err
	}

	if order.CustomerID != customerID {
		return nil, nil, apperrors.NewForbiddenError("Order belongs to a different customer")
	}

	if order.Status.IsTerminal() {
		return nil, nil, apperrors.New(apperrors.ErrConflict,
			fmt.Sprintf("Order cannot be modified in status %q", order.Status), 400, false)
	}

	delivery, err := s.deliveries.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return order, nil, nil
		}
		return nil, nil, err
	}

	if delivery.DeliveryStatus == models.DeliveryStatusDelivered {
		return nil, nil, apperrors.New(apperrors.ErrConflict,
			"Order has already been delivered and cannot be modified", 400, false)
	}

	return order, delivery, nil
}

// composeView joins an order with customer details, item details and its
// delivery record.
func (s *OrderService) composeView(ctx context.Context, order *models.Order) (*models.OrderView, error) {
	view := &models.OrderView{Order: *order}

	customer, err := s.customers.GetByID(ctx, order.CustomerID)
	if err == nil {
		view.CustomerName = customer.Name
		view.CustomerEmail = customer.Email
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	items, err := s.orders.GetItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	view.OrderItems = items

	delivery, err := s.deliveries.GetByOrderID(ctx, order.ID)
	if err == nil {
		view.Delivery = delivery
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	return view, nil
}
