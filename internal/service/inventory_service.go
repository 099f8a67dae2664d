package service

import (
	"context"
	"errors"

	"github.com/freshmart/grocery-api/internal/models"
	"github.com/freshmart/grocery-api/internal/repository"
	apperrors "github.com/freshmart/grocery-api/pkg/errors"
	"github.com/freshmart/grocery-api/pkg/logger"
)

// InventoryService manages the product catalog and purchase orders.
type InventoryService struct {
	products       ProductStore
	purchaseOrders PurchaseOrderStore
	cache          ProductCache
	tx             TxRunner
	logger         logger.Logger
}

// NewInventoryService creates an InventoryService. cache may be nil.
func NewInventoryService(
	products ProductStore,
	purchaseOrders PurchaseOrderStore,
	cache ProductCache,
	tx TxRunner,
	logger logger.Logger,
) *InventoryService {
	return &InventoryService{
		products:       products,
		purchaseOrders: purchaseOrders,
		cache:          cache,
		tx:             tx,
		logger:         logger,
	}
}

// CreateProductInput holds the fields of a new catalog entry.
type CreateProductInput struct {
	Name            string
	Category        string
	Price           float64
	QuantityInStock int
	ReorderLevel    int
	ReorderQuantity int
}

// CreateProduct adds a product to the catalog.
func (s *InventoryService) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if input.Name == "" {
		return nil, apperrors.NewInvalidInputError("Product name is required")
	}
	if input.Price <= 0 {
		return nil, apperrors.NewInvalidInputError("Product price must be positive")
	}
	if input.QuantityInStock < 0 {
		return nil, apperrors.NewInvalidInputError("Stock cannot be negative")
	}

	product := models.NewProduct(input.Name, input.Category, input.Price,
		input.QuantityInStock, input.ReorderLevel, input.ReorderQuantity)

	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

// GetProduct serves catalog reads through the cache when one is configured.
func (s *InventoryService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, id); err != nil {
			s.logger.Warn("Product cache read failed", "error", err, "productID", id)
		} else if cached != nil {
			return cached, nil
		}
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("Product not found")
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, product); err != nil {
			s.logger.Warn("Product cache write failed", "error", err, "productID", id)
		}
	}

	return product, nil
}

// ListProducts returns the catalog.
func (s *InventoryService) ListProducts(ctx context.Context, limit, offset int) ([]*models.Product, error) {
	return s.products.GetAll(ctx, limit, offset)
}

// UpdateProduct rewrites a product and invalidates its cache entry.
func (s *InventoryService) UpdateProduct(ctx context.Context, product *models.Product) error {
	if product.Price <= 0 {
		return apperrors.NewInvalidInputError("Product price must be positive")
	}

	if err := s.products.Update(ctx, product); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFoundError("Product not found")
		}
		return err
	}

	s.invalidate(ctx, product.ID)
	return nil
}

// DeleteProduct removes a product and invalidates its cache entry.
func (s *InventoryService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFoundError("Product not found")
		}
		return err
	}

	s.invalidate(ctx, id)
	return nil
}

// LowStockReport returns products at or below their reorder level.
func (s *InventoryService) LowStockReport(ctx context.Context) ([]*models.Product, error) {
	return s.products.GetLowStock(ctx)
}

// GeneratePurchaseOrders creates one purchase order per low-stock product
// that does not already have an open one, ordering the product's configured
// reorder quantity.
func (s *InventoryService) GeneratePurchaseOrders(ctx context.Context) ([]*models.PurchaseOrder, error) {
	lowStock, err := s.products.GetLowStock(ctx)
	if err != nil {
		return nil, err
	}

	var created []*models.PurchaseOrder

	for _, product := range lowStock {
		open, err := s.purchaseOrders.HasOpenForProduct(ctx, product.ID)
		if err != nil {
			return nil, err
		}
		if open {
			continue
		}

		quantity := product.ReorderQuantity
		if quantity <= 0 {
			continue
		}

		po := models.NewPurchaseOrder(product.ID, quantity)
		if err := s.purchaseOrders.Create(ctx, po); err != nil {
			return nil, err
		}

		s.logger.Info("Purchase order generated",
			"purchaseOrderID", po.ID,
			"productID", product.ID,
			"quantity", quantity)

		created = append(created, po)
	}

	return created, nil
}

// ReceivePurchaseOrder marks a purchase order received and restocks the
// product in the same transaction.
func (s *InventoryService) ReceivePurchaseOrder(ctx context.Context, id string) (*models.PurchaseOrder, error) {
	po, err := s.purchaseOrders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("Purchase order not found")
		}
		return nil, err
	}

	if po.Status != models.PurchaseOrderStatusOrdered {
		return nil, apperrors.New(apperrors.ErrConflict,
			"Purchase order has already been received or cancelled", 400, false)
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.purchaseOrders.MarkReceived(ctx, id); err != nil {
			return err
		}
		return s.products.IncrementStock(ctx, po.ProductID, po.QuantityOrdered)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, po.ProductID)

	po.Status = models.PurchaseOrderStatusReceived
	now := models.Now()
	po.ReceivedAt = &now

	return po, nil
}

// ListPurchaseOrders returns purchase orders, newest first.
func (s *InventoryService) ListPurchaseOrders(ctx context.Context, limit, offset int) ([]*models.PurchaseOrder, error) {
	return s.purchaseOrders.GetAll(ctx, limit, offset)
}

func (s *InventoryService) invalidate(ctx context.Context, productID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, productID); err != nil {
		s.logger.Warn("Product cache invalidation failed", "error", err, "productID", productID)
	}
}
