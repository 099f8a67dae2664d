package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshmart/grocery-api/internal/models"
	apperrors "github.com/freshmart/grocery-api/pkg/errors"
	"github.com/freshmart/grocery-api/pkg/logger"
)

type inventoryFixture struct {
	products       *memProducts
	purchaseOrders *memPurchaseOrders
	cache          *memCache
	svc            *InventoryService
}

func newInventoryFixture(t *testing.T) *inventoryFixture {
	t.Helper()

	f := &inventoryFixture{
		products:       newMemProducts(),
		purchaseOrders: newMemPurchaseOrders(),
		cache:          newMemCache(),
	}
	tx := &memTx{stores: []snapshotter{f.products, f.purchaseOrders}}
	f.svc = NewInventoryService(f.products, f.purchaseOrders, f.cache, tx, logger.New("error"))
	return f
}

func TestCreateProductValidation(t *testing.T) {
	f := newInventoryFixture(t)

	_, err := f.svc.CreateProduct(context.Background(), CreateProductInput{Name: "", Price: 100})
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.StatusCode(err))

	_, err = f.svc.CreateProduct(context.Background(), CreateProductInput{Name: "Tea", Price: 0})
	require.Error(t, err)

	_, err = f.svc.CreateProduct(context.Background(), CreateProductInput{Name: "Tea", Price: 100, QuantityInStock: -1})
	require.Error(t, err)

	product, err := f.svc.CreateProduct(context.Background(), CreateProductInput{
		Name: "Tea 200g", Category: "Beverages", Price: 350, QuantityInStock: 40, ReorderLevel: 10, ReorderQuantity: 50,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, product.ID)
	assert.Equal(t, 40, f.products.stock(product.ID))
}

func TestGetProductServesFromCacheOnSecondRead(t *testing.T) {
	f := newInventoryFixture(t)
	p := models.NewProduct("Tea 200g", "Beverages", 350, 40, 10, 50)
	f.products.add(p)

	first, err := f.svc.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, f.cache.hits)

	second, err := f.svc.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.cache.hits)
	assert.Equal(t, first.Price, second.Price)
}

func TestGetProductNotFound(t *testing.T) {
	f := newInventoryFixture(t)

	_, err := f.svc.GetProduct(context.Background(), "prd-missing")
	require.Error(t, err)
	assert.Equal(t, 404, apperrors.StatusCode(err))
}

func TestUpdateProductInvalidatesCache(t *testing.T) {
	f := newInventoryFixture(t)
	p := models.NewProduct("Tea 200g", "Beverages", 350, 40, 10, 50)
	f.products.add(p)

	_, err := f.svc.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)

	p.Price = 375
	require.NoError(t, f.svc.UpdateProduct(context.Background(), p))
	assert.Equal(t, 1, f.cache.invalidations)

	fresh, err := f.svc.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 375.0, fresh.Price)
}

func TestDeleteProductInvalidatesCache(t *testing.T) {
	f := newInventoryFixture(t)
	p := models.NewProduct("Tea 200g", "Beverages", 350, 40, 10, 50)
	f.products.add(p)

	require.NoError(t, f.svc.DeleteProduct(context.Background(), p.ID))
	assert.Equal(t, 1, f.cache.invalidations)

	err := f.svc.DeleteProduct(context.Background(), p.ID)
	require.Error(t, err)
	assert.Equal(t, 404, apperrors.StatusCode(err))
}

func TestLowStockReport(t *testing.T) {
	f := newInventoryFixture(t)
	low := models.NewProduct("Sugar 1kg", "Grocery", 280, 5, 10, 30)
	ok := models.NewProduct("Tea 200g", "Beverages", 350, 40, 10, 50)
	f.products.add(low)
	f.products.add(ok)

	report, err := f.svc.LowStockReport(context.Background())
	require.NoError(t, err)
	require.Len(t, report, 1)
	assert.Equal(t, low.ID, report[0].ID)
}

func TestGeneratePurchaseOrders(t *testing.T) {
	f := newInventoryFixture(t)
	low := models.NewProduct("Sugar 1kg", "Grocery", 280, 5, 10, 30)
	alreadyOrdered := models.NewProduct("Flour 1kg", "Grocery", 240, 2, 10, 25)
	noReorderQty := models.NewProduct("Seasonal Box", "Grocery", 900, 1, 10, 0)
	f.products.add(low)
	f.products.add(alreadyOrdered)
	f.products.add(noReorderQty)

	require.NoError(t, f.purchaseOrders.Create(context.Background(),
		models.NewPurchaseOrder(alreadyOrdered.ID, 25)))

	created, err := f.svc.GeneratePurchaseOrders(context.Background())
	require.NoError(t, err)

	// Only the low-stock product without an open PO and with a configured
	// reorder quantity gets one.
	require.Len(t, created, 1)
	assert.Equal(t, low.ID, created[0].ProductID)
	assert.Equal(t, 30, created[0].QuantityOrdered)
	assert.Equal(t, models.PurchaseOrderStatusOrdered, created[0].Status)
}

func TestGeneratePurchaseOrdersIsIdempotent(t *testing.T) {
	f := newInventoryFixture(t)
	low := models.NewProduct("Sugar 1kg", "Grocery", 280, 5, 10, 30)
	f.products.add(low)

	first, err := f.svc.GeneratePurchaseOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := f.svc.GeneratePurchaseOrders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestReceivePurchaseOrderRestocks(t *testing.T) {
	f := newInventoryFixture(t)
	low := models.NewProduct("Sugar 1kg", "Grocery", 280, 5, 10, 30)
	f.products.add(low)

	created, err := f.svc.GeneratePurchaseOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, created, 1)

	received, err := f.svc.ReceivePurchaseOrder(context.Background(), created[0].ID)
	require.NoError(t, err)

	assert.Equal(t, models.PurchaseOrderStatusReceived, received.Status)
	require.NotNil(t, received.ReceivedAt)
	assert.Equal(t, 35, f.products.stock(low.ID))

	// Receiving twice is rejected and does not double the stock.
	_, err = f.svc.ReceivePurchaseOrder(context.Background(), created[0].ID)
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.StatusCode(err))
	assert.Equal(t, 35, f.products.stock(low.ID))
}

func TestReceivePurchaseOrderNotFound(t *testing.T) {
	f := newInventoryFixture(t)

	_, err := f.svc.ReceivePurchaseOrder(context.Background(), "pon-missing")
	require.Error(t, err)
	assert.Equal(t, 404, apperrors.StatusCode(err))
}
