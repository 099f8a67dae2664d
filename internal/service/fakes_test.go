package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/freshmart/grocery-api/internal/models"
	"github.com/freshmart/grocery-api/internal/repository"
)

// The fakes below back the service tests with in-memory state. memTx gives
// them real rollback semantics: stores are snapshotted before the
// transaction body runs and restored when it fails, so atomicity
// assertions hold without a database.

type snapshotter interface {
	snapshot() interface{}
	restore(interface{})
}

type memTx struct {
	stores []snapshotter
}

func (t *memTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	saved := make([]interface{}, len(t.stores))
	for i, s := range t.stores {
		saved[i] = s.snapshot()
	}
	if err := fn(ctx); err != nil {
		for i, s := range t.stores {
			s.restore(saved[i])
		}
		return err
	}
	return nil
}

// memProducts

type memProducts struct {
	mu       sync.Mutex
	byID     map[string]*models.Product
	failNext error
}

func newMemProducts() *memProducts {
	return &memProducts{byID: make(map[string]*models.Product)}
}

func (m *memProducts) add(p *models.Product) {
	cp := *p
	m.byID[p.ID] = &cp
}

func (m *memProducts) stock(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id].QuantityInStock
}

func (m *memProducts) snapshot() interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make(map[string]*models.Product, len(m.byID))
	for k, v := range m.byID {
		c := *v
		cp[k] = &c
	}
	return cp
}

func (m *memProducts) restore(s interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID = s.(map[string]*models.Product)
}

func (m *memProducts) Create(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[p.ID]; ok {
		return repository.ErrDuplicate
	}
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *memProducts) GetByID(_ context.Context, id string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProducts) GetAll(_ context.Context, limit, offset int) ([]*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Product
	for _, p := range m.byID {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, limit, offset), nil
}

func (m *memProducts) Update(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[p.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *memProducts) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memProducts) DecrementStock(_ context.Context, id string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	p, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	if p.QuantityInStock < quantity {
		return repository.ErrInsufficientStock
	}
	p.QuantityInStock -= quantity
	return nil
}

func (m *memProducts) IncrementStock(_ context.Context, id string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.QuantityInStock += quantity
	return nil
}

func (m *memProducts) GetLowStock(_ context.Context) ([]*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Product
	for _, p := range m.byID {
		if p.QuantityInStock <= p.ReorderLevel {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// memOrders

type memOrders struct {
	mu         sync.Mutex
	byID       map[string]*models.Order
	items      map[string][]models.OrderItem
	products   *memProducts
	createErrs []error
	nextItemID int64
}

func newMemOrders(products *memProducts) *memOrders {
	return &memOrders{
		byID:     make(map[string]*models.Order),
		items:    make(map[string][]models.OrderItem),
		products: products,
	}
}

type memOrdersState struct {
	byID  map[string]*models.Order
	items map[string][]models.OrderItem
}

func (m *memOrders) snapshot() interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := memOrdersState{
		byID:  make(map[string]*models.Order, len(m.byID)),
		items: make(map[string][]models.OrderItem, len(m.items)),
	}
	for k, v := range m.byID {
		c := *v
		st.byID[k] = &c
	}
	for k, v := range m.items {
		st.items[k] = append([]models.OrderItem(nil), v...)
	}
	return st
}

func (m *memOrders) restore(s interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := s.(memOrdersState)
	m.byID = st.byID
	m.items = st.items
}

func (m *memOrders) Create(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.createErrs) > 0 {
		err := m.createErrs[0]
		m.createErrs = m.createErrs[1:]
		if err != nil {
			return err
		}
	}
	if _, ok := m.byID[order.ID]; ok {
		return repository.ErrDuplicate
	}
	cp := *order
	m.byID[order.ID] = &cp
	return nil
}

func (m *memOrders) CreateItem(_ context.Context, item *models.OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextItemID++
	item.ID = m.nextItemID
	m.items[item.OrderID] = append(m.items[item.OrderID], *item)
	return nil
}

func (m *memOrders) GetByID(_ context.Context, id string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) GetByCustomerID(_ context.Context, customerID string, limit, offset int) ([]*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Order
	for _, o := range m.byID {
		if o.CustomerID == customerID {
			cp := *o
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderedAt.After(out[j].OrderedAt) })
	return page(out, limit, offset), nil
}

func (m *memOrders) GetItems(_ context.Context, orderID string) ([]models.OrderItemDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.OrderItemDetail
	for _, item := range m.items[orderID] {
		detail := models.OrderItemDetail{OrderItem: item}
		if p, ok := m.products.byID[item.ProductID]; ok {
			detail.ProductName = p.Name
			detail.CurrentPrice = p.Price
		}
		out = append(out, detail)
	}
	return out, nil
}

func (m *memOrders) UpdateStatus(_ context.Context, id string, status models.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	o.Status = status
	return nil
}

func (m *memOrders) UpdateDetails(_ context.Context, id string, address *string, instructions *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	if address != nil {
		o.DeliveryAddress = *address
	}
	if instructions != nil {
		o.SpecialInstructions = instructions
	}
	return nil
}

// memCustomers

type memCustomers struct {
	mu   sync.Mutex
	byID map[string]*models.Customer
}

func newMemCustomers() *memCustomers {
	return &memCustomers{byID: make(map[string]*models.Customer)}
}

func (m *memCustomers) Create(_ context.Context, c *models.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == c.Email {
			return repository.ErrDuplicate
		}
	}
	cp := *c
	m.byID[c.ID] = &cp
	return nil
}

func (m *memCustomers) GetByID(_ context.Context, id string) (*models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCustomers) GetByEmail(_ context.Context, email string) (*models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.byID {
		if c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

// memDeliveries

type memDeliveries struct {
	mu   sync.Mutex
	byID map[string]*models.Delivery
}

func newMemDeliveries() *memDeliveries {
	return &memDeliveries{byID: make(map[string]*models.Delivery)}
}

func (m *memDeliveries) snapshot() interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make(map[string]*models.Delivery, len(m.byID))
	for k, v := range m.byID {
		c := *v
		cp[k] = &c
	}
	return cp
}

func (m *memDeliveries) restore(s interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID = s.(map[string]*models.Delivery)
}

func (m *memDeliveries) Create(_ context.Context, d *models.Delivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.byID[d.ID] = &cp
	return nil
}

func (m *memDeliveries) GetByID(_ context.Context, id string) (*models.Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *memDeliveries) GetByOrderID(_ context.Context, orderID string) (*models.Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.byID {
		if d.OrderID == orderID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memDeliveries) GetByStaffID(_ context.Context, staffID string, limit, offset int) ([]*models.Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Delivery
	for _, d := range m.byID {
		if d.StaffID == staffID {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, limit, offset), nil
}

func (m *memDeliveries) UpdateStatus(_ context.Context, id string, status models.DeliveryStatus, failureReason *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	d.DeliveryStatus = status
	d.FailureReason = failureReason
	return nil
}

// memStaff

type memStaff struct {
	mu   sync.Mutex
	list []*models.Staff
}

func (m *memStaff) Create(_ context.Context, s *models.Staff) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.list = append(m.list, &cp)
	return nil
}

func (m *memStaff) GetByID(_ context.Context, id string) (*models.Staff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.list {
		if s.ID == id {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStaff) GetAll(_ context.Context, limit, offset int) ([]*models.Staff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Staff, 0, len(m.list))
	for _, s := range m.list {
		cp := *s
		out = append(out, &cp)
	}
	return page(out, limit, offset), nil
}

func (m *memStaff) FindActiveByRole(_ context.Context, role string) (*models.Staff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.list {
		if s.IsActive && s.Role == role {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

// memOutbox

type memOutbox struct {
	mu       sync.Mutex
	messages []*models.OutboxMessage
	failNext error
}

func (m *memOutbox) snapshot() interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.OutboxMessage(nil), m.messages...)
}

func (m *memOutbox) restore(s interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = s.([]*models.OutboxMessage)
}

func (m *memOutbox) Create(_ context.Context, msg *models.OutboxMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	msg.ID = int64(len(m.messages) + 1)
	cp := *msg
	m.messages = append(m.messages, &cp)
	return nil
}

func (m *memOutbox) eventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.messages))
	for _, msg := range m.messages {
		out = append(out, msg.EventType)
	}
	return out
}

// memPurchaseOrders

type memPurchaseOrders struct {
	mu   sync.Mutex
	byID map[string]*models.PurchaseOrder
}

func newMemPurchaseOrders() *memPurchaseOrders {
	return &memPurchaseOrders{byID: make(map[string]*models.PurchaseOrder)}
}

func (m *memPurchaseOrders) snapshot() interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make(map[string]*models.PurchaseOrder, len(m.byID))
	for k, v := range m.byID {
		c := *v
		cp[k] = &c
	}
	return cp
}

func (m *memPurchaseOrders) restore(s interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID = s.(map[string]*models.PurchaseOrder)
}

func (m *memPurchaseOrders) Create(_ context.Context, po *models.PurchaseOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *po
	m.byID[po.ID] = &cp
	return nil
}

func (m *memPurchaseOrders) GetByID(_ context.Context, id string) (*models.PurchaseOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	po, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *po
	return &cp, nil
}

func (m *memPurchaseOrders) GetAll(_ context.Context, limit, offset int) ([]*models.PurchaseOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.PurchaseOrder
	for _, po := range m.byID {
		cp := *po
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, limit, offset), nil
}

func (m *memPurchaseOrders) HasOpenForProduct(_ context.Context, productID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, po := range m.byID {
		if po.ProductID == productID && po.Status == models.PurchaseOrderStatusOrdered {
			return true, nil
		}
	}
	return false, nil
}

func (m *memPurchaseOrders) MarkReceived(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	po, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	if po.Status != models.PurchaseOrderStatusOrdered {
		return repository.ErrNotFound
	}
	po.Status = models.PurchaseOrderStatusReceived
	now := models.Now()
	po.ReceivedAt = &now
	return nil
}

// memCache

type memCache struct {
	mu            sync.Mutex
	byID          map[string]*models.Product
	hits          int
	invalidations int
}

func newMemCache() *memCache {
	return &memCache{byID: make(map[string]*models.Product)}
}

func (m *memCache) Get(_ context.Context, id string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	m.hits++
	cp := *p
	return &cp, nil
}

func (m *memCache) Set(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *memCache) Invalidate(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
	m.invalidations++
	return nil
}

// fakeGateway

type fakeGateway struct {
	mu       sync.Mutex
	requests []*PaymentIntentRequest
	err      error
}

func (g *fakeGateway) CreatePaymentIntent(_ context.Context, req *PaymentIntentRequest) (*PaymentIntentResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	return &PaymentIntentResponse{
		IntentID:   fmt.Sprintf("pi_%d", len(g.requests)),
		Status:     "requires_payment",
		PaymentURL: "https://pay.example.com/" + req.OrderID,
	}, nil
}

// stubAssigner returns a fixed result.

type stubAssigner struct {
	result AssignmentResult
}

func (a *stubAssigner) AssignToOrder(context.Context, *models.Order) AssignmentResult {
	return a.result
}

func page[T any](in []T, limit, offset int) []T {
	if offset >= len(in) {
		return nil
	}
	in = in[offset:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}
