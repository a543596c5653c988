// Package memstore holds in-memory versions of the repositories so handlers
// and the settlement flow can be exercised without PostgreSQL.
package memstore

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/hatshop/orders/internal/address"
	"github.com/hatshop/orders/internal/cart"
	"github.com/hatshop/orders/internal/order"
	"github.com/hatshop/orders/internal/product"
	"github.com/hatshop/orders/internal/reconcile"
)

var ErrInjected = errors.New("injected failure")

// Orders implements order.Repository.
type Orders struct {
	mu     sync.Mutex
	orders map[string]*order.Order
	items  map[string][]order.Item

	FailMarkPaid error
}

func NewOrders() *Orders {
	return &Orders{orders: map[string]*order.Order{}, items: map[string][]order.Item{}}
}

func (s *Orders) Create(_ context.Context, o *order.Order, items []order.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *o
	now := time.Now().UTC()
	cp.CreatedAt, cp.UpdatedAt = now, now
	s.orders[o.ID] = &cp
	s.items[o.ID] = append([]order.Item(nil), items...)
	return nil
}

// Put stores an order and its items as-is.
func (s *Orders) Put(o order.Order, items ...order.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = &o
	s.items[o.ID] = items
}

func (s *Orders) GetByID(_ context.Context, id string) (*order.Order, []order.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, nil, order.ErrNotFound
	}
	cp := *o
	return &cp, append([]order.Item{}, s.items[id]...), nil
}

func (s *Orders) ListByUser(_ context.Context, userID string, limit, offset int) ([]order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []order.Order{}
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset > len(out) {
		return []order.Order{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *Orders) GetItems(_ context.Context, orderID string) ([]order.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[orderID]; !ok {
		return nil, order.ErrNotFound
	}
	return append([]order.Item{}, s.items[orderID]...), nil
}

func (s *Orders) MarkPaid(_ context.Context, id string, p order.Payment) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailMarkPaid != nil {
		return nil, s.FailMarkPaid
	}
	o, ok := s.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	if o.PaymentStatus != order.PaymentPending || o.Status != order.StatusPending {
		return nil, order.ErrStateConflict
	}
	now := time.Now().UTC()
	o.PaymentStatus = order.PaymentPaid
	o.Status = order.StatusProcessing
	o.PaymentMethod = p.Method
	o.PaymentKey = p.ReceiptID
	o.PaidAt = &now
	o.UpdatedAt = now
	cp := *o
	return &cp, nil
}

func (s *Orders) Transition(_ context.Context, id string, from []order.Status, to order.Status) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	allowed := false
	for _, st := range from {
		if o.Status == st {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, order.ErrStateConflict
	}
	now := time.Now().UTC()
	o.Status = to
	if to == order.StatusCancelled {
		o.CancelledAt = &now
	}
	o.UpdatedAt = now
	cp := *o
	return &cp, nil
}

// Products implements product.Repository.
type Products struct {
	mu       sync.Mutex
	products map[string]*product.Product
	variants map[string]*product.Variant

	// FailAdjust makes adjustments of the listed stock ids fail.
	FailAdjust map[string]error
}

func NewProducts() *Products {
	return &Products{
		products:   map[string]*product.Product{},
		variants:   map[string]*product.Variant{},
		FailAdjust: map[string]error{},
	}
}

func (s *Products) PutProduct(p product.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = &p
}

func (s *Products) PutVariant(v product.Variant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.variants[v.ID] = &v
}

func (s *Products) SetFailure(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.FailAdjust, id)
		return
	}
	s.FailAdjust[id] = err
}

// Inventory returns the current inventory of a product or variant id.
func (s *Products) Inventory(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.variants[id]; ok {
		return v.Inventory
	}
	if p, ok := s.products[id]; ok {
		return p.Inventory
	}
	return -1
}

func (s *Products) GetByID(_ context.Context, id string) (*product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Products) GetVariant(_ context.Context, id string) (*product.Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.variants[id]
	if !ok {
		return nil, product.ErrVariantNotFound
	}
	cp := *v
	return &cp, nil
}

func (s *Products) ListVariants(_ context.Context, productID string) ([]product.Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []product.Variant{}
	for _, v := range s.variants {
		if v.ProductID == productID {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Products) SetInventory(_ context.Context, id string, inventory int) error {
	if inventory < 0 {
		return product.ErrInvalidInventory
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return product.ErrNotFound
	}
	p.Inventory = inventory
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Products) UpdateVariant(_ context.Context, id string, inventory *int, isActive *bool) (*product.Variant, error) {
	if inventory != nil && *inventory < 0 {
		return nil, product.ErrInvalidInventory
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.variants[id]
	if !ok {
		return nil, product.ErrVariantNotFound
	}
	if inventory != nil {
		v.Inventory = *inventory
	}
	if isActive != nil {
		v.IsActive = *isActive
	}
	v.UpdatedAt = time.Now().UTC()
	cp := *v
	return &cp, nil
}

func (s *Products) AdjustInventory(_ context.Context, id string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailAdjust[id]; err != nil {
		return 0, err
	}
	p, ok := s.products[id]
	if !ok {
		return 0, product.ErrNotFound
	}
	if p.Inventory+delta < 0 {
		return 0, product.ErrInsufficientStock
	}
	p.Inventory += delta
	p.UpdatedAt = time.Now().UTC()
	return p.Inventory, nil
}

func (s *Products) AdjustVariantInventory(_ context.Context, id string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailAdjust[id]; err != nil {
		return 0, err
	}
	v, ok := s.variants[id]
	if !ok {
		return 0, product.ErrVariantNotFound
	}
	if v.Inventory+delta < 0 {
		return 0, product.ErrInsufficientStock
	}
	v.Inventory += delta
	v.UpdatedAt = time.Now().UTC()
	return v.Inventory, nil
}

// Carts implements cart.Repository.
type Carts struct {
	mu    sync.Mutex
	items map[string][]cart.Item
}

func NewCarts() *Carts { return &Carts{items: map[string][]cart.Item{}} }

func (s *Carts) Add(it cart.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[it.UserID] = append(s.items[it.UserID], it)
}

func (s *Carts) ListByUser(_ context.Context, userID string) ([]cart.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]cart.Item(nil), s.items[userID]...), nil
}

func (s *Carts) ClearByUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, userID)
	return nil
}

// Addresses implements address.Repository.
type Addresses struct {
	mu    sync.Mutex
	items map[string]address.Address
}

func NewAddresses() *Addresses { return &Addresses{items: map[string]address.Address{}} }

func (s *Addresses) Put(a address.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[a.ID] = a
}

func (s *Addresses) GetByID(_ context.Context, id string) (*address.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.items[id]
	if !ok {
		return nil, address.ErrNotFound
	}
	return &a, nil
}

// Discrepancies implements reconcile.Repository.
type Discrepancies struct {
	mu    sync.Mutex
	items []reconcile.Discrepancy
}

func NewDiscrepancies() *Discrepancies { return &Discrepancies{} }

func (s *Discrepancies) Record(_ context.Context, d *reconcile.Discrepancy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *d
	now := time.Now().UTC()
	cp.CreatedAt, cp.UpdatedAt = now, now
	s.items = append(s.items, cp)
	return nil
}

func (s *Discrepancies) ListPending(_ context.Context, limit int) ([]reconcile.Discrepancy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []reconcile.Discrepancy
	for _, d := range s.items {
		if d.Status == reconcile.StatusPending {
			out = append(out, d)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Discrepancies) Update(_ context.Context, d *reconcile.Discrepancy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == d.ID {
			d.UpdatedAt = time.Now().UTC()
			s.items[i] = *d
			return nil
		}
	}
	return reconcile.ErrNotFound
}

// All returns a copy of every recorded discrepancy.
func (s *Discrepancies) All() []reconcile.Discrepancy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]reconcile.Discrepancy(nil), s.items...)
}

var (
	_ order.Repository     = (*Orders)(nil)
	_ product.Repository   = (*Products)(nil)
	_ cart.Repository      = (*Carts)(nil)
	_ address.Repository   = (*Addresses)(nil)
	_ reconcile.Repository = (*Discrepancies)(nil)
)
