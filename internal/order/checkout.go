package order

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hatshop/orders/internal/cart"
	"github.com/hatshop/orders/internal/product"
)

var (
	ErrEmptyCart   = errors.New("cart is empty")
	ErrInvalidCart = errors.New("cart references an unknown product")
)

// Catalog is the read side of the product store used to snapshot line items.
type Catalog interface {
	GetByID(ctx context.Context, id string) (*product.Product, error)
	GetVariant(ctx context.Context, id string) (*product.Variant, error)
}

type PlaceOrderInput struct {
	UserID    string
	AddressID string
	Note      string
}

// Checkout turns a user's cart into a pending order.
type Checkout struct {
	orders  Repository
	carts   cart.Repository
	catalog Catalog
}

func NewCheckout(orders Repository, carts cart.Repository, catalog Catalog) *Checkout {
	return &Checkout{orders: orders, carts: carts, catalog: catalog}
}

func (c *Checkout) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*Order, []Item, error) {
	rows, err := c.carts.ListByUser(ctx, in.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("load cart: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, ErrEmptyCart
	}

	o := &Order{
		ID:            uuid.NewString(),
		UserID:        in.UserID,
		AddressID:     in.AddressID,
		Note:          in.Note,
		PaymentStatus: PaymentPending,
		Status:        StatusPending,
		Total:         decimal.Zero,
		ItemCount:     len(rows),
	}

	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		it, err := c.snapshot(ctx, o.ID, row)
		if err != nil {
			return nil, nil, err
		}
		o.Total = o.Total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		items = append(items, it)
	}
	o.ProductName = items[0].ProductName
	o.ProductImage = items[0].ProductImage
	if items[0].VariantImage != "" {
		o.ProductImage = items[0].VariantImage
	}

	if err := c.orders.Create(ctx, o, items); err != nil {
		return nil, nil, fmt.Errorf("create order: %w", err)
	}
	if err := c.carts.ClearByUser(ctx, in.UserID); err != nil {
		log.Printf("[checkout] order=%s clear cart user=%s: %v", o.ID, in.UserID, err)
	}
	return o, items, nil
}

func (c *Checkout) snapshot(ctx context.Context, orderID string, row cart.Item) (Item, error) {
	if row.Quantity <= 0 {
		return Item{}, fmt.Errorf("%w: quantity %d for product %s", ErrInvalidCart, row.Quantity, row.ProductID)
	}
	p, err := c.catalog.GetByID(ctx, row.ProductID)
	if errors.Is(err, product.ErrNotFound) {
		return Item{}, fmt.Errorf("%w: %s", ErrInvalidCart, row.ProductID)
	}
	if err != nil {
		return Item{}, fmt.Errorf("load product %s: %w", row.ProductID, err)
	}
	it := Item{
		ID:           uuid.NewString(),
		OrderID:      orderID,
		ProductID:    p.ID,
		Quantity:     row.Quantity,
		Price:        p.Price,
		ProductName:  p.Name,
		ProductImage: p.ImageURL,
	}
	if row.VariantID == nil {
		return it, nil
	}

	v, err := c.catalog.GetVariant(ctx, *row.VariantID)
	if errors.Is(err, product.ErrVariantNotFound) || (err == nil && v.ProductID != p.ID) {
		return Item{}, fmt.Errorf("%w: variant %s", ErrInvalidCart, *row.VariantID)
	}
	if err != nil {
		return Item{}, fmt.Errorf("load variant %s: %w", *row.VariantID, err)
	}
	vid := v.ID
	it.VariantID = &vid
	it.VariantColor = v.Color
	it.VariantImage = v.ImageURL
	return it, nil
}
