package order

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipping   Status = "shipping"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether s is one of the known order statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipping, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Cancellable is the set of statuses an order may be cancelled from.
var Cancellable = []Status{StatusPending, StatusProcessing, StatusShipping}

type Order struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	AddressID     string          `json:"address_id"`
	Total         decimal.Decimal `json:"total_amount"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	Status        Status          `json:"order_status"`
	Note          string          `json:"note,omitempty"`

	// List-view fields, copied from the first line item at creation.
	ProductName  string `json:"product_name"`
	ProductImage string `json:"product_image,omitempty"`
	ItemCount    int    `json:"item_count"`

	PaymentMethod string     `json:"payment_method,omitempty"`
	PaymentKey    string     `json:"payment_key,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Number is the short order number shown to customers.
func (o *Order) Number() string {
	if len(o.ID) <= 8 {
		return o.ID
	}
	return o.ID[len(o.ID)-8:]
}

// Item is an order line. Name, image and price are snapshots taken when the
// order was placed and are never rewritten.
type Item struct {
	ID           string          `json:"id"`
	OrderID      string          `json:"order_id"`
	ProductID    string          `json:"product_id"`
	VariantID    *string         `json:"variant_id,omitempty"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	ProductName  string          `json:"product_name"`
	ProductImage string          `json:"product_image,omitempty"`
	VariantColor string          `json:"variant_color,omitempty"`
	VariantImage string          `json:"variant_image,omitempty"`
}

// DisplayName is the product name with the colour appended for variant lines.
func (it *Item) DisplayName() string {
	if it.VariantColor == "" {
		return it.ProductName
	}
	return it.ProductName + " (" + it.VariantColor + ")"
}

// Payment is what the gateway reported for a completed charge.
type Payment struct {
	Method    string
	ReceiptID string
	Data      json.RawMessage
}
