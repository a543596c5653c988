package product

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"image_url,omitempty"`
	// Inventory is only authoritative when the product has no variants.
	Inventory int       `json:"inventory"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Variant is one purchasable colour option of a product.
type Variant struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Color     string    `json:"color"`
	ImageURL  string    `json:"image_url,omitempty"`
	Inventory int       `json:"inventory"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Purchasable reports whether qty units can be sold from this variant.
func (v *Variant) Purchasable(qty int) bool {
	return v.IsActive && v.Inventory >= qty
}

// HTTPError represents a standard error in JSON.
// swagger:model
type HTTPError struct {
	// Error message
	// example: not found
	Error string `json:"error"`
}

// DetailResponse is a product together with its colour variants.
// swagger:model
type DetailResponse struct {
	Product
	Variants []Variant `json:"variants"`
}

// SetInventoryRequest payload of an absolute inventory update.
// swagger:model SetInventoryRequest
type SetInventoryRequest struct {
	Inventory *int `json:"inventory" example:"10"`
}

// UpdateVariantRequest payload of a partial variant update.
// swagger:model UpdateVariantRequest
type UpdateVariantRequest struct {
	Inventory *int  `json:"inventory" example:"4"`
	IsActive  *bool `json:"is_active" example:"true"`
}
