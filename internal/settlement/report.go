package settlement

import (
	"github.com/hatshop/orders/internal/order"
	"github.com/hatshop/orders/internal/reconcile"
)

const (
	reasonInsufficient    = "insufficient stock"
	reasonInactive        = "variant is not active"
	reasonVariantMissing  = "variant not found"
	reasonProductMissing  = "product not found"
	reasonVariantMismatch = "variant does not belong to product"
)

// ItemAvailability is the live stock picture of one line item.
type ItemAvailability struct {
	ItemID    string           `json:"item_id"`
	ProductID string           `json:"product_id"`
	VariantID *string          `json:"variant_id,omitempty"`
	Name      string           `json:"name"`
	Source    reconcile.Source `json:"source"`
	SourceID  string           `json:"source_id"`
	Ordered   int              `json:"ordered"`
	InStock   int              `json:"in_stock"`
	Shortage  int              `json:"shortage"`
	Active    bool             `json:"active"`
	Satisfied bool             `json:"satisfied"`
	Reason    string           `json:"reason,omitempty"`
}

type AvailabilityReport struct {
	OrderID    string             `json:"order_id"`
	Items      []ItemAvailability `json:"items"`
	CanProceed bool               `json:"can_proceed"`
}

// Shortages lists the unsatisfied items.
func (r AvailabilityReport) Shortages() []Shortage {
	var out []Shortage
	for _, it := range r.Items {
		if it.Satisfied {
			continue
		}
		out = append(out, Shortage{
			ItemID:   it.ItemID,
			Name:     it.Name,
			Ordered:  it.Ordered,
			InStock:  it.InStock,
			Shortage: it.Shortage,
			Reason:   it.Reason,
		})
	}
	return out
}

// StockAdjustment is the outcome of one stock row write.
type StockAdjustment struct {
	ItemID    string           `json:"item_id"`
	Source    reconcile.Source `json:"source"`
	SourceID  string           `json:"source_id"`
	Delta     int              `json:"delta"`
	Applied   bool             `json:"applied"`
	Remaining int              `json:"remaining,omitempty"`
	Error     string           `json:"error,omitempty"`
}

type StockReport struct {
	OrderID string            `json:"order_id"`
	Items   []StockAdjustment `json:"items"`
}

func (r StockReport) AllApplied() bool {
	for _, a := range r.Items {
		if !a.Applied {
			return false
		}
	}
	return true
}

func (r StockReport) Failed() []StockAdjustment {
	var out []StockAdjustment
	for _, a := range r.Items {
		if !a.Applied {
			out = append(out, a)
		}
	}
	return out
}

// SettledOrder is the result of a successful settlement. The order is paid
// even when Stock reports failed rows; those are queued for reconciliation.
type SettledOrder struct {
	Order        *order.Order       `json:"order"`
	Items        []order.Item       `json:"items"`
	Availability AvailabilityReport `json:"availability"`
	Stock        StockReport        `json:"stock"`
}

type CancelResult struct {
	Order       *order.Order `json:"order"`
	Restoration *StockReport `json:"restoration,omitempty"`
}
