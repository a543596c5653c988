package settlement

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hatshop/orders/internal/order"
)

// ErrOrderNotFound is order.ErrNotFound so callers can match either.
var ErrOrderNotFound = order.ErrNotFound

// ErrAlreadyPaid is wrapped by the *ValidationError SettlePayment returns for
// an order whose payment has already been recorded.
var ErrAlreadyPaid = errors.New("order already paid")

// Shortage describes one line item that cannot be sold right now.
type Shortage struct {
	ItemID   string `json:"item_id"`
	Name     string `json:"name"`
	Ordered  int    `json:"ordered"`
	InStock  int    `json:"in_stock"`
	Shortage int    `json:"shortage"`
	Reason   string `json:"reason"`
}

// ValidationError is a user-correctable refusal. Nothing has been written
// when it is returned.
type ValidationError struct {
	OrderID string
	Reason  string
	Items   []Shortage
	Err     error
}

func (e *ValidationError) Error() string {
	if len(e.Items) == 0 {
		return fmt.Sprintf("order %s: %s", e.OrderID, e.Reason)
	}
	parts := make([]string, 0, len(e.Items))
	for _, s := range e.Items {
		if s.Shortage > 0 {
			parts = append(parts, fmt.Sprintf("%s (short %d)", s.Name, s.Shortage))
		} else {
			parts = append(parts, fmt.Sprintf("%s (%s)", s.Name, s.Reason))
		}
	}
	return fmt.Sprintf("order %s: %s: %s", e.OrderID, e.Reason, strings.Join(parts, ", "))
}

func (e *ValidationError) Unwrap() error { return e.Err }

// PersistenceError is a backing store failure on the critical path.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *PersistenceError) Unwrap() error { return e.Err }

func invalid(orderID, format string, args ...any) *ValidationError {
	return &ValidationError{OrderID: orderID, Reason: fmt.Sprintf(format, args...)}
}
