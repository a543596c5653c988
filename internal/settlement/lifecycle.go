package settlement

import (
	"context"
	"errors"
	"log"

	"github.com/hatshop/orders/internal/events"
	"github.com/hatshop/orders/internal/notify"
	"github.com/hatshop/orders/internal/order"
)

// CancelOrder cancels an order that has not reached a terminal status. When
// the order was paid its stock is restored; restoration failures are reported
// in the result but the cancellation stands. payment_status is left as is.
func (s *Service) CancelOrder(ctx context.Context, orderID string) (*CancelResult, error) {
	o, items, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}

	// Same locks as settlement so a cancel cannot interleave with a
	// decrement in flight.
	unlock, err := s.locker.Lock(ctx, stockKeys(items)...)
	if err != nil {
		return nil, &PersistenceError{Op: "lock stock", Err: err}
	}
	defer unlock()

	cancelled, err := s.orders.Transition(ctx, o.ID, order.Cancellable, order.StatusCancelled)
	if errors.Is(err, order.ErrStateConflict) {
		return nil, invalid(o.ID, "order cannot be cancelled from status %s", o.Status)
	}
	if err != nil {
		return nil, &PersistenceError{Op: "cancel order", Err: err}
	}

	res := &CancelResult{Order: cancelled}
	bg := context.WithoutCancel(ctx)
	if cancelled.PaymentStatus == order.PaymentPaid {
		report := s.adjust(bg, o.ID, items, +1)
		res.Restoration = &report
		if failed := report.Failed(); len(failed) > 0 {
			log.Printf("[settle] order=%s cancelled, %d stock rows not restored", o.ID, len(failed))
		}
	}
	unlock()

	log.Printf("[settle] order=%s cancelled payment=%s", o.ID, cancelled.PaymentStatus)
	s.publish(bg, events.New(events.OrderCancelled, o.ID, map[string]any{
		"payment_status": cancelled.PaymentStatus,
		"restoration":    res.Restoration,
	}))
	return res, nil
}

// AdvanceStatus moves a paid order forward through fulfilment:
// processing -> shipping -> completed. Entering shipping notifies the
// customer. A target of cancelled is handled by CancelOrder.
func (s *Service) AdvanceStatus(ctx context.Context, orderID string, to order.Status) (*order.Order, error) {
	if to == order.StatusCancelled {
		res, err := s.CancelOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}
		return res.Order, nil
	}

	var from order.Status
	switch to {
	case order.StatusShipping:
		from = order.StatusProcessing
	case order.StatusCompleted:
		from = order.StatusShipping
	default:
		return nil, invalid(orderID, "unsupported status transition to %q", to)
	}

	o, items, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.PaymentStatus != order.PaymentPaid {
		return nil, invalid(o.ID, "order is not paid (payment=%s)", o.PaymentStatus)
	}

	updated, err := s.orders.Transition(ctx, o.ID, []order.Status{from}, to)
	if errors.Is(err, order.ErrStateConflict) {
		return nil, invalid(o.ID, "cannot move order from %s to %s", o.Status, to)
	}
	if err != nil {
		return nil, &PersistenceError{Op: "update order status", Err: err}
	}

	log.Printf("[settle] order=%s %s -> %s", o.ID, from, to)
	if to == order.StatusShipping {
		bg := context.WithoutCancel(ctx)
		s.notifyOrder(bg, notify.KindShipping, updated, items)
		s.publish(bg, events.New(events.OrderShipping, o.ID, nil))
	}
	return updated, nil
}
