// Package settlement decides whether an order can be paid for against live
// stock, commits the paid transition and the stock decrement once the gateway
// confirms, and puts stock back when a paid order is cancelled.
//
// Stock bookkeeping is advisory once the order row says paid: a failed stock
// write is reported per item and queued in the discrepancy ledger instead of
// undoing the payment.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/hatshop/orders/internal/address"
	"github.com/hatshop/orders/internal/events"
	"github.com/hatshop/orders/internal/lock"
	"github.com/hatshop/orders/internal/notify"
	"github.com/hatshop/orders/internal/order"
	"github.com/hatshop/orders/internal/product"
	"github.com/hatshop/orders/internal/reconcile"
)

type Orders interface {
	GetByID(ctx context.Context, id string) (*order.Order, []order.Item, error)
	MarkPaid(ctx context.Context, id string, p order.Payment) (*order.Order, error)
	Transition(ctx context.Context, id string, from []order.Status, to order.Status) (*order.Order, error)
}

type Stock interface {
	GetByID(ctx context.Context, id string) (*product.Product, error)
	GetVariant(ctx context.Context, id string) (*product.Variant, error)
	AdjustInventory(ctx context.Context, id string, delta int) (int, error)
	AdjustVariantInventory(ctx context.Context, id string, delta int) (int, error)
}

type Addresses interface {
	GetByID(ctx context.Context, id string) (*address.Address, error)
}

type Notifier interface {
	Dispatch(kind notify.Kind, orderID string, m notify.Message)
}

type Discrepancies interface {
	Record(ctx context.Context, d *reconcile.Discrepancy) error
}

// Deps wires a Service. Orders and Stock are required; the rest fall back to
// no-ops (Locker to an in-process locker).
type Deps struct {
	Orders        Orders
	Stock         Stock
	Addresses     Addresses
	Locker        lock.Locker
	Notifier      Notifier
	Events        events.Publisher
	Discrepancies Discrepancies
}

type Service struct {
	orders        Orders
	stock         Stock
	addresses     Addresses
	locker        lock.Locker
	notifier      Notifier
	events        events.Publisher
	discrepancies Discrepancies
}

func New(d Deps) (*Service, error) {
	if d.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if d.Stock == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	s := &Service{
		orders:        d.Orders,
		stock:         d.Stock,
		addresses:     d.Addresses,
		locker:        d.Locker,
		notifier:      d.Notifier,
		events:        d.Events,
		discrepancies: d.Discrepancies,
	}
	if s.locker == nil {
		s.locker = lock.NewLocal(0)
	}
	if s.events == nil {
		s.events = events.Nop{}
	}
	return s, nil
}

// PaymentInfo is what the payment confirmation callback carries.
type PaymentInfo = order.Payment

func (s *Service) load(ctx context.Context, orderID string) (*order.Order, []order.Item, error) {
	o, items, err := s.orders.GetByID(ctx, orderID)
	if errors.Is(err, order.ErrNotFound) {
		return nil, nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, nil, &PersistenceError{Op: "load order", Err: err}
	}
	if len(items) == 0 {
		return nil, nil, invalid(orderID, "order has no items")
	}
	return o, items, nil
}

// CheckAvailability reads the current stock of every line item. It never
// writes.
func (s *Service) CheckAvailability(ctx context.Context, orderID string) (AvailabilityReport, error) {
	o, items, err := s.load(ctx, orderID)
	if err != nil {
		return AvailabilityReport{OrderID: orderID}, err
	}
	return s.check(ctx, o.ID, items)
}

// ValidateBeforePayment fails with a *ValidationError naming every item that
// cannot be sold.
func (s *Service) ValidateBeforePayment(ctx context.Context, orderID string) (AvailabilityReport, error) {
	o, items, err := s.load(ctx, orderID)
	if err != nil {
		return AvailabilityReport{OrderID: orderID}, err
	}
	return s.validate(ctx, o.ID, items)
}

func (s *Service) validate(ctx context.Context, orderID string, items []order.Item) (AvailabilityReport, error) {
	report, err := s.check(ctx, orderID, items)
	if err != nil {
		return report, err
	}
	if !report.CanProceed {
		return report, &ValidationError{OrderID: orderID, Reason: reasonInsufficient, Items: report.Shortages()}
	}
	return report, nil
}

func (s *Service) check(ctx context.Context, orderID string, items []order.Item) (AvailabilityReport, error) {
	report := AvailabilityReport{OrderID: orderID, CanProceed: true, Items: make([]ItemAvailability, 0, len(items))}
	for _, it := range items {
		a, err := s.availability(ctx, it)
		if err != nil {
			return report, &PersistenceError{Op: "read stock for item " + it.ID, Err: err}
		}
		report.Items = append(report.Items, a)
	}
	combineShared(report.Items)
	for _, a := range report.Items {
		if !a.Satisfied {
			report.CanProceed = false
		}
	}
	return report, nil
}

// combineShared re-judges lines that draw on the same stock row against their
// combined quantity. Each such line reports the combined shortage.
func combineShared(items []ItemAvailability) {
	type row struct {
		src reconcile.Source
		id  string
	}
	ordered := make(map[row]int, len(items))
	for _, a := range items {
		ordered[row{a.Source, a.SourceID}] += a.Ordered
	}
	for i := range items {
		a := &items[i]
		total := ordered[row{a.Source, a.SourceID}]
		if total == a.Ordered || (a.Reason != "" && a.Reason != reasonInsufficient) {
			continue
		}
		a.Shortage = max(0, total-a.InStock)
		if a.Shortage > 0 && a.Satisfied {
			a.Satisfied = false
			a.Reason = reasonInsufficient
		}
	}
}

func (s *Service) availability(ctx context.Context, it order.Item) (ItemAvailability, error) {
	a := ItemAvailability{
		ItemID:    it.ID,
		ProductID: it.ProductID,
		VariantID: it.VariantID,
		Name:      it.DisplayName(),
		Ordered:   it.Quantity,
	}
	a.Source, a.SourceID = stockSource(it)

	if a.Source == reconcile.SourceVariant {
		v, err := s.stock.GetVariant(ctx, a.SourceID)
		switch {
		case errors.Is(err, product.ErrVariantNotFound):
			a.Reason = reasonVariantMissing
		case err != nil:
			return a, err
		case v.ProductID != it.ProductID:
			a.Reason = reasonVariantMismatch
		default:
			a.InStock = v.Inventory
			a.Active = v.IsActive
		}
	} else {
		p, err := s.stock.GetByID(ctx, a.SourceID)
		switch {
		case errors.Is(err, product.ErrNotFound):
			a.Reason = reasonProductMissing
		case err != nil:
			return a, err
		default:
			a.InStock = p.Inventory
			a.Active = true
		}
	}

	a.Shortage = max(0, a.Ordered-a.InStock)
	a.Satisfied = a.Reason == "" && a.Active && a.InStock >= a.Ordered
	if !a.Satisfied && a.Reason == "" {
		if !a.Active {
			a.Reason = reasonInactive
		} else {
			a.Reason = reasonInsufficient
		}
	}
	return a, nil
}

// stockSource picks the row that is authoritative for an item's stock.
func stockSource(it order.Item) (reconcile.Source, string) {
	if it.VariantID != nil && *it.VariantID != "" {
		return reconcile.SourceVariant, *it.VariantID
	}
	return reconcile.SourceProduct, it.ProductID
}

func stockKeys(items []order.Item) []string {
	keys := make([]string, 0, len(items))
	for _, it := range items {
		src, id := stockSource(it)
		if src == reconcile.SourceVariant {
			keys = append(keys, lock.VariantKey(id))
		} else {
			keys = append(keys, lock.ProductKey(id))
		}
	}
	return keys
}

// SettlePayment commits a confirmed payment. Stock is re-checked under the
// stock-row locks, so a report obtained earlier is never trusted.
func (s *Service) SettlePayment(ctx context.Context, orderID string, p PaymentInfo) (*SettledOrder, error) {
	o, items, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := awaitingPayment(o); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, stockKeys(items)...)
	if err != nil {
		return nil, &PersistenceError{Op: "lock stock", Err: err}
	}
	defer unlock()

	// A concurrent callback for the same order may have settled it while we
	// waited for the locks.
	o, items, err = s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := awaitingPayment(o); err != nil {
		return nil, err
	}

	report, err := s.validate(ctx, o.ID, items)
	if err != nil {
		return nil, err
	}

	paid, err := s.orders.MarkPaid(ctx, o.ID, p)
	if errors.Is(err, order.ErrStateConflict) {
		return nil, invalid(o.ID, "order is not awaiting payment")
	}
	if err != nil {
		return nil, &PersistenceError{Op: "mark order paid", Err: err}
	}

	// The order is paid from here on; finish the bookkeeping even if the
	// caller goes away.
	bg := context.WithoutCancel(ctx)
	stock := s.adjust(bg, o.ID, items, -1)
	unlock()

	log.Printf("[settle] order=%s paid method=%s receipt=%s stock_failed=%d",
		o.ID, p.Method, p.ReceiptID, len(stock.Failed()))

	s.notifyOrder(bg, notify.KindPayment, paid, items)
	s.publish(bg, events.New(events.OrderPaid, o.ID, map[string]any{
		"payment_method": p.Method,
		"receipt_id":     p.ReceiptID,
		"total_amount":   paid.Total,
		"stock":          stock,
	}))

	return &SettledOrder{Order: paid, Items: items, Availability: report, Stock: stock}, nil
}

func awaitingPayment(o *order.Order) error {
	if o.PaymentStatus == order.PaymentPaid {
		return &ValidationError{OrderID: o.ID, Reason: "order is already paid", Err: ErrAlreadyPaid}
	}
	if o.PaymentStatus != order.PaymentPending || o.Status != order.StatusPending {
		return invalid(o.ID, "order is not awaiting payment (payment=%s, order=%s)", o.PaymentStatus, o.Status)
	}
	return nil
}

// RestoreInventory adds every item's quantity back to its stock row. It is
// the inverse of the settlement decrement and is not guarded by any check.
func (s *Service) RestoreInventory(ctx context.Context, orderID string) (StockReport, error) {
	o, items, err := s.load(ctx, orderID)
	if err != nil {
		return StockReport{OrderID: orderID}, err
	}
	return s.adjust(context.WithoutCancel(ctx), o.ID, items, +1), nil
}

// adjust writes sign*quantity to each item's stock row. Failures are recorded
// per item and never stop the loop.
func (s *Service) adjust(ctx context.Context, orderID string, items []order.Item, sign int) StockReport {
	report := StockReport{OrderID: orderID, Items: make([]StockAdjustment, 0, len(items))}
	for _, it := range items {
		src, id := stockSource(it)
		adj := StockAdjustment{ItemID: it.ID, Source: src, SourceID: id, Delta: sign * it.Quantity}

		var left int
		var err error
		if src == reconcile.SourceVariant {
			left, err = s.stock.AdjustVariantInventory(ctx, id, adj.Delta)
		} else {
			left, err = s.stock.AdjustInventory(ctx, id, adj.Delta)
		}
		if err != nil {
			adj.Error = err.Error()
			log.Printf("[settle] order=%s item=%s %s:%s delta=%d failed: %v", orderID, it.ID, src, id, adj.Delta, err)
			s.recordDiscrepancy(ctx, orderID, adj)
		} else {
			adj.Applied = true
			adj.Remaining = left
		}
		report.Items = append(report.Items, adj)
	}
	return report
}

func (s *Service) recordDiscrepancy(ctx context.Context, orderID string, adj StockAdjustment) {
	d := &reconcile.Discrepancy{
		ID:       uuid.NewString(),
		OrderID:  orderID,
		ItemID:   adj.ItemID,
		Source:   adj.Source,
		SourceID: adj.SourceID,
		Delta:    adj.Delta,
		Reason:   adj.Error,
		Status:   reconcile.StatusPending,
	}
	if s.discrepancies != nil {
		if err := s.discrepancies.Record(ctx, d); err != nil {
			log.Printf("[settle] order=%s record discrepancy for item=%s: %v", orderID, adj.ItemID, err)
		}
	}
	s.publish(ctx, events.New(events.StockDiscrepancy, orderID, d))
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.events.Publish(ctx, e); err != nil {
		log.Printf("[settle] order=%s publish %s: %v", e.OrderID, e.Type, err)
	}
}

// notifyOrder hands the SMS off to the notifier. A missing notifier or
// address only costs the message.
func (s *Service) notifyOrder(ctx context.Context, kind notify.Kind, o *order.Order, items []order.Item) {
	if s.notifier == nil || s.addresses == nil {
		return
	}
	addr, err := s.addresses.GetByID(ctx, o.AddressID)
	if err != nil {
		log.Printf("[settle] order=%s skip %s notification: address %s: %v", o.ID, kind, o.AddressID, err)
		return
	}
	s.notifier.Dispatch(kind, o.ID, buildMessage(o, items, addr))
}

func buildMessage(o *order.Order, items []order.Item, addr *address.Address) notify.Message {
	qty := 0
	for _, it := range items {
		qty += it.Quantity
	}
	return notify.Message{
		ProductName:    o.ProductName,
		ItemCount:      o.ItemCount,
		PaymentMethod:  o.PaymentMethod,
		TotalAmount:    o.Total,
		PaymentStatus:  string(o.PaymentStatus),
		OrderNumber:    o.Number(),
		RecipientName:  addr.RecipientName,
		RecipientPhone: addr.Phone,
		Address:        addr.Full(),
		TotalQuantity:  qty,
	}
}
