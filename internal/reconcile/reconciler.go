package reconcile

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/hatshop/orders/internal/lock"
	"github.com/hatshop/orders/internal/product"
)

// Adjuster applies a signed delta to a stock row.
type Adjuster interface {
	AdjustInventory(ctx context.Context, id string, delta int) (int, error)
	AdjustVariantInventory(ctx context.Context, id string, delta int) (int, error)
}

type Reconciler struct {
	repo        Repository
	stock       Adjuster
	locker      lock.Locker
	maxAttempts int
	batch       int
}

// NewReconciler takes the same stock-row locks settlement does, so a repair
// never lands between a settlement's check and its decrement. A nil locker
// means an in-process one.
func NewReconciler(repo Repository, stock Adjuster, locker lock.Locker, maxAttempts int) *Reconciler {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if locker == nil {
		locker = lock.NewLocal(0)
	}
	return &Reconciler{repo: repo, stock: stock, locker: locker, maxAttempts: maxAttempts, batch: 100}
}

type Summary struct {
	Resolved  int
	Retrying  int
	Abandoned int
	Busy      int
}

// RunOnce retries one batch of pending discrepancies.
func (r *Reconciler) RunOnce(ctx context.Context) (Summary, error) {
	var sum Summary
	pending, err := r.repo.ListPending(ctx, r.batch)
	if err != nil {
		return sum, err
	}
	for i := range pending {
		d := &pending[i]
		err := r.apply(ctx, d)
		if errors.Is(err, lock.ErrLockTimeout) {
			// Row is in use; not an attempt.
			sum.Busy++
			continue
		}
		d.Attempts++
		switch {
		case err == nil:
			d.Status = StatusResolved
			sum.Resolved++
			log.Printf("[reconcile] resolved %s order=%s %s:%s delta=%d", d.ID, d.OrderID, d.Source, d.SourceID, d.Delta)
		case d.Attempts >= r.maxAttempts:
			d.Status = StatusAbandoned
			d.Reason = err.Error()
			sum.Abandoned++
			log.Printf("[reconcile] abandoned %s order=%s %s:%s delta=%d after %d attempts: %v",
				d.ID, d.OrderID, d.Source, d.SourceID, d.Delta, d.Attempts, err)
		default:
			d.Reason = err.Error()
			sum.Retrying++
		}
		if err := r.repo.Update(ctx, d); err != nil {
			log.Printf("[reconcile] update %s: %v", d.ID, err)
		}
	}
	return sum, nil
}

func (r *Reconciler) apply(ctx context.Context, d *Discrepancy) error {
	key := lock.ProductKey(d.SourceID)
	if d.Source == SourceVariant {
		key = lock.VariantKey(d.SourceID)
	}
	unlock, err := r.locker.Lock(ctx, key)
	if err != nil {
		return err
	}
	defer unlock()

	switch d.Source {
	case SourceVariant:
		_, err = r.stock.AdjustVariantInventory(ctx, d.SourceID, d.Delta)
	default:
		_, err = r.stock.AdjustInventory(ctx, d.SourceID, d.Delta)
	}
	return err
}

// Run calls RunOnce immediately and then on every tick until ctx is done.
func (r *Reconciler) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		sum, err := r.RunOnce(ctx)
		switch {
		case err != nil && !errors.Is(err, context.Canceled):
			log.Printf("[reconcile] run: %v", err)
		case sum != (Summary{}):
			log.Printf("[reconcile] resolved=%d retrying=%d abandoned=%d busy=%d", sum.Resolved, sum.Retrying, sum.Abandoned, sum.Busy)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

var _ Adjuster = product.Repository(nil)
