package order

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrStateConflict is returned by conditional updates when the order
	// exists but is not in one of the expected states.
	ErrStateConflict = errors.New("order state conflict")
)

type Repository interface {
	Create(ctx context.Context, o *Order, items []Item) error
	GetByID(ctx context.Context, id string) (*Order, []Item, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error)
	GetItems(ctx context.Context, orderID string) ([]Item, error)
	// MarkPaid moves a pending/pending order to paid/processing.
	MarkPaid(ctx context.Context, id string, p Payment) (*Order, error)
	// Transition sets order_status to `to` only if the current status is in
	// `from`. The returned order carries the payment_status seen by the update.
	Transition(ctx context.Context, id string, from []Status, to Status) (*Order, error)
}

const orderColumns = `
	id, user_id, address_id, total_amount::text, payment_status, order_status,
	COALESCE(note,''), product_name, COALESCE(product_image,''), item_count,
	COALESCE(payment_method,''), COALESCE(payment_key,''), paid_at, cancelled_at,
	created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.AddressID, &o.Total, &o.PaymentStatus, &o.Status,
		&o.Note, &o.ProductName, &o.ProductImage, &o.ItemCount,
		&o.PaymentMethod, &o.PaymentKey, &o.PaidAt, &o.CancelledAt,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Create(ctx context.Context, o *Order, items []Item) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
    INSERT INTO orders (id, user_id, address_id, total_amount, payment_status, order_status,
                        note, product_name, product_image, item_count, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW(),NOW())
  `, o.ID, o.UserID, o.AddressID, o.Total.String(), string(o.PaymentStatus), string(o.Status),
		o.Note, o.ProductName, o.ProductImage, o.ItemCount); err != nil {
		return err
	}

	for _, it := range items {
		if _, err := tx.Exec(ctx, `
      INSERT INTO order_items (id, order_id, product_id, variant_id, quantity, price,
                               product_name, product_image, variant_color, variant_image)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    `, it.ID, o.ID, it.ProductID, it.VariantID, it.Quantity, it.Price.String(),
			it.ProductName, it.ProductImage, it.VariantColor, it.VariantImage); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Order, []Item, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	items, err := r.GetItems(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return o, items, nil
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.Query(ctx, `
    SELECT `+orderColumns+`
    FROM orders WHERE user_id=$1
    ORDER BY created_at DESC LIMIT $2 OFFSET $3
  `, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *PGRepo) GetItems(ctx context.Context, orderID string) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
    SELECT id, order_id, product_id, variant_id, quantity, price::text,
           product_name, COALESCE(product_image,''), COALESCE(variant_color,''), COALESCE(variant_image,'')
    FROM order_items
    WHERE order_id = $1
    ORDER BY id
  `, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.VariantID, &it.Quantity, &it.Price,
			&it.ProductName, &it.ProductImage, &it.VariantColor, &it.VariantImage); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PGRepo) MarkPaid(ctx context.Context, id string, p Payment) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var data []byte
	if len(p.Data) > 0 {
		data = p.Data
	}
	o, err := scanOrder(r.db.QueryRow(ctx, `
    UPDATE orders
    SET payment_status = 'paid',
        order_status = 'processing',
        payment_method = $2,
        payment_key = $3,
        payment_data = $4,
        paid_at = NOW(),
        updated_at = NOW()
    WHERE id = $1 AND payment_status = 'pending' AND order_status = 'pending'
    RETURNING `+orderColumns, id, p.Method, p.ReceiptID, data))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.missingOrConflict(ctx, id)
	}
	return o, err
}

func (r *PGRepo) Transition(ctx context.Context, id string, from []Status, to Status) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}
	o, err := scanOrder(r.db.QueryRow(ctx, `
    UPDATE orders
    SET order_status = $2,
        cancelled_at = CASE WHEN $2 = 'cancelled' THEN NOW() ELSE cancelled_at END,
        updated_at = NOW()
    WHERE id = $1 AND order_status = ANY($3::text[])
    RETURNING `+orderColumns, id, string(to), allowed))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.missingOrConflict(ctx, id)
	}
	return o, err
}

func (r *PGRepo) missingOrConflict(ctx context.Context, id string) error {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id=$1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrStateConflict
}
