// Package product provides the stock-source records (products and their colour
// variants) and the PostgreSQL repository used to read and adjust inventory.
package product

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound          = errors.New("product not found")
	ErrVariantNotFound   = errors.New("variant not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidInventory  = errors.New("inventory must be non-negative")
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*Product, error)
	GetVariant(ctx context.Context, id string) (*Variant, error)
	ListVariants(ctx context.Context, productID string) ([]Variant, error)
	SetInventory(ctx context.Context, id string, inventory int) error
	UpdateVariant(ctx context.Context, id string, inventory *int, isActive *bool) (*Variant, error)
	// AdjustInventory adds delta (possibly negative) to the product inventory
	// and returns the new value. The update is refused with
	// ErrInsufficientStock when it would go below zero.
	AdjustInventory(ctx context.Context, id string, delta int) (int, error)
	AdjustVariantInventory(ctx context.Context, id string, delta int) (int, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var p Product
	err := r.db.QueryRow(ctx, `
		SELECT id, name, price::text, COALESCE(image_url,''), inventory, created_at, updated_at
		FROM products WHERE id=$1
	`, id).Scan(&p.ID, &p.Name, &p.Price, &p.ImageURL, &p.Inventory, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PGRepo) GetVariant(ctx context.Context, id string) (*Variant, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var v Variant
	err := r.db.QueryRow(ctx, `
		SELECT id, product_id, color, COALESCE(image_url,''), inventory, is_active, created_at, updated_at
		FROM product_variants WHERE id=$1
	`, id).Scan(&v.ID, &v.ProductID, &v.Color, &v.ImageURL, &v.Inventory, &v.IsActive, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrVariantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *PGRepo) ListVariants(ctx context.Context, productID string) ([]Variant, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, product_id, color, COALESCE(image_url,''), inventory, is_active, created_at, updated_at
		FROM product_variants
		WHERE product_id=$1
		ORDER BY created_at
	`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Variant{}
	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Color, &v.ImageURL, &v.Inventory, &v.IsActive, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *PGRepo) SetInventory(ctx context.Context, id string, inventory int) error {
	if inventory < 0 {
		return ErrInvalidInventory
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE products SET inventory=$2, updated_at=NOW() WHERE id=$1
	`, id, inventory)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) UpdateVariant(ctx context.Context, id string, inventory *int, isActive *bool) (*Variant, error) {
	if inventory != nil && *inventory < 0 {
		return nil, ErrInvalidInventory
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var v Variant
	err := r.db.QueryRow(ctx, `
		UPDATE product_variants
		SET inventory = COALESCE($2, inventory),
		    is_active = COALESCE($3, is_active),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING id, product_id, color, COALESCE(image_url,''), inventory, is_active, created_at, updated_at
	`, id, inventory, isActive).Scan(&v.ID, &v.ProductID, &v.Color, &v.ImageURL, &v.Inventory, &v.IsActive, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrVariantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *PGRepo) AdjustInventory(ctx context.Context, id string, delta int) (int, error) {
	return r.adjust(ctx, "products", ErrNotFound, id, delta)
}

func (r *PGRepo) AdjustVariantInventory(ctx context.Context, id string, delta int) (int, error) {
	return r.adjust(ctx, "product_variants", ErrVariantNotFound, id, delta)
}

// adjust applies delta in a single conditional statement so that concurrent
// writers can never push inventory below zero.
func (r *PGRepo) adjust(ctx context.Context, table string, notFound error, id string, delta int) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var left int
	err := r.db.QueryRow(ctx, fmt.Sprintf(`
		UPDATE %s
		SET inventory = inventory + $2, updated_at = NOW()
		WHERE id = $1 AND inventory + $2 >= 0
		RETURNING inventory
	`, table), id, delta).Scan(&left)
	if err == nil {
		return left, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	var exists bool
	if err := r.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id=$1)`, table), id,
	).Scan(&exists); err != nil {
		return 0, err
	}
	if !exists {
		return 0, notFound
	}
	return 0, ErrInsufficientStock
}
