// Package reconcile keeps the ledger of stock adjustments that could not be
// applied during settlement or cancellation, and retries them.
package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Source string

const (
	SourceProduct Source = "product"
	SourceVariant Source = "variant"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusResolved  Status = "resolved"
	StatusAbandoned Status = "abandoned"
)

var ErrNotFound = errors.New("discrepancy not found")

// Discrepancy is a signed inventory delta that still has to be applied to a
// stock row.
type Discrepancy struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id"`
	ItemID    string    `json:"item_id"`
	Source    Source    `json:"source"`
	SourceID  string    `json:"source_id"`
	Delta     int       `json:"delta"`
	Reason    string    `json:"reason"`
	Status    Status    `json:"status"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Repository interface {
	Record(ctx context.Context, d *Discrepancy) error
	ListPending(ctx context.Context, limit int) ([]Discrepancy, error)
	// Update stores status, attempts and reason.
	Update(ctx context.Context, d *Discrepancy) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Record(ctx context.Context, d *Discrepancy) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO stock_discrepancies
			(id, order_id, item_id, source, source_id, delta, reason, status, attempts, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW(),NOW())
	`, d.ID, d.OrderID, d.ItemID, string(d.Source), d.SourceID, d.Delta, d.Reason, string(d.Status), d.Attempts)
	return err
}

func (r *PGRepo) ListPending(ctx context.Context, limit int) ([]Discrepancy, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, item_id, source, source_id, delta, reason, status, attempts, created_at, updated_at
		FROM stock_discrepancies
		WHERE status = 'pending'
		ORDER BY created_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Discrepancy
	for rows.Next() {
		var d Discrepancy
		if err := rows.Scan(&d.ID, &d.OrderID, &d.ItemID, &d.Source, &d.SourceID, &d.Delta,
			&d.Reason, &d.Status, &d.Attempts, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *PGRepo) Update(ctx context.Context, d *Discrepancy) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var updated time.Time
	err := r.db.QueryRow(ctx, `
		UPDATE stock_discrepancies
		SET status=$2, attempts=$3, reason=$4, updated_at=NOW()
		WHERE id=$1
		RETURNING updated_at
	`, d.ID, string(d.Status), d.Attempts, d.Reason).Scan(&updated)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	d.UpdatedAt = updated
	return nil
}
