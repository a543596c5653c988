// Package address holds customer shipping addresses, used as the recipient of
// order notifications.
package address

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("address not found")

type Address struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	RecipientName string `json:"recipient_name"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	AddressDetail string `json:"address_detail,omitempty"`
	PostalCode    string `json:"postal_code,omitempty"`
}

// Full joins the street address and the detail line.
func (a *Address) Full() string {
	return strings.TrimSpace(a.Address + " " + a.AddressDetail)
}

type Repository interface {
	GetByID(ctx context.Context, id string) (*Address, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Address, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var a Address
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, recipient_name, phone, address,
		       COALESCE(address_detail,''), COALESCE(postal_code,'')
		FROM addresses WHERE id=$1
	`, id).Scan(&a.ID, &a.UserID, &a.RecipientName, &a.Phone, &a.Address, &a.AddressDetail, &a.PostalCode)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
