package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/devrihan/xeno-shopify/internal/model"
)

// CustomersRepository persists synced customers keyed (external_id, shop_domain).
type CustomersRepository interface {
	// InsertIfAbsent inserts the row unless the natural key already exists.
	// On conflict it is a no-op: existing values are never overwritten.
	// Returns true when a row was actually inserted.
	InsertIfAbsent(ctx context.Context, shopDomain string, c model.Customer) (bool, error)
}

type CustomersRepositoryImpl struct {
	db *sqlx.DB
}

func NewCustomersRepository(db *sqlx.DB) *CustomersRepositoryImpl {
	return &CustomersRepositoryImpl{db: db}
}

var _ CustomersRepository = (*CustomersRepositoryImpl)(nil)

func (r *CustomersRepositoryImpl) InsertIfAbsent(ctx context.Context, shopDomain string, c model.Customer) (bool, error) {
	// ON DUPLICATE KEY no-op instead of INSERT IGNORE: only the dedup key is
	// swallowed, every other error still surfaces.
	const q = `
INSERT INTO customers (external_id, shop_domain, name, email, total_spent, created_at)
VALUES (?, ?, ?, ?, ?, NOW())
ON DUPLICATE KEY UPDATE external_id = external_id
`
	res, err := r.db.ExecContext(ctx, q, c.ExternalID, shopDomain, c.Name, c.Email, c.TotalSpent)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
