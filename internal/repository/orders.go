package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/devrihan/xeno-shopify/internal/model"
)

// OrdersRepository persists synced orders. customer_external_id is an
// unvalidated soft reference: the customer row may land later or never.
type OrdersRepository interface {
	InsertIfAbsent(ctx context.Context, shopDomain string, o model.Order) (bool, error)
}

type OrdersRepositoryImpl struct {
	db *sqlx.DB
}

func NewOrdersRepository(db *sqlx.DB) *OrdersRepositoryImpl {
	return &OrdersRepositoryImpl{db: db}
}

var _ OrdersRepository = (*OrdersRepositoryImpl)(nil)

func (r *OrdersRepositoryImpl) InsertIfAbsent(ctx context.Context, shopDomain string, o model.Order) (bool, error) {
	const q = `
INSERT INTO orders (external_id, shop_domain, order_number, total_price, currency, customer_external_id, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE external_id = external_id
`
	res, err := r.db.ExecContext(ctx, q,
		o.ExternalID, shopDomain, o.OrderNumber, o.TotalPrice, o.Currency, o.CustomerExternalID, o.CreatedAt,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
