package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/devrihan/xeno-shopify/internal/model"
)

type ProductsRepository interface {
	InsertIfAbsent(ctx context.Context, shopDomain string, p model.Product) (bool, error)
}

type ProductsRepositoryImpl struct {
	db *sqlx.DB
}

func NewProductsRepository(db *sqlx.DB) *ProductsRepositoryImpl {
	return &ProductsRepositoryImpl{db: db}
}

var _ ProductsRepository = (*ProductsRepositoryImpl)(nil)

func (r *ProductsRepositoryImpl) InsertIfAbsent(ctx context.Context, shopDomain string, p model.Product) (bool, error) {
	const q = `
INSERT INTO products (external_id, shop_domain, title, price, created_at)
VALUES (?, ?, ?, ?, NOW())
ON DUPLICATE KEY UPDATE external_id = external_id
`
	res, err := r.db.ExecContext(ctx, q, p.ExternalID, shopDomain, p.Title, p.Price)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
