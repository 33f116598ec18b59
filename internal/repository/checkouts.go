package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/devrihan/xeno-shopify/internal/model"
)

type CheckoutsRepository interface {
	InsertIfAbsent(ctx context.Context, shopDomain string, c model.Checkout) (bool, error)
	// Get fetches one abandoned checkout by natural key; nil when absent.
	// Used by the recovery action to resolve the notification email.
	Get(ctx context.Context, shopDomain string, externalID int64) (*model.Checkout, error)
}

type CheckoutsRepositoryImpl struct {
	db *sqlx.DB
}

func NewCheckoutsRepository(db *sqlx.DB) *CheckoutsRepositoryImpl {
	return &CheckoutsRepositoryImpl{db: db}
}

var _ CheckoutsRepository = (*CheckoutsRepositoryImpl)(nil)

func (r *CheckoutsRepositoryImpl) InsertIfAbsent(ctx context.Context, shopDomain string, c model.Checkout) (bool, error) {
	const q = `
INSERT INTO abandoned_checkouts
    (external_id, shop_domain, token, total_price, currency, customer_email, recovery_url, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE external_id = external_id
`
	res, err := r.db.ExecContext(ctx, q,
		c.ExternalID, shopDomain, c.Token, c.TotalPrice, c.Currency, c.CustomerEmail, c.RecoveryURL, c.CreatedAt, c.UpdatedAt,
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

func (r *CheckoutsRepositoryImpl) Get(ctx context.Context, shopDomain string, externalID int64) (*model.Checkout, error) {
	var c model.Checkout
	err := r.db.GetContext(ctx, &c, `
		SELECT external_id, token, total_price, currency, customer_email, recovery_url, created_at, updated_at
		  FROM abandoned_checkouts
		 WHERE external_id = ? AND shop_domain = ? LIMIT 1
	`, externalID, shopDomain)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
