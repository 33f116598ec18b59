package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/devrihan/xeno-shopify/internal/model"
)

// TenantsRepository is the tenant directory. The pipeline reads it; onboarding
// (the ops API or an administrator) writes it.
type TenantsRepository interface {
	List(ctx context.Context) ([]model.Tenant, error)
	GetByDomain(ctx context.Context, shopDomain string) (*model.Tenant, error)
	Upsert(ctx context.Context, shopDomain, accessToken string) error
}

type TenantsRepositoryImpl struct {
	db *sqlx.DB
}

func NewTenantsRepository(db *sqlx.DB) *TenantsRepositoryImpl {
	return &TenantsRepositoryImpl{db: db}
}

var _ TenantsRepository = (*TenantsRepositoryImpl)(nil)

func (r *TenantsRepositoryImpl) List(ctx context.Context) ([]model.Tenant, error) {
	var ts []model.Tenant
	err := r.db.SelectContext(ctx, &ts, `
		SELECT id, shop_domain, access_token, created_at, updated_at
		  FROM tenants
		 ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	return ts, nil
}

func (r *TenantsRepositoryImpl) GetByDomain(ctx context.Context, shopDomain string) (*model.Tenant, error) {
	var t model.Tenant
	err := r.db.GetContext(ctx, &t, `
		SELECT id, shop_domain, access_token, created_at, updated_at
		  FROM tenants
		 WHERE shop_domain = ? LIMIT 1
	`, shopDomain)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Upsert inserts the tenant or rotates its access token. Unlike entity writes
// this is last-write-wins: a re-onboarded store brings a fresh token.
func (r *TenantsRepositoryImpl) Upsert(ctx context.Context, shopDomain, accessToken string) error {
	const q = `
INSERT INTO tenants (shop_domain, access_token, created_at, updated_at)
VALUES (?, ?, NOW(), NOW())
ON DUPLICATE KEY UPDATE
    access_token = VALUES(access_token),
    updated_at   = NOW()
`
	_, err := r.db.ExecContext(ctx, q, shopDomain, accessToken)
	return err
}
