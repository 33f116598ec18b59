package model

import "time"

// Tenant is one onboarded store, isolated by shop domain.
// Created by onboarding; the pipeline only ever reads it.
type Tenant struct {
	ID          int64     `db:"id"`
	ShopDomain  string    `db:"shop_domain"`
	AccessToken string    `db:"access_token"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}
