package model

import "time"

// Entity payloads carried by jobs and persisted by the worker pool.
// Every payload carries shop_domain on the envelope; (external_id, shop_domain)
// is the natural key in storage. Prices travel as decimal strings and land in
// DECIMAL columns untouched.

type Customer struct {
	ExternalID int64  `json:"external_id" db:"external_id"`
	Name       string `json:"name" db:"name"`
	Email      string `json:"email" db:"email"`
	TotalSpent string `json:"total_spent" db:"total_spent"`
}

type Product struct {
	ExternalID int64  `json:"external_id" db:"external_id"`
	Title      string `json:"title" db:"title"`
	Price      string `json:"price" db:"price"`
}

type Order struct {
	ExternalID         int64     `json:"external_id" db:"external_id"`
	OrderNumber        int64     `json:"order_number" db:"order_number"`
	TotalPrice         string    `json:"total_price" db:"total_price"`
	Currency           string    `json:"currency" db:"currency"`
	CustomerExternalID *int64    `json:"customer_external_id,omitempty" db:"customer_external_id"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}

type Checkout struct {
	ExternalID    int64     `json:"external_id" db:"external_id"`
	Token         string    `json:"token" db:"token"`
	TotalPrice    string    `json:"total_price" db:"total_price"`
	Currency      string    `json:"currency" db:"currency"`
	CustomerEmail *string   `json:"customer_email,omitempty" db:"customer_email"`
	RecoveryURL   string    `json:"recovery_url" db:"recovery_url"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
