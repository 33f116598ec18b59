package shopify

import "time"

// Raw Admin REST API record shapes, trimmed to the fields the pipeline maps.
// Customer may or may not be embedded in orders and checkouts.

type Customer struct {
	ID         int64  `json:"id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	TotalSpent string `json:"total_spent"`
}

type Variant struct {
	ID    int64  `json:"id"`
	Price string `json:"price"`
}

type Product struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	Variants []Variant `json:"variants"`
}

type Order struct {
	ID          int64     `json:"id"`
	OrderNumber int64     `json:"order_number"`
	TotalPrice  string    `json:"total_price"`
	Currency    string    `json:"currency"`
	Customer    *Customer `json:"customer,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Checkout struct {
	ID                   int64     `json:"id"`
	Token                string    `json:"token"`
	TotalPrice           string    `json:"total_price"`
	Currency             string    `json:"currency"`
	Email                string    `json:"email"`
	Customer             *Customer `json:"customer,omitempty"`
	AbandonedCheckoutURL string    `json:"abandoned_checkout_url"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

type customersResponse struct {
	Customers []Customer `json:"customers"`
}

type productsResponse struct {
	Products []Product `json:"products"`
}

type ordersResponse struct {
	Orders []Order `json:"orders"`
}

type checkoutsResponse struct {
	Checkouts []Checkout `json:"checkouts"`
}
