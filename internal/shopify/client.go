package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const tokenHeader = "X-Shopify-Access-Token"

// Client lists the four entity collections for one tenant. The reads are
// paginated upstream; each call fetches a single page.
type Client interface {
	Customers(ctx context.Context, shopDomain, accessToken string) ([]Customer, error)
	Products(ctx context.Context, shopDomain, accessToken string) ([]Product, error)
	Orders(ctx context.Context, shopDomain, accessToken string) ([]Order, error)
	Checkouts(ctx context.Context, shopDomain, accessToken string) ([]Checkout, error)
}

// APIError is returned for non-2xx Admin API responses.
type APIError struct {
	Status   int
	Resource string
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shopify: resource=%s status=%d body=%q", e.Resource, e.Status, e.Body)
}

type HTTPClient struct {
	apiVersion string
	pageLimit  int
	// scheme is overridable for tests; production always uses https.
	scheme string
	client *http.Client
}

func NewHTTPClient(apiVersion string, timeoutMs, pageLimit int) *HTTPClient {
	if timeoutMs <= 0 {
		timeoutMs = 10000
	}
	if pageLimit <= 0 {
		pageLimit = 250
	}
	return &HTTPClient{
		apiVersion: apiVersion,
		pageLimit:  pageLimit,
		scheme:     "https",
		client:     &http.Client{Timeout: time.Duration(timeoutMs) * time.Millisecond},
	}
}

var _ Client = (*HTTPClient)(nil)

func (c *HTTPClient) get(ctx context.Context, shopDomain, accessToken, resource string, extra url.Values, out any) error {
	q := url.Values{}
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("limit", strconv.Itoa(c.pageLimit))

	u := fmt.Sprintf("%s://%s/admin/api/%s/%s.json?%s", c.scheme, shopDomain, c.apiVersion, resource, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set(tokenHeader, accessToken)
	req.Header.Set("Accept", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", resource, err)
	}
	defer res.Body.Close()

	if res.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 1<<10))
		return &APIError{Status: res.StatusCode, Resource: resource, Body: string(b)}
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", resource, err)
	}
	return nil
}

func (c *HTTPClient) Customers(ctx context.Context, shopDomain, accessToken string) ([]Customer, error) {
	var out customersResponse
	if err := c.get(ctx, shopDomain, accessToken, "customers", nil, &out); err != nil {
		return nil, err
	}
	return out.Customers, nil
}

func (c *HTTPClient) Products(ctx context.Context, shopDomain, accessToken string) ([]Product, error) {
	var out productsResponse
	if err := c.get(ctx, shopDomain, accessToken, "products", nil, &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

func (c *HTTPClient) Orders(ctx context.Context, shopDomain, accessToken string) ([]Order, error) {
	var out ordersResponse
	if err := c.get(ctx, shopDomain, accessToken, "orders", url.Values{"status": {"any"}}, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

func (c *HTTPClient) Checkouts(ctx context.Context, shopDomain, accessToken string) ([]Checkout, error) {
	var out checkoutsResponse
	if err := c.get(ctx, shopDomain, accessToken, "checkouts", nil, &out); err != nil {
		return nil, err
	}
	return out.Checkouts, nil
}
