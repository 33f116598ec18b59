// Package producer discovers work: it walks the tenant directory, pulls each
// tenant's collections from the Shopify Admin API, and decomposes the records
// into typed jobs on the ingest queue.
package producer

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/devrihan/xeno-shopify/internal/logger"
	"github.com/devrihan/xeno-shopify/internal/metrics"
	"github.com/devrihan/xeno-shopify/internal/model"
	"github.com/devrihan/xeno-shopify/internal/queue"
	"github.com/devrihan/xeno-shopify/internal/repository"
	"github.com/devrihan/xeno-shopify/internal/shopify"
)

type Producer struct {
	tenants repository.TenantsRepository
	client  shopify.Client
	queue   queue.Enqueuer

	// Parallelism caps concurrent tenant syncs so a slow tenant cannot hog
	// the run. FetchTimeout bounds one tenant's whole fetch cycle.
	Parallelism  int
	FetchTimeout time.Duration
}

func New(tenants repository.TenantsRepository, client shopify.Client, q queue.Enqueuer) *Producer {
	return &Producer{
		tenants:      tenants,
		client:       client,
		queue:        q,
		Parallelism:  4,
		FetchTimeout: 60 * time.Second,
	}
}

// RunStats summarizes one sync run.
type RunStats struct {
	Tenants  int
	Enqueued int64
	Failed   int64 // tenants that aborted mid-sync
}

// SyncAll runs one full sync across every tenant in the directory. Tenant
// failures are logged and never abort the other tenants; an empty directory
// is a benign no-op.
func (p *Producer) SyncAll(ctx context.Context) (RunStats, error) {
	tenants, err := p.tenants.List(ctx)
	if err != nil {
		return RunStats{}, fmt.Errorf("list tenants: %w", err)
	}

	stats := RunStats{Tenants: len(tenants)}
	if len(tenants) == 0 {
		logger.Log.Info("sync: no tenants onboarded, nothing to do")
		metrics.SyncRunsTotal.WithLabelValues("empty").Inc()
		return stats, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if p.Parallelism > 0 {
		g.SetLimit(p.Parallelism)
	}

	for _, t := range tenants {
		t := t
		g.Go(func() error {
			n, err := p.SyncTenant(gctx, t)
			atomic.AddInt64(&stats.Enqueued, n)
			if err != nil {
				atomic.AddInt64(&stats.Failed, 1)
				logger.Log.Warn("sync: tenant skipped",
					zap.String("shop_domain", t.ShopDomain), zap.Error(err))
			}
			return nil // one tenant must never abort the group
		})
	}
	_ = g.Wait()

	metrics.SyncRunsTotal.WithLabelValues("ok").Inc()
	logger.Log.Info("sync: run complete",
		zap.Int("tenants", stats.Tenants),
		zap.Int64("enqueued", stats.Enqueued),
		zap.Int64("failed", stats.Failed))
	return stats, nil
}

// SyncTenant fetches one page of each collection for a single tenant and
// enqueues a job per record. A checkouts fetch failure is isolated: the
// customer/product/order jobs already enqueued for this tenant stand.
// Returns the number of jobs enqueued.
func (p *Producer) SyncTenant(ctx context.Context, t model.Tenant) (int64, error) {
	if p.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.FetchTimeout)
		defer cancel()
	}

	var enqueued int64

	customers, err := p.client.Customers(ctx, t.ShopDomain, t.AccessToken)
	if err != nil {
		metrics.FetchErrorsTotal.WithLabelValues("customers").Inc()
		return enqueued, fmt.Errorf("fetch customers: %w", err)
	}
	for _, c := range customers {
		enqueued += p.enqueue(ctx, model.Job{
			Type:       model.JobTypeCustomer,
			ShopDomain: t.ShopDomain,
			Customer:   mapCustomer(c),
		})
	}

	products, err := p.client.Products(ctx, t.ShopDomain, t.AccessToken)
	if err != nil {
		metrics.FetchErrorsTotal.WithLabelValues("products").Inc()
		return enqueued, fmt.Errorf("fetch products: %w", err)
	}
	for _, pr := range products {
		enqueued += p.enqueue(ctx, model.Job{
			Type:       model.JobTypeProduct,
			ShopDomain: t.ShopDomain,
			Product:    mapProduct(pr),
		})
	}

	orders, err := p.client.Orders(ctx, t.ShopDomain, t.AccessToken)
	if err != nil {
		metrics.FetchErrorsTotal.WithLabelValues("orders").Inc()
		return enqueued, fmt.Errorf("fetch orders: %w", err)
	}
	for _, o := range orders {
		enqueued += p.enqueue(ctx, model.Job{
			Type:       model.JobTypeOrder,
			ShopDomain: t.ShopDomain,
			Order:      mapOrder(o),
		})
	}

	// Checkouts live behind a separate API scope and fail more often; keep
	// that failure away from the rest of the tenant's run.
	checkouts, err := p.client.Checkouts(ctx, t.ShopDomain, t.AccessToken)
	if err != nil {
		metrics.FetchErrorsTotal.WithLabelValues("checkouts").Inc()
		logger.Log.Warn("sync: checkouts fetch failed",
			zap.String("shop_domain", t.ShopDomain), zap.Error(err))
		return enqueued, nil
	}
	for _, chk := range checkouts {
		enqueued += p.enqueue(ctx, model.Job{
			Type:       model.JobTypeCheckout,
			ShopDomain: t.ShopDomain,
			Checkout:   mapCheckout(chk),
		})
	}

	return enqueued, nil
}

func (p *Producer) enqueue(ctx context.Context, job model.Job) int64 {
	if _, err := p.queue.Enqueue(ctx, job); err != nil {
		logger.Log.Error("sync: enqueue failed",
			zap.String("type", job.Type.String()),
			zap.String("shop_domain", job.ShopDomain),
			zap.Error(err))
		return 0
	}
	return 1
}

// ---- record → payload mapping ----

func mapCustomer(c shopify.Customer) *model.Customer {
	return &model.Customer{
		ExternalID: c.ID,
		Name:       strings.TrimSpace(c.FirstName + " " + c.LastName),
		Email:      c.Email,
		TotalSpent: c.TotalSpent,
	}
}

// mapProduct takes the first variant's price; a product without variants is
// stored with price 0.
func mapProduct(p shopify.Product) *model.Product {
	price := "0"
	if len(p.Variants) > 0 {
		price = p.Variants[0].Price
	}
	return &model.Product{
		ExternalID: p.ID,
		Title:      p.Title,
		Price:      price,
	}
}

func mapOrder(o shopify.Order) *model.Order {
	var custID *int64
	if o.Customer != nil {
		id := o.Customer.ID
		custID = &id
	}
	return &model.Order{
		ExternalID:         o.ID,
		OrderNumber:        o.OrderNumber,
		TotalPrice:         o.TotalPrice,
		Currency:           o.Currency,
		CustomerExternalID: custID,
		CreatedAt:          o.CreatedAt,
	}
}

// mapCheckout resolves the email from the checkout itself first, then the
// embedded customer; otherwise it stays null and the recovery action cannot
// target this checkout.
func mapCheckout(c shopify.Checkout) *model.Checkout {
	var email *string
	switch {
	case c.Email != "":
		e := c.Email
		email = &e
	case c.Customer != nil && c.Customer.Email != "":
		e := c.Customer.Email
		email = &e
	}
	return &model.Checkout{
		ExternalID:    c.ID,
		Token:         c.Token,
		TotalPrice:    c.TotalPrice,
		Currency:      c.Currency,
		CustomerEmail: email,
		RecoveryURL:   c.AbandonedCheckoutURL,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}
