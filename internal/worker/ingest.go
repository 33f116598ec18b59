// Package worker consumes ingest jobs and applies them to storage with
// first-write-wins semantics. One Ingest instance serves one job type; the
// four types run as independent consumer groups.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/devrihan/xeno-shopify/internal/kafka"
	"github.com/devrihan/xeno-shopify/internal/logger"
	"github.com/devrihan/xeno-shopify/internal/metrics"
	"github.com/devrihan/xeno-shopify/internal/model"
	"github.com/devrihan/xeno-shopify/internal/repository"
)

// Consumer is the dequeue side of the job queue.
type Consumer interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, m kafka.Message) error
}

// Requeuer handles the nack path: bounded retry, then dead-letter.
type Requeuer interface {
	Requeue(ctx context.Context, job model.Job) error
	DeadLetter(ctx context.Context, raw []byte) error
}

// Store bundles the per-type idempotent write targets.
type Store struct {
	Customers repository.CustomersRepository
	Products  repository.ProductsRepository
	Orders    repository.OrdersRepository
	Checkouts repository.CheckoutsRepository
}

// Ingest is the worker pool for one job type.
type Ingest struct {
	Type     model.JobType
	Consumer Consumer
	Queue    Requeuer
	Store    Store

	Workers     int // goroutines processing jobs
	MaxAttempts int // total tries before a transient failure goes dead
}

func NewIngest(t model.JobType, c Consumer, q Requeuer, s Store) *Ingest {
	return &Ingest{
		Type:        t,
		Consumer:    c,
		Queue:       q,
		Store:       s,
		Workers:     8,
		MaxAttempts: 3,
	}
}

// Run starts the pool and blocks until ctx is cancelled.
func (w *Ingest) Run(ctx context.Context) error {
	if !w.Type.Valid() {
		return errors.New("ingest: invalid job type")
	}
	if w.Workers <= 0 {
		w.Workers = 8
	}
	if w.MaxAttempts <= 0 {
		w.MaxAttempts = 3
	}

	msgCh := make(chan kafka.Message, w.Workers*2)

	// Fetcher goroutine
	go func() {
		defer close(msgCh)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				m, err := w.Consumer.Fetch(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					logger.Log.Warn("ingest: fetch failed",
						zap.String("type", w.Type.String()), zap.Error(err))
					time.Sleep(200 * time.Millisecond)
					continue
				}
				msgCh <- m
			}
		}
	}()

	for i := 0; i < w.Workers; i++ {
		go w.runProcessor(ctx, msgCh)
	}

	<-ctx.Done()
	return nil
}

func (w *Ingest) runProcessor(ctx context.Context, in <-chan kafka.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-in:
			if !ok {
				return
			}
			w.ProcessOne(ctx, m)
		}
	}
}

// ProcessOne handles a single envelope. Terminal failures (poison payloads,
// validation) go to the dead letter and are committed; transient failures are
// requeued with a bumped attempt until MaxAttempts, then go dead. The message
// is only committed once its outcome is recorded, so a crash mid-handling
// redelivers (at-least-once, made harmless by the idempotent writes).
func (w *Ingest) ProcessOne(ctx context.Context, m kafka.Message) {
	var job model.Job
	if err := json.Unmarshal(m.Value, &job); err != nil {
		logger.Log.Error("ingest: bad envelope json",
			zap.String("type", w.Type.String()), zap.Error(err))
		w.dead(ctx, m)
		return
	}

	if err := job.Validate(); err != nil {
		logger.Log.Error("ingest: invalid job",
			zap.String("job_id", job.ID), zap.Error(err))
		w.dead(ctx, m)
		return
	}

	err := w.Handle(ctx, job)
	switch {
	case err == nil:
		metrics.JobsProcessedTotal.WithLabelValues(w.Type.String(), "ok").Inc()

	case isTerminal(err):
		logger.Log.Error("ingest: job dropped",
			zap.String("job_id", job.ID),
			zap.String("shop_domain", job.ShopDomain),
			zap.Error(err))
		w.dead(ctx, m)
		return

	default: // transient: storage connectivity etc.
		if job.Attempt+1 >= w.MaxAttempts {
			logger.Log.Error("ingest: job exhausted retries",
				zap.String("job_id", job.ID),
				zap.Int("attempt", job.Attempt),
				zap.Error(err))
			w.dead(ctx, m)
			return
		}
		if rerr := w.Queue.Requeue(ctx, job); rerr != nil {
			// leave uncommitted so the broker redelivers
			logger.Log.Error("ingest: requeue failed",
				zap.String("job_id", job.ID), zap.Error(rerr))
			return
		}
		metrics.JobsProcessedTotal.WithLabelValues(w.Type.String(), "retry").Inc()
	}

	if err := w.Consumer.Commit(ctx, m); err != nil {
		logger.Log.Warn("ingest: commit failed", zap.Error(err))
	}
}

func (w *Ingest) dead(ctx context.Context, m kafka.Message) {
	metrics.JobsProcessedTotal.WithLabelValues(w.Type.String(), "dead").Inc()
	if err := w.Queue.DeadLetter(ctx, m.Value); err != nil {
		logger.Log.Error("ingest: dead-letter failed", zap.Error(err))
	}
	if err := w.Consumer.Commit(ctx, m); err != nil {
		logger.Log.Warn("ingest: commit failed", zap.Error(err))
	}
}

// errTerminal marks failures that a retry can never fix.
var errTerminal = errors.New("terminal")

func terminal(err error) error {
	return fmt.Errorf("%w: %w", errTerminal, err)
}

func isTerminal(err error) bool {
	return errors.Is(err, errTerminal)
}

// Handle applies one validated job to storage. The switch is exhaustive over
// the job kinds; an unknown kind cannot reach here past Validate.
func (w *Ingest) Handle(ctx context.Context, job model.Job) error {
	switch job.Type {
	case model.JobTypeCustomer:
		c := *job.Customer
		if c.ExternalID <= 0 {
			return terminal(errors.New("customer missing external_id"))
		}
		_, err := w.Store.Customers.InsertIfAbsent(ctx, job.ShopDomain, c)
		return err

	case model.JobTypeProduct:
		p := *job.Product
		if p.ExternalID <= 0 {
			return terminal(errors.New("product missing external_id"))
		}
		_, err := w.Store.Products.InsertIfAbsent(ctx, job.ShopDomain, p)
		return err

	case model.JobTypeOrder:
		o := *job.Order
		if o.ExternalID <= 0 {
			return terminal(errors.New("order missing external_id"))
		}
		_, err := w.Store.Orders.InsertIfAbsent(ctx, job.ShopDomain, o)
		return err

	case model.JobTypeCheckout:
		c := *job.Checkout
		if c.ExternalID <= 0 {
			return terminal(errors.New("checkout missing external_id"))
		}
		_, err := w.Store.Checkouts.InsertIfAbsent(ctx, job.ShopDomain, c)
		return err
	}
	return terminal(model.ErrInvalidJobType)
}
