package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devrihan/xeno-shopify/internal/kafka"
	"github.com/devrihan/xeno-shopify/internal/model"
)

// ---- fakes ----

type memCustomers struct {
	mu      sync.Mutex
	rows    map[string]model.Customer
	inserts int
	err     error
}

func newMemCustomers() *memCustomers {
	return &memCustomers{rows: map[string]model.Customer{}}
}

func (s *memCustomers) InsertIfAbsent(ctx context.Context, shopDomain string, c model.Customer) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("%s|%d", shopDomain, c.ExternalID)
	if _, ok := s.rows[key]; ok {
		return false, nil
	}
	s.rows[key] = c
	s.inserts++
	return true, nil
}

type memProducts struct {
	mu   sync.Mutex
	rows map[string]model.Product
}

func newMemProducts() *memProducts { return &memProducts{rows: map[string]model.Product{}} }

func (s *memProducts) InsertIfAbsent(ctx context.Context, shopDomain string, p model.Product) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("%s|%d", shopDomain, p.ExternalID)
	if _, ok := s.rows[key]; ok {
		return false, nil
	}
	s.rows[key] = p
	return true, nil
}

type memOrders struct {
	mu   sync.Mutex
	rows map[string]model.Order
}

func newMemOrders() *memOrders { return &memOrders{rows: map[string]model.Order{}} }

func (s *memOrders) InsertIfAbsent(ctx context.Context, shopDomain string, o model.Order) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("%s|%d", shopDomain, o.ExternalID)
	if _, ok := s.rows[key]; ok {
		return false, nil
	}
	s.rows[key] = o
	return true, nil
}

type memCheckouts struct {
	mu   sync.Mutex
	rows map[string]model.Checkout
}

func newMemCheckouts() *memCheckouts { return &memCheckouts{rows: map[string]model.Checkout{}} }

func (s *memCheckouts) InsertIfAbsent(ctx context.Context, shopDomain string, c model.Checkout) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("%s|%d", shopDomain, c.ExternalID)
	if _, ok := s.rows[key]; ok {
		return false, nil
	}
	s.rows[key] = c
	return true, nil
}

func (s *memCheckouts) Get(ctx context.Context, shopDomain string, externalID int64) (*model.Checkout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.rows[fmt.Sprintf("%s|%d", shopDomain, externalID)]; ok {
		return &c, nil
	}
	return nil, nil
}

type recordingQueue struct {
	mu         sync.Mutex
	requeued   []model.Job
	dead       [][]byte
	requeueErr error
}

func (q *recordingQueue) Requeue(ctx context.Context, job model.Job) error {
	if q.requeueErr != nil {
		return q.requeueErr
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.requeued = append(q.requeued, job)
	return nil
}

func (q *recordingQueue) DeadLetter(ctx context.Context, raw []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.dead = append(q.dead, raw)
	return nil
}

type recordingConsumer struct {
	mu        sync.Mutex
	committed []kafka.Message
}

func (c *recordingConsumer) Fetch(ctx context.Context) (kafka.Message, error) {
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (c *recordingConsumer) Commit(ctx context.Context, m kafka.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.committed = append(c.committed, m)
	return nil
}

func (c *recordingConsumer) commits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.committed)
}

func newTestIngest(t model.JobType) (*Ingest, *memCustomers, *recordingQueue, *recordingConsumer) {
	customers := newMemCustomers()
	q := &recordingQueue{}
	c := &recordingConsumer{}
	ing := NewIngest(t, c, q, Store{
		Customers: customers,
		Products:  newMemProducts(),
		Orders:    newMemOrders(),
		Checkouts: newMemCheckouts(),
	})
	return ing, customers, q, c
}

func msgFor(t *testing.T, job model.Job) kafka.Message {
	t.Helper()
	b, err := json.Marshal(job)
	require.NoError(t, err)
	return kafka.Message{Value: b}
}

func customerJob(attempt int) model.Job {
	return model.Job{
		ID:         "job-1",
		Type:       model.JobTypeCustomer,
		ShopDomain: "shop1.example",
		Attempt:    attempt,
		Customer:   &model.Customer{ExternalID: 1, Name: "A B", Email: "a@b.com", TotalSpent: "150.00"},
	}
}

// ---- tests ----

func TestHandleFirstWriteThenNoOp(t *testing.T) {
	ing, customers, _, _ := newTestIngest(model.JobTypeCustomer)
	job := customerJob(0)

	require.NoError(t, ing.Handle(context.Background(), job))
	assert.Equal(t, 1, customers.inserts)

	// same natural key again: succeeds without touching the stored row
	require.NoError(t, ing.Handle(context.Background(), job))
	assert.Equal(t, 1, customers.inserts)
	assert.Equal(t, "A B", customers.rows["shop1.example|1"].Name)
}

func TestHandleSameExternalIDDifferentTenants(t *testing.T) {
	ing, customers, _, _ := newTestIngest(model.JobTypeCustomer)

	a := customerJob(0)
	b := customerJob(0)
	b.ShopDomain = "shop2.example"

	require.NoError(t, ing.Handle(context.Background(), a))
	require.NoError(t, ing.Handle(context.Background(), b))
	assert.Equal(t, 2, customers.inserts)
}

func TestHandleMissingExternalIDIsTerminal(t *testing.T) {
	ing, _, _, _ := newTestIngest(model.JobTypeCustomer)
	job := customerJob(0)
	job.Customer.ExternalID = 0

	err := ing.Handle(context.Background(), job)
	require.Error(t, err)
	assert.True(t, isTerminal(err))
}

func TestProcessOneCommitsOnSuccess(t *testing.T) {
	ing, customers, q, c := newTestIngest(model.JobTypeCustomer)

	ing.ProcessOne(context.Background(), msgFor(t, customerJob(0)))

	assert.Equal(t, 1, customers.inserts)
	assert.Equal(t, 1, c.commits())
	assert.Empty(t, q.requeued)
	assert.Empty(t, q.dead)
}

func TestProcessOnePoisonPayloadGoesDead(t *testing.T) {
	ing, _, q, c := newTestIngest(model.JobTypeCustomer)

	ing.ProcessOne(context.Background(), kafka.Message{Value: []byte("not json")})

	require.Len(t, q.dead, 1)
	assert.Equal(t, 1, c.commits(), "poison messages are committed, never redelivered")
}

func TestProcessOneInvalidJobGoesDead(t *testing.T) {
	ing, _, q, c := newTestIngest(model.JobTypeCustomer)

	// declared customer but carries no payload
	job := model.Job{ID: "job-2", Type: model.JobTypeCustomer, ShopDomain: "shop1.example"}
	ing.ProcessOne(context.Background(), msgFor(t, job))

	require.Len(t, q.dead, 1)
	assert.Equal(t, 1, c.commits())
}

func TestProcessOneTransientFailureRequeues(t *testing.T) {
	ing, customers, q, c := newTestIngest(model.JobTypeCustomer)
	customers.err = errors.New("mysql: connection refused")

	ing.ProcessOne(context.Background(), msgFor(t, customerJob(0)))

	require.Len(t, q.requeued, 1)
	assert.Equal(t, 0, q.requeued[0].Attempt, "attempt is bumped by the queue, not the worker")
	assert.Empty(t, q.dead)
	assert.Equal(t, 1, c.commits())
}

func TestProcessOneExhaustedRetriesGoDead(t *testing.T) {
	ing, customers, q, c := newTestIngest(model.JobTypeCustomer)
	customers.err = errors.New("mysql: connection refused")

	// attempt 2 of max 3: the next try would be the fourth delivery
	ing.ProcessOne(context.Background(), msgFor(t, customerJob(2)))

	assert.Empty(t, q.requeued)
	require.Len(t, q.dead, 1)
	assert.Equal(t, 1, c.commits())
}

func TestProcessOneRequeueFailureLeavesUncommitted(t *testing.T) {
	ing, customers, q, c := newTestIngest(model.JobTypeCustomer)
	customers.err = errors.New("mysql: connection refused")
	q.requeueErr = errors.New("kafka: broker unreachable")

	ing.ProcessOne(context.Background(), msgFor(t, customerJob(0)))

	assert.Empty(t, q.dead)
	assert.Equal(t, 0, c.commits(), "uncommitted so the broker redelivers")
}

func TestHandleDispatchesEveryType(t *testing.T) {
	ing, customers, _, _ := newTestIngest(model.JobTypeCustomer)
	products := ing.Store.Products.(*memProducts)
	orders := ing.Store.Orders.(*memOrders)
	checkouts := ing.Store.Checkouts.(*memCheckouts)

	email := "a@b.com"
	jobs := []model.Job{
		customerJob(0),
		{Type: model.JobTypeProduct, ShopDomain: "shop1.example", Product: &model.Product{ExternalID: 5, Title: "Mug", Price: "12.50"}},
		{Type: model.JobTypeOrder, ShopDomain: "shop1.example", Order: &model.Order{ExternalID: 10, OrderNumber: 1001, TotalPrice: "150.00", Currency: "USD"}},
		{Type: model.JobTypeCheckout, ShopDomain: "shop1.example", Checkout: &model.Checkout{ExternalID: 100, Token: "t1", TotalPrice: "10.00", Currency: "USD", CustomerEmail: &email}},
	}
	for _, job := range jobs {
		require.NoError(t, ing.Handle(context.Background(), job))
	}

	assert.Len(t, customers.rows, 1)
	assert.Len(t, products.rows, 1)
	assert.Len(t, orders.rows, 1)
	assert.Len(t, checkouts.rows, 1)
}
