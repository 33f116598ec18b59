package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devrihan/xeno-shopify/internal/model"
)

type fakePublisher struct {
	topics []string
	keys   [][]byte
	values [][]byte
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, topic string, key, value []byte) error {
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.keys = append(p.keys, key)
	p.values = append(p.values, value)
	return nil
}

func TestTopicPerJobType(t *testing.T) {
	assert.Equal(t, "ingest.customers", Topic("ingest", model.JobTypeCustomer))
	assert.Equal(t, "ingest.products", Topic("ingest", model.JobTypeProduct))
	assert.Equal(t, "ingest.orders", Topic("ingest", model.JobTypeOrder))
	assert.Equal(t, "ingest.checkouts", Topic("ingest", model.JobTypeCheckout))
	assert.Equal(t, "ingest.orders", Topic("", model.JobTypeOrder), "empty prefix falls back")
	assert.Equal(t, "staging.orders", Topic("staging", model.JobTypeOrder))
}

func TestEnqueueAssignsIDAndRoutes(t *testing.T) {
	pub := &fakePublisher{}
	q := &Queue{writer: pub, topicPrefix: "ingest"}

	id, err := q.Enqueue(context.Background(), model.Job{
		Type:       model.JobTypeCustomer,
		ShopDomain: "shop1.example",
		Customer:   &model.Customer{ExternalID: 1, Name: "A B", Email: "a@b.com", TotalSpent: "150.00"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.Len(t, pub.topics, 1)
	assert.Equal(t, "ingest.customers", pub.topics[0])
	assert.Equal(t, "shop1.example", string(pub.keys[0]), "keyed by shop domain for per-tenant ordering")

	var sent model.Job
	require.NoError(t, json.Unmarshal(pub.values[0], &sent))
	assert.Equal(t, id, sent.ID)
	assert.Equal(t, 0, sent.Attempt)
}

func TestEnqueueRejectsInvalidJob(t *testing.T) {
	pub := &fakePublisher{}
	q := &Queue{writer: pub, topicPrefix: "ingest"}

	_, err := q.Enqueue(context.Background(), model.Job{Type: "variant", ShopDomain: "shop1.example"})
	require.ErrorIs(t, err, model.ErrInvalidJobType)
	assert.Empty(t, pub.topics, "nothing published for a bad envelope")
}

func TestEnqueuePublishError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("kafka: broker unreachable")}
	q := &Queue{writer: pub, topicPrefix: "ingest"}

	_, err := q.Enqueue(context.Background(), model.Job{
		Type:       model.JobTypeProduct,
		ShopDomain: "shop1.example",
		Product:    &model.Product{ExternalID: 5, Title: "Mug", Price: "12.50"},
	})
	require.Error(t, err)
}

func TestRequeueBumpsAttempt(t *testing.T) {
	pub := &fakePublisher{}
	q := &Queue{writer: pub, topicPrefix: "ingest"}

	job := model.Job{
		ID:         "job-1",
		Type:       model.JobTypeOrder,
		ShopDomain: "shop1.example",
		Attempt:    1,
		Order:      &model.Order{ExternalID: 10, OrderNumber: 1001, TotalPrice: "150.00", Currency: "USD"},
	}
	require.NoError(t, q.Requeue(context.Background(), job))

	var sent model.Job
	require.NoError(t, json.Unmarshal(pub.values[0], &sent))
	assert.Equal(t, 2, sent.Attempt)
	assert.Equal(t, "job-1", sent.ID, "requeue keeps the job id")
}
