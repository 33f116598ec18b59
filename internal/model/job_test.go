package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJobType(t *testing.T) {
	for _, in := range []string{"customer", " Product ", "ORDER", "checkout"} {
		jt, ok := ParseJobType(in)
		assert.True(t, ok, in)
		assert.True(t, jt.Valid())
	}

	_, ok := ParseJobType("variant")
	assert.False(t, ok)
}

func TestJobValidate(t *testing.T) {
	job := Job{
		Type:       JobTypeCustomer,
		ShopDomain: "shop1.example",
		Customer:   &Customer{ExternalID: 1, Name: "A B", Email: "a@b.com", TotalSpent: "150.00"},
	}
	require.NoError(t, job.Validate())

	// payload slot must match the declared type
	job.Customer = nil
	job.Product = &Product{ExternalID: 1}
	assert.ErrorIs(t, job.Validate(), ErrMissingPayload)

	job.Type = "variant"
	assert.ErrorIs(t, job.Validate(), ErrInvalidJobType)

	job = Job{Type: JobTypeOrder, Order: &Order{ExternalID: 10}}
	assert.Error(t, job.Validate(), "missing shop_domain")
}

func TestJobEnvelopeRoundTrip(t *testing.T) {
	custID := int64(1)
	job := Job{
		ID:         "01JABCDEFGHJKMNPQRSTVWXYZ0",
		Type:       JobTypeOrder,
		ShopDomain: "shop1.example",
		Attempt:    1,
		Order: &Order{
			ExternalID:         10,
			OrderNumber:        1001,
			TotalPrice:         "150.00",
			Currency:           "USD",
			CustomerExternalID: &custID,
		},
	}

	b, err := json.Marshal(job)
	require.NoError(t, err)

	var got Job
	require.NoError(t, json.Unmarshal(b, &got))
	require.NoError(t, got.Validate())
	assert.Equal(t, job.Order, got.Order)
	assert.Nil(t, got.Customer)
	assert.Nil(t, got.Checkout)
}
