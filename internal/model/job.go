package model

import (
	"errors"
	"strings"
)

type JobType string

const (
	JobTypeCustomer JobType = "customer"
	JobTypeProduct  JobType = "product"
	JobTypeOrder    JobType = "order"
	JobTypeCheckout JobType = "checkout"
)

// JobTypes lists all job kinds; the worker pool runs one consumer per entry.
var JobTypes = []JobType{JobTypeCustomer, JobTypeProduct, JobTypeOrder, JobTypeCheckout}

func (t JobType) String() string { return string(t) }

func (t JobType) Valid() bool {
	switch t {
	case JobTypeCustomer, JobTypeProduct, JobTypeOrder, JobTypeCheckout:
		return true
	}
	return false
}

// ParseJobType normalizes input. Returns (value, true) if valid.
func ParseJobType(s string) (JobType, bool) {
	t := JobType(strings.ToLower(strings.TrimSpace(s)))
	return t, t.Valid()
}

var (
	ErrInvalidJobType = errors.New("invalid job type")
	ErrMissingPayload = errors.New("job payload does not match job type")
)

// Job is the envelope published to the queue. Exactly one payload pointer is
// set, matching Type. Immutable once enqueued; Attempt is the only field the
// worker rewrites when it requeues a transiently failed job.
type Job struct {
	ID         string  `json:"id"` // ULID
	Type       JobType `json:"type"`
	ShopDomain string  `json:"shop_domain"`
	Attempt    int     `json:"attempt"`

	Customer *Customer `json:"customer,omitempty"`
	Product  *Product  `json:"product,omitempty"`
	Order    *Order    `json:"order,omitempty"`
	Checkout *Checkout `json:"checkout,omitempty"`
}

// Validate checks the envelope invariants: known type, tenant set, and the
// payload slot for Type populated.
func (j Job) Validate() error {
	if !j.Type.Valid() {
		return ErrInvalidJobType
	}
	if j.ShopDomain == "" {
		return errors.New("job missing shop_domain")
	}
	switch j.Type {
	case JobTypeCustomer:
		if j.Customer == nil {
			return ErrMissingPayload
		}
	case JobTypeProduct:
		if j.Product == nil {
			return ErrMissingPayload
		}
	case JobTypeOrder:
		if j.Order == nil {
			return ErrMissingPayload
		}
	case JobTypeCheckout:
		if j.Checkout == nil {
			return ErrMissingPayload
		}
	}
	return nil
}
