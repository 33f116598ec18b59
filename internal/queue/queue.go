// Package queue is the durable, at-least-once job queue between the producer
// and the worker pool: one Kafka topic per job type, keyed by shop domain.
// Jobs that exhaust their retries land on a Redis dead-letter list so they are
// reported rather than silently lost.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/devrihan/xeno-shopify/internal/kafka"
	"github.com/devrihan/xeno-shopify/internal/metrics"
	"github.com/devrihan/xeno-shopify/internal/model"
	"github.com/devrihan/xeno-shopify/internal/util"
)

const DeadLetterKey = "xeno:ingest:dead"

// Enqueuer is the producer-facing side of the queue. Injected, not ambient,
// so pipeline instances can run side by side in tests.
type Enqueuer interface {
	Enqueue(ctx context.Context, job model.Job) (string, error)
}

// Topic maps a job type to its Kafka topic.
func Topic(prefix string, t model.JobType) string {
	if prefix == "" {
		prefix = "ingest"
	}
	return fmt.Sprintf("%s.%ss", prefix, t)
}

type publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// Queue publishes job envelopes and parks dead jobs.
type Queue struct {
	writer      publisher
	rdb         *redis.Client
	topicPrefix string
}

func New(writer *kafka.Writer, rdb *redis.Client, topicPrefix string) *Queue {
	return &Queue{writer: writer, rdb: rdb, topicPrefix: topicPrefix}
}

var _ Enqueuer = (*Queue)(nil)

// Enqueue validates the envelope, assigns a ULID when absent, and publishes
// it to the per-type topic. Returns the job id.
func (q *Queue) Enqueue(ctx context.Context, job model.Job) (string, error) {
	if err := job.Validate(); err != nil {
		return "", err
	}
	if job.ID == "" {
		job.ID = util.New()
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("marshal job: %w", err)
	}

	if err := q.writer.Publish(ctx, Topic(q.topicPrefix, job.Type), []byte(job.ShopDomain), payload); err != nil {
		return "", fmt.Errorf("publish %s job: %w", job.Type, err)
	}

	metrics.JobsEnqueuedTotal.WithLabelValues(job.Type.String()).Inc()
	return job.ID, nil
}

// Requeue republishes a transiently failed job with its attempt counter bumped.
func (q *Queue) Requeue(ctx context.Context, job model.Job) error {
	job.Attempt++
	_, err := q.Enqueue(ctx, job)
	return err
}

// DeadLetter parks a job that is done retrying (or never could run). The raw
// envelope is kept so an operator can inspect or replay it.
func (q *Queue) DeadLetter(ctx context.Context, raw []byte) error {
	if q.rdb == nil {
		return nil
	}
	return q.rdb.LPush(ctx, DeadLetterKey, raw).Err()
}
