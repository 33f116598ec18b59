// Package kafka wraps segmentio/kafka-go behind small reader and writer types
// so the rest of the pipeline never touches broker-level configuration.
package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// Message is the broker message type; re-exported so consumers of this
// package do not import the driver directly.
type Message = kafka.Message

type ConsumerConfig struct {
	Brokers        []string
	Topic          string
	GroupID        string
	MinBytes       int
	MaxBytes       int
	CommitInterval time.Duration // 0 means commit synchronously
	MaxWait        time.Duration
}

func (c ConsumerConfig) withDefaults() ConsumerConfig {
	if c.MinBytes <= 0 {
		c.MinBytes = 1 << 10
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 10 << 20
	}
	if c.CommitInterval <= 0 {
		c.CommitInterval = time.Second
	}
	if c.MaxWait <= 0 {
		c.MaxWait = 50 * time.Millisecond
	}
	return c
}

// Consumer reads one topic as part of a consumer group. Fetch and Commit are
// split so a job's offset is only committed once its outcome is recorded.
type Consumer struct {
	r *kafka.Reader
}

func NewConsumer(cfg ConsumerConfig) *Consumer {
	cfg = cfg.withDefaults()
	return &Consumer{
		r: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        cfg.Brokers,
			Topic:          cfg.Topic,
			GroupID:        cfg.GroupID,
			MinBytes:       cfg.MinBytes,
			MaxBytes:       cfg.MaxBytes,
			CommitInterval: cfg.CommitInterval,
			MaxWait:        cfg.MaxWait,
		}),
	}
}

func (c *Consumer) Fetch(ctx context.Context) (Message, error) {
	return c.r.FetchMessage(ctx)
}

func (c *Consumer) Commit(ctx context.Context, m Message) error {
	return c.r.CommitMessages(ctx, m)
}

func (c *Consumer) Close() error { return c.r.Close() }
