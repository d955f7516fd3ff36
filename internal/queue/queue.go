// Package queue carries document processing events through Redis.
// Producers push JSON events onto a list; the consumer blocks on it
// and hands each event to the ingestion pipeline.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/devdocsai/devdocs/internal/document"
	"github.com/devdocsai/devdocs/internal/log"
)

// QueueName is the Redis list holding pending processing events.
const QueueName = "doc-processing-queue"

// popTimeout bounds each BLPOP so the consumer notices context
// cancellation promptly.
const popTimeout = 5 * time.Second

// Event announces that a document is waiting to be processed.
type Event struct {
	DocumentID uuid.UUID     `json:"document_id"`
	Locator    string        `json:"locator"`
	Type       document.Type `json:"type"`
}

// redisClient is the slice of the go-redis API the queue needs.
// Tests substitute a fake.
type redisClient interface {
	RPush(ctx context.Context, key string, values ...any) *redis.IntCmd
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// NewRedisClient connects to Redis from a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

// Producer publishes processing events.
type Producer struct {
	client redisClient
	queue  string
	logger log.Logger
}

// NewProducer creates a Producer on the standard queue.
func NewProducer(client redisClient, logger log.Logger) *Producer {
	return &Producer{client: client, queue: QueueName, logger: logger}
}

// Publish enqueues one event.
func (p *Producer) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	if err := p.client.RPush(ctx, p.queue, payload).Err(); err != nil {
		return fmt.Errorf("publishing event for %s: %w", event.DocumentID, err)
	}
	p.logger.Debug("published processing event",
		"document_id", event.DocumentID, "queue", p.queue)
	return nil
}

// Handler processes one dequeued event.
type Handler func(ctx context.Context, event Event) error

// Consumer pulls events off the queue and dispatches them to a
// handler. Handler failures are logged and the loop continues; the
// document row carries the failure state, not the queue.
type Consumer struct {
	client  redisClient
	queue   string
	handler Handler
	logger  log.Logger
}

// NewConsumer creates a Consumer on the standard queue.
func NewConsumer(client redisClient, handler Handler, logger log.Logger) *Consumer {
	return &Consumer{client: client, queue: QueueName, handler: handler, logger: logger}
}

// Run blocks consuming events until ctx is cancelled. It returns nil
// on cancellation and an error only when Redis itself fails.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("consumer started", "queue", c.queue)
	for {
		vals, err := c.client.BLPop(ctx, popTimeout, c.queue).Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			if ctx.Err() != nil {
				c.logger.Info("consumer stopped", "queue", c.queue)
				return nil
			}
			return fmt.Errorf("popping from %s: %w", c.queue, err)
		}
		// BLPOP returns [key, value].
		if len(vals) != 2 {
			continue
		}

		var event Event
		if err := json.Unmarshal([]byte(vals[1]), &event); err != nil {
			c.logger.Warn("dropping malformed event", "error", err, "payload", vals[1])
			continue
		}
		if err := c.handler(ctx, event); err != nil {
			c.logger.Error("event processing failed",
				"document_id", event.DocumentID, "error", err)
		}
	}
}
