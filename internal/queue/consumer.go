package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/project-tracker/internal/logger"
)

// Handler processes one message body. An error wrapping ErrMalformed
// rejects the message for good; any other error requeues it.
type Handler func(ctx context.Context, body []byte) error

// ErrMalformed marks a message that can never be processed.
var ErrMalformed = errors.New("malformed message")

// OnIdentityDeleted decodes identity.deleted messages for fn.
func OnIdentityDeleted(fn func(ctx context.Context, ev IdentityDeletedEvent) error) Handler {
	return func(ctx context.Context, body []byte) error {
		var ev IdentityDeletedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if ev.IdentityID == 0 {
			return fmt.Errorf("%w: identity_id missing", ErrMalformed)
		}
		return fn(ctx, ev)
	}
}

// OnProjectDeleted decodes project.deleted messages for fn.
func OnProjectDeleted(fn func(ctx context.Context, ev ProjectDeletedEvent) error) Handler {
	return func(ctx context.Context, body []byte) error {
		var ev ProjectDeletedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if ev.ProjectID == 0 {
			return fmt.Errorf("%w: project_id missing", ErrMalformed)
		}
		return fn(ctx, ev)
	}
}

// Consumer reads one durable queue and hands each delivery to a Handler.
type Consumer struct {
	url        string
	queue      string
	handle     Handler
	log        logger.Logger
	prefetch   int
	retryDelay time.Duration
}

func NewConsumer(url, queue string, handle Handler, log logger.Logger) *Consumer {
	return &Consumer{
		url:        url,
		queue:      queue,
		handle:     handle,
		log:        log.With(logger.String("queue", queue)),
		prefetch:   50,
		retryDelay: 2 * time.Second,
	}
}

const maxBackoff = 30 * time.Second

// Run keeps a consumer attached to the queue, reconnecting with exponential
// backoff, until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("consumer dial failed", logger.Duration("retry_in", backoff), logger.Err(err))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < maxBackoff {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("consume loop ended, reconnecting", logger.Err(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		c.log.Warn("set qos failed", logger.Err(err))
	}
	if err := declare(ch, c.queue); err != nil {
		return err
	}
	msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	c.log.Info("consumer attached")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.deliver(ctx, d)
		}
	}
}

func (c *Consumer) deliver(ctx context.Context, d amqp.Delivery) {
	err := c.handle(ctx, d.Body)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, ErrMalformed):
		c.log.Error("dropping malformed message", logger.Err(err))
		_ = d.Nack(false, false)
	default:
		// the store may come back; hold the redelivery back a little
		c.log.Warn("handle message failed, requeueing", logger.Bool("redelivered", d.Redelivered), logger.Err(err))
		sleep(ctx, c.retryDelay)
		_ = d.Nack(false, true)
	}
}

// sleep waits for d or ctx, reporting false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
