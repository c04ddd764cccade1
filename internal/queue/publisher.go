package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/project-tracker/internal/logger"
)

// Publisher sends events to a durable queue named after the routing key.
// Each publish opens its own connection.
type Publisher struct {
	url string
	log logger.Logger
}

func NewPublisher(url string, log logger.Logger) *Publisher {
	return &Publisher{url: url, log: log}
}

// Publish marshals event to JSON and publishes it as a persistent message.
// Errors are logged and returned; callers usually only log them again.
func (p *Publisher) Publish(ctx context.Context, routingKey string, event any) error {
	msg, err := encode(event, time.Now().UTC())
	if err != nil {
		return err
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn("rabbitmq dial failed", logger.String("queue", routingKey), logger.Err(err))
		return fmt.Errorf("queue: dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("queue: channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := declare(ch, routingKey); err != nil {
		return err
	}
	if err := ch.PublishWithContext(ctx, "", routingKey, false, false, msg); err != nil {
		p.log.Warn("rabbitmq publish failed", logger.String("queue", routingKey), logger.Err(err))
		return fmt.Errorf("queue: publish: %w", err)
	}
	p.log.Debug("event published", logger.String("queue", routingKey))
	return nil
}

func encode(event any, at time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("queue: marshal event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    at,
		Body:         body,
	}, nil
}

// declare is idempotent; durable so messages survive broker restarts.
func declare(ch *amqp.Channel, name string) error {
	if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue: declare %s: %w", name, err)
	}
	return nil
}
