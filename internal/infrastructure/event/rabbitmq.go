package event

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopcart/backend/internal/domain/shared"
)

// DefaultRabbitMQExchange is the topic exchange events are published to
const DefaultRabbitMQExchange = "shopcart.events"

const rabbitPublishTimeout = 3 * time.Second

// amqpChannel is the part of *amqp.Channel the publisher uses
type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQPublisher publishes events to a topic exchange. The routing key
// is the event type, so consumers bind queues like "order.*".
type RabbitMQPublisher struct {
	conn       *amqp.Connection
	ch         amqpChannel
	exchange   string
	serializer *EventSerializer
}

// NewRabbitMQPublisher dials url, opens a channel and declares the exchange
func NewRabbitMQPublisher(url, exchange string, serializer *EventSerializer) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	p, err := newRabbitMQPublisher(ch, exchange, serializer)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func newRabbitMQPublisher(ch amqpChannel, exchange string, serializer *EventSerializer) (*RabbitMQPublisher, error) {
	if exchange == "" {
		exchange = DefaultRabbitMQExchange
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &RabbitMQPublisher{ch: ch, exchange: exchange, serializer: serializer}, nil
}

// Publish sends each event as a persistent JSON message
func (p *RabbitMQPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, event := range events {
		body, err := p.serializer.Serialize(event)
		if err != nil {
			return err
		}

		pubCtx, cancel := context.WithTimeout(ctx, rabbitPublishTimeout)
		err = p.ch.PublishWithContext(pubCtx, p.exchange, event.EventType(), false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.EventID().String(),
			Type:         event.EventType(),
			Timestamp:    event.OccurredAt(),
			Headers: amqp.Table{
				"aggregate_id":   event.AggregateID().String(),
				"aggregate_type": event.AggregateType(),
			},
			Body: body,
		})
		cancel()
		if err != nil {
			return fmt.Errorf("publish %s: %w", event.EventType(), err)
		}
	}
	return nil
}

// Close closes the channel and the connection
func (p *RabbitMQPublisher) Close() error {
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Ensure RabbitMQPublisher implements EventPublisher
var _ shared.EventPublisher = (*RabbitMQPublisher)(nil)
