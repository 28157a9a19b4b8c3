package queue

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/airport-service/internal/config"
)

// Publisher delivers order events to a broker.  Callers log failures and
// carry on; an order is never rolled back because its event was lost.
type Publisher interface {
	PublishOrderCreated(ctx context.Context, ev OrderCreatedEvent) error
	Close() error
}

// NewPublisher returns the publisher selected by cfg.Broker.
func NewPublisher(cfg config.EventsConfig) Publisher {
	switch cfg.Broker {
	case config.BrokerKafka:
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.Topic)
	case config.BrokerNone:
		return NopPublisher{}
	default:
		return &RabbitPublisher{URL: cfg.AMQPURL, Queue: cfg.Queue}
	}
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) PublishOrderCreated(context.Context, OrderCreatedEvent) error { return nil }

func (NopPublisher) Close() error { return nil }

// RabbitPublisher sends events to a durable queue on the default exchange.
// It dials per message; order creation is rare enough that a long-lived
// channel is not worth the reconnect handling.
type RabbitPublisher struct {
	URL   string
	Queue string
}

func (p *RabbitPublisher) PublishOrderCreated(ctx context.Context, ev OrderCreatedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}
	return ch.PublishWithContext(ctx, "", p.Queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

func (p *RabbitPublisher) Close() error { return nil }
