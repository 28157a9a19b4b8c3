package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"

	"github.com/iliyamo/airport-service/internal/config"
)

const orderLogFile = "orders.log"

// StartOrderConsumer reads order events from the configured broker and
// appends one line per order to <LogDir>/orders.log.  It reconnects with
// exponential backoff (capped at 30s) and returns when ctx is cancelled.
func StartOrderConsumer(ctx context.Context, cfg config.EventsConfig) error {
	sink := &orderLog{dir: cfg.LogDir}
	switch cfg.Broker {
	case config.BrokerNone:
		return nil
	case config.BrokerKafka:
		return consumeKafka(ctx, cfg, sink)
	}

	backoff := time.Second
	for {
		conn, err := amqp.Dial(cfg.AMQPURL)
		if err != nil {
			log.Printf("order-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeRabbit(ctx, conn, cfg.Queue, sink)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("order-consumer: consume loop ended: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

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

func consumeRabbit(ctx context.Context, conn *amqp.Connection, queue string, sink *orderLog) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("order-consumer: set QoS failed: %v", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := sink.handle(d.Body); err != nil {
				log.Printf("order-consumer: handle message failed: %v", err)
				_ = d.Nack(false, false) // no requeue, a bad payload would loop forever
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func consumeKafka(ctx context.Context, cfg config.EventsConfig, sink *orderLog) error {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.Topic,
		GroupID: "order-log",
		MaxWait: time.Second,
	})
	defer r.Close()
	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("order-consumer: kafka fetch failed: %v", err)
			if !sleep(ctx, 2*time.Second) {
				return ctx.Err()
			}
			continue
		}
		if err := sink.handle(m.Value); err != nil {
			log.Printf("order-consumer: handle message failed: %v", err)
		}
		if err := r.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			log.Printf("order-consumer: kafka commit failed: %v", err)
		}
	}
}

// orderLog appends formatted events to a file.
type orderLog struct {
	dir string
}

func (l *orderLog) handle(body []byte) error {
	var ev OrderCreatedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	dir := l.dir
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, orderLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(formatOrderLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// formatOrderLine renders one event, e.g.
// [2024-12-01T09:30:15Z] Order created | order_id=10 | user_id=7 | tickets=2 | seats=[flight 3: 1-1,flight 3: 5-8]
func formatOrderLine(ev OrderCreatedEvent) string {
	seats := make([]string, 0, len(ev.Tickets))
	for _, t := range ev.Tickets {
		seats = append(seats, fmt.Sprintf("flight %d: %d-%d", t.FlightID, t.Row, t.Seat))
	}
	return fmt.Sprintf("[%s] Order created | order_id=%d | user_id=%d | tickets=%d | seats=[%s]\n",
		ev.CreatedAt, ev.OrderID, ev.UserID, len(ev.Tickets), strings.Join(seats, ","))
}
