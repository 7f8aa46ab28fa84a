package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/simplify/marketplace-api/internal/core/domain"
)

const defaultExchange = "marketplace.events"

// AMQPPublisher delivers lifecycle events to a durable topic exchange. The
// routing key is the event type. The connection is opened lazily and
// re-opened on the next send after a failure.
type AMQPPublisher struct {
	url      string
	exchange string
	log      zerolog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPPublisher(url, exchange string, log zerolog.Logger) *AMQPPublisher {
	if exchange == "" {
		exchange = defaultExchange
	}
	return &AMQPPublisher{url: url, exchange: exchange, log: log}
}

// Send publishes one event as a persistent JSON message.
func (p *AMQPPublisher) Send(ctx context.Context, event domain.LifecycleEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         string(event.Type),
		Timestamp:    event.OccurredAt.UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, p.exchange, string(event.Type), false, false, pub); err != nil {
		p.reset()
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

// channel returns the open channel, dialing and declaring the exchange when needed.
// Callers hold p.mu.
func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		p.exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp exchange declare: %w", err)
	}

	p.conn, p.ch = conn, ch
	p.log.Info().Str("exchange", p.exchange).Msg("amqp publisher connected")
	return ch, nil
}

func (p *AMQPPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close releases the broker connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}

// LogSink writes events to the structured log. It is used when no broker is configured.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Send(_ context.Context, event domain.LifecycleEvent) error {
	s.log.Info().
		Str("type", string(event.Type)).
		Str("request_id", event.RequestID).
		Str("state", string(event.State)).
		Str("actor", event.Actor).
		Time("occurred_at", event.OccurredAt).
		Msg("lifecycle event")
	return nil
}
