// Package events broadcasts committed booking changes over RabbitMQ so every API
// instance drops the same cached availability days.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/noah-isme/portal-agenda-api/internal/models"
)

// ErrClosed is returned when publishing on a closed bus.
var ErrClosed = errors.New("event bus closed")

type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// Config describes the exchange and the identity of this instance.
type Config struct {
	URL      string
	Exchange string
	Origin   string
}

// Bus publishes and consumes BookingChange messages on a fanout exchange.
type Bus struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
	origin   string
	logger   *zap.Logger
	now      func() time.Time

	// mu is held shared by publishers and exclusively by Close.
	mu     sync.RWMutex
	closed bool
}

// Dial connects to the broker and declares the exchange.
func Dial(cfg Config, logger *zap.Logger) (*Bus, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	bus, err := newBus(ch, cfg, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	bus.conn = conn
	return bus, nil
}

func newBus(ch channel, cfg Config, logger *zap.Logger) (*Bus, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Exchange == "" {
		cfg.Exchange = "portal.agendamentos"
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}
	return &Bus{ch: ch, exchange: cfg.Exchange, origin: cfg.Origin, logger: logger, now: time.Now}, nil
}

// PublishBookingChange sends change to every instance, this one included.
func (b *Bus) PublishBookingChange(ctx context.Context, change models.BookingChange) error {
	if b == nil {
		return ErrClosed
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	if change.Origin == "" {
		change.Origin = b.origin
	}
	if change.OccurredAt.IsZero() {
		change.OccurredAt = b.now().UTC()
	}
	body, err := json.Marshal(change)
	if err != nil {
		return err
	}
	err = b.ch.PublishWithContext(ctx, b.exchange, change.Kind, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Transient,
		Timestamp:    change.OccurredAt,
		Type:         change.Kind,
		AppId:        change.Origin,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", change.Kind, err)
	}
	return nil
}

// Close releases the channel and connection.
func (b *Bus) Close() error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	err := b.ch.Close()
	if b.conn != nil {
		if cerr := b.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
