package events

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/noah-isme/portal-agenda-api/internal/models"
)

// CacheApplier drops cached availability named by a remote change.
type CacheApplier interface {
	ApplyRemote(ctx context.Context, days []string, all bool) error
}

// Listen binds an exclusive queue to the exchange and applies remote changes until ctx ends
// or the broker closes the delivery channel. Messages published by this instance are skipped.
func (b *Bus) Listen(ctx context.Context, cache CacheApplier) error {
	queue, err := b.ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("declare listener queue: %w", err)
	}
	if err := b.ch.QueueBind(queue.Name, "", b.exchange, false, nil); err != nil {
		return fmt.Errorf("bind %s: %w", queue.Name, err)
	}
	deliveries, err := b.ch.Consume(queue.Name, b.origin, true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", queue.Name, err)
	}
	b.logger.Info("booking event listener started", zap.String("exchange", b.exchange), zap.String("queue", queue.Name))

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				b.logger.Warn("booking event deliveries closed")
				return nil
			}
			b.handle(ctx, d, cache)
		}
	}
}

func (b *Bus) handle(ctx context.Context, d amqp.Delivery, cache CacheApplier) {
	var change models.BookingChange
	if err := json.Unmarshal(d.Body, &change); err != nil {
		b.logger.Warn("invalid booking event", zap.String("routing_key", d.RoutingKey), zap.Error(err))
		return
	}
	if change.Origin != "" && change.Origin == b.origin {
		return
	}
	if err := cache.ApplyRemote(ctx, change.Days, change.All); err != nil {
		b.logger.Warn("remote invalidation failed",
			zap.String("kind", change.Kind),
			zap.String("origin", change.Origin),
			zap.Strings("days", change.Days),
			zap.Error(err),
		)
		return
	}
	b.logger.Debug("remote invalidation applied", zap.String("kind", change.Kind), zap.String("origin", change.Origin), zap.Bool("all", change.All))
}
