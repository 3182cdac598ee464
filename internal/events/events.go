// Package events publishes domain events (applications created, statuses changed) to a
// message broker for downstream consumers such as mailers.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// Exchange is the topic exchange all events are published to.
const Exchange = "pfe_events"

// Routing keys
const (
	ApplicationCreated       = "application.created"
	ApplicationStatusChanged = "application.status_changed"
	ApplicationWithdrawn     = "application.withdrawn"
	ListingCreated           = "listing.created"
	ListingClosed            = "listing.closed"
)

// Envelope wraps every published payload.
type Envelope struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// Publisher sends events.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
	Close() error
}

// NopPublisher discards events. Used when no broker is configured.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, string, any) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }

// publishChannel is the subset of *amqp.Channel used for publishing.
type publishChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes JSON envelopes to the topic exchange on a RabbitMQ broker.
type AMQPPublisher struct {
	conn        *amqp.Connection
	openChannel func() (publishChannel, error)
	now         func() time.Time

	mu     sync.Mutex
	closed bool
}

// NewAMQPPublisher dials url and declares the exchange.
func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("error connecting to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", Exchange, err)
	}

	return &AMQPPublisher{
		conn: conn,
		openChannel: func() (publishChannel, error) {
			return conn.Channel()
		},
		now: time.Now,
	}, nil
}

// Publish implements Publisher. A channel is opened per message; publishes are rare
// compared to requests.
func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return errors.New("publisher is closed")
	}

	env := Envelope{
		ID:         uuid.New(),
		Type:       routingKey,
		OccurredAt: p.now().UTC(),
		Data:       payload,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", routingKey, err)
	}

	ch, err := p.openChannel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	err = ch.Publish(Exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    env.ID.String(),
		Timestamp:    env.OccurredAt,
		Type:         routingKey,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}
	return nil
}

// Close closes the broker connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}

// BestEffort wraps a Publisher so that failures are logged and swallowed. Request
// handlers publish through it; an unavailable broker must not fail a request.
type BestEffort struct {
	Publisher Publisher
	Logger    *zap.Logger
}

// Publish implements Publisher and always returns nil.
func (b BestEffort) Publish(ctx context.Context, routingKey string, payload any) error {
	if b.Publisher == nil {
		return nil
	}
	if err := b.Publisher.Publish(ctx, routingKey, payload); err != nil && b.Logger != nil {
		b.Logger.Warn("event publish failed", zap.String("routing_key", routingKey), zap.Error(err))
	}
	return nil
}

// Close implements Publisher.
func (b BestEffort) Close() error {
	if b.Publisher == nil {
		return nil
	}
	return b.Publisher.Close()
}
