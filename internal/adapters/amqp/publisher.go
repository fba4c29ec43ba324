// Package amqp publishes job lifecycle events to a RabbitMQ topic exchange.
package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/core"
)

// RoutingKeyPrefix prefixes every routing key: job.<event type>.
const RoutingKeyPrefix = "job."

const defaultPublishTimeout = 5 * time.Second

// Config describes the broker and exchange.
type Config struct {
	URL      string
	Exchange string
	// PublishTimeout bounds one publish when the caller's context has no deadline.
	PublishTimeout time.Duration
}

// channel is the part of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher implements core.EventPublisher.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       channel
	exchange string
	timeout  time.Duration
}

var _ core.EventPublisher = (*Publisher)(nil)

// Dial connects to the broker and declares a durable topic exchange.
func Dial(cfg Config) (*Publisher, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("amqp url is required")
	}
	if strings.TrimSpace(cfg.Exchange) == "" {
		return nil, errors.New("amqp exchange is required")
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("open amqp channel: %w", err), conn.Close())
	}
	if err := ch.ExchangeDeclare(
		cfg.Exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return nil, errors.Join(fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err), conn.Close())
	}
	p := newPublisher(ch, cfg)
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, cfg Config) *Publisher {
	timeout := cfg.PublishTimeout
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	return &Publisher{ch: ch, exchange: cfg.Exchange, timeout: timeout}
}

// RoutingKey returns the routing key for an event type.
func RoutingKey(eventType string) string {
	return RoutingKeyPrefix + eventType
}

// Publish sends ev as a persistent JSON message.
func (p *Publisher) Publish(ctx context.Context, ev core.LifecycleEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return errors.New("amqp publisher is closed")
	}
	if err := p.ch.PublishWithContext(ctx, p.exchange, RoutingKey(ev.Type), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.JobID + ":" + ev.Type + ":" + ev.OccurredAt,
		Type:         ev.Type,
		Body:         body,
	}); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

// Close closes the channel and connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
		p.ch = nil
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
		p.conn = nil
	}
	return errors.Join(errs...)
}
