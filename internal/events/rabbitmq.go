package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const publishTimeout = 10 * time.Second

// Config configures the RabbitMQ publisher.
type Config struct {
	URL        string `yaml:"url" mapstructure:"url"`
	Exchange   string `yaml:"exchange" mapstructure:"exchange"`
	RoutingKey string `yaml:"routing_key" mapstructure:"routing_key"`
}

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQ publishes events as persistent JSON messages on a durable topic
// exchange.
type RabbitMQ struct {
	mu         sync.Mutex
	conn       *amqp.Connection
	ch         channel
	exchange   string
	routingKey string
	now        func() time.Time
}

// NewRabbitMQ dials cfg.URL and declares the exchange.
func NewRabbitMQ(cfg Config) (*RabbitMQ, error) {
	if cfg.URL == "" {
		return nil, eris.New("events: amqp url is required")
	}
	if cfg.Exchange == "" {
		return nil, eris.New("events: exchange is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, eris.Wrap(err, "events: dial")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, eris.Wrap(err, "events: open channel")
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, eris.Wrapf(err, "events: declare exchange %s", cfg.Exchange)
	}

	zap.L().Info("events: connected",
		zap.String("exchange", cfg.Exchange),
		zap.String("routing_key", cfg.RoutingKey),
	)
	p := newRabbitMQ(ch, cfg)
	p.conn = conn
	return p, nil
}

func newRabbitMQ(ch channel, cfg Config) *RabbitMQ {
	key := cfg.RoutingKey
	if key == "" {
		key = "profile.generated"
	}
	return &RabbitMQ{ch: ch, exchange: cfg.Exchange, routingKey: key, now: time.Now}
}

// Publish sends ev with a bounded timeout.
func (r *RabbitMQ) Publish(ctx context.Context, ev ProfileGenerated) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return eris.Wrap(err, "events: marshal event")
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Timestamp:    r.now().UTC(),
		Type:         r.routingKey,
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ch == nil {
		return eris.New("events: publisher closed")
	}
	if err := r.ch.PublishWithContext(pubCtx, r.exchange, r.routingKey, false, false, msg); err != nil {
		return eris.Wrapf(err, "events: publish %s", ev.ID)
	}
	return nil
}

// Close closes the channel and the connection.
func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	if r.ch != nil {
		if err := r.ch.Close(); err != nil {
			firstErr = eris.Wrap(err, "events: close channel")
		}
		r.ch = nil
	}
	if r.conn != nil {
		if err := r.conn.Close(); err != nil && firstErr == nil {
			firstErr = eris.Wrap(err, "events: close connection")
		}
		r.conn = nil
	}
	return firstErr
}
