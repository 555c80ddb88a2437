// Package amqp publishes ledger change notifications to a RabbitMQ
// exchange and lets other processes follow them.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/rabbitmq/amqp091-go"
)

// Config describes where events go.
type Config struct {
	URL        string
	Exchange   string
	RoutingKey string

	DialAttempts uint
	DialDelay    time.Duration
}

type Client struct {
	conn       *amqp091.Connection
	channel    *amqp091.Channel
	exchange   string
	routingKey string
	logger     *slog.Logger
}

// NewClient dials the broker, retrying transient connection failures, and
// declares the durable direct exchange.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DialAttempts == 0 {
		cfg.DialAttempts = 5
	}
	if cfg.DialDelay == 0 {
		cfg.DialDelay = time.Second
	}
	if cfg.RoutingKey == "" {
		cfg.RoutingKey = "ledger.changed"
	}

	var conn *amqp091.Connection
	err := retry.Do(
		func() error {
			var err error
			conn, err = amqp091.Dial(cfg.URL)
			return err
		},
		retry.RetryIf(isConnectionError),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("AMQP dial failed, retrying", "attempt", n+1, "error", err)
		}),
		retry.Attempts(cfg.DialAttempts),
		retry.Delay(cfg.DialDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:       conn,
		channel:    channel,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		logger:     logger,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchange, // name
		"direct",   // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	return nil
}

// Publish sends one ledger event.
func (c *Client) Publish(ctx context.Context, event *LedgerEvent) error {
	body, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchange,   // exchange
		c.routingKey, // routing key
		false,        // mandatory
		false,        // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    event.ID.String(),
			Timestamp:    event.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	c.logger.DebugContext(ctx, "Published ledger event",
		"event_id", event.ID.String(),
		"op", event.Op,
		"revision", event.Revision,
		"exchange", c.exchange)

	return nil
}

// Subscribe binds a private queue to the exchange and hands every event to
// handler until ctx is done.
func (c *Client) Subscribe(ctx context.Context, handler func(*LedgerEvent) error) error {
	q, err := c.channel.QueueDeclare(
		"",    // name chosen by the broker
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := c.channel.QueueBind(q.Name, c.routingKey, c.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	msgs, err := c.channel.Consume(
		q.Name, // queue
		"",     // consumer
		false,  // auto-ack
		true,   // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return errors.New("message channel closed")
			}
			event, err := LedgerEventFromJSON(delivery.Body)
			if err != nil {
				c.logger.ErrorContext(ctx, "Failed to unmarshal ledger event", "error", err)
				delivery.Nack(false, false)
				continue
			}
			if err := handler(event); err != nil {
				c.logger.ErrorContext(ctx, "Failed to handle ledger event", "error", err, "event_id", event.ID.String())
				delivery.Nack(false, false)
				continue
			}
			delivery.Ack(false)
		}
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// isConnectionError reports whether a dial error is worth retrying.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var amqpErr *amqp091.Error
	if errors.As(err, &amqpErr) {
		return amqpErr.Recover
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection refused", "connection reset", "connection closed", "eof", "i/o timeout", "no such host"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
