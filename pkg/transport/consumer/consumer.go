// Package consumer receives backend form events from RabbitMQ
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Koyo-os/form-studio/internal/entity"
	"github.com/Koyo-os/form-studio/pkg/config"
	"github.com/Koyo-os/form-studio/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	// EXCHANGE_TYPE routes messages to queues on an exact routing key match
	EXCHANGE_TYPE = "direct"

	DEFAULT_RECONNECT_DELAY = 5 * time.Second
)

var ErrOutputFull = errors.New("output channel is full")

type binding struct {
	exchange   string
	routingKey string
}

// Consumer reads entity.Event messages from the request queue and hands
// them to a channel. It reconnects and rebinds on connection loss.
type Consumer struct {
	conn        *amqp.Connection
	channel     *amqp.Channel
	logger      *logger.Logger
	cfg         *config.Config
	bindings    []binding
	mu          sync.RWMutex
	isConnected bool
}

func Init(cfg *config.Config, logger *logger.Logger, conn *amqp.Connection) (*Consumer, error) {
	if cfg == nil || logger == nil || conn == nil {
		return nil, fmt.Errorf("invalid parameters: cfg, logger, and conn cannot be nil")
	}

	consumer := &Consumer{
		conn:        conn,
		logger:      logger,
		cfg:         cfg,
		isConnected: true,
	}

	if err := consumer.initializeChannel(); err != nil {
		return nil, fmt.Errorf("failed to initialize channel: %w", err)
	}

	if err := consumer.declareExchange(cfg.Exchange.Request); err != nil {
		consumer.cleanup()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return consumer, nil
}

func (c *Consumer) initializeChannel() error {
	channel, err := c.conn.Channel()
	if err != nil {
		c.logger.Error("failed to open channel", zap.Error(err))
		return err
	}

	c.channel = channel
	return nil
}

func (c *Consumer) declareExchange(exchangeName string) error {
	if err := c.channel.ExchangeDeclare(
		exchangeName,
		EXCHANGE_TYPE,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,   // arguments
	); err != nil {
		c.logger.Error("failed to declare exchange",
			zap.String("exchange", exchangeName),
			zap.Error(err))
		return err
	}

	return nil
}

// Subscribe declares the request queue and binds it to exchange with routingKey.
// Bindings are replayed after a reconnect.
func (c *Consumer) Subscribe(exchange, routingKey string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isConnected {
		return fmt.Errorf("consumer is not connected")
	}

	b := binding{exchange: exchange, routingKey: routingKey}
	if err := c.bind(b); err != nil {
		return err
	}

	c.bindings = append(c.bindings, b)
	return nil
}

func (c *Consumer) bind(b binding) error {
	queueName := c.cfg.Queue.Request

	if _, err := c.channel.QueueDeclare(
		queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		c.logger.Error("failed to declare queue",
			zap.String("queue", queueName),
			zap.Error(err))
		return fmt.Errorf("failed to declare queue %s: %w", queueName, err)
	}

	if err := c.channel.QueueBind(
		queueName,
		b.routingKey,
		b.exchange,
		false, // noWait
		nil,
	); err != nil {
		c.logger.Error("failed to bind queue to exchange",
			zap.String("queue", queueName),
			zap.String("exchange", b.exchange),
			zap.String("routing_key", b.routingKey),
			zap.Error(err))
		return fmt.Errorf("failed to bind queue %s to exchange %s: %w", queueName, b.exchange, err)
	}

	return nil
}

func (c *Consumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.isConnected = false

	var errs []error

	if c.channel != nil {
		if err := c.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			c.logger.Error("error closing channel", zap.Error(err))
			errs = append(errs, fmt.Errorf("channel close error: %w", err))
		}
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			c.logger.Error("error closing connection", zap.Error(err))
			errs = append(errs, fmt.Errorf("connection close error: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (c *Consumer) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.isConnected && c.conn != nil && !c.conn.IsClosed()
}

// ConsumeMessages delivers events to outputChan until ctx is done,
// reconnecting whenever the broker connection drops
func (c *Consumer) ConsumeMessages(ctx context.Context, outputChan chan<- entity.Event) {
	if outputChan == nil {
		c.logger.Error("output channel cannot be nil")
		return
	}

	for ctx.Err() == nil {
		if !c.IsHealthy() {
			c.logger.Warn("connection is unhealthy, attempting to reconnect...")
			if err := c.reconnect(); err != nil {
				c.logger.Error("failed to reconnect", zap.Error(err))
				sleep(ctx, DEFAULT_RECONNECT_DELAY)
				continue
			}
		}

		if err := c.startConsuming(ctx, outputChan); err != nil && ctx.Err() == nil {
			c.logger.Error("consuming stopped with error", zap.Error(err))
			sleep(ctx, DEFAULT_RECONNECT_DELAY)
		}
	}

	c.logger.Info("consumer stopped")
}

func (c *Consumer) startConsuming(ctx context.Context, outputChan chan<- entity.Event) error {
	c.mu.RLock()
	channel := c.channel
	c.mu.RUnlock()

	msgs, err := channel.ConsumeWithContext(ctx,
		c.cfg.Queue.Request,
		"",    // consumer identifier
		true,  // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("successfully connected to RabbitMQ, waiting for messages...")

	for msg := range msgs {
		if err := c.processMessage(msg.Body, outputChan); err != nil {
			c.logger.Error("failed to process message", zap.Error(err))
		}
	}

	return fmt.Errorf("message channel closed")
}

func (c *Consumer) processMessage(body []byte, outputChan chan<- entity.Event) error {
	event := new(entity.Event)
	if err := json.Unmarshal(body, event); err != nil {
		c.logger.Error("failed to unmarshal event",
			zap.Error(err),
			zap.ByteString("body", body))
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}

	if err := event.Validate(); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}

	c.logger.Debug("received new event",
		zap.String("event_id", event.ID),
		zap.String("routing_key", event.Type),
		zap.Time("timestamp", event.Timestamp))

	select {
	case outputChan <- *event:
		return nil
	default:
		c.logger.Warn("output channel is full, dropping message",
			zap.String("event_id", event.ID))
		return ErrOutputFull
	}
}

// reconnect re-dials the broker and replays exchange and queue bindings
func (c *Consumer) reconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanup()

	conn, err := amqp.Dial(c.cfg.Urls.Rabbitmq)
	if err != nil {
		return fmt.Errorf("failed to dial RabbitMQ: %w", err)
	}
	c.conn = conn

	if err = c.initializeChannel(); err != nil {
		c.cleanup()
		return err
	}

	if err = c.declareExchange(c.cfg.Exchange.Request); err != nil {
		c.cleanup()
		return err
	}

	for _, b := range c.bindings {
		if err = c.bind(b); err != nil {
			c.cleanup()
			return err
		}
	}

	c.isConnected = true
	c.logger.Info("successfully reconnected to RabbitMQ")
	return nil
}

// cleanup closes the connection and channel, callers hold mu or own c exclusively
func (c *Consumer) cleanup() {
	c.isConnected = false

	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
